package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	webauth "thirdcoast.systems/lessonstream/cmd/web/auth"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/user"
)

// HandleRegister creates an account and signs it in. The first account on
// an instance becomes an admin.
// Route: POST /api/auth/register
func HandleRegister(sm *webauth.SessionManager, users *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var reg user.Registration
		if err := common.Bind(c, &reg); err != nil {
			return err
		}

		u, err := users.Register(c.Request().Context(), reg)
		if err != nil {
			return common.Error(c, err)
		}
		slog.Info("user registered", "user_id", u.ID, "role", u.Role)

		if err := sm.SaveSession(c.Response().Writer, c.Request(), u); err != nil {
			slog.Error("failed to save session", "error", err, "user_id", u.ID)
			return common.ErrInternal("failed to start session")
		}
		return c.JSON(http.StatusCreated, u)
	}
}
