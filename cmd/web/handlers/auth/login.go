package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	webauth "thirdcoast.systems/lessonstream/cmd/web/auth"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/user"
)

// HandleLogin authenticates by username or email and starts a session.
// Route: POST /api/auth/login
func HandleLogin(sm *webauth.SessionManager, users *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var creds user.Credentials
		if err := common.Bind(c, &creds); err != nil {
			return err
		}

		u, err := users.Authenticate(c.Request().Context(), creds)
		if err != nil {
			return common.Error(c, err)
		}

		if err := sm.SaveSession(c.Response().Writer, c.Request(), u); err != nil {
			slog.Error("failed to save session", "error", err, "user_id", u.ID)
			return common.ErrInternal("failed to start session")
		}
		slog.Info("user logged in", "user_id", u.ID, "role", u.Role)
		return c.JSON(http.StatusOK, u)
	}
}
