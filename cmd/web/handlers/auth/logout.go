package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	webauth "thirdcoast.systems/lessonstream/cmd/web/auth"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
)

// HandleLogout drops the session cookie. It succeeds without a session.
// Route: POST /api/auth/logout
func HandleLogout(sm *webauth.SessionManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		if u := common.CurrentUser(c); u != nil {
			slog.Info("user logged out", "user_id", u.ID)
		}
		if err := sm.ClearSession(c.Response().Writer, c.Request()); err != nil {
			return common.Error(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
