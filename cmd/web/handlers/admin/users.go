// package admin provides the account management handlers.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/user"
)

// Route: GET /api/admin/users
func HandleUsers(users *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := users.List(c.Request().Context())
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

// HandleUserRole promotes or demotes an account. The change reaches the
// target's session on their next request.
// Route: PUT /api/admin/users/:id/role
func HandleUserRole(users *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := common.RequireSessionUser(c)
		if err != nil {
			return err
		}
		targetID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		var body struct {
			Role user.Role `json:"role"`
		}
		if err := common.Bind(c, &body); err != nil {
			return err
		}

		updated, err := users.SetRole(c.Request().Context(), actor.ID, targetID, body.Role)
		if err != nil {
			return common.Error(c, err)
		}
		slog.Info("user role changed", "user_id", targetID, "role", updated.Role, "by", actor.ID)
		return c.JSON(http.StatusOK, updated)
	}
}

// HandleUserEnabled enables or disables an account.
// Route: PUT /api/admin/users/:id/enabled
func HandleUserEnabled(users *user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := common.RequireSessionUser(c)
		if err != nil {
			return err
		}
		targetID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		var body struct {
			Enabled *bool `json:"enabled"`
		}
		if err := common.Bind(c, &body); err != nil {
			return err
		}
		if body.Enabled == nil {
			return common.ErrBadRequest("enabled is required")
		}

		updated, err := users.SetEnabled(c.Request().Context(), actor.ID, targetID, *body.Enabled)
		if err != nil {
			return common.Error(c, err)
		}
		slog.Info("user enabled changed", "user_id", targetID, "enabled", updated.Enabled, "by", actor.ID)
		return c.JSON(http.StatusOK, updated)
	}
}
