package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
)

// HandleMe returns the signed-in account.
// Route: GET /api/auth/me
func HandleMe() echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := common.RequireSessionUser(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, u)
	}
}
