// package course_api provides course API handlers.
package course_api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/course"
)

// Route: GET /api/courses
func HandleIndex(courses course.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := courses.List(c.Request().Context())
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}
