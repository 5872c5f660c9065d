package video_api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/course"
	"thirdcoast.systems/lessonstream/internal/video"
)

// Route: GET /api/videos
func HandleIndex(catalog *video.Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		assets, err := catalog.List(c.Request().Context())
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, newAssetViews(assets))
	}
}

// HandleByCourse lists a course's videos in sort order. Unknown courses
// are a 404 rather than an empty list.
// Route: GET /api/videos/course/:courseId
func HandleByCourse(catalog *video.Catalog, courses course.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		courseID, err := common.RequireUUIDParam(c, "courseId")
		if err != nil {
			return err
		}
		ctx := c.Request().Context()

		ok, err := courses.Exists(ctx, courseID)
		if err != nil {
			return common.Error(c, err)
		}
		if !ok {
			return common.ErrNotFound("course not found")
		}

		assets, err := catalog.ListByCourse(ctx, courseID)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, newAssetViews(assets))
	}
}
