package course_api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/course"
	"thirdcoast.systems/lessonstream/internal/progress"
	"thirdcoast.systems/lessonstream/internal/video"
)

type courseDetail struct {
	*course.Course
	VideoCount int                     `json:"videoCount"`
	Progress   *progress.CourseSummary `json:"progress,omitempty"`
}

// HandleGet returns a course with the caller's progress through it.
// Route: GET /api/courses/:id
func HandleGet(courses course.Store, catalog *video.Catalog, engine *progress.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		courseID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		ctx := c.Request().Context()

		found, err := courses.FindByID(ctx, courseID)
		if err != nil {
			return common.Error(c, err)
		}
		assets, err := catalog.ListByCourse(ctx, courseID)
		if err != nil {
			return common.Error(c, err)
		}
		resp := courseDetail{Course: found, VideoCount: len(assets)}

		if u := common.CurrentUser(c); u != nil {
			ids := make([]uuid.UUID, len(assets))
			for i, a := range assets {
				ids[i] = a.ID
			}
			summary, err := engine.CourseProgress(ctx, u.ID, ids)
			if err != nil {
				return common.Error(c, err)
			}
			resp.Progress = &summary
		}
		return c.JSON(http.StatusOK, resp)
	}
}
