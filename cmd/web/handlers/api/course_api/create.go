package course_api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/course"
)

// HandleCreate adds a course. Callers must be instructors or admins.
// Route: POST /api/courses
func HandleCreate(courses course.Store) echo.HandlerFunc {
	validate := validator.New()
	return func(c echo.Context) error {
		var in course.NewCourse
		if err := common.Bind(c, &in); err != nil {
			return err
		}
		in.Title = strings.TrimSpace(in.Title)
		if err := validate.Struct(in); err != nil {
			return common.Error(c, apperr.New(apperr.ErrValidation, "course.create", err))
		}

		created, err := courses.Create(c.Request().Context(), in)
		if err != nil {
			return common.Error(c, err)
		}
		slog.Info("course created", "course_id", created.ID, "title", created.Title)
		return c.JSON(http.StatusCreated, created)
	}
}
