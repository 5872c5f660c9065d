// package chapter_api serves the named start points within videos.
package chapter_api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/chapter"
)

// Route: GET /api/video-chapters
func HandleIndex(chapters *chapter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := chapters.List(c.Request().Context())
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

// Route: GET /api/video-chapters/:id
func HandleGet(chapters *chapter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		found, err := chapters.Get(c.Request().Context(), id)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, found)
	}
}

// HandleByVideo lists a video's chapters in playback order.
// Route: GET /api/video-chapters/video/:videoId
func HandleByVideo(chapters *chapter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoID, err := common.RequireUUIDParam(c, "videoId")
		if err != nil {
			return err
		}
		list, err := chapters.ListByVideo(c.Request().Context(), videoID)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

// HandleCreate adds a chapter to a video. Callers must be instructors or
// admins.
// Route: POST /api/video-chapters
func HandleCreate(chapters *chapter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in chapter.NewChapter
		if err := common.Bind(c, &in); err != nil {
			return err
		}
		in.Title = strings.TrimSpace(in.Title)

		created, err := chapters.Create(c.Request().Context(), in)
		if err != nil {
			return common.Error(c, err)
		}
		slog.Info("chapter created", "chapter_id", created.ID, "video_id", created.VideoID, "start", created.StartTime)
		return c.JSON(http.StatusCreated, created)
	}
}

// Route: PUT /api/video-chapters/:id
func HandleUpdate(chapters *chapter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		var patch chapter.Patch
		if err := common.Bind(c, &patch); err != nil {
			return err
		}
		if patch.Title != nil {
			t := strings.TrimSpace(*patch.Title)
			patch.Title = &t
		}
		updated, err := chapters.Update(c.Request().Context(), id, patch)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

// HandleDelete hides the chapter.
// Route: DELETE /api/video-chapters/:id
func HandleDelete(chapters *chapter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		if err := chapters.Delete(c.Request().Context(), id); err != nil {
			return common.Error(c, err)
		}
		slog.Info("chapter deleted", "chapter_id", id)
		return c.NoContent(http.StatusNoContent)
	}
}
