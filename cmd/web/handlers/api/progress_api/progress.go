// package progress_api provides the per-user viewing progress handlers.
package progress_api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/progress"
)

// HandleIndex lists the caller's progress across all videos.
// Route: GET /api/video-progress
func HandleIndex(engine *progress.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := common.RequireSessionUser(c)
		if err != nil {
			return err
		}
		recs, err := engine.ListByUser(c.Request().Context(), u.ID)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, recs)
	}
}

// HandleGet returns the caller's progress on one video, creating an empty
// record on first access.
// Route: GET /api/video-progress/:videoId
func HandleGet(engine *progress.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := common.RequireSessionUser(c)
		if err != nil {
			return err
		}
		videoID, err := common.RequireUUIDParam(c, "videoId")
		if err != nil {
			return err
		}
		rec, err := engine.GetProgress(c.Request().Context(), u.ID, videoID)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, rec)
	}
}

// HandleUpdate records a progress report. Reports may arrive in any order;
// a completed record stays completed.
// Route: PUT /api/video-progress/:videoId
func HandleUpdate(engine *progress.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := common.RequireSessionUser(c)
		if err != nil {
			return err
		}
		videoID, err := common.RequireUUIDParam(c, "videoId")
		if err != nil {
			return err
		}
		var body progress.Update
		if err := common.Bind(c, &body); err != nil {
			return err
		}
		rec, err := engine.UpdateProgress(c.Request().Context(), u.ID, videoID, body)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, rec)
	}
}

// Route: POST /api/video-progress/:videoId/complete
func HandleComplete(engine *progress.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := common.RequireSessionUser(c)
		if err != nil {
			return err
		}
		videoID, err := common.RequireUUIDParam(c, "videoId")
		if err != nil {
			return err
		}
		rec, err := engine.MarkCompleted(c.Request().Context(), u.ID, videoID)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, rec)
	}
}

// HandleStats reports how many viewers finished a video.
// Route: GET /api/video-progress/:videoId/stats
func HandleStats(engine *progress.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoID, err := common.RequireUUIDParam(c, "videoId")
		if err != nil {
			return err
		}
		stats, err := engine.CompletionStats(c.Request().Context(), videoID)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}
