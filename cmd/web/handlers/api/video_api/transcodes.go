package video_api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/video"
)

// HandleCancel aborts a running transcode. The video ends in error status.
// Route: POST /api/videos/:id/cancel
func HandleCancel(p *video.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		if !p.Cancel(id) {
			return common.ErrNotFound("no transcode running for this video")
		}
		slog.Info("transcode cancelled by request", "video_id", id)
		return c.JSON(http.StatusAccepted, map[string]any{"id": id, "cancelled": true})
	}
}

// HandleTranscodes lists in-flight transcodes.
// Route: GET /api/videos/transcodes
func HandleTranscodes(p *video.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, p.Tasks())
	}
}
