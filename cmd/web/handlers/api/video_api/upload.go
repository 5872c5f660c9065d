package video_api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/video"
)

// HandleUpload ingests a multipart upload. The response is the asset in
// processing status; the HLS encode continues in the background.
// Route: POST /api/videos
func HandleUpload(p *video.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return common.ErrBadRequest("file is required")
		}

		courseID, err := uuid.Parse(strings.TrimSpace(c.FormValue("courseId")))
		if err != nil {
			return common.ErrBadRequest("invalid courseId")
		}
		meta := video.Metadata{
			CourseID: courseID,
			Title:    strings.TrimSpace(c.FormValue("title")),
		}
		if d := strings.TrimSpace(c.FormValue("description")); d != "" {
			meta.Description = &d
		}
		if raw := strings.TrimSpace(c.FormValue("sortOrder")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return common.ErrBadRequest("invalid sortOrder")
			}
			meta.SortOrder = &n
		}

		f, err := fh.Open()
		if err != nil {
			slog.Error("failed to open multipart file", "error", err, "filename", fh.Filename)
			return common.ErrInternal("failed to read upload")
		}
		defer f.Close()

		asset, err := p.Ingest(c.Request().Context(), video.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Body:     f,
		}, meta)
		if err != nil {
			return common.Error(c, err)
		}

		c.Response().Header().Set(echo.HeaderLocation, "/api/videos/"+asset.ID.String())
		return c.JSON(http.StatusCreated, newAssetView(asset, true))
	}
}
