package video_api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/video"
)

// Route: GET /api/videos/:id
func HandleGet(catalog *video.Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		asset, err := catalog.Get(c.Request().Context(), id)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, newAssetView(asset, true))
	}
}

// HandleUpdate edits title, description and sort order.
// Route: PUT /api/videos/:id
func HandleUpdate(catalog *video.Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		var patch video.DetailsPatch
		if err := common.Bind(c, &patch); err != nil {
			return err
		}
		asset, err := catalog.UpdateDetails(c.Request().Context(), id, patch)
		if err != nil {
			return common.Error(c, err)
		}
		return c.JSON(http.StatusOK, newAssetView(asset, true))
	}
}

// HandleDelete hides the video and aborts its encode if one is running.
// Files stay on disk.
// Route: DELETE /api/videos/:id
func HandleDelete(catalog *video.Catalog) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		if err := catalog.Delete(c.Request().Context(), id); err != nil {
			return common.Error(c, err)
		}
		slog.Info("video deleted", "video_id", id)
		return c.NoContent(http.StatusNoContent)
	}
}
