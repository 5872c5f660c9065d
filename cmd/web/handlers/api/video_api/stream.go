package video_api

import (
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/api/fileserver"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"
	"thirdcoast.systems/lessonstream/internal/video"
)

// SegmentBaseURL is written into playlists before each segment name so a
// player resolves segments relative to the stream route.
const SegmentBaseURL = "segment/"

// HandleStream serves the HLS playlist of a ready video.
// Route: GET /api/videos/:id/stream
func HandleStream(catalog *video.Catalog, fs *fileserver.FileServer) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		path, err := catalog.StreamManifest(c.Request().Context(), id)
		if err != nil {
			return common.Error(c, err)
		}
		return fs.ServeDiskFileWithCache(c, path, fileserver.ContentType(path), fileserver.CachePlaylist, fileserver.ETagWeakStat)
	}
}

// HandleSegment serves one MPEG-TS segment. Range requests are honoured.
// Route: GET /api/videos/:id/segment/:segmentName
func HandleSegment(catalog *video.Catalog, fs *fileserver.FileServer) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		path, err := catalog.SegmentPath(c.Request().Context(), id, c.Param("segmentName"))
		if err != nil {
			return common.Error(c, err)
		}
		return fs.ServeDiskFileWithCache(c, path, fileserver.ContentType(path), fileserver.CacheSegment, fileserver.ETagWeakStat)
	}
}

// Route: GET /api/videos/:id/thumbnail
func HandleThumbnail(catalog *video.Catalog, fs *fileserver.FileServer) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}
		path, err := catalog.ThumbnailPath(c.Request().Context(), id)
		if err != nil {
			return common.Error(c, err)
		}
		return fs.ServeDiskFileWithCache(c, path, fileserver.ContentType(path), fileserver.CacheThumbnail, fileserver.ETagStrongSHA256)
	}
}
