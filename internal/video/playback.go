package video

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

// SegmentExt is the only file extension served from an asset's HLS folder.
const SegmentExt = ".ts"

// StreamManifest returns the playlist path of a ready asset.
func (c *Catalog) StreamManifest(ctx context.Context, id uuid.UUID) (string, error) {
	a, err := c.assets.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if a.Status != StatusReady || a.ManifestPath == nil {
		return "", apperr.NotFound("video.stream", "video %s is not ready for streaming", id)
	}
	if err := fileExists(*a.ManifestPath); err != nil {
		return "", err
	}
	return *a.ManifestPath, nil
}

// SegmentPath resolves name inside the asset's playlist directory. Names
// must be bare file names ending in .ts.
func (c *Catalog) SegmentPath(ctx context.Context, id uuid.UUID, name string) (string, error) {
	if err := validSegmentName(name); err != nil {
		return "", err
	}
	manifest, err := c.StreamManifest(ctx, id)
	if err != nil {
		return "", err
	}
	path := filepath.Join(filepath.Dir(manifest), name)
	if err := fileExists(path); err != nil {
		return "", err
	}
	return path, nil
}

// ThumbnailPath returns the poster image of an active asset.
func (c *Catalog) ThumbnailPath(ctx context.Context, id uuid.UUID) (string, error) {
	a, err := c.assets.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if a.ThumbnailPath == nil {
		return "", apperr.NotFound("video.thumbnail", "video %s has no thumbnail", id)
	}
	if err := fileExists(*a.ThumbnailPath); err != nil {
		return "", err
	}
	return *a.ThumbnailPath, nil
}

func validSegmentName(name string) error {
	switch {
	case name == "",
		strings.ContainsAny(name, `/\`),
		strings.Contains(name, ".."),
		filepath.Base(name) != name:
		return apperr.Validation("video.segment", "invalid segment name %q", name)
	case !strings.EqualFold(filepath.Ext(name), SegmentExt):
		return apperr.Validation("video.segment", "segment %q is not a transport stream", name)
	}
	return nil
}

func fileExists(path string) error {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && st.IsDir()) {
		return apperr.NotFound("video.file", "%s not found", filepath.Base(path))
	}
	if err != nil {
		return apperr.IO("video.file", err)
	}
	return nil
}
