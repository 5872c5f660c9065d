package video

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

// Canceller aborts an in-flight transcode. *Pipeline implements it.
type Canceller interface {
	Cancel(id uuid.UUID) bool
}

// Catalog serves read and edit operations on active assets.
type Catalog struct {
	assets   AssetStore
	tasks    Canceller
	validate *validator.Validate
}

func NewCatalog(assets AssetStore, tasks Canceller) *Catalog {
	return &Catalog{assets: assets, tasks: tasks, validate: validator.New()}
}

func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return c.assets.FindByID(ctx, id)
}

// List returns every active asset ordered by sort order.
func (c *Catalog) List(ctx context.Context) ([]*Asset, error) {
	return c.assets.ListAll(ctx)
}

func (c *Catalog) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*Asset, error) {
	return c.assets.ListByCourse(ctx, courseID)
}

// UpdateDetails edits title, description and sort order. Status and paths
// are owned by the pipeline and cannot be changed here.
func (c *Catalog) UpdateDetails(ctx context.Context, id uuid.UUID, patch DetailsPatch) (*Asset, error) {
	if err := c.validate.Struct(patch); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "video.update", err)
	}
	return c.assets.UpdateDetails(ctx, id, patch)
}

// Delete soft-deletes an asset and aborts its transcode if one is running.
func (c *Catalog) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.assets.SoftDelete(ctx, id); err != nil {
		return err
	}
	if c.tasks != nil && c.tasks.Cancel(id) {
		slog.Info("cancelled transcode of deleted video", "video_id", id)
	}
	return nil
}
