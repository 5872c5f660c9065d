// Package video owns video assets: ingestion of uploads, the background
// HLS transcode and its status state machine, the catalog and playback
// lookups.
package video

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Asset is a video's stored representation: the raw upload, its poster
// frame, the HLS playlist once encoded, and the processing status.
type Asset struct {
	ID               uuid.UUID
	CourseID         uuid.UUID
	Title            string
	Description      *string
	Duration         int // seconds, 0 when unknown
	OriginalFilename string
	FilePath         string
	ThumbnailPath    *string
	ManifestPath     *string // set iff Status is StatusReady
	Status           Status
	SortOrder        int
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewAsset carries the fields needed to create an asset. New assets always
// start in StatusProcessing.
type NewAsset struct {
	CourseID         uuid.UUID
	Title            string
	Description      *string
	Duration         int
	OriginalFilename string
	FilePath         string
	ThumbnailPath    *string
	SortOrder        int
}

// DetailsPatch updates descriptive fields. Nil fields are left untouched.
type DetailsPatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	SortOrder   *int    `json:"sortOrder" validate:"omitempty,min=0"`
}

// AssetStore persists assets. FindByID and the List methods only see active
// assets and return apperr.ErrNotFound for missing ones.
type AssetStore interface {
	Create(ctx context.Context, in NewAsset) (*Asset, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, patch DetailsPatch) (*Asset, error)
	// Transition moves an asset from one status to another, setting the
	// manifest path in the same write. It fails with apperr.ErrConflict if
	// the asset is not currently in from, and with *TransitionError if
	// from -> to is not a legal transition. Inactive assets still transition.
	Transition(ctx context.Context, id uuid.UUID, from, to Status, manifestPath *string) (*Asset, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]*Asset, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*Asset, error)
	// ListByStatus includes inactive assets.
	ListByStatus(ctx context.Context, status Status) ([]*Asset, error)
}

// CourseChecker reports whether a course exists.
type CourseChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
