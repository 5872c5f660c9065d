// Package progress tracks per-user watch progress and completion of videos.
//
// Completion is monotonic: once a record is completed it stays completed and
// keeps its first completion time, unless MarkCompleted stamps a new one.
package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CompletionThreshold is the watched percentage at which a video counts as
// completed.
const CompletionThreshold = 95.0

// Record is one user's progress through one video.
type Record struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	VideoID      uuid.UUID  `json:"videoId"`
	Progress     float64    `json:"progress"`
	LastPosition int        `json:"lastPosition"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Update is a client progress report. Absent fields are left unchanged.
type Update struct {
	LastPosition *int     `json:"lastPosition" validate:"omitempty,min=0"`
	Progress     *float64 `json:"progress" validate:"omitempty,min=0,max=100"`
	Completed    *bool    `json:"completed"`
}

// Fields is the full initial state of a new record.
type Fields struct {
	Progress     float64
	LastPosition int
	Completed    bool
	CompletedAt  *time.Time
}

// Patch is a partial write. Stores merge completion monotonically: Completed
// can only turn a record on, and CompletedAt only fills an empty slot unless
// OverrideCompletedAt is set.
type Patch struct {
	Progress            *float64
	LastPosition        *int
	Completed           *bool
	CompletedAt         *time.Time
	OverrideCompletedAt bool
}

// Stats summarises completion of one video across users.
type Stats struct {
	TotalViews     int     `json:"totalViews"`
	CompletedViews int     `json:"completedViews"`
	CompletionRate float64 `json:"completionRate"` // percent, 0 when TotalViews is 0
}

// CourseSummary aggregates a user's progress over a course's videos.
type CourseSummary struct {
	TotalVideos     int `json:"totalVideos"`
	CompletedVideos int `json:"completedVideos"`
	Progress        int `json:"progress"` // floor of the mean progress, videos without a record count as 0
}

// Store persists records. Each (user, video) pair has at most one record.
type Store interface {
	// FindByKey returns apperr.ErrNotFound when no record exists.
	FindByKey(ctx context.Context, userID, videoID uuid.UUID) (*Record, error)
	// Create returns apperr.ErrConflict when a record for the key exists.
	Create(ctx context.Context, userID, videoID uuid.UUID, f Fields) (*Record, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Record, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error)
	ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*Record, error)
}

// Videos resolves a video's duration in seconds. It returns
// apperr.ErrNotFound for unknown videos.
type Videos interface {
	Duration(ctx context.Context, videoID uuid.UUID) (int, error)
}

// VideoLookupFunc adapts a function to Videos.
type VideoLookupFunc func(ctx context.Context, videoID uuid.UUID) (int, error)

func (f VideoLookupFunc) Duration(ctx context.Context, videoID uuid.UUID) (int, error) {
	return f(ctx, videoID)
}
