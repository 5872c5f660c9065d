package progress

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/metrics"
)

// createRetries bounds how often a lost create race is retried as an update.
const createRetries = 3

// Engine applies progress reports and answers progress queries.
type Engine struct {
	store    Store
	videos   Videos
	locks    *keyLock
	validate *validator.Validate
	now      func() time.Time
}

func NewEngine(store Store, videos Videos) *Engine {
	return &Engine{
		store:    store,
		videos:   videos,
		locks:    newKeyLock(),
		validate: validator.New(),
		now:      time.Now,
	}
}

// derivedCompletion reports whether an update completes a video of the given
// duration: an explicit flag, a progress at or over the threshold, or a
// position within the last five percent.
func derivedCompletion(u Update, duration int) bool {
	switch {
	case u.Completed != nil && *u.Completed:
		return true
	case u.Progress != nil && *u.Progress >= CompletionThreshold:
		return true
	case u.LastPosition != nil && duration > 0 &&
		float64(*u.LastPosition) >= float64(duration)*CompletionThreshold/100:
		return true
	}
	return false
}

// UpdateProgress records a progress report for (userID, videoID), creating
// the record on first report. A completed record is never un-completed.
func (e *Engine) UpdateProgress(ctx context.Context, userID, videoID uuid.UUID, u Update) (*Record, error) {
	if err := e.validate.Struct(u); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "progress.update", err)
	}
	duration, err := e.videos.Duration(ctx, videoID)
	if err != nil {
		return nil, err
	}
	completes := derivedCompletion(u, duration)

	unlock := e.locks.lock(userID, videoID)
	defer unlock()

	rec, wasCompleted, err := e.upsert(ctx, userID, videoID, func(prev *Record) (Fields, Patch) {
		now := e.now()
		f := Fields{}
		p := Patch{Progress: u.Progress, LastPosition: u.LastPosition}
		if u.Progress != nil {
			f.Progress = *u.Progress
		}
		if u.LastPosition != nil {
			f.LastPosition = *u.LastPosition
		}
		if completes {
			f.Completed = true
			f.CompletedAt = &now
			p.Completed = ptr(true)
			if prev != nil && !prev.Completed {
				p.CompletedAt = &now
			}
		}
		return f, p
	})
	if err != nil {
		return nil, err
	}

	metrics.ProgressUpdatesTotal.WithLabelValues("update").Inc()
	if rec.Completed && !wasCompleted {
		metrics.CompletionsTotal.Inc()
	}
	return rec, nil
}

// GetProgress returns the record for (userID, videoID), creating a zero
// record on first access.
func (e *Engine) GetProgress(ctx context.Context, userID, videoID uuid.UUID) (*Record, error) {
	rec, err := e.store.FindByKey(ctx, userID, videoID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if _, err := e.videos.Duration(ctx, videoID); err != nil {
		return nil, err
	}

	unlock := e.locks.lock(userID, videoID)
	defer unlock()

	rec, _, err = e.upsert(ctx, userID, videoID, func(*Record) (Fields, Patch) {
		return Fields{}, Patch{}
	})
	return rec, err
}

// MarkCompleted sets the record to fully watched and stamps a fresh
// completion time regardless of prior state.
func (e *Engine) MarkCompleted(ctx context.Context, userID, videoID uuid.UUID) (*Record, error) {
	duration, err := e.videos.Duration(ctx, videoID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(userID, videoID)
	defer unlock()

	rec, wasCompleted, err := e.upsert(ctx, userID, videoID, func(*Record) (Fields, Patch) {
		now := e.now()
		full := 100.0
		return Fields{Progress: full, LastPosition: duration, Completed: true, CompletedAt: &now},
			Patch{Progress: &full, LastPosition: &duration, Completed: ptr(true), CompletedAt: &now, OverrideCompletedAt: true}
	})
	if err != nil {
		return nil, err
	}

	metrics.ProgressUpdatesTotal.WithLabelValues("complete").Inc()
	if !wasCompleted {
		metrics.CompletionsTotal.Inc()
	}
	return rec, nil
}

// CompletionStats counts records and completions for a video. Unknown
// videos simply have no records.
func (e *Engine) CompletionStats(ctx context.Context, videoID uuid.UUID) (Stats, error) {
	recs, err := e.store.ListByVideo(ctx, videoID)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{TotalViews: len(recs)}
	for _, r := range recs {
		if r.Completed {
			s.CompletedViews++
		}
	}
	if s.TotalViews > 0 {
		s.CompletionRate = float64(s.CompletedViews) / float64(s.TotalViews) * 100
	}
	return s, nil
}

func (e *Engine) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error) {
	return e.store.ListByUser(ctx, userID)
}

// CourseProgress summarises a user's records over the given videos.
func (e *Engine) CourseProgress(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) (CourseSummary, error) {
	sum := CourseSummary{TotalVideos: len(videoIDs)}
	if len(videoIDs) == 0 {
		return sum, nil
	}
	recs, err := e.store.ListByUser(ctx, userID)
	if err != nil {
		return sum, err
	}
	byVideo := make(map[uuid.UUID]*Record, len(recs))
	for _, r := range recs {
		byVideo[r.VideoID] = r
	}

	var total float64
	for _, id := range videoIDs {
		r, ok := byVideo[id]
		if !ok {
			continue
		}
		total += r.Progress
		if r.Completed {
			sum.CompletedVideos++
		}
	}
	sum.Progress = int(total / float64(len(videoIDs)))
	return sum, nil
}

// upsert runs build against the current record and either creates or
// patches it. The caller holds the key lock; a create that loses a race
// with another process is retried as an update. It also reports whether the
// record was already completed beforehand.
func (e *Engine) upsert(ctx context.Context, userID, videoID uuid.UUID, build func(prev *Record) (Fields, Patch)) (*Record, bool, error) {
	var (
		out          *Record
		wasCompleted bool
	)
	b := retry.WithMaxRetries(createRetries, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		prev, err := e.store.FindByKey(ctx, userID, videoID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			wasCompleted = false
			f, _ := build(nil)
			out, err = e.store.Create(ctx, userID, videoID, f)
			if errors.Is(err, apperr.ErrConflict) {
				return retry.RetryableError(err)
			}
			return err
		case err != nil:
			return err
		}

		wasCompleted = prev.Completed
		_, p := build(prev)
		if p == (Patch{}) {
			out = prev
			return nil
		}
		out, err = e.store.Update(ctx, prev.ID, p)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, wasCompleted, nil
}

func ptr[T any](v T) *T { return &v }
