package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

type fakeVideos map[uuid.UUID]int

func (f fakeVideos) Duration(_ context.Context, id uuid.UUID) (int, error) {
	d, ok := f[id]
	if !ok {
		return 0, apperr.NotFound("video.find", "video %s not found", id)
	}
	return d, nil
}

// clock hands out strictly increasing times.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestEngine(videos fakeVideos) (*Engine, *MemoryStore) {
	store := NewMemoryStore()
	e := NewEngine(store, videos)
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	e.now = c.now
	store.now = c.now
	return e, store
}

func TestUpdateProgress_PositionCompletionIsSticky(t *testing.T) {
	user, video := uuid.New(), uuid.New()
	e, _ := newTestEngine(fakeVideos{video: 200})
	ctx := context.Background()

	rec, err := e.UpdateProgress(ctx, user, video, Update{LastPosition: ptr(190)})
	require.NoError(t, err)
	require.True(t, rec.Completed)
	require.NotNil(t, rec.CompletedAt)
	first := *rec.CompletedAt

	rec, err = e.UpdateProgress(ctx, user, video, Update{LastPosition: ptr(5)})
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.Equal(t, 5, rec.LastPosition)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, first, *rec.CompletedAt)

	rec, err = e.UpdateProgress(ctx, user, video, Update{Completed: ptr(false), Progress: ptr(10.0)})
	require.NoError(t, err)
	assert.True(t, rec.Completed, "explicit false never un-completes")
	assert.Equal(t, 10.0, rec.Progress)
	assert.Equal(t, first, *rec.CompletedAt)
}

func TestMarkCompleted_OverridesPriorState(t *testing.T) {
	user, video := uuid.New(), uuid.New()
	e, _ := newTestEngine(fakeVideos{video: 300})
	ctx := context.Background()

	rec, err := e.MarkCompleted(ctx, user, video)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rec.Progress)
	assert.Equal(t, 300, rec.LastPosition)
	assert.True(t, rec.Completed)
	first := *rec.CompletedAt

	_, err = e.UpdateProgress(ctx, user, video, Update{LastPosition: ptr(12), Progress: ptr(4.0)})
	require.NoError(t, err)

	rec, err = e.MarkCompleted(ctx, user, video)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rec.Progress)
	assert.Equal(t, 300, rec.LastPosition)
	assert.True(t, rec.Completed)
	assert.True(t, rec.CompletedAt.After(first), "mark completed restamps the completion time")
}

func TestUpdateProgress_DerivationEquivalence(t *testing.T) {
	ctx := context.Background()
	video := uuid.New()
	e, _ := newTestEngine(fakeVideos{video: 1000})

	byProgress, err := e.UpdateProgress(ctx, uuid.New(), video, Update{Progress: ptr(95.0)})
	require.NoError(t, err)
	byPosition, err := e.UpdateProgress(ctx, uuid.New(), video, Update{LastPosition: ptr(950)})
	require.NoError(t, err)
	byFlag, err := e.UpdateProgress(ctx, uuid.New(), video, Update{Completed: ptr(true)})
	require.NoError(t, err)

	for _, r := range []*Record{byProgress, byPosition, byFlag} {
		assert.True(t, r.Completed)
		assert.NotNil(t, r.CompletedAt)
	}

	below, err := e.UpdateProgress(ctx, uuid.New(), video, Update{Progress: ptr(94.9), LastPosition: ptr(949)})
	require.NoError(t, err)
	assert.False(t, below.Completed)
	assert.Nil(t, below.CompletedAt)
}

func TestUpdateProgress_UnknownDurationNeverCompletesByPosition(t *testing.T) {
	video := uuid.New()
	e, _ := newTestEngine(fakeVideos{video: 0})

	rec, err := e.UpdateProgress(context.Background(), uuid.New(), video, Update{LastPosition: ptr(10_000)})
	require.NoError(t, err)
	assert.False(t, rec.Completed)
}

func TestUpdateProgress_IdempotentCompletion(t *testing.T) {
	user, video := uuid.New(), uuid.New()
	e, _ := newTestEngine(fakeVideos{video: 100})
	ctx := context.Background()

	first, err := e.UpdateProgress(ctx, user, video, Update{Completed: ptr(true)})
	require.NoError(t, err)
	second, err := e.UpdateProgress(ctx, user, video, Update{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpdateProgress_Errors(t *testing.T) {
	video := uuid.New()
	e, _ := newTestEngine(fakeVideos{video: 100})
	ctx := context.Background()

	_, err := e.UpdateProgress(ctx, uuid.New(), uuid.New(), Update{Progress: ptr(10.0)})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.UpdateProgress(ctx, uuid.New(), video, Update{Progress: ptr(101.0)})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.UpdateProgress(ctx, uuid.New(), video, Update{LastPosition: ptr(-1)})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.MarkCompleted(ctx, uuid.New(), uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateProgress_ConcurrentCompletionNeverRegresses(t *testing.T) {
	user, video := uuid.New(), uuid.New()
	e, store := newTestEngine(fakeVideos{video: 200})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := Update{LastPosition: ptr(i)}
			if i == 25 {
				u = Update{Completed: ptr(true)}
			}
			_, err := e.UpdateProgress(ctx, user, video, u)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := store.FindByKey(ctx, user, video)
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.NotNil(t, rec.CompletedAt)

	all, err := store.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetProgress_LazilyCreatesZeroRecord(t *testing.T) {
	user, video := uuid.New(), uuid.New()
	e, store := newTestEngine(fakeVideos{video: 100})
	ctx := context.Background()

	rec, err := e.GetProgress(ctx, user, video)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Progress)
	assert.Equal(t, 0, rec.LastPosition)
	assert.False(t, rec.Completed)

	again, err := e.GetProgress(ctx, user, video)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)

	stored, err := store.FindByKey(ctx, user, video)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)

	_, err = e.GetProgress(ctx, user, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompletionStats(t *testing.T) {
	video := uuid.New()
	e, _ := newTestEngine(fakeVideos{video: 100})
	ctx := context.Background()

	s, err := e.CompletionStats(ctx, video)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, s)

	for i := range 4 {
		u := Update{Progress: ptr(10.0)}
		if i == 0 {
			u = Update{Completed: ptr(true)}
		}
		_, err := e.UpdateProgress(ctx, uuid.New(), video, u)
		require.NoError(t, err)
	}

	s, err = e.CompletionStats(ctx, video)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalViews)
	assert.Equal(t, 1, s.CompletedViews)
	assert.InDelta(t, 25.0, s.CompletionRate, 1e-9)
}

func TestCourseProgress(t *testing.T) {
	user := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	e, _ := newTestEngine(fakeVideos{a: 100, b: 100, c: 100})
	ctx := context.Background()

	_, err := e.MarkCompleted(ctx, user, a)
	require.NoError(t, err)
	_, err = e.UpdateProgress(ctx, user, b, Update{Progress: ptr(50.0)})
	require.NoError(t, err)

	sum, err := e.CourseProgress(ctx, user, []uuid.UUID{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, CourseSummary{TotalVideos: 3, CompletedVideos: 1, Progress: 50}, sum)

	empty, err := e.CourseProgress(ctx, user, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Progress)

	list, err := e.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemoryStore_CreateConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user, video := uuid.New(), uuid.New()

	_, err := s.Create(ctx, user, video, Fields{})
	require.NoError(t, err)
	_, err = s.Create(ctx, user, video, Fields{})
	require.ErrorIs(t, err, apperr.ErrConflict)
}
