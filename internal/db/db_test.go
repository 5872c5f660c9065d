package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/chapter"
	"thirdcoast.systems/lessonstream/internal/course"
	"thirdcoast.systems/lessonstream/internal/progress"
	"thirdcoast.systems/lessonstream/internal/video"
)

func TestEmbeddedMigrations(t *testing.T) {
	goose.SetBaseFS(embedMigrations)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	require.NoError(t, err)
	require.Len(t, migrations, 5)
	for i, m := range migrations {
		assert.Equal(t, int64(i+1), m.Version)
	}
}

func TestPgErrorClassification(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(nil))
}

func TestToAsset(t *testing.T) {
	id := uuid.New()
	manifest := "/hls/x/playlist.m3u8"
	now := time.Now()

	a := toAsset(&VideoAsset{
		ID:           UUID(id),
		CourseID:     UUID(uuid.Nil),
		Title:        "t",
		Duration:     42,
		ManifestPath: Text(&manifest),
		Status:       VideoStatusReady,
		SortOrder:    2,
		Active:       true,
		CreatedAt:    pgtype.Timestamptz{Time: now, Valid: true},
	})
	assert.Equal(t, id, a.ID)
	assert.Equal(t, video.StatusReady, a.Status)
	assert.Equal(t, 42, a.Duration)
	assert.Nil(t, a.Description)
	require.NotNil(t, a.ManifestPath)
	assert.Equal(t, manifest, *a.ManifestPath)
	assert.Equal(t, now, a.CreatedAt)
}

func TestToChapter(t *testing.T) {
	id, vid := uuid.New(), uuid.New()
	c := toChapter(&VideoChapter{
		ID:        UUID(id),
		VideoID:   UUID(vid),
		Title:     "Intro",
		StartTime: 90,
		SortOrder: 1,
		Active:    true,
	})
	assert.Equal(t, id, c.ID)
	assert.Equal(t, vid, c.VideoID)
	assert.Equal(t, 90, c.StartTime)
	assert.Equal(t, 1, c.SortOrder)
	assert.Nil(t, c.Description)
}

func TestNullableHelpers(t *testing.T) {
	assert.False(t, Text(nil).Valid)
	assert.False(t, Int4(nil).Valid)
	assert.False(t, Float8(nil).Valid)
	assert.False(t, Bool(nil).Valid)
	assert.False(t, Timestamptz(nil).Valid)
	assert.Nil(t, NilTimePtr(pgtype.Timestamptz{}))
	assert.Equal(t, uuid.Nil, FromUUID(pgtype.UUID{}))

	n := 7
	assert.Equal(t, pgtype.Int4{Int32: 7, Valid: true}, Int4(&n))
}

// testPool connects to LESSONSTREAM_TEST_DSN and migrates it. Tests using it
// are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("LESSONSTREAM_TEST_DSN")
	if dsn == "" || testing.Short() {
		t.Skip("LESSONSTREAM_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, NewDatabaseConnection(pool).Migrate(ctx))
	return pool
}

func TestPostgres_ProgressCompletionIsMonotonic(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	c, err := NewCourseStore(pool).Create(ctx, course.NewCourse{Title: "db test"})
	require.NoError(t, err)
	a, err := NewAssetStore(pool).Create(ctx, video.NewAsset{CourseID: c.ID, Title: "v", FilePath: "/tmp/x", OriginalFilename: "x.mp4", Duration: 100})
	require.NoError(t, err)

	var pid pgtype.UUID
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (id, user_name, email, password) VALUES ($1, $2, $3, 'x') RETURNING id`,
		UUID(uuid.New()), "u"+uuid.NewString()[:8], uuid.NewString()+"@example.com",
	).Scan(&pid))
	userID := FromUUID(pid)

	store := NewProgressStore(pool)
	first := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)
	rec, err := store.Create(ctx, userID, a.ID, progress.Fields{Completed: true, CompletedAt: &first, Progress: 96})
	require.NoError(t, err)

	_, err = store.Create(ctx, userID, a.ID, progress.Fields{})
	require.ErrorIs(t, err, apperr.ErrConflict)

	later := time.Now().UTC()
	no := false
	pos := 3
	rec, err = store.Update(ctx, rec.ID, progress.Patch{Completed: &no, CompletedAt: &later, LastPosition: &pos})
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.Equal(t, 3, rec.LastPosition)
	require.NotNil(t, rec.CompletedAt)
	assert.True(t, first.Equal(*rec.CompletedAt))

	rec, err = store.Update(ctx, rec.ID, progress.Patch{CompletedAt: &later, OverrideCompletedAt: true})
	require.NoError(t, err)
	assert.WithinDuration(t, later, *rec.CompletedAt, time.Millisecond)
}

func TestPostgres_AssetTransitionIsGuarded(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	c, err := NewCourseStore(pool).Create(ctx, course.NewCourse{Title: "db test"})
	require.NoError(t, err)
	assets := NewAssetStore(pool)
	a, err := assets.Create(ctx, video.NewAsset{CourseID: c.ID, Title: "v", FilePath: "/tmp/x", OriginalFilename: "x.mp4"})
	require.NoError(t, err)
	assert.Equal(t, video.StatusProcessing, a.Status)

	manifest := "/hls/playlist.m3u8"
	a, err = assets.Transition(ctx, a.ID, video.StatusProcessing, video.StatusReady, &manifest)
	require.NoError(t, err)
	assert.Equal(t, video.StatusReady, a.Status)

	_, err = assets.Transition(ctx, a.ID, video.StatusProcessing, video.StatusError, nil)
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = assets.Transition(ctx, uuid.New(), video.StatusProcessing, video.StatusError, nil)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = assets.Create(ctx, video.NewAsset{CourseID: uuid.New(), Title: "orphan", FilePath: "/tmp/y", OriginalFilename: "y.mp4"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostgres_SchemaVersionIsLatest(t *testing.T) {
	pool := testPool(t)

	current, latest, err := NewDatabaseConnection(pool).SchemaVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(5), latest)
	require.Equal(t, latest, current)
}

func TestPostgres_ChapterLifecycle(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	c, err := NewCourseStore(pool).Create(ctx, course.NewCourse{Title: "db test"})
	require.NoError(t, err)
	a, err := NewAssetStore(pool).Create(ctx, video.NewAsset{CourseID: c.ID, Title: "v", FilePath: "/tmp/x", OriginalFilename: "x.mp4", Duration: 300})
	require.NoError(t, err)

	chapters := NewChapterStore(pool)
	later, err := chapters.Create(ctx, chapter.NewChapter{VideoID: a.ID, Title: "Later", StartTime: 200})
	require.NoError(t, err)
	first, err := chapters.Create(ctx, chapter.NewChapter{VideoID: a.ID, Title: "First", StartTime: 10})
	require.NoError(t, err)

	list, err := chapters.ListByVideo(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)

	desc := "recap"
	got, err := chapters.Update(ctx, later.ID, chapter.Patch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Later", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)

	require.NoError(t, chapters.SoftDelete(ctx, later.ID))
	require.ErrorIs(t, chapters.SoftDelete(ctx, later.ID), apperr.ErrNotFound)
	_, err = chapters.FindByID(ctx, later.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = chapters.Create(ctx, chapter.NewChapter{VideoID: uuid.New(), Title: "orphan"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
