package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/cmd/web/auth"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/api/video_api"
	"thirdcoast.systems/lessonstream/cmd/web/internal/web"
	"thirdcoast.systems/lessonstream/internal/application"
	"thirdcoast.systems/lessonstream/internal/chapter"
	"thirdcoast.systems/lessonstream/internal/config"
	"thirdcoast.systems/lessonstream/internal/db"
	"thirdcoast.systems/lessonstream/internal/media"
	"thirdcoast.systems/lessonstream/internal/progress"
	"thirdcoast.systems/lessonstream/internal/user"
	"thirdcoast.systems/lessonstream/internal/video"
)

const (
	httpShutdownTimeout      = 5 * time.Second
	transcodeShutdownTimeout = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting web service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc := db.NewDatabaseConnection(pool)
	if current, latest, err := dbc.SchemaVersion(ctx); err != nil {
		slog.Warn("could not read schema version", "error", err)
	} else if current < latest {
		slog.Warn("database schema is behind, run pg-migrator", "version", current, "latest", latest)
	}

	assets := db.NewAssetStore(dbc)
	courses := db.NewCourseStore(dbc)

	pipeline := video.NewPipeline(video.Config{
		UploadDir: conf.UploadPath,
		HLSDir:    conf.HLSPath,
		ThumbnailSize: media.Size{
			Width:  conf.ThumbnailWidth,
			Height: conf.ThumbnailHeight,
		},
		ThumbnailOffsetPercent: float64(conf.ThumbnailOffsetPercent),
		TranscodeTimeout:       conf.TranscodeTimeout,
	},
		assets,
		courses,
		media.NewFFprobe(),
		media.NewFFmpegThumbnailer(conf.UploadPath),
		media.NewFFmpegTranscoder(conf.HLSSegmentSeconds, video_api.SegmentBaseURL),
	)

	// Assets left processing by a previous run have no task to finish them.
	if n, err := pipeline.RecoverStale(ctx); err != nil {
		slog.Error("failed to recover stale assets", "error", err)
	} else if n > 0 {
		slog.Warn("marked interrupted transcodes as failed", "count", n)
	}

	durations := progress.VideoLookupFunc(func(ctx context.Context, videoID uuid.UUID) (int, error) {
		a, err := assets.FindByID(ctx, videoID)
		if err != nil {
			return 0, err
		}
		return a.Duration, nil
	})
	engine := progress.NewEngine(db.NewProgressStore(dbc), durations)

	e, err := web.NewWebserver(web.Deps{
		Sessions:       auth.NewSessionManager(conf.SessionSecret),
		Users:          user.NewService(db.NewUserStore(dbc)),
		Courses:        courses,
		Pipeline:       pipeline,
		Catalog:        video.NewCatalog(assets, pipeline),
		Progress:       engine,
		Chapters:       chapter.NewService(db.NewChapterStore(dbc), durations),
		MaxUploadBytes: conf.MaxUploadBytes,
		Ping:           pool.Ping,
	})
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		stop()
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), transcodeShutdownTimeout)
	defer cancel()
	if err := pipeline.Shutdown(drainCtx); err != nil {
		slog.Error("transcodes did not stop in time", "error", err, "in_flight", pipeline.InFlight())
	}
	slog.Info("web service stopped")
}
