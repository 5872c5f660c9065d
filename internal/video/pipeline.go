package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/media"
	"thirdcoast.systems/lessonstream/internal/metrics"
	"thirdcoast.systems/lessonstream/pkg/utils/filename"
)

// finalizeTimeout bounds the status write after a transcode ends. It runs on
// a context detached from the task so a cancelled task still records ERROR.
const finalizeTimeout = 30 * time.Second

const maxNameAttempts = 16

// ErrShuttingDown is returned by Ingest once Shutdown has been called.
var ErrShuttingDown error = &apperr.Error{Kind: apperr.ErrUnavailable, Op: "ingest", Msg: "pipeline is shutting down"}

// Config controls where the pipeline writes and how it encodes.
type Config struct {
	UploadDir              string
	HLSDir                 string
	ThumbnailSize          media.Size
	ThumbnailOffsetPercent float64
	TranscodeTimeout       time.Duration // 0 disables the timeout
}

// Upload is the raw file part of an ingest request. A positive Size is the
// length the client declared; a body of any other length is rejected.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Metadata describes the asset being uploaded.
type Metadata struct {
	CourseID    uuid.UUID `validate:"required"`
	Title       string    `validate:"required,max=255"`
	Description *string   `validate:"omitempty,max=10000"`
	SortOrder   *int      `validate:"omitempty,min=0"`
}

// Pipeline turns uploads into playable assets. Ingest does the synchronous
// part and hands the HLS encode to a background task tracked by asset id.
type Pipeline struct {
	cfg      Config
	assets   AssetStore
	courses  CourseChecker
	prober   media.Prober
	thumbs   media.Thumbnailer
	encoder  media.Transcoder
	validate *validator.Validate
	tasks    *taskRegistry
	now      func() time.Time

	baseCtx context.Context
	stop    context.CancelFunc
	closed  sync.Once
}

func NewPipeline(cfg Config, assets AssetStore, courses CourseChecker, prober media.Prober, thumbs media.Thumbnailer, encoder media.Transcoder) *Pipeline {
	if cfg.ThumbnailOffsetPercent <= 0 {
		cfg.ThumbnailOffsetPercent = 10
	}
	if cfg.ThumbnailSize.Width <= 0 || cfg.ThumbnailSize.Height <= 0 {
		cfg.ThumbnailSize = media.Size{Width: 320, Height: 240}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		cfg:      cfg,
		assets:   assets,
		courses:  courses,
		prober:   prober,
		thumbs:   thumbs,
		encoder:  encoder,
		validate: validator.New(),
		tasks:    newTaskRegistry(),
		now:      time.Now,
		baseCtx:  ctx,
		stop:     cancel,
	}
}

// Ingest stores the upload, probes it, renders its thumbnail and records it
// as processing, then starts the transcode. The returned asset is always in
// StatusProcessing.
func (p *Pipeline) Ingest(ctx context.Context, up Upload, meta Metadata) (*Asset, error) {
	asset, err := p.ingest(ctx, up, meta)
	if err != nil {
		metrics.IngestsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, err
	}
	metrics.IngestsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	if err := p.dispatch(asset); err != nil {
		// Shutdown began after the record was written; the asset can never
		// be encoded by this process.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
		defer cancel()
		if errored, terr := p.transition(fctx, asset.ID, StatusError, nil); terr == nil {
			asset = errored
		} else {
			slog.Error("failed to mark video as errored", "video_id", asset.ID, "error", terr)
		}
		slog.Warn("transcode not started, pipeline is shutting down", "video_id", asset.ID)
	}
	return asset, nil
}

func (p *Pipeline) ingest(ctx context.Context, up Upload, meta Metadata) (*Asset, error) {
	if p.baseCtx.Err() != nil {
		return nil, ErrShuttingDown
	}
	if err := p.validate.Struct(meta); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "ingest.validate", err)
	}
	if up.Body == nil {
		return nil, apperr.Validation("ingest.validate", "no file uploaded")
	}

	ok, err := p.courses.Exists(ctx, meta.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("ingest.course", "course %s not found", meta.CourseID)
	}

	rawPath, written, err := p.store(up)
	if err != nil {
		return nil, err
	}
	metrics.UploadBytes.Observe(float64(written))

	duration := p.prober.ProbeDuration(ctx, rawPath)

	thumb, err := p.thumbs.Generate(ctx, rawPath, duration, p.cfg.ThumbnailOffsetPercent, p.cfg.ThumbnailSize)
	if err != nil {
		_ = os.Remove(rawPath)
		return nil, err
	}

	sortOrder := 0
	if meta.SortOrder != nil {
		sortOrder = *meta.SortOrder
	}
	asset, err := p.assets.Create(ctx, NewAsset{
		CourseID:         meta.CourseID,
		Title:            meta.Title,
		Description:      meta.Description,
		Duration:         duration,
		OriginalFilename: up.Filename,
		FilePath:         rawPath,
		ThumbnailPath:    &thumb,
		SortOrder:        sortOrder,
	})
	if err != nil {
		_ = os.Remove(rawPath)
		_ = os.Remove(thumb)
		return nil, err
	}

	slog.Info("video ingested",
		"video_id", asset.ID,
		"course_id", asset.CourseID,
		"size", humanize.Bytes(uint64(written)),
		"duration", duration,
	)
	return asset, nil
}

// store writes the upload to {UploadDir}/{unixmillis}-{sanitized name}. A
// partial file is removed on failure.
func (p *Pipeline) store(up Upload) (string, int64, error) {
	if err := os.MkdirAll(p.cfg.UploadDir, 0o755); err != nil {
		return "", 0, apperr.IO("ingest.store", err)
	}

	base := filename.Upload(up.Filename)
	stamp := p.now().UnixMilli()

	var (
		f    *os.File
		path string
		err  error
	)
	// Two uploads of the same name in one millisecond bump the stamp.
	for range maxNameAttempts {
		path = filepath.Join(p.cfg.UploadDir, strconv.FormatInt(stamp, 10)+"-"+base)
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
		stamp++
	}
	if err != nil {
		return "", 0, apperr.IO("ingest.store", err)
	}
	n, err := io.Copy(f, up.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, apperr.IO("ingest.store", err)
	}
	if up.Size > 0 && n != up.Size {
		_ = os.Remove(path)
		return "", 0, apperr.Validation("ingest.store", "upload truncated: got %s of %s",
			humanize.Bytes(uint64(n)), humanize.Bytes(uint64(up.Size)))
	}
	return path, n, nil
}

func (p *Pipeline) dispatch(asset *Asset) error {
	ctx, cancel := context.WithCancel(p.baseCtx)
	if p.cfg.TranscodeTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, p.cfg.TranscodeTimeout)
		parent := cancel
		cancel = func() { tcancel(); parent() }
	}

	if !p.tasks.start(asset.ID, cancel) {
		cancel()
		return ErrShuttingDown
	}
	metrics.ActiveTranscodes.Inc()

	go func() {
		defer p.tasks.finish(asset.ID)
		defer metrics.ActiveTranscodes.Dec()
		p.transcode(ctx, asset.ID, asset.FilePath, asset.Duration)
	}()
	return nil
}

// transcode runs the encode and records the terminal status.
func (p *Pipeline) transcode(ctx context.Context, id uuid.UUID, source string, duration int) {
	started := p.now()
	outputDir := filepath.Join(p.cfg.HLSDir, id.String())

	manifest, err := p.encoder.Transcode(ctx, source, outputDir, duration)

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	metrics.TranscodeDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		outcome := metrics.OutcomeFailure
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCanceled
		}
		metrics.TranscodesTotal.WithLabelValues(outcome).Inc()
		slog.Error("transcode failed", "video_id", id, "outcome", outcome, "error", err)

		_ = os.RemoveAll(outputDir)
		if _, terr := p.transition(fctx, id, StatusError, nil); terr != nil {
			slog.Error("failed to mark video as errored", "video_id", id, "error", terr)
		}
		return
	}

	if _, terr := p.transition(fctx, id, StatusReady, &manifest); terr != nil {
		metrics.TranscodesTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		slog.Error("failed to mark video as ready", "video_id", id, "error", terr)
		return
	}
	metrics.TranscodesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.Info("transcode finished", "video_id", id, "manifest", manifest, "elapsed", time.Since(started).Round(time.Millisecond))
}

// transition moves an asset out of processing.
func (p *Pipeline) transition(ctx context.Context, id uuid.UUID, to Status, manifest *string) (*Asset, error) {
	return p.assets.Transition(ctx, id, StatusProcessing, to, manifest)
}

// Cancel aborts the running transcode for id. The asset ends in
// StatusError. It reports whether a task was running.
func (p *Pipeline) Cancel(id uuid.UUID) bool {
	ok := p.tasks.cancel(id)
	if ok {
		slog.Info("transcode cancel requested", "video_id", id)
	}
	return ok
}

// Running reports whether a transcode for id is in flight.
func (p *Pipeline) Running(id uuid.UUID) bool {
	return p.tasks.running(id)
}

// InFlight returns the ids of assets currently being transcoded.
func (p *Pipeline) InFlight() []string {
	tasks := p.tasks.list()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.AssetID.String()
	}
	return ids
}

// Tasks returns a snapshot of in-flight transcodes, oldest first.
func (p *Pipeline) Tasks() []Task {
	return p.tasks.list()
}

// Wait blocks until all in-flight transcodes have finished or ctx is done.
func (p *Pipeline) Wait(ctx context.Context) error {
	return p.tasks.wait(ctx)
}

// Shutdown cancels every running transcode and waits for their statuses to
// be recorded.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.closed.Do(func() {
		p.stop()
		p.tasks.close()
	})
	if err := p.tasks.wait(ctx); err != nil {
		return fmt.Errorf("waiting for transcodes: %w", err)
	}
	return nil
}

// RecoverStale moves assets left in processing by a previous process to
// error. Their transcode task no longer exists so they would never finish.
func (p *Pipeline) RecoverStale(ctx context.Context) (int, error) {
	stale, err := p.assets.ListByStatus(ctx, StatusProcessing)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, a := range stale {
		if p.tasks.running(a.ID) {
			continue
		}
		if _, err := p.transition(ctx, a.ID, StatusError, nil); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				continue
			}
			return recovered, err
		}
		_ = os.RemoveAll(filepath.Join(p.cfg.HLSDir, a.ID.String()))
		recovered++
	}
	if recovered > 0 {
		slog.Warn("marked stale processing videos as errored", "count", recovered)
	}
	return recovered, nil
}
