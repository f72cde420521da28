// Package pipeline runs the thumbnail update: authorize, find the newest
// commenter, decide whether they are new, fetch their photo, and upload it as
// the video thumbnail. Stages run strictly in order and any halt or failure
// ends the run.
package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ytthumb/internal/storage"
	"ytthumb/internal/youtube"
)

// Stage names a pipeline stage.
type Stage string

// Stages in execution order.
const (
	StageAuthorize Stage = "authorize"
	StageCommenter Stage = "commenter"
	StageNovelty   Stage = "novelty"
	StagePhoto     Stage = "photo"
	StageUpload    Stage = "upload"
)

// Status is the final outcome of a run.
type Status string

// Run statuses. Everything except StatusFailed is a normal ending.
const (
	StatusUploaded   Status = "uploaded"
	StatusNoComments Status = "no_comments"
	StatusNotNew     Status = "not_new"
	StatusNoPhoto    Status = "no_photo"
	StatusDryRun     Status = "dry_run"
	StatusFailed     Status = "failed"
)

// PhotoContentType is sent with every thumbnail upload.
const PhotoContentType = "image/jpeg"

// Authorizer yields an HTTP client carrying valid credentials.
type Authorizer interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// Platform is the subset of the Data API a run needs.
type Platform interface {
	LatestCommenter(ctx context.Context, videoID string) (string, error)
	ProfilePhotoURL(ctx context.Context, channelID string) (string, error)
	SetThumbnail(ctx context.Context, videoID string, r io.Reader, contentType string) error
}

// Connector builds a Platform from an authorized HTTP client.
type Connector func(ctx context.Context, client *http.Client) (Platform, error)

// Downloader copies the body at a URL into w.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Options configures a run.
type Options struct {
	VideoID   string
	PhotoPath string
	// DryRun stops after the novelty decision without writing state,
	// downloading, or uploading.
	DryRun bool
}

// Report describes one finished run.
type Report struct {
	RunID       string
	VideoID     string
	Status      Status
	Commenter   string
	Previous    string
	PhotoURL    string
	PhotoBytes  int64
	FailedStage Stage
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Pipeline wires the stages to their collaborators.
type Pipeline struct {
	opts     Options
	auth     Authorizer
	connect  Connector
	lastSeen *storage.LastSeenStore
	photos   Downloader
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Pipeline.
func New(opts Options, auth Authorizer, connect Connector, lastSeen *storage.LastSeenStore, photos Downloader, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		opts:     opts,
		auth:     auth,
		connect:  connect,
		lastSeen: lastSeen,
		photos:   photos,
		log:      logger,
		now:      time.Now,
	}
}

// Run executes the stages in order and returns the report. It never returns
// nil; failures are carried in Report.Err as a *StageError.
func (p *Pipeline) Run(ctx context.Context) *Report {
	rep := &Report{
		RunID:     uuid.NewString(),
		VideoID:   p.opts.VideoID,
		StartedAt: p.now(),
	}
	log := p.log.With().Str("run_id", rep.RunID).Str("video_id", rep.VideoID).Logger()

	p.execute(ctx, log, rep)

	rep.FinishedAt = p.now()
	ev := log.Info()
	if rep.Status == StatusFailed {
		ev = log.Error().Err(rep.Err).Str("stage", string(rep.FailedStage))
	}
	ev.Str("status", string(rep.Status)).
		Str("commenter", rep.Commenter).
		Dur("duration", rep.Duration()).
		Msg("run finished")
	return rep
}

func (p *Pipeline) execute(ctx context.Context, log zerolog.Logger, rep *Report) {
	platform := p.authorize(ctx)
	if !settle(rep, platform) {
		return
	}

	commenter := p.fetchCommenter(ctx, log, platform.value)
	if !settle(rep, commenter) {
		return
	}
	rep.Commenter = commenter.value
	log = log.With().Str("commenter", rep.Commenter).Logger()
	log.Info().Msg("checking if most recent commenter is new")

	previous := p.checkNovelty(log, rep.Commenter)
	rep.Previous = previous.value
	if !settle(rep, previous) {
		return
	}

	photo := p.fetchPhoto(ctx, log, platform.value, rep.Commenter)
	rep.PhotoURL = photo.value.url
	rep.PhotoBytes = photo.value.size
	if !settle(rep, photo) {
		return
	}

	uploaded := p.upload(ctx, log, platform.value)
	if !settle(rep, uploaded) {
		return
	}
	rep.Status = StatusUploaded
}

// settle copies a halt or failure into rep and reports whether to continue.
func settle[T any](rep *Report, s step[T]) bool {
	switch s.kind {
	case proceed:
		return true
	case halt:
		rep.Status = s.status
	case fail:
		rep.Status = StatusFailed
		rep.FailedStage = s.err.Stage
		rep.Err = s.err
	}
	return false
}

func (p *Pipeline) authorize(ctx context.Context) step[Platform] {
	client, err := p.auth.HTTPClient(ctx)
	if err != nil {
		return failed[Platform](StageAuthorize, KindAuth, "obtain credentials", err)
	}
	platform, err := p.connect(ctx, client)
	if err != nil {
		return failed[Platform](StageAuthorize, KindTransport, "create api client", err)
	}
	return next(platform)
}

func (p *Pipeline) fetchCommenter(ctx context.Context, log zerolog.Logger, platform Platform) step[string] {
	id, err := platform.LatestCommenter(ctx, p.opts.VideoID)
	switch {
	case err == nil:
		return next(id)
	case errors.Is(err, youtube.ErrNoComments):
		log.Info().Msg("no comments yet on this video")
		return stop[string](StatusNoComments)
	case errors.Is(err, youtube.ErrMalformedResponse):
		return failed[string](StageCommenter, KindMalformed, "list comment threads", err)
	default:
		return failed[string](StageCommenter, KindTransport, "list comment threads", err)
	}
}

// checkNovelty compares id with the stored identity and stores id when it is
// new. The returned value is the previous identity, empty if none.
func (p *Pipeline) checkNovelty(log zerolog.Logger, id string) step[string] {
	previous, err := p.lastSeen.Load()
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		log.Info().Msg("no stored commenter, treating as new")
	default:
		log.Warn().Err(err).Msg("stored commenter unreadable, treating as new")
	}

	if previous != "" && previous == id {
		log.Info().Msg("no new comments")
		return step[string]{kind: halt, status: StatusNotNew, value: previous}
	}

	if p.opts.DryRun {
		log.Info().Str("previous", previous).Msg("dry run: new commenter, stopping before any writes")
		return step[string]{kind: halt, status: StatusDryRun, value: previous}
	}

	if err := p.lastSeen.Save(id); err != nil {
		s := failed[string](StageNovelty, KindStorage, "store most recent commenter", err)
		s.value = previous
		return s
	}
	log.Info().Str("previous", previous).Str("path", p.lastSeen.Path()).Msg("stored most recent commenter")
	return next(previous)
}

type photoResult struct {
	url  string
	size int64
}

func (p *Pipeline) fetchPhoto(ctx context.Context, log zerolog.Logger, platform Platform, id string) step[photoResult] {
	url, err := platform.ProfilePhotoURL(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, youtube.ErrNoPhoto):
		log.Warn().Err(err).Msg("commenter has no profile photo, leaving thumbnail unchanged")
		return stop[photoResult](StatusNoPhoto)
	default:
		return failed[photoResult](StagePhoto, KindTransport, "resolve profile photo", err)
	}

	w, err := storage.NewAtomicWriter(p.opts.PhotoPath)
	if err != nil {
		s := failed[photoResult](StagePhoto, KindStorage, "open photo file", err)
		s.value.url = url
		return s
	}
	defer w.Abort()

	n, err := p.photos.Download(ctx, url, w)
	if err != nil {
		s := failed[photoResult](StagePhoto, KindTransport, "download profile photo", err)
		s.value.url = url
		return s
	}
	if err := w.Commit(); err != nil {
		s := failed[photoResult](StagePhoto, KindStorage, "save profile photo", err)
		s.value.url = url
		return s
	}

	log.Info().Str("url", url).Int64("bytes", n).Str("path", p.opts.PhotoPath).Msg("finished saving photo")
	return next(photoResult{url: url, size: n})
}

func (p *Pipeline) upload(ctx context.Context, log zerolog.Logger, platform Platform) step[struct{}] {
	f, err := os.Open(p.opts.PhotoPath)
	if err != nil {
		return failed[struct{}](StageUpload, KindStorage, "open photo", err)
	}
	defer f.Close()

	if err := platform.SetThumbnail(ctx, p.opts.VideoID, f, PhotoContentType); err != nil {
		return failed[struct{}](StageUpload, KindUpload, "set thumbnail", err)
	}
	log.Info().Msg("successfully uploaded photo")
	return next(struct{}{})
}
