package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lectern/internal/asr/xfyun"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/stages"
	"lectern/internal/transcript"
)

// Store is the persistence surface the driver writes through.
type Store interface {
	UpdateStatus(ctx context.Context, sessionID string, status session.Status) error
	RecordError(ctx context.Context, sessionID string, status session.Status, message string) error
	SaveTranscript(ctx context.Context, sourceID string, segments []transcript.Segment) error
	SaveA1Metadata(ctx context.Context, sourceID string, meta session.A1Metadata) error
	PersistStageOutput(ctx context.Context, sourceID, stage string, payload json.RawMessage) error
}

// Downloader fetches a remote video to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Extractor converts a video file to speech-ready audio.
type Extractor interface {
	Extract(ctx context.Context, src, dest string) error
}

// Transcriber runs speech recognition on an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]xfyun.Sentence, error)
}

// Request describes one session run.
type Request struct {
	SessionID         string
	SourceID          string
	VideoURL          string
	TranscriptText    string
	Title             string
	SourceDescription string
}

// Deps wires the driver's collaborators. A nil Transcriber means speech
// recognition is not configured.
type Deps struct {
	Store       Store
	Downloader  Downloader
	Extractor   Extractor
	Transcriber Transcriber
	Stages      stages.Set
	WorkDir     string
	Logger      *slog.Logger
}

// Driver runs a session from acquisition through the generation stages.
type Driver struct {
	store       Store
	downloader  Downloader
	extractor   Extractor
	transcriber Transcriber
	stages      stages.Set
	workDir     string
	logger      *slog.Logger
}

// NewDriver builds a Driver from deps.
func NewDriver(deps Deps) (*Driver, error) {
	if deps.Store == nil {
		return nil, errors.New("pipeline: store is required")
	}
	workDir := strings.TrimSpace(deps.WorkDir)
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Driver{
		store:       deps.Store,
		downloader:  deps.Downloader,
		extractor:   deps.Extractor,
		transcriber: deps.Transcriber,
		stages:      deps.Stages,
		workDir:     workDir,
		logger:      logging.NewComponentLogger(deps.Logger, "pipeline"),
	}, nil
}

// Run drives the session to a terminal status. It returns the error that
// caused a failure status, or nil once all_processing_complete is recorded.
// The scoped temp directory is removed on every path, including panics.
func (d *Driver) Run(ctx context.Context, req Request) (err error) {
	ctx = services.WithSessionID(ctx, req.SessionID)
	r := &run{
		driver: d,
		req:    req,
		logger: logging.WithContext(ctx, d.logger),
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pipeline panic: %v", rec)
			r.fail(ctx, err)
		}
		r.cleanup()
	}()

	if err := r.execute(ctx); err != nil {
		r.fail(ctx, err)
		return err
	}
	return nil
}

type run struct {
	driver  *Driver
	req     Request
	logger  *slog.Logger
	tempDir string
	failed  bool
}

func (r *run) execute(ctx context.Context) error {
	path, videoURL, err := r.resolveInput()
	if err != nil {
		return err
	}
	r.logger.Info("session run started",
		logging.String(logging.FieldEventType, "session_start"),
		logging.String("input", string(path)),
	)

	var segments []transcript.Segment
	switch path {
	case inputVideo:
		segments, err = r.acquireVideo(ctx, videoURL)
	default:
		segments, err = r.acquireText(ctx)
	}
	if err != nil {
		return err
	}

	if err := r.driver.store.SaveTranscript(ctx, r.req.SourceID, segments); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	if err := r.runStages(ctx, segments); err != nil {
		return err
	}
	if err := r.advance(ctx, session.StatusComplete); err != nil {
		return err
	}
	r.logger.Info("session complete",
		logging.String(logging.FieldEventType, "session_complete"),
		logging.Int("segments", len(segments)),
	)
	return nil
}

func (r *run) advance(ctx context.Context, status session.Status) error {
	if err := r.driver.store.UpdateStatus(ctx, r.req.SessionID, status); err != nil {
		return fmt.Errorf("record %s: %w", status, err)
	}
	return nil
}

func (r *run) cleanup() {
	if r.tempDir == "" {
		return
	}
	if err := os.RemoveAll(r.tempDir); err != nil {
		r.logger.Warn("temp dir cleanup failed",
			logging.String("path", r.tempDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "scratch files left on disk"),
		)
		return
	}
	r.logger.Debug("temp dir removed", logging.String("path", r.tempDir))
}
