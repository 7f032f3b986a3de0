package stageexec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/stages"
)

// Store is the persistence surface a stage run needs.
type Store interface {
	UpdateStatus(ctx context.Context, sessionID string, status session.Status) error
	PersistStageOutput(ctx context.Context, sourceID, stage string, payload json.RawMessage) error
}

// Statuses names the progress and failure statuses of one stage.
type Statuses struct {
	Active session.Status
	Done   session.Status
	Failed session.Status
}

var stageStatuses = map[stages.Name]Statuses{
	stages.A1: {session.StatusA1Active, session.StatusA1Done, session.StatusErrorA1},
	stages.A2: {session.StatusA2Active, session.StatusA2Done, session.StatusErrorA2},
	stages.B:  {session.StatusBActive, session.StatusBDone, session.StatusErrorB},
	stages.D:  {session.StatusDActive, session.StatusDDone, session.StatusErrorD},
}

// StatusesFor returns the statuses used for the named stage.
func StatusesFor(name stages.Name) (Statuses, bool) {
	s, ok := stageStatuses[name]
	return s, ok
}

// StageError reports a processor failure. The caller records Status.
type StageError struct {
	Stage  stages.Name
	Status session.Status
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options controls one stage execution.
type Options struct {
	Logger    *slog.Logger
	Store     Store
	Processor stages.Processor
	Stage     stages.Name
	SessionID string
	SourceID  string
	Input     stages.Input
}

// Run records the active status, runs the processor, persists its output and
// records the done status. A processor failure is returned as *StageError
// without touching the session status; store failures are returned as-is.
func Run(ctx context.Context, opts Options) (json.RawMessage, error) {
	statuses, ok := StatusesFor(opts.Stage)
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", opts.Stage)
	}
	if opts.Store == nil {
		return nil, errors.New("stage store is required")
	}

	stageCtx := services.WithStage(ctx, string(opts.Stage))
	logger := logging.WithContext(stageCtx, opts.Logger)

	if opts.Processor == nil {
		return nil, &StageError{Stage: opts.Stage, Status: statuses.Failed, Err: errors.New("no processor registered")}
	}
	if err := opts.Store.UpdateStatus(stageCtx, opts.SessionID, statuses.Active); err != nil {
		return nil, fmt.Errorf("record %s: %w", statuses.Active, err)
	}
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(statuses.Active)),
	)

	started := time.Now()
	out, err := opts.Processor.Process(stageCtx, opts.Input)
	if err == nil && !json.Valid(out) {
		err = errors.New("processor returned invalid JSON")
	}
	if err != nil {
		return nil, &StageError{Stage: opts.Stage, Status: statuses.Failed, Err: err}
	}

	if err := opts.Store.PersistStageOutput(stageCtx, opts.SourceID, string(opts.Stage), out); err != nil {
		return nil, fmt.Errorf("persist %s output: %w", opts.Stage, err)
	}
	if err := opts.Store.UpdateStatus(stageCtx, opts.SessionID, statuses.Done); err != nil {
		return nil, fmt.Errorf("record %s: %w", statuses.Done, err)
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(statuses.Done)),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
		logging.Int("output_bytes", len(out)),
	)
	return out, nil
}

// Message returns the human readable cause stored with a failure status.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}
