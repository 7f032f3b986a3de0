package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/deps"
	"lectern/internal/logging"
	"lectern/internal/preflight"
	"lectern/internal/session"
	"lectern/internal/workflow"
)

// Daemon coordinates the HTTP surface and background session runs and
// enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.Store
	workflow *workflow.Manager
	sessions *api.SessionService
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		sessions: api.NewSessionService(store, wf),
		lockPath: cfg.DaemonLockPath(),
		lock:     flock.New(cfg.DaemonLockPath()),
	}
	d.api = newAPIServer(cfg.API, d, logger)
	return d, nil
}

// Start acquires the daemon lock, fails sessions a previous process left
// mid-run, and begins serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lectern daemon instance is already running")
	}

	failed, err := d.store.FailInterrupted(ctx, d.workflow.Running)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("fail interrupted sessions: %w", err)
	}
	if failed > 0 {
		logging.WarnWithContext(d.logger, "interrupted sessions marked failed", "crash_recovery",
			logging.Int64("sessions", failed),
			logging.String(logging.FieldImpact, "sessions left mid-run by the previous process will not resume"),
			logging.String(logging.FieldErrorHint, "create a new session to reprocess the material"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("lectern daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.api.Addr()),
	)
	return nil
}

// Stop stops accepting new sessions, waits up to the configured grace period
// for active runs, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	grace := time.Duration(d.cfg.Workflow.ShutdownGraceSeconds) * time.Second
	waitCtx, cancel := context.WithTimeout(context.Background(), grace)
	if err := d.workflow.Wait(waitCtx); err != nil {
		logging.WarnWithContext(d.logger, "shutdown grace expired with runs still active", "shutdown_grace_expired",
			logging.Error(err),
			logging.Int("active_runs", len(d.workflow.Active())),
			logging.String(logging.FieldImpact, "unfinished sessions will be marked failed on next start"),
		)
	}
	cancel()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("lectern daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Sessions exposes the session service the HTTP API serves.
func (d *Daemon) Sessions() *api.SessionService {
	return d.sessions
}

// Addr returns the bound API address once started.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
}
