package workflow

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"lectern/internal/logging"
	"lectern/internal/pipeline"
)

// ErrAlreadyRunning is returned when a session already has an active run,
// in this process or in another one sharing the lock directory.
var ErrAlreadyRunning = errors.New("session already running")

// Runner executes one session run to a terminal status.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) error
}

// Manager launches session runs, refusing concurrent runs of the same
// session, and tracks them until they finish.
type Manager struct {
	runner  Runner
	lockDir string
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	active    map[string]*activeRun
	wg        sync.WaitGroup
	started   int
	succeeded int
	failed    int
	lastErr   error
	lastRun   string
}

type activeRun struct {
	info RunInfo
	lock *sessionLock
}

// RunInfo describes an in-flight run.
type RunInfo struct {
	SessionID string
	RequestID string
	StartedAt time.Time
}

// NewManager constructs a Manager. lockDir holds the per-session lock files.
func NewManager(runner Runner, lockDir string, logger *slog.Logger) (*Manager, error) {
	if runner == nil {
		return nil, errors.New("workflow: runner is required")
	}
	if lockDir == "" {
		return nil, errors.New("workflow: lock directory is required")
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, err
	}
	return &Manager{
		runner:  runner,
		lockDir: lockDir,
		logger:  logging.NewComponentLogger(logger, "workflow-manager"),
		now:     time.Now,
		active:  make(map[string]*activeRun),
	}, nil
}
