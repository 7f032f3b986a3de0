package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/services"
)

// Launch starts req in the background and returns its request ID. The run is
// detached from ctx cancellation so a finished HTTP request or a closing
// client never aborts it.
func (m *Manager) Launch(ctx context.Context, req pipeline.Request) (string, error) {
	run, err := m.acquire(req.SessionID)
	if err != nil {
		return "", err
	}
	runCtx := services.WithRequestID(context.WithoutCancel(ctx), run.info.RequestID)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.execute(runCtx, run, req)
	}()
	return run.info.RequestID, nil
}

// RunSync runs req on the calling goroutine with the same single-flight
// guarantees as Launch.
func (m *Manager) RunSync(ctx context.Context, req pipeline.Request) error {
	run, err := m.acquire(req.SessionID)
	if err != nil {
		return err
	}
	m.wg.Add(1)
	defer m.wg.Done()
	return m.execute(services.WithRequestID(ctx, run.info.RequestID), run, req)
}

// Wait blocks until every launched run has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d active runs: %w", len(m.Active()), ctx.Err())
	}
}

func (m *Manager) acquire(sessionID string) (*activeRun, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("workflow: session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[sessionID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, sessionID)
	}
	lock, err := tryLockSession(m.lockDir, sessionID)
	if err != nil {
		return nil, err
	}
	run := &activeRun{
		info: RunInfo{SessionID: sessionID, RequestID: uuid.NewString(), StartedAt: m.now()},
		lock: lock,
	}
	m.active[sessionID] = run
	m.started++
	return run, nil
}

func (m *Manager) release(run *activeRun, runErr error) {
	m.mu.Lock()
	delete(m.active, run.info.SessionID)
	if runErr != nil {
		m.failed++
		m.lastErr = runErr
	} else {
		m.succeeded++
	}
	m.lastRun = run.info.SessionID
	m.mu.Unlock()

	if err := run.lock.release(); err != nil {
		m.logger.Warn("session lock release failed",
			logging.String(logging.FieldSessionID, run.info.SessionID),
			logging.Error(err),
		)
	}
}

func (m *Manager) execute(ctx context.Context, run *activeRun, req pipeline.Request) (err error) {
	ctx = services.WithSessionID(ctx, req.SessionID)
	logger := logging.WithContext(ctx, m.logger)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("session run panic: %v", rec)
		}
		m.release(run, err)
	}()

	logger.Info("session run launched", logging.String(logging.FieldEventType, "run_start"))
	err = m.runner.Run(ctx, req)
	elapsed := time.Since(run.info.StartedAt).Round(time.Millisecond)
	if err != nil {
		logger.Info("session run ended with failure",
			logging.String(logging.FieldEventType, "run_failed"),
			logging.String("resolved_status", string(pipeline.StatusFor(err))),
			logging.Duration("elapsed", elapsed),
		)
		return err
	}
	logger.Info("session run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}
