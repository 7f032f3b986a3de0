package workflow

import (
	"slices"
	"strings"

	"lectern/internal/logging"
)

// StatusSummary represents lightweight launch diagnostics.
type StatusSummary struct {
	Active      []RunInfo
	Started     int
	Succeeded   int
	Failed      int
	LastError   string
	LastSession string
}

// Active returns the in-flight runs ordered by start time.
func (m *Manager) Active() []RunInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

func (m *Manager) activeLocked() []RunInfo {
	out := make([]RunInfo, 0, len(m.active))
	for _, run := range m.active {
		out = append(out, run.info)
	}
	slices.SortFunc(out, func(a, b RunInfo) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
	return out
}

// Status returns the latest launch counters.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := StatusSummary{
		Active:      m.activeLocked(),
		Started:     m.started,
		Succeeded:   m.succeeded,
		Failed:      m.failed,
		LastSession: m.lastRun,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	return summary
}

// Running reports whether sessionID has an active run in this process or
// holds its lock in another one. A lock that cannot be checked counts as not
// running.
func (m *Manager) Running(sessionID string) bool {
	m.mu.Lock()
	_, ok := m.active[sessionID]
	m.mu.Unlock()
	if ok {
		return true
	}
	held, err := lockHeld(m.lockDir, sessionID)
	if err != nil {
		logging.WarnWithContext(m.logger, "session lock check failed", "lock_check",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "session may be treated as interrupted"),
		)
		return false
	}
	return held
}
