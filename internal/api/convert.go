package api

import (
	"time"

	"lectern/internal/session"
	"lectern/internal/workflow"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromSession converts a stored session into its API form.
func FromSession(sess *session.Session) Session {
	if sess == nil {
		return Session{}
	}
	return Session{
		SessionID:    sess.ID,
		Status:       string(sess.Status),
		Phase:        string(sess.Status.Phase()),
		ErrorMessage: sess.ErrorMessage,
		CreatedAt:    formatTime(sess.CreatedAt),
		UpdatedAt:    formatTime(sess.UpdatedAt),
	}
}

// FromSessions converts a slice of stored sessions.
func FromSessions(items []*session.Session) []Session {
	out := make([]Session, 0, len(items))
	for _, sess := range items {
		if sess == nil {
			continue
		}
		out = append(out, FromSession(sess))
	}
	return out
}

// FromHistory converts status history rows.
func FromHistory(entries []session.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntry{
			Status:     string(entry.Status),
			Message:    entry.Message,
			RecordedAt: formatTime(entry.RecordedAt),
		})
	}
	return out
}

// FromSource converts a stored source. hasKeyInfo reports whether the A2
// output exists.
func FromSource(src *session.Source, hasKeyInfo bool) Source {
	if src == nil {
		return Source{}
	}
	return Source{
		VideoID:                    src.ID,
		SessionID:                  src.SessionID,
		VideoURL:                   src.VideoURL,
		VideoTitle:                 src.Title,
		VideoDescription:           src.Description,
		SourceDescription:          src.SourceDescription,
		TotalDurationSeconds:       src.TotalDurationSeconds,
		SegmentCount:               len(src.Segments),
		HasStructuredTranscript:    len(src.Segments) > 0,
		HasExtractedKeyInformation: hasKeyInfo,
	}
}

// FromStageOutputs converts persisted stage outputs.
func FromStageOutputs(outputs []session.StageOutput) []StageOutput {
	out := make([]StageOutput, 0, len(outputs))
	for _, o := range outputs {
		out = append(out, StageOutput{
			Stage:     o.Stage,
			Payload:   o.Payload,
			CreatedAt: formatTime(o.CreatedAt),
		})
	}
	return out
}

// FromWorkflowStatus converts the workflow manager summary.
func FromWorkflowStatus(summary workflow.StatusSummary) WorkflowStatus {
	active := make([]ActiveRun, 0, len(summary.Active))
	for _, run := range summary.Active {
		active = append(active, ActiveRun{
			SessionID: run.SessionID,
			RequestID: run.RequestID,
			StartedAt: formatTime(run.StartedAt),
		})
	}
	return WorkflowStatus{
		Active:      active,
		Started:     summary.Started,
		Succeeded:   summary.Succeeded,
		Failed:      summary.Failed,
		LastError:   summary.LastError,
		LastSession: summary.LastSession,
	}
}
