package api

import (
	"encoding/json"

	"lectern/internal/transcript"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// CreateSessionRequest is the body of POST /api/sessions. Exactly one of
// VideoURL or RawTranscriptText must be set; the run itself records
// error_no_valid_input otherwise.
type CreateSessionRequest struct {
	RawTranscriptText        string `json:"rawTranscriptText"`
	InitialVideoTitle        string `json:"initialVideoTitle"`
	InitialSourceDescription string `json:"initialSourceDescription"`
	VideoURL                 string `json:"bilibili_video_url"`
}

// CreateSessionResponse acknowledges an accepted session.
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}

// Session describes a session in a transport-friendly format.
type Session struct {
	SessionID    string         `json:"sessionId"`
	Status       string         `json:"status"`
	Phase        string         `json:"phase"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	CreatedAt    string         `json:"createdAt,omitempty"`
	UpdatedAt    string         `json:"updatedAt,omitempty"`
	History      []HistoryEntry `json:"history,omitempty"`
	FinalResults *FinalResults  `json:"finalResults,omitempty"`
}

// HistoryEntry is one accepted status write.
type HistoryEntry struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	RecordedAt string `json:"recordedAt"`
}

// FinalResults carries the note and knowledge cues of a completed session.
type FinalResults struct {
	Note          json.RawMessage      `json:"note,omitempty"`
	KnowledgeCues json.RawMessage      `json:"knowledgeCues,omitempty"`
	Transcript    []transcript.Segment `json:"transcript,omitempty"`
}

// Source describes the learning material attached to a session.
type Source struct {
	VideoID                    string   `json:"video_id"`
	SessionID                  string   `json:"session_id"`
	VideoURL                   string   `json:"video_url,omitempty"`
	VideoTitle                 string   `json:"video_title"`
	VideoDescription           string   `json:"video_description,omitempty"`
	SourceDescription          string   `json:"source_description,omitempty"`
	TotalDurationSeconds       *float64 `json:"total_duration_seconds,omitempty"`
	SegmentCount               int      `json:"segment_count"`
	HasStructuredTranscript    bool     `json:"has_structured_transcript"`
	HasExtractedKeyInformation bool     `json:"has_extracted_key_information"`
}

// StageOutput is one persisted generation result.
type StageOutput struct {
	Stage     string          `json:"stage"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Items []Session `json:"items"`
}

// StageOutputsResponse wraps the outputs of one session.
type StageOutputsResponse struct {
	SessionID string        `json:"sessionId"`
	Outputs   []StageOutput `json:"outputs"`
}

// ActiveRun mirrors an in-flight workflow run.
type ActiveRun struct {
	SessionID string `json:"sessionId"`
	RequestID string `json:"requestId"`
	StartedAt string `json:"startedAt"`
}

// WorkflowStatus summarizes launch counters.
type WorkflowStatus struct {
	Active      []ActiveRun `json:"active"`
	Started     int         `json:"started"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	LastError   string      `json:"lastError,omitempty"`
	LastSession string      `json:"lastSession,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"databasePath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Counts       map[string]int     `json:"counts"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
