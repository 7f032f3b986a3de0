package session

import (
	"encoding/json"
	"time"

	"lectern/internal/transcript"
)

// DefaultSourceTitle is used until the A1 stage supplies a real title.
const DefaultSourceTitle = "Untitled Video - Pending AI Processing"

// Session is one end-to-end processing request.
type Session struct {
	ID           string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Source is the learning material attached to a session.
type Source struct {
	ID                   string
	SessionID            string
	VideoURL             string
	Title                string
	Description          string
	SourceDescription    string
	TotalDurationSeconds *float64
	Segments             []transcript.Segment
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewSession carries the caller-supplied fields for CreateSession.
type NewSession struct {
	VideoURL          string
	Title             string
	SourceDescription string
}

// A1Metadata is the subset of the A1 output mirrored onto the Source.
type A1Metadata struct {
	Title                string
	VideoDescription     string
	SourceDescription    string
	TotalDurationSeconds *float64
	Segments             []transcript.Segment
}

// StageOutput is the persisted, opaque result of one generation stage.
type StageOutput struct {
	Stage     string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// HistoryEntry records one accepted status write.
type HistoryEntry struct {
	Status     Status
	Message    string
	RecordedAt time.Time
}
