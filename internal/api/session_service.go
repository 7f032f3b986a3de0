package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lectern/internal/pipeline"
	"lectern/internal/session"
	"lectern/internal/stages"
)

// ErrSessionNotFound is returned for unknown session identifiers.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore abstracts the persistence calls the API needs.
type SessionStore interface {
	CreateSession(ctx context.Context, req session.NewSession) (*session.Session, *session.Source, error)
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	GetSource(ctx context.Context, sessionID string) (*session.Source, error)
	StageOutputs(ctx context.Context, sourceID string) ([]session.StageOutput, error)
	History(ctx context.Context, sessionID string) ([]session.HistoryEntry, error)
	List(ctx context.Context, statuses ...session.Status) ([]*session.Session, error)
}

// Launcher starts a session run in the background.
type Launcher interface {
	Launch(ctx context.Context, req pipeline.Request) (string, error)
}

// SessionService exposes session operations returning API DTOs.
type SessionService struct {
	store    SessionStore
	launcher Launcher
}

// NewSessionService constructs a SessionService. launcher may be nil for
// read-only use.
func NewSessionService(store SessionStore, launcher Launcher) *SessionService {
	if store == nil {
		return nil
	}
	return &SessionService{store: store, launcher: launcher}
}

// Create persists a new session and launches its run. Input validation is
// left to the run so invalid input still produces a recorded session.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (CreateSessionResponse, error) {
	if s == nil || s.store == nil {
		return CreateSessionResponse{}, errors.New("session store unavailable")
	}
	if s.launcher == nil {
		return CreateSessionResponse{}, errors.New("session launcher unavailable")
	}
	sess, src, err := s.store.CreateSession(ctx, session.NewSession{
		VideoURL:          req.VideoURL,
		Title:             req.InitialVideoTitle,
		SourceDescription: req.InitialSourceDescription,
	})
	if err != nil {
		return CreateSessionResponse{}, err
	}
	requestID, err := s.launcher.Launch(ctx, pipeline.Request{
		SessionID:         sess.ID,
		SourceID:          src.ID,
		VideoURL:          req.VideoURL,
		TranscriptText:    req.RawTranscriptText,
		Title:             strings.TrimSpace(req.InitialVideoTitle),
		SourceDescription: strings.TrimSpace(req.InitialSourceDescription),
	})
	if err != nil {
		return CreateSessionResponse{}, fmt.Errorf("launch session %s: %w", sess.ID, err)
	}
	return CreateSessionResponse{SessionID: sess.ID, Status: string(sess.Status), RequestID: requestID}, nil
}

// Status returns the session with its history. Completed sessions also carry
// the note, knowledge cues and transcript.
func (s *SessionService) Status(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := FromSession(sess)
	view.History = FromHistory(history)
	if sess.Status != session.StatusComplete {
		return &view, nil
	}

	src, err := s.store.GetSource(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return &view, nil
	}
	outputs, err := s.store.StageOutputs(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	results := &FinalResults{Transcript: src.Segments}
	for _, out := range outputs {
		switch stages.Name(out.Stage) {
		case stages.B:
			results.Note = out.Payload
		case stages.D:
			results.KnowledgeCues = out.Payload
		}
	}
	view.FinalResults = results
	return &view, nil
}

// Source returns the source attached to a session.
func (s *SessionService) Source(ctx context.Context, sessionID string) (*Source, error) {
	if _, err := s.session(ctx, sessionID); err != nil {
		return nil, err
	}
	src, err := s.store.GetSource(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s has no source", ErrSessionNotFound, sessionID)
	}
	outputs, err := s.store.StageOutputs(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	hasKeyInfo := false
	for _, out := range outputs {
		if stages.Name(out.Stage) == stages.A2 {
			hasKeyInfo = true
		}
	}
	view := FromSource(src, hasKeyInfo)
	return &view, nil
}

// Outputs returns every persisted stage output for a session.
func (s *SessionService) Outputs(ctx context.Context, sessionID string) (StageOutputsResponse, error) {
	resp := StageOutputsResponse{SessionID: sessionID, Outputs: []StageOutput{}}
	if _, err := s.session(ctx, sessionID); err != nil {
		return resp, err
	}
	src, err := s.store.GetSource(ctx, sessionID)
	if err != nil || src == nil {
		return resp, err
	}
	outputs, err := s.store.StageOutputs(ctx, src.ID)
	if err != nil {
		return resp, err
	}
	resp.Outputs = FromStageOutputs(outputs)
	return resp, nil
}

// List returns sessions filtered by the given raw status values.
func (s *SessionService) List(ctx context.Context, rawStatuses ...string) ([]Session, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	statuses, err := ParseStatuses(rawStatuses)
	if err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromSessions(items), nil
}

// Counts returns the number of sessions per status.
func (s *SessionService) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	if s == nil || s.store == nil {
		return counts, nil
	}
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		counts[string(item.Status)]++
	}
	return counts, nil
}

// ParseStatuses validates raw status names.
func ParseStatuses(raw []string) ([]session.Status, error) {
	var out []session.Status
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		status, ok := session.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		out = append(out, status)
	}
	return out, nil
}

func (s *SessionService) session(ctx context.Context, sessionID string) (*session.Session, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("session store unavailable")
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}
