package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lectern/internal/api"
	"lectern/internal/pipeline"
	"lectern/internal/session"
	"lectern/internal/stages"
	"lectern/internal/testsupport"
	"lectern/internal/transcript"
)

type recordingLauncher struct {
	requests []pipeline.Request
	err      error
}

func (l *recordingLauncher) Launch(_ context.Context, req pipeline.Request) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	l.requests = append(l.requests, req)
	return "req-1", nil
}

func TestCreateLaunchesRunForNewSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	launcher := &recordingLauncher{}
	svc := api.NewSessionService(store, launcher)

	resp, err := svc.Create(context.Background(), api.CreateSessionRequest{
		RawTranscriptText:        "[00:00:01] hello",
		InitialVideoTitle:        "  Lecture 1 ",
		InitialSourceDescription: "week one",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Status != string(session.StatusInitiated) || resp.RequestID != "req-1" || resp.SessionID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(launcher.requests) != 1 {
		t.Fatalf("launch calls = %d, want 1", len(launcher.requests))
	}
	req := launcher.requests[0]
	if req.SessionID != resp.SessionID || req.SourceID == "" {
		t.Fatalf("unexpected request ids %+v", req)
	}
	if req.Title != "Lecture 1" || req.TranscriptText != "[00:00:01] hello" || req.SourceDescription != "week one" {
		t.Fatalf("unexpected request fields %+v", req)
	}

	src, err := svc.Source(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if src.VideoID != req.SourceID || src.VideoTitle != "Lecture 1" || src.HasStructuredTranscript {
		t.Fatalf("unexpected source %+v", src)
	}
}

func TestCreateSurfacesLaunchFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := api.NewSessionService(store, &recordingLauncher{err: errors.New("busy")})

	if _, err := svc.Create(context.Background(), api.CreateSessionRequest{RawTranscriptText: "x"}); err == nil {
		t.Fatal("expected launch error")
	}
}

func TestStatusIncludesFinalResultsWhenComplete(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sess, src := testsupport.NewSession(t, store, session.NewSession{})

	for _, st := range []session.Status{
		session.StatusTranscriptStarted,
		session.StatusA1Active, session.StatusA1Done,
		session.StatusA2Active, session.StatusA2Done,
		session.StatusBActive, session.StatusBDone,
		session.StatusDActive, session.StatusDDone,
		session.StatusComplete,
	} {
		if err := store.UpdateStatus(ctx, sess.ID, st); err != nil {
			t.Fatalf("UpdateStatus %s: %v", st, err)
		}
	}
	segments := transcript.Finalize([]transcript.Segment{{StartTimeSeconds: 1, EndTimeSeconds: 2, Text: "hi"}})
	if err := store.SaveTranscript(ctx, src.ID, segments); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	outputs := map[stages.Name]string{
		stages.A2: `{"extractedKeyInformation":[]}`,
		stages.B:  `{"noteId":"n1","noteMarkdownContent":"# hi"}`,
		stages.D:  `{"noteId":"n1","knowledgeCues":[]}`,
	}
	for stage, payload := range outputs {
		if err := store.PersistStageOutput(ctx, src.ID, string(stage), json.RawMessage(payload)); err != nil {
			t.Fatalf("PersistStageOutput %s: %v", stage, err)
		}
	}

	svc := api.NewSessionService(store, nil)
	view, err := svc.Status(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.Status != string(session.StatusComplete) || view.Phase != string(session.PhaseTerminal) {
		t.Fatalf("unexpected status %+v", view)
	}
	if len(view.History) != 11 {
		t.Fatalf("history length = %d, want 11", len(view.History))
	}
	if view.FinalResults == nil {
		t.Fatal("expected final results")
	}
	var note map[string]any
	if err := json.Unmarshal(view.FinalResults.Note, &note); err != nil || note["noteId"] != "n1" {
		t.Fatalf("unexpected note %s (%v)", view.FinalResults.Note, err)
	}
	if len(view.FinalResults.KnowledgeCues) == 0 || len(view.FinalResults.Transcript) != 1 {
		t.Fatalf("unexpected final results %+v", view.FinalResults)
	}

	source, err := svc.Source(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if !source.HasStructuredTranscript || !source.HasExtractedKeyInformation || source.SegmentCount != 1 {
		t.Fatalf("unexpected source %+v", source)
	}

	resp, err := svc.Outputs(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Outputs: %v", err)
	}
	if len(resp.Outputs) != 3 {
		t.Fatalf("outputs = %d, want 3", len(resp.Outputs))
	}
}

func TestStatusOmitsResultsWhileRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sess, _ := testsupport.NewSession(t, store, session.NewSession{})
	svc := api.NewSessionService(store, nil)

	view, err := svc.Status(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.FinalResults != nil || view.Phase != string(session.PhaseInitial) || len(view.History) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := api.NewSessionService(store, nil)
	ctx := context.Background()

	if _, err := svc.Status(ctx, "missing"); !errors.Is(err, api.ErrSessionNotFound) {
		t.Fatalf("Status error = %v", err)
	}
	if _, err := svc.Source(ctx, "missing"); !errors.Is(err, api.ErrSessionNotFound) {
		t.Fatalf("Source error = %v", err)
	}
	if _, err := svc.Outputs(ctx, "missing"); !errors.Is(err, api.ErrSessionNotFound) {
		t.Fatalf("Outputs error = %v", err)
	}
}

func TestListFiltersAndCounts(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	first, _ := testsupport.NewSession(t, store, session.NewSession{})
	testsupport.NewSession(t, store, session.NewSession{})
	if err := store.RecordError(ctx, first.ID, session.StatusErrorNoValidInput, "no input"); err != nil {
		t.Fatalf("RecordError: %v", err)
	}

	svc := api.NewSessionService(store, nil)
	all, err := svc.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List all = %d (%v)", len(all), err)
	}
	failed, err := svc.List(ctx, string(session.StatusErrorNoValidInput))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].SessionID != first.ID || failed[0].ErrorMessage != "no input" {
		t.Fatalf("unexpected filtered list %+v", failed)
	}
	if _, err := svc.List(ctx, "bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}

	counts, err := svc.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[string(session.StatusInitiated)] != 1 || counts[string(session.StatusErrorNoValidInput)] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
