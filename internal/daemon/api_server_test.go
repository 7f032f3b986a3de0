package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lectern/internal/api"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
	"lectern/internal/session"
	"lectern/internal/testsupport"
	"lectern/internal/workflow"
)

type recordingRunner struct {
	mu       sync.Mutex
	requests []pipeline.Request
}

func (r *recordingRunner) Run(_ context.Context, req pipeline.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return nil
}

func newTestDaemon(t *testing.T, token string) (*Daemon, *workflow.Manager, *recordingRunner) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))
	store := testsupport.MustOpenStore(t, cfg)
	runner := &recordingRunner{}
	mgr, err := workflow.NewManager(runner, cfg.LockDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	d, err := New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, mgr, runner
}

func doRequest(t *testing.T, d *Daemon, method, target, token, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := d.api.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, payload
}

func TestAPIRequiresBearerToken(t *testing.T) {
	d, _, _ := newTestDaemon(t, "secret")

	if code, _ := doRequest(t, d, http.MethodGet, "/api/sessions", "", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", code)
	}
	if code, _ := doRequest(t, d, http.MethodGet, "/api/sessions", "wrong", ""); code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", code)
	}
	if code, _ := doRequest(t, d, http.MethodGet, "/api/sessions", "secret", ""); code != http.StatusOK {
		t.Fatalf("valid token status = %d, want 200", code)
	}
}

func TestAPICreateSessionLaunchesRun(t *testing.T) {
	d, mgr, runner := newTestDaemon(t, "")

	code, body := doRequest(t, d, http.MethodPost, "/api/sessions", "",
		`{"rawTranscriptText":"[00:00:01] hello","initialVideoTitle":"Intro"}`)
	if code != http.StatusAccepted {
		t.Fatalf("create status = %d body=%s", code, body)
	}
	var created api.CreateSessionResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.SessionID == "" || created.Status != string(session.StatusInitiated) {
		t.Fatalf("unexpected create response %+v", created)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	runner.mu.Lock()
	if len(runner.requests) != 1 || runner.requests[0].SessionID != created.SessionID || runner.requests[0].Title != "Intro" {
		t.Fatalf("unexpected launched requests %+v", runner.requests)
	}
	runner.mu.Unlock()

	code, body = doRequest(t, d, http.MethodGet, "/api/sessions/"+created.SessionID+"/status", "", "")
	if code != http.StatusOK {
		t.Fatalf("status code = %d body=%s", code, body)
	}
	var view api.Session
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if view.SessionID != created.SessionID || view.FinalResults != nil {
		t.Fatalf("unexpected status view %+v", view)
	}

	code, body = doRequest(t, d, http.MethodGet, "/api/sessions/"+created.SessionID+"/source", "", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"video_title":"Intro"`) {
		t.Fatalf("source code = %d body=%s", code, body)
	}

	code, body = doRequest(t, d, http.MethodGet, "/api/sessions/"+created.SessionID+"/outputs", "", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"outputs":[]`) {
		t.Fatalf("outputs code = %d body=%s", code, body)
	}

	code, body = doRequest(t, d, http.MethodGet, "/api/status", "", "")
	if code != http.StatusOK {
		t.Fatalf("daemon status code = %d", code)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decode daemon status: %v", err)
	}
	if status.Counts[string(session.StatusInitiated)] != 1 || status.Workflow.Succeeded != 1 || len(status.Dependencies) != 2 {
		t.Fatalf("unexpected daemon status %+v", status)
	}
}

func TestAPIErrors(t *testing.T) {
	d, _, _ := newTestDaemon(t, "")

	if code, _ := doRequest(t, d, http.MethodPost, "/api/sessions", "", `{not json`); code != http.StatusBadRequest {
		t.Fatalf("invalid body status = %d, want 400", code)
	}
	if code, _ := doRequest(t, d, http.MethodGet, "/api/sessions/missing/status", "", ""); code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d, want 404", code)
	}
	if code, _ := doRequest(t, d, http.MethodGet, "/api/sessions/missing/source", "", ""); code != http.StatusNotFound {
		t.Fatalf("unknown source status = %d, want 404", code)
	}
	if code, _ := doRequest(t, d, http.MethodGet, "/api/sessions?status=bogus", "", ""); code != http.StatusBadRequest {
		t.Fatalf("bad filter status = %d, want 400", code)
	}
}
