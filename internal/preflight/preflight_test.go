package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"lectern/internal/config"
)

func llmServer(t *testing.T, status int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLLM_OK(t *testing.T) {
	var calls atomic.Int32
	srv := llmServer(t, http.StatusOK, &calls)

	cfg := config.Default().LLM
	cfg.APIKey = "key"
	cfg.BaseURL = srv.URL
	result := CheckLLM(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestCheckLLM_ServerErrorIsSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := llmServer(t, http.StatusServiceUnavailable, &calls)

	cfg := config.Default().LLM
	cfg.APIKey = "key"
	cfg.BaseURL = srv.URL
	result := CheckLLM(context.Background(), cfg)
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retries)", calls.Load())
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), config.Default().LLM)
	if result.Passed || !strings.Contains(result.Detail, "API key missing") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckASRCredentials(t *testing.T) {
	cfg := config.Default()
	if CheckASRCredentials(&cfg).Passed {
		t.Fatal("expected failure without credentials")
	}
	cfg.ASR.AppID = "app"
	cfg.ASR.SecretKey = "secret"
	if !CheckASRCredentials(&cfg).Passed {
		t.Fatal("expected pass with credentials")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReportsEveryCheck(t *testing.T) {
	var calls atomic.Int32
	srv := llmServer(t, http.StatusOK, &calls)

	binDir := t.TempDir()
	for _, name := range []string{"ffmpeg", "yt-dlp"} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.LLM.APIKey = "key"
	cfg.LLM.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %+v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Speech recognition" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
