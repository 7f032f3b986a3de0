package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const universalStageOutput = `{
  "videoTitle": "Intro to Go",
  "videoDescription": "first lecture",
  "transcriptSegments": [{"segmentId": "seg_001", "startTimeSeconds": 1, "endTimeSeconds": 2, "text": "hello"}],
  "extractedKeyInformation": [{"keyPoint": "goroutines are cheap"}],
  "noteMarkdownContent": "# Intro to Go notes",
  "knowledgeCues": [
    {"questionText": "What is a goroutine?", "answerText": "A lightweight thread", "difficultyLevel": "easy"},
    {"questionText": "incomplete"}
  ]
}`

type cliTestEnv struct {
	configPath string
	baseDir    string
	llmCalls   *int
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("PATH", filepath.Join(base, "empty-bin"))
	for _, key := range []string{"XUNFEI_APPID", "XUNFEI_SECRET_KEY", "LLM_API_KEY", "OPENROUTER_API_KEY", "LECTERN_API_TOKEN"} {
		t.Setenv(key, "")
	}

	calls := 0
	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		body, err := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": universalStageOutput}}},
		})
		if err != nil {
			t.Errorf("marshal completion: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(llmServer.Close)

	configPath := filepath.Join(homeDir, ".config", "lectern", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(`[paths]
state_dir = %q
work_dir = %q
log_dir = %q

[api]
bind = "127.0.0.1:1"

[llm]
api_key = "test"
base_url = %q
retry_attempts = 1

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "state"), filepath.Join(base, "work"), filepath.Join(base, "logs"), llmServer.URL)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{configPath: configPath, baseDir: base, llmCalls: &calls}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func sessionIDFrom(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if rest, ok := strings.CutPrefix(line, "Session "); ok {
			return strings.TrimSuffix(rest, " created")
		}
	}
	t.Fatalf("no session id in output %q", output)
	return ""
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Speech recognition configured: no")
	requireContains(t, out, "shutdown_grace_seconds")
	requireContains(t, out, "127.0.0.1:1")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	requireContains(t, out, "[llm] api_key")
	requireContains(t, out, "[asr] app_id and secret_key")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestRunTextSessionToCompletion(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--text", "[00:00:01] hello there", "--title", "Lecture"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "Status: all_processing_complete")
	if *env.llmCalls != 4 {
		t.Fatalf("llm calls = %d, want 4", *env.llmCalls)
	}
	id := sessionIDFrom(t, out)

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, id)

	out, _, err = runCLI(t, []string{"show", id, "--format", "yaml"}, env.configPath)
	if err != nil {
		t.Fatalf("show yaml: %v", err)
	}
	requireContains(t, out, "status: all_processing_complete")
	requireContains(t, out, "video_title: Intro to Go")

	out, _, err = runCLI(t, []string{"show", id, "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("show json: %v", err)
	}
	var export sessionExport
	if err := json.Unmarshal([]byte(out), &export); err != nil {
		t.Fatalf("decode show json: %v", err)
	}
	if len(export.Outputs) < 4 || export.Session.FinalResults == nil {
		t.Fatalf("unexpected export %+v", export)
	}
	var cues struct {
		KnowledgeCues []map[string]any `json:"knowledgeCues"`
	}
	if err := json.Unmarshal(export.Session.FinalResults.KnowledgeCues, &cues); err != nil {
		t.Fatalf("decode cues: %v", err)
	}
	if len(cues.KnowledgeCues) != 1 {
		t.Fatalf("expected incomplete cue to be filtered, got %d cues", len(cues.KnowledgeCues))
	}

	out, _, err = runCLI(t, []string{"show", id}, env.configPath)
	if err != nil {
		t.Fatalf("show text: %v", err)
	}
	requireContains(t, out, "# Intro to Go notes")
}

func TestRunWithoutInputRecordsValidationError(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("expected run without input to fail")
	}
	requireContains(t, out, "Status: error_no_valid_input")
	if *env.llmCalls != 0 {
		t.Fatalf("llm calls = %d, want 0", *env.llmCalls)
	}

	out, _, err = runCLI(t, []string{"list", "--status", "error_no_valid_input", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, `"status": "error_no_valid_input"`)
}

func TestRunVideoWithoutDownloader(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--url", "https://www.bilibili.com/video/BV1GJ411x7h7"}, env.configPath)
	if err == nil {
		t.Fatal("expected video run to fail without yt-dlp")
	}
	requireContains(t, out, "Status: error_bili_download")
}

func TestStatusWithoutDaemonFallsBackToDatabase(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err == nil {
		t.Fatal("expected failed run")
	}

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, "error_no_valid_input")
}

func TestCheckReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail without binaries and ASR credentials")
	}
	requireContains(t, out, "Speech recognition")
	requireContains(t, out, "Generation LLM")
	requireContains(t, out, "yt-dlp")
}

func TestLogsPrintsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.baseDir, "logs", "lectern.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}
