package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"lectern/internal/config"
	"lectern/internal/deps"
	"lectern/internal/services/llm"
	"lectern/internal/stages"
)

const llmCheckTimeout = 30 * time.Second

// CheckLLM verifies that the generation endpoint is reachable and the key is
// valid. It makes a single attempt with no retries.
func CheckLLM(ctx context.Context, cfg config.LLM) Result {
	const name = "Generation LLM"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing (llm.api_key or LLM_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	health := stages.CheckLLM(checkCtx, client)
	if health.Ready {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", client.Model())}
	}
	if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
		return Result{Name: name, Detail: "health check timed out (LLM API unresponsive)"}
	}
	return Result{Name: name, Detail: health.Detail}
}

// CheckASRCredentials reports whether iFlytek credentials are configured.
// Text sessions work without them.
func CheckASRCredentials(cfg *config.Config) Result {
	const name = "Speech recognition"
	if cfg.ASRConfigured() {
		return Result{Name: name, Passed: true, Detail: "credentials present"}
	}
	return Result{Name: name, Detail: "credentials missing (XUNFEI_APPID / XUNFEI_SECRET_KEY); video sessions will fail"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the daemon status endpoint and the CLI use it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(cfg))
}
