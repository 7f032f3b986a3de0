package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lectern/internal/asr/xfyun"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/media"
	"lectern/internal/pipeline"
	"lectern/internal/services/llm"
	"lectern/internal/session"
	"lectern/internal/stages"
	"lectern/internal/workflow"
)

// buildDriver wires the pipeline collaborators from cfg. Missing ASR
// credentials leave the transcriber unset so video sessions record
// error_asr_misconfigured instead of failing at start-up.
func buildDriver(cfg *config.Config, store *session.Store, logger *slog.Logger) (*pipeline.Driver, error) {
	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		RetryAttempts:  cfg.LLM.RetryAttempts,
	}, llm.WithLogger(logger))

	deps := pipeline.Deps{
		Store:      store,
		Downloader: media.NewDownloader(cfg.Media.YTDLPBinary, media.ExecRunner, logger),
		Extractor:  media.NewExtractor(cfg.Media.FFmpegBinary, media.ExecRunner, logger),
		Stages:     stages.NewLLMSet(llmClient, stages.WithLogger(logger)),
		WorkDir:    cfg.Paths.WorkDir,
		Logger:     logger,
	}

	asr, err := xfyun.NewClient(xfyun.Config{
		AppID:          cfg.ASR.AppID,
		SecretKey:      cfg.ASR.SecretKey,
		BaseURL:        cfg.ASR.BaseURL,
		SliceSize:      int64(cfg.ASR.SliceSizeMB) * 1024 * 1024,
		PollInterval:   time.Duration(cfg.ASR.PollIntervalSeconds) * time.Second,
		MaxPolls:       cfg.ASR.MaxPolls,
		RequestTimeout: time.Duration(cfg.ASR.RequestTimeoutSeconds) * time.Second,
		Language:       cfg.ASR.Language,
		HasParticiple:  cfg.ASR.HasParticiple,
		SpeakerNumber:  cfg.ASR.SpeakerNumber,
	}, xfyun.WithLogger(logger))
	switch {
	case err == nil:
		deps.Transcriber = asr
	case errors.Is(err, xfyun.ErrMissingCredentials):
		logging.WarnWithContext(logger, "speech recognition not configured", "asr_unconfigured",
			logging.String(logging.FieldImpact, "video sessions will fail with error_asr_misconfigured"),
			logging.String(logging.FieldErrorHint, "set asr.app_id and asr.secret_key or XUNFEI_APPID / XUNFEI_SECRET_KEY"),
		)
	default:
		return nil, fmt.Errorf("asr client: %w", err)
	}

	return pipeline.NewDriver(deps)
}

// buildManager wires a workflow manager around a fresh driver.
func buildManager(cfg *config.Config, store *session.Store, logger *slog.Logger) (*workflow.Manager, error) {
	driver, err := buildDriver(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	return workflow.NewManager(driver, cfg.LockDir(), logger)
}
