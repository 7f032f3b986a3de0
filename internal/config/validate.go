package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. Missing ASR credentials are
// not a load error; sessions that need recognition record a misconfigured
// status instead.
func (c *Config) Validate() error {
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateASR() error {
	if c.ASR.SliceSizeMB <= 0 {
		return errors.New("asr.slice_size_mb must be positive")
	}
	if c.ASR.PollIntervalSeconds <= 0 {
		return errors.New("asr.poll_interval_seconds must be positive")
	}
	if c.ASR.MaxPolls <= 0 {
		return errors.New("asr.max_polls must be positive")
	}
	if c.ASR.RequestTimeoutSeconds <= 0 {
		return errors.New("asr.request_timeout_seconds must be positive")
	}
	if c.ASR.SpeakerNumber < 0 {
		return errors.New("asr.speaker_number must be >= 0")
	}
	if _, err := url.ParseRequestURI(c.ASR.BaseURL); err != nil {
		return fmt.Errorf("asr.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.RetryAttempts < 1 {
		return errors.New("llm.retry_attempts must be >= 1")
	}
	if _, err := url.ParseRequestURI(c.LLM.BaseURL); err != nil {
		return fmt.Errorf("llm.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ShutdownGraceSeconds < 0 {
		return errors.New("workflow.shutdown_grace_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format must be console, json, or auto (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
