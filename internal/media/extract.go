package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"lectern/internal/logging"
	"lectern/internal/services"
)

// ErrExtraction marks any audio extraction failure.
var ErrExtraction = errors.New("audio extraction failed")

// Extractor converts a downloaded video into the mono 16 kHz PCM WAV the
// recognizer expects.
type Extractor struct {
	binary string
	run    CommandRunner
	logger *slog.Logger
}

// NewExtractor builds an Extractor. An empty binary defaults to ffmpeg and a
// nil runner to ExecRunner.
func NewExtractor(binary string, run CommandRunner, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if run == nil {
		run = ExecRunner
	}
	return &Extractor{binary: binary, run: run, logger: logging.NewComponentLogger(logger, "ffmpeg")}
}

// Extract writes dest from src. On failure a zero-byte dest is removed.
func (e *Extractor) Extract(ctx context.Context, src, dest string) error {
	if !nonEmptyFile(src) {
		return fmt.Errorf("%w: %w", ErrExtraction,
			services.Wrap(services.ErrValidation, "acquisition", "extract audio", "source video missing or empty: "+src, nil))
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	started := time.Now()
	out, err := e.run(ctx, e.binary, args...)
	if err != nil {
		e.cleanup(dest)
		return fmt.Errorf("%w: %w", ErrExtraction,
			services.Wrap(services.ErrExternalTool, "acquisition", "extract audio",
				fmt.Sprintf("ffmpeg exited with code %d: %s", ExitCode(err), strings.TrimSpace(trimOutput(out))), err))
	}
	if !nonEmptyFile(dest) {
		e.cleanup(dest)
		return fmt.Errorf("%w: %w", ErrExtraction,
			services.Wrap(services.ErrExternalTool, "acquisition", "extract audio", "ffmpeg produced no audio", nil))
	}
	logging.WithContext(ctx, e.logger).Debug("audio extracted",
		logging.String("dest", dest),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (e *Extractor) cleanup(dest string) {
	info, err := os.Stat(dest)
	if err != nil || info.Size() > 0 {
		return
	}
	if err := os.Remove(dest); err != nil {
		e.logger.Debug("remove empty audio output failed", logging.String("dest", dest), logging.Error(err))
	}
}
