package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lectern/internal/logging"
	"lectern/internal/services"
)

var (
	// ErrDownloadTool means yt-dlp exited unsuccessfully.
	ErrDownloadTool = errors.New("video downloader failed")
	// ErrDownloadMissing means yt-dlp reported success but left no usable file.
	ErrDownloadMissing = errors.New("downloaded video missing")
)

// Downloader fetches a remote video with yt-dlp.
type Downloader struct {
	binary string
	run    CommandRunner
	logger *slog.Logger
}

// NewDownloader builds a Downloader. An empty binary defaults to yt-dlp and a
// nil runner to ExecRunner.
func NewDownloader(binary string, run CommandRunner, logger *slog.Logger) *Downloader {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if run == nil {
		run = ExecRunner
	}
	return &Downloader{binary: binary, run: run, logger: logging.NewComponentLogger(logger, "yt-dlp")}
}

// Download saves url to dest as a merged mp4.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	args := []string{
		"--no-warnings",
		"-o", dest,
		"--merge-output-format", "mp4",
		url,
	}
	started := time.Now()
	out, err := d.run(ctx, d.binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTransient, "acquisition", "download", "interrupted", ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrDownloadTool,
			services.Wrap(services.ErrExternalTool, "acquisition", "download",
				fmt.Sprintf("yt-dlp exited with code %d: %s", ExitCode(err), strings.TrimSpace(trimOutput(out))), err))
	}
	if !nonEmptyFile(dest) {
		return fmt.Errorf("%w: %w", ErrDownloadMissing,
			services.Wrap(services.ErrExternalTool, "acquisition", "download", "no output at "+dest, nil))
	}
	logging.WithContext(ctx, d.logger).Info("video downloaded",
		logging.String("url", url),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
