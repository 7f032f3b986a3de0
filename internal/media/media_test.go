package media_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/media"
	"lectern/internal/services"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(calls *[]recordedCall, write func(args []string) error, err error) media.CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		if write != nil {
			if werr := write(args); werr != nil {
				return nil, werr
			}
		}
		return []byte("tool output"), err
	}
}

func writeLastArg(content string) func([]string) error {
	return func(args []string) error {
		return os.WriteFile(args[len(args)-1], []byte(content), 0o644)
	}
}

func TestExtractorBuildsMonoPCMCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "audio.wav")

	var calls []recordedCall
	ex := media.NewExtractor("", fakeRunner(&calls, writeLastArg("RIFF"), nil), nil)
	if err := ex.Extract(context.Background(), src, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(calls) != 1 || calls[0].name != "ffmpeg" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	joined := strings.Join(calls[0].args, " ")
	for _, fragment := range []string{"-i " + src, "-vn", "-ac 1", "-ar 16000", "-c:a pcm_s16le", "-y"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args %q", fragment, joined)
		}
	}
}

func TestExtractorRemovesEmptyOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "audio.wav")

	var calls []recordedCall
	ex := media.NewExtractor("ffmpeg", fakeRunner(&calls, writeLastArg(""), errors.New("exit status 1")), nil)
	err := ex.Extract(context.Background(), src, dest)
	if !errors.Is(err, media.ErrExtraction) || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected extraction/external tool error, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("expected empty output removed, stat err = %v", statErr)
	}
}

func TestExtractorFailsOnMissingSource(t *testing.T) {
	var calls []recordedCall
	ex := media.NewExtractor("ffmpeg", fakeRunner(&calls, nil, nil), nil)
	err := ex.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), filepath.Join(t.TempDir(), "a.wav"))
	if !errors.Is(err, media.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatal("ffmpeg must not run without a source")
	}
}

func TestDownloaderClassifiesFailures(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "video.mp4")

	var calls []recordedCall
	dl := media.NewDownloader("", fakeRunner(&calls, nil, errors.New("exit status 1")), nil)
	if err := dl.Download(context.Background(), "https://example.com/v", dest); !errors.Is(err, media.ErrDownloadTool) {
		t.Fatalf("expected ErrDownloadTool, got %v", err)
	}
	if calls[0].name != "yt-dlp" || calls[0].args[len(calls[0].args)-1] != "https://example.com/v" {
		t.Fatalf("unexpected call %+v", calls[0])
	}

	dl = media.NewDownloader("yt-dlp", fakeRunner(&calls, nil, nil), nil)
	if err := dl.Download(context.Background(), "https://example.com/v", dest); !errors.Is(err, media.ErrDownloadMissing) {
		t.Fatalf("expected ErrDownloadMissing, got %v", err)
	}
}

func TestDownloaderSucceedsWithOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "video.mp4")
	var calls []recordedCall
	write := func(args []string) error {
		for i, a := range args {
			if a == "-o" {
				return os.WriteFile(args[i+1], []byte("mp4"), 0o644)
			}
		}
		return errors.New("no -o flag")
	}
	dl := media.NewDownloader("yt-dlp", fakeRunner(&calls, write, nil), nil)
	if err := dl.Download(context.Background(), "https://example.com/v", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !strings.Contains(strings.Join(calls[0].args, " "), "--merge-output-format mp4") {
		t.Fatalf("expected mp4 merge flag, got %v", calls[0].args)
	}
}

func TestExitCode(t *testing.T) {
	if media.ExitCode(errors.New("plain")) != -1 {
		t.Fatal("expected -1 for non-exit error")
	}
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false binary not available")
	}
	_, err := media.ExecRunner(context.Background(), "false")
	if media.ExitCode(err) != 1 {
		t.Fatalf("expected exit code 1, got %d (%v)", media.ExitCode(err), err)
	}
}
