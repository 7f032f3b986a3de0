package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lectern/internal/asr/xfyun"
	"lectern/internal/logging"
	"lectern/internal/media"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/transcript"
	"lectern/internal/videoref"
)

type inputPath string

const (
	inputVideo inputPath = "video"
	inputText  inputPath = "text"
)

const (
	videoFileName = "video.mp4"
	audioFileName = "audio.wav"
)

// resolveInput picks the acquisition path. Exactly one of a valid video
// reference or non-blank transcript text must be supplied.
func (r *run) resolveInput() (inputPath, string, error) {
	rawURL := strings.TrimSpace(r.req.VideoURL)
	hasText := strings.TrimSpace(r.req.TranscriptText) != ""

	switch {
	case rawURL != "" && hasText:
		return "", "", inputError("both a video URL and transcript text were supplied")
	case rawURL != "":
		normalized, ok := videoref.Normalize(rawURL)
		if !ok {
			return "", "", inputError(fmt.Sprintf("invalid video URL %q", rawURL))
		}
		return inputVideo, normalized, nil
	case hasText:
		return inputText, "", nil
	default:
		return "", "", inputError("no video URL or transcript text supplied")
	}
}

func inputError(message string) error {
	return fmt.Errorf("%w: %w", ErrInputValidation,
		services.Wrap(services.ErrValidation, "acquisition", "validate input", message, nil))
}

func (r *run) acquireVideo(ctx context.Context, videoURL string) ([]transcript.Segment, error) {
	d := r.driver
	if err := r.advance(ctx, session.StatusVideoStarted); err != nil {
		return nil, err
	}
	if d.downloader == nil || d.extractor == nil {
		return nil, errors.New("video acquisition tools not wired")
	}
	if err := os.MkdirAll(d.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	dir, err := os.MkdirTemp(d.workDir, "session_"+r.req.SessionID+"_")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	r.tempDir = dir

	if err := r.advance(ctx, session.StatusDownloadActive); err != nil {
		return nil, err
	}
	videoPath := filepath.Join(dir, videoFileName)
	if err := d.downloader.Download(ctx, videoURL, videoPath); err != nil {
		return nil, fmt.Errorf("%w: %w", errDownload, err)
	}
	if err := r.advance(ctx, session.StatusDownloadDone); err != nil {
		return nil, err
	}

	if err := r.advance(ctx, session.StatusExtractionActive); err != nil {
		return nil, err
	}
	audioPath := filepath.Join(dir, audioFileName)
	if err := d.extractor.Extract(ctx, videoPath, audioPath); err != nil {
		if !errors.Is(err, media.ErrExtraction) {
			err = fmt.Errorf("%w: %w", media.ErrExtraction, err)
		}
		return nil, err
	}
	if err := r.advance(ctx, session.StatusExtractionDone); err != nil {
		return nil, err
	}

	if err := r.advance(ctx, session.StatusASRActive); err != nil {
		return nil, err
	}
	if d.transcriber == nil {
		return nil, fmt.Errorf("%w: %w", ErrASRMisconfigured,
			services.Wrap(services.ErrConfiguration, "asr", "transcribe", "speech recognition credentials not configured", nil))
	}
	sentences, err := d.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if errors.Is(err, xfyun.ErrMissingCredentials) {
			return nil, fmt.Errorf("%w: %w", ErrASRMisconfigured, err)
		}
		return nil, fmt.Errorf("%w: %w", errASR, err)
	}
	segments := r.segmentsFromSentences(sentences)
	if err := r.advance(ctx, session.StatusASRDone); err != nil {
		return nil, err
	}
	return segments, nil
}

func (r *run) acquireText(ctx context.Context) ([]transcript.Segment, error) {
	if err := r.advance(ctx, session.StatusTranscriptStarted); err != nil {
		return nil, err
	}
	segments := transcript.Split(r.req.TranscriptText)
	if len(segments) == 0 {
		return nil, inputError("transcript text produced no segments")
	}
	return segments, nil
}

// segmentsFromSentences converts recognized sentences to segments. Sentences
// with blank text or unusable timing are dropped. When nothing survives, the
// recognized text is run through the splitter as a single block.
func (r *run) segmentsFromSentences(sentences []xfyun.Sentence) []transcript.Segment {
	segments := make([]transcript.Segment, 0, len(sentences))
	var texts []string
	for _, s := range sentences {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		if !s.TimingValid || s.BeginMs < 0 {
			continue
		}
		segments = append(segments, transcript.Segment{
			StartTimeSeconds: float64(s.BeginMs) / 1000,
			EndTimeSeconds:   float64(s.EndMs) / 1000,
			Text:             text,
			Speaker:          s.Speaker,
		})
	}
	if len(segments) > 0 {
		if dropped := len(sentences) - len(segments); dropped > 0 {
			r.logger.Debug("dropped unusable asr sentences", logging.Int("dropped", dropped))
		}
		return transcript.Finalize(segments)
	}

	if len(texts) == 0 {
		logging.WarnWithContext(r.logger, "speech recognition returned no text", "asr_empty",
			logging.Int("sentences", len(sentences)),
			logging.String(logging.FieldImpact, "generation stages receive an empty transcript"),
		)
		return []transcript.Segment{}
	}
	fallback := transcript.Split(strings.Join(texts, " "))
	logging.WarnWithContext(r.logger, "speech recognition returned no usable timing; using text fallback", "asr_fallback",
		logging.Int("sentences", len(sentences)),
		logging.Int("segments", len(fallback)),
		logging.String(logging.FieldImpact, "transcript timestamps are approximate"),
	)
	return fallback
}
