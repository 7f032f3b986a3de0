package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/llm"
)

// Completer is the LLM capability the stages need.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Pinger is implemented by completers that can verify their endpoint.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// LLMOption customizes the LLM-backed processors.
type LLMOption func(*llmDeps)

type llmDeps struct {
	client Completer
	now    func() time.Time
	logger *slog.Logger
}

// WithClock overrides the time source used for timestamp stamping.
func WithClock(now func() time.Time) LLMOption {
	return func(d *llmDeps) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger attaches a logger to the processors.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(d *llmDeps) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewLLMSet builds the four generation stages on top of client.
func NewLLMSet(client Completer, opts ...LLMOption) Set {
	deps := &llmDeps{client: client, now: time.Now, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(deps)
	}
	return Set{
		A1: &llmProcessor{name: A1, system: a1SystemPrompt, build: buildA1Prompt, finish: finishA1, deps: deps},
		A2: &llmProcessor{name: A2, system: a2SystemPrompt, build: buildA2Prompt, finish: finishA2, deps: deps},
		B:  &llmProcessor{name: B, system: bSystemPrompt, build: buildBPrompt, finish: finishB, deps: deps},
		D:  &llmProcessor{name: D, system: dSystemPrompt, build: buildDPrompt, finish: finishD, deps: deps},
	}
}

// CheckLLM reports whether the completer behind the stages is reachable.
func CheckLLM(ctx context.Context, client Completer) Health {
	const name = "generation stages"
	if client == nil {
		return Unhealthy(name, "llm client not configured")
	}
	if c, ok := client.(*llm.Client); ok && !c.Configured() {
		return Unhealthy(name, "llm api key missing (llm.api_key or LLM_API_KEY)")
	}
	pinger, ok := client.(Pinger)
	if !ok {
		return Healthy(name)
	}
	if err := pinger.HealthCheck(ctx); err != nil {
		return Unhealthy(name, err.Error())
	}
	return Healthy(name)
}

type llmProcessor struct {
	name   Name
	system string
	build  func(Input) (string, error)
	finish func(doc map[string]any, in Input, now time.Time, logger *slog.Logger) error
	deps   *llmDeps
}

func (p *llmProcessor) Process(ctx context.Context, in Input) (json.RawMessage, error) {
	stage := string(p.name)
	if p.deps.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "complete", "llm client not configured", nil)
	}
	user, err := p.build(in)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "build prompt", "", err)
	}
	content, err := p.deps.client.CompleteJSON(ctx, p.system, user)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "complete", "llm request failed", err)
	}

	var doc map[string]any
	if err := decodeDocument(content, &doc); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "decode", "llm output is not a JSON object", err)
	}
	if doc == nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "decode", "llm output is not a JSON object", nil)
	}
	if in.VideoID != "" {
		doc["videoId"] = in.VideoID
	}
	logger := logging.WithContext(ctx, p.deps.logger)
	if err := p.finish(doc, in, p.deps.now(), logger); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "validate", "llm output failed validation", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: encode output: %w", stage, err)
	}
	return out, nil
}

// decodeDocument decodes model output keeping numbers exact.
func decodeDocument(content string, target *map[string]any) error {
	var raw json.RawMessage
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(target)
}

func requireList(doc map[string]any, key string) ([]any, error) {
	value, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list", key)
	}
	return list, nil
}

func requireString(doc map[string]any, key string) (string, error) {
	value, ok := doc[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return value, nil
}

func finishA1(doc map[string]any, _ Input, now time.Time, _ *slog.Logger) error {
	if _, err := requireString(doc, "videoTitle"); err != nil {
		return err
	}
	if _, err := requireList(doc, "transcriptSegments"); err != nil {
		return err
	}
	stampTimestamp(doc, "processingTimestamp", now)
	return nil
}

func finishA2(doc map[string]any, _ Input, now time.Time, _ *slog.Logger) error {
	if _, err := requireList(doc, "extractedKeyInformation"); err != nil {
		return err
	}
	stampTimestamp(doc, "processingTimestamp", now)
	return nil
}

func finishB(doc map[string]any, _ Input, now time.Time, _ *slog.Logger) error {
	if _, err := requireString(doc, "noteMarkdownContent"); err != nil {
		return err
	}
	if id, _ := doc["noteId"].(string); strings.TrimSpace(id) == "" {
		doc["noteId"] = uuid.NewString()
	}
	stampTimestamp(doc, "generationTimestamp", now)
	return nil
}

var requiredCueFields = []string{"questionText", "answerText", "difficultyLevel"}

func finishD(doc map[string]any, in Input, now time.Time, logger *slog.Logger) error {
	cues, err := requireList(doc, "knowledgeCues")
	if err != nil {
		return err
	}
	kept := make([]any, 0, len(cues))
	for _, item := range cues {
		cue, ok := item.(map[string]any)
		if !ok || !hasStrings(cue, requiredCueFields...) {
			continue
		}
		kept = append(kept, cue)
	}
	if dropped := len(cues) - len(kept); dropped > 0 {
		logging.WarnWithContext(logger, "dropped incomplete knowledge cues", "cue_filter",
			logging.Int("dropped", dropped),
			logging.Int("kept", len(kept)),
			logging.String(logging.FieldImpact, "fewer review questions for this session"),
		)
	}
	doc["knowledgeCues"] = kept
	if noteID := noteIDFrom(in.B); noteID != "" {
		doc["noteId"] = noteID
	}
	stampTimestamp(doc, "generationTimestamp", now)
	return nil
}

func hasStrings(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if s, ok := m[key].(string); !ok || strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

func noteIDFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var note struct {
		NoteID string `json:"noteId"`
	}
	if err := json.Unmarshal(raw, &note); err != nil {
		return ""
	}
	return note.NoteID
}
