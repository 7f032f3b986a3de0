package stages_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"lectern/internal/services"
	"lectern/internal/stages"
	"lectern/internal/transcript"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _ string, user string) (string, error) {
	f.prompts = append(f.prompts, user)
	return f.reply, f.err
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return doc
}

func TestA1StampsTimestampAndPinsVideoID(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n" + `{"videoId":"made-up","videoTitle":"Vectors","processingTimestamp":"` +
		stages.TimestampPlaceholder + `","totalDurationSeconds":12.5,"transcriptSegments":[{"segmentId":"seg_001","startTimeSeconds":0,"endTimeSeconds":12.5,"text":"Hello."}]}` + "\n```"}
	set := stages.NewLLMSet(fake, stages.WithClock(func() time.Time { return fixedNow }))

	out, err := set.A1.Process(context.Background(), stages.Input{
		VideoID:  "src-1",
		Title:    "Linear algebra",
		Segments: []transcript.Segment{{ID: "seg_001", StartTimeSeconds: 0, Text: "hello"}},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	doc := decode(t, out)
	if doc["videoId"] != "src-1" {
		t.Fatalf("expected videoId pinned, got %v", doc["videoId"])
	}
	if doc["processingTimestamp"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp %v", doc["processingTimestamp"])
	}
	if !strings.Contains(fake.prompts[0], `"rawTranscriptSegments"`) || !strings.Contains(fake.prompts[0], "Linear algebra") {
		t.Fatalf("prompt missing input: %s", fake.prompts[0])
	}

	res, err := stages.ParseA1(out)
	if err != nil {
		t.Fatalf("ParseA1: %v", err)
	}
	if res.Title != "Vectors" || res.TotalDurationSeconds == nil || *res.TotalDurationSeconds != 12.5 {
		t.Fatalf("unexpected a1 result %+v", res)
	}
	if len(res.Segments) != 1 || res.Segments[0].ID != "seg_001" {
		t.Fatalf("unexpected segments %+v", res.Segments)
	}
}

func TestA1RejectsMissingKeys(t *testing.T) {
	fake := &fakeCompleter{reply: `{"videoTitle":"x"}`}
	set := stages.NewLLMSet(fake)
	_, err := set.A1.Process(context.Background(), stages.Input{Segments: []transcript.Segment{{Text: "a"}}})
	if err == nil || !strings.Contains(err.Error(), "transcriptSegments") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestA1RequiresSegments(t *testing.T) {
	fake := &fakeCompleter{}
	set := stages.NewLLMSet(fake)
	if _, err := set.A1.Process(context.Background(), stages.Input{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fake.prompts) != 0 {
		t.Fatal("expected no llm call without segments")
	}
}

func TestCompleterFailureIsWrapped(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("http 500")}
	set := stages.NewLLMSet(fake)
	_, err := set.A2.Process(context.Background(), stages.Input{A1: json.RawMessage(`{}`)})
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "http 500") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestBAssignsNoteIDAndKeepsExistingTimestamp(t *testing.T) {
	fake := &fakeCompleter{reply: `{"noteMarkdownContent":"## Notes","generationTimestamp":"2025-01-01T00:00:00Z"}`}
	set := stages.NewLLMSet(fake, stages.WithClock(func() time.Time { return fixedNow }))
	out, err := set.B.Process(context.Background(), stages.Input{A1: json.RawMessage(`{}`), A2: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	doc := decode(t, out)
	if id, _ := doc["noteId"].(string); id == "" {
		t.Fatal("expected generated noteId")
	}
	if doc["generationTimestamp"] != "2025-01-01T00:00:00Z" {
		t.Fatalf("timestamp overwritten: %v", doc["generationTimestamp"])
	}
}

func TestDFiltersIncompleteCues(t *testing.T) {
	fake := &fakeCompleter{reply: `{"knowledgeCues":[
		{"cueId":"c1","questionText":"Q1","answerText":"A1","difficultyLevel":"low"},
		{"cueId":"c2","questionText":"Q2","difficultyLevel":"high"},
		{"cueId":"c3","questionText":"","answerText":"A3","difficultyLevel":"medium"},
		"junk"
	]}`}
	set := stages.NewLLMSet(fake, stages.WithClock(func() time.Time { return fixedNow }))
	note := json.RawMessage(`{"noteId":"note-7","noteMarkdownContent":"## Heading","keyConceptsMentioned":["x"],"summaryOfNote":"s"}`)

	out, err := set.D.Process(context.Background(), stages.Input{VideoID: "src-1", B: note})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	doc := decode(t, out)
	cues, _ := doc["knowledgeCues"].([]any)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue kept, got %v", cues)
	}
	if doc["noteId"] != "note-7" {
		t.Fatalf("expected noteId from b output, got %v", doc["noteId"])
	}
	if doc["generationTimestamp"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("expected stamped timestamp, got %v", doc["generationTimestamp"])
	}
	if !strings.Contains(fake.prompts[0], "## Heading") {
		t.Fatalf("prompt missing note content: %s", fake.prompts[0])
	}
}

func TestNonObjectOutputFails(t *testing.T) {
	fake := &fakeCompleter{reply: `[1,2,3]`}
	set := stages.NewLLMSet(fake)
	if _, err := set.A2.Process(context.Background(), stages.Input{A1: json.RawMessage(`{}`)}); err == nil {
		t.Fatal("expected error for array output")
	}
}

func TestCheckLLM(t *testing.T) {
	if h := stages.CheckLLM(context.Background(), nil); h.Ready {
		t.Fatal("expected nil client to be unhealthy")
	}
	if h := stages.CheckLLM(context.Background(), &fakeCompleter{}); !h.Ready {
		t.Fatalf("expected healthy, got %+v", h)
	}
}
