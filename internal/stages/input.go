package stages

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type rawSegment struct {
	StartTimeSeconds float64 `json:"startTimeSeconds"`
	Text             string  `json:"text"`
}

func buildA1Prompt(in Input) (string, error) {
	if len(in.Segments) == 0 {
		return "", errors.New("no transcript segments")
	}
	raw := make([]rawSegment, 0, len(in.Segments))
	for _, seg := range in.Segments {
		raw = append(raw, rawSegment{StartTimeSeconds: seg.StartTimeSeconds, Text: seg.Text})
	}
	encoded, err := json.MarshalIndent(map[string]any{
		"videoId":                    in.VideoID,
		"userInputVideoTitle":        nullable(in.Title),
		"userInputSourceDescription": nullable(in.SourceDescription),
		"rawTranscriptSegments":      raw,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return "Process this learning session input:\n```json\n" + string(encoded) + "\n```", nil
}

func buildA2Prompt(in Input) (string, error) {
	if len(in.A1) == 0 {
		return "", errors.New("a1 output required")
	}
	return "Extract key information from this pre-processed transcript:\n```json\n" + string(in.A1) + "\n```", nil
}

func buildBPrompt(in Input) (string, error) {
	if len(in.A1) == 0 || len(in.A2) == 0 {
		return "", errors.New("a1 and a2 outputs required")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Video ID: %s\n\n", in.VideoID)
	b.WriteString("Pre-processed transcript:\n```json\n")
	b.Write(in.A1)
	b.WriteString("\n```\n\nExtracted key information:\n```json\n")
	b.Write(in.A2)
	b.WriteString("\n```")
	return b.String(), nil
}

func buildDPrompt(in Input) (string, error) {
	if len(in.B) == 0 {
		return "", errors.New("b output required")
	}
	var note struct {
		NoteID   string   `json:"noteId"`
		Markdown string   `json:"noteMarkdownContent"`
		Concepts []string `json:"keyConceptsMentioned"`
		Summary  string   `json:"summaryOfNote"`
	}
	if err := json.Unmarshal(in.B, &note); err != nil {
		return "", fmt.Errorf("decode b output: %w", err)
	}
	if strings.TrimSpace(note.Markdown) == "" {
		return "", errors.New("b output has no note content")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Video ID: %s\nNote ID: %s\n\n", in.VideoID, note.NoteID)
	fmt.Fprintf(&b, "Note summary:\n%s\n\n", orNotAvailable(note.Summary))
	fmt.Fprintf(&b, "Key concepts:\n%s\n\n", orNotAvailable(strings.Join(note.Concepts, ", ")))
	b.WriteString("Note content:\n```markdown\n")
	b.WriteString(note.Markdown)
	b.WriteString("\n```")
	return b.String(), nil
}

func nullable(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not available."
	}
	return s
}
