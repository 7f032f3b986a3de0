package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"lectern/internal/transcript"
)

// A1Result is the part of the A1 output mirrored onto the source record.
type A1Result struct {
	Title                string
	VideoDescription     string
	SourceDescription    string
	TotalDurationSeconds *float64
	Segments             []transcript.Segment
}

type a1Document struct {
	VideoTitle           string   `json:"videoTitle"`
	VideoDescription     string   `json:"videoDescription"`
	SourceDescription    string   `json:"sourceDescription"`
	TotalDurationSeconds *float64 `json:"totalDurationSeconds"`
	TranscriptSegments   []struct {
		SegmentID        string   `json:"segmentId"`
		StartTimeSeconds float64  `json:"startTimeSeconds"`
		EndTimeSeconds   *float64 `json:"endTimeSeconds"`
		Text             string   `json:"text"`
	} `json:"transcriptSegments"`
}

// ParseA1 extracts source metadata from a persisted A1 output.
func ParseA1(raw json.RawMessage) (A1Result, error) {
	var doc a1Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return A1Result{}, fmt.Errorf("decode a1 output: %w", err)
	}
	res := A1Result{
		Title:                strings.TrimSpace(doc.VideoTitle),
		VideoDescription:     strings.TrimSpace(doc.VideoDescription),
		SourceDescription:    strings.TrimSpace(doc.SourceDescription),
		TotalDurationSeconds: doc.TotalDurationSeconds,
	}
	for _, seg := range doc.TranscriptSegments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		out := transcript.Segment{ID: seg.SegmentID, StartTimeSeconds: seg.StartTimeSeconds, Text: text}
		if seg.EndTimeSeconds != nil {
			out.EndTimeSeconds = *seg.EndTimeSeconds
		}
		res.Segments = append(res.Segments, out)
	}
	if len(res.Segments) > 0 {
		res.Segments = transcript.Normalize(res.Segments)
	}
	return res, nil
}
