package transcript

import "fmt"

// Segment is one timestamped span of transcript text.
type Segment struct {
	ID               string  `json:"id"`
	StartTimeSeconds float64 `json:"startTimeSeconds"`
	EndTimeSeconds   float64 `json:"endTimeSeconds"`
	Text             string  `json:"text"`
	Speaker          string  `json:"speaker,omitempty"`
}

// SegmentID formats the identifier for the zero-based segment index.
func SegmentID(index int) string {
	return fmt.Sprintf("seg_%03d", index+1)
}

// Finalize assigns identifiers and enforces ordering: start times never
// decrease and every end time is at least its start. A missing end time is
// filled from the next segment's start.
func Finalize(segments []Segment) []Segment {
	for i := range segments {
		segments[i].ID = SegmentID(i)
	}
	return clampTimes(segments)
}

// Normalize enforces the same ordering as Finalize but keeps identifiers that
// are already set.
func Normalize(segments []Segment) []Segment {
	for i := range segments {
		if segments[i].ID == "" {
			segments[i].ID = SegmentID(i)
		}
	}
	return clampTimes(segments)
}

func clampTimes(segments []Segment) []Segment {
	for i := 1; i < len(segments); i++ {
		if segments[i].StartTimeSeconds < segments[i-1].StartTimeSeconds {
			segments[i].StartTimeSeconds = segments[i-1].StartTimeSeconds
		}
	}
	for i := range segments {
		if segments[i].EndTimeSeconds <= 0 && i+1 < len(segments) {
			segments[i].EndTimeSeconds = segments[i+1].StartTimeSeconds
		}
		if segments[i].EndTimeSeconds < segments[i].StartTimeSeconds {
			segments[i].EndTimeSeconds = segments[i].StartTimeSeconds
		}
	}
	return segments
}
