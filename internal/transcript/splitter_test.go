package transcript_test

import (
	"testing"

	"lectern/internal/transcript"
)

func TestSplitJoinsContinuationLines(t *testing.T) {
	got := transcript.Split("[00:00:01] Hello.\nContinued.\n[00:00:05] Next part.")
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(got), got)
	}
	if got[0].StartTimeSeconds != 1 || got[0].Text != "Hello. Continued." {
		t.Fatalf("unexpected first segment %+v", got[0])
	}
	if got[1].StartTimeSeconds != 5 || got[1].Text != "Next part." {
		t.Fatalf("unexpected second segment %+v", got[1])
	}
	if got[0].EndTimeSeconds != 5 || got[1].EndTimeSeconds != 5 {
		t.Fatalf("unexpected end times %v %v", got[0].EndTimeSeconds, got[1].EndTimeSeconds)
	}
	if got[0].ID != "seg_001" || got[1].ID != "seg_002" {
		t.Fatalf("unexpected ids %q %q", got[0].ID, got[1].ID)
	}
}

func TestSplitFormats(t *testing.T) {
	cases := []struct {
		name  string
		input string
		start []float64
		text  []string
	}{
		{
			name:  "minutes and seconds",
			input: "00:10 first\n01:05 second",
			start: []float64{10, 65},
			text:  []string{"first", "second"},
		},
		{
			name:  "parenthesized hours",
			input: "(1:00:00) one hour in",
			start: []float64{3600},
			text:  []string{"one hour in"},
		},
		{
			name:  "preamble before first stamp",
			input: "intro words\n[00:03] after",
			start: []float64{0, 3},
			text:  []string{"intro words", "after"},
		},
		{
			name:  "no timestamps",
			input: "  just some text\n\nacross lines  ",
			start: []float64{0},
			text:  []string{"just some text across lines"},
		},
		{
			name:  "full-width stamp",
			input: "［００：０２］第一句\n［００：０９］第二句，继续",
			start: []float64{2, 9},
			text:  []string{"第一句", "第二句，继续"},
		},
		{
			name:  "windows line endings",
			input: "[00:01] a\r\n[00:02] b\r\n",
			start: []float64{1, 2},
			text:  []string{"a", "b"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := transcript.Split(tc.input)
			if len(got) != len(tc.start) {
				t.Fatalf("expected %d segments, got %+v", len(tc.start), got)
			}
			for i := range got {
				if got[i].StartTimeSeconds != tc.start[i] || got[i].Text != tc.text[i] {
					t.Fatalf("segment %d = %+v, want start %v text %q", i, got[i], tc.start[i], tc.text[i])
				}
			}
		})
	}
}

func TestSplitBlankInputYieldsNothing(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t"} {
		if got := transcript.Split(input); len(got) != 0 {
			t.Fatalf("Split(%q) = %+v, want none", input, got)
		}
	}
}

func TestSplitStartTimesNeverDecrease(t *testing.T) {
	got := transcript.Split("[00:10] late\n[00:05] out of order\n[00:20] end")
	for i := 1; i < len(got); i++ {
		if got[i].StartTimeSeconds < got[i-1].StartTimeSeconds {
			t.Fatalf("start times decreased at %d: %+v", i, got)
		}
	}
	for _, seg := range got {
		if seg.EndTimeSeconds < seg.StartTimeSeconds {
			t.Fatalf("end before start: %+v", seg)
		}
	}
}

func TestFinalizeClampsEnds(t *testing.T) {
	got := transcript.Finalize([]transcript.Segment{
		{StartTimeSeconds: 2, EndTimeSeconds: 1, Text: "a"},
		{StartTimeSeconds: 4, EndTimeSeconds: 6, Text: "b"},
	})
	if got[0].EndTimeSeconds != 2 {
		t.Fatalf("expected end clamped to start, got %v", got[0].EndTimeSeconds)
	}
	if transcript.Join(got) != "a b" {
		t.Fatalf("unexpected join %q", transcript.Join(got))
	}
}

func TestNormalizeKeepsExistingIDs(t *testing.T) {
	got := transcript.Normalize([]transcript.Segment{
		{ID: "seg_010", StartTimeSeconds: 5, Text: "a"},
		{StartTimeSeconds: 3, EndTimeSeconds: 9, Text: "b"},
	})
	if got[0].ID != "seg_010" || got[1].ID != "seg_002" {
		t.Fatalf("unexpected ids %q %q", got[0].ID, got[1].ID)
	}
	if got[1].StartTimeSeconds != 5 {
		t.Fatalf("expected start clamped to 5, got %v", got[1].StartTimeSeconds)
	}
	if got[0].EndTimeSeconds != 5 {
		t.Fatalf("expected end filled from next start, got %v", got[0].EndTimeSeconds)
	}
}

func TestSplitMinuteStampsPastTheHour(t *testing.T) {
	segments := transcript.Split("59:58 before the hour\n61:20 past the hour\n[01:75:00] not a stamp")
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", segments)
	}
	if segments[0].StartTimeSeconds != 3598 || segments[0].Text != "before the hour" {
		t.Fatalf("unexpected first segment %+v", segments[0])
	}
	if segments[1].StartTimeSeconds != 3680 {
		t.Fatalf("second segment starts at %v, want 3680", segments[1].StartTimeSeconds)
	}
	if segments[1].Text != "past the hour [01:75:00] not a stamp" {
		t.Fatalf("unexpected second segment text %q", segments[1].Text)
	}
}
