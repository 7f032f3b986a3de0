package transcript

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// timestampLine matches a leading HH:MM:SS or MM:SS stamp, optionally
// wrapped in brackets or parentheses, followed by the line text.
var timestampLine = regexp.MustCompile(`^[(\[]?(?:(\d{1,2}):(\d{2}):(\d{2})|(\d{1,2}):(\d{2}))[)\]]?\s*(.*)$`)

// Split turns raw transcript text into ordered segments. Lines starting with
// a timestamp open a new segment; other lines are appended to the current
// one, joined by a single space. Text before the first timestamp starts at
// zero. Blank or whitespace-only input yields no segments.
func Split(raw string) []Segment {
	text := norm.NFC.String(raw)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		segments []Segment
		current  *Segment
		parts    []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(parts, " ")
		if current.Text != "" {
			segments = append(segments, *current)
		}
		current, parts = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if start, rest, ok := parseTimestamp(line); ok {
			flush()
			current = &Segment{StartTimeSeconds: start}
			if rest != "" {
				parts = append(parts, rest)
			}
			continue
		}
		if current == nil {
			current = &Segment{}
		}
		parts = append(parts, line)
	}
	flush()

	if len(segments) == 0 {
		return Finalize([]Segment{{Text: strings.Join(strings.Fields(text), " ")}})
	}
	return Finalize(segments)
}

// Join concatenates segment text with single spaces.
func Join(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func parseTimestamp(line string) (float64, string, bool) {
	folded := foldStampPrefix(line)
	m := timestampLine.FindStringSubmatch(folded)
	if m == nil {
		return 0, "", false
	}
	var h, mnt, s int
	if m[1] != "" {
		h, _ = strconv.Atoi(m[1])
		mnt, _ = strconv.Atoi(m[2])
		s, _ = strconv.Atoi(m[3])
		if mnt > 59 {
			return 0, "", false
		}
	} else {
		// MM:SS may run past the hour, e.g. 61:20
		mnt, _ = strconv.Atoi(m[4])
		s, _ = strconv.Atoi(m[5])
	}
	if s > 59 {
		return 0, "", false
	}
	return float64(h*3600 + mnt*60 + s), strings.TrimSpace(m[6]), true
}

// foldStampPrefix narrows full-width digits, colons and brackets at the start
// of the line so "［００：０５］" parses like "[00:05]". Text after the stamp
// is left untouched.
func foldStampPrefix(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for i, r := range line {
		narrow := r
		if p := width.LookupRune(r); p.Kind() == width.EastAsianFullwidth {
			if n := p.Narrow(); n != 0 {
				narrow = n
			}
		}
		if !isStampRune(narrow) {
			b.WriteString(line[i:])
			return b.String()
		}
		b.WriteRune(narrow)
	}
	return b.String()
}

func isStampRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == ':', r == '[', r == ']', r == '(', r == ')':
		return true
	}
	return false
}
