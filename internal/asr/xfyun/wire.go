package xfyun

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// envelope is the common response wrapper returned by every LFASR endpoint.
type envelope struct {
	OK     int             `json:"ok"`
	ErrNo  int             `json:"err_no"`
	Failed string          `json:"failed"`
	Data   json.RawMessage `json:"data"`
}

// dataString returns data when it is a JSON string. Null, missing and
// non-string payloads report false.
func (e *envelope) dataString() (string, bool) {
	raw := bytes.TrimSpace(e.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

type progressPayload struct {
	Status *int   `json:"status"`
	Desc   string `json:"desc"`
}

// Sentence is one recognized utterance from /getResult. Times are
// milliseconds from the start of the audio. TimingValid is false when the
// service returned timing fields that could not be parsed.
type Sentence struct {
	BeginMs     int64
	EndMs       int64
	Text        string
	Speaker     string
	TimingValid bool
}

type rawSentence struct {
	Bg      json.RawMessage `json:"bg"`
	Ed      json.RawMessage `json:"ed"`
	Onebest string          `json:"onebest"`
	Speaker json.RawMessage `json:"speaker"`
}

func decodeSentences(payload string) ([]Sentence, error) {
	var raws []rawSentence
	if err := json.Unmarshal([]byte(payload), &raws); err != nil {
		return nil, err
	}
	out := make([]Sentence, 0, len(raws))
	for _, raw := range raws {
		begin, okBegin := parseMillis(raw.Bg)
		end, okEnd := parseMillis(raw.Ed)
		out = append(out, Sentence{
			BeginMs:     begin,
			EndMs:       end,
			Text:        raw.Onebest,
			Speaker:     scalarString(raw.Speaker),
			TimingValid: okBegin && okEnd,
		})
	}
	return out, nil
}

// parseMillis accepts both "1230" and 1230.
func parseMillis(raw json.RawMessage) (int64, bool) {
	text := scalarString(raw)
	if text == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, v >= 0
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f >= 0 {
		return int64(f), true
	}
	return 0, false
}

func scalarString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n.String()
	}
	return ""
}
