package stages

import (
	"strings"
	"time"
)

// TimestampPlaceholder is the literal models are asked to emit in place of a
// generation time. It is replaced before the output is persisted.
const TimestampPlaceholder = "[SYSTEM_GENERATED_TIMESTAMP_YYYY-MM-DDTHH:MM:SSZ]"

// stampTimestamp sets key to now when the value is missing, null, blank or
// the placeholder. Any other value is left alone.
func stampTimestamp(doc map[string]any, key string, now time.Time) {
	switch v := doc[key].(type) {
	case nil:
	case string:
		if strings.TrimSpace(v) != "" && v != TimestampPlaceholder {
			return
		}
	default:
		return
	}
	doc[key] = now.UTC().Format(time.RFC3339)
}
