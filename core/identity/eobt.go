package identity

import (
	"encoding/json"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"flightplan-bridge/core/utils"
)

// MinuteLayout is the canonical UTC minute key format.
const MinuteLayout = "2006-01-02T15:04Z"

// zoned layouts carry an explicit offset; Go accepts fractional seconds after
// the seconds field even when the layout does not name them.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// interpreted in naive (UTC when naive is nil).
func ParseTimestamp(s string, naive *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if naive == nil {
		naive = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, naive); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToTime converts a timestamp-like value into an instant. It accepts strings,
// time.Time, epoch seconds (any numeric kind or json.Number) and pointers to
// time.Time.
func ToTime(value any, naive *time.Location) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return ParseTimestamp(v, naive)
	case json.Number, int, int64, int32, float64, float32:
		secs, ok := utils.ToInt64(v)
		if !ok {
			return time.Time{}, false
		}
		return time.Unix(secs, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// CanonEOBTMinute normalizes a departure timestamp to the UTC minute key
// "YYYY-MM-DDTHH:MMZ". Seconds are truncated, so values differing only in
// seconds share a key.
func CanonEOBTMinute(value any, naive *time.Location) (string, bool) {
	t, ok := ToTime(value, naive)
	if !ok {
		return "", false
	}
	return MinuteKey(t), true
}

// MinuteKey formats t as a canonical minute key.
func MinuteKey(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(MinuteLayout)
}

// ParseMinuteKey decodes a canonical minute key back into a UTC instant.
func ParseMinuteKey(k string) (time.Time, bool) {
	t, err := time.Parse(MinuteLayout, k)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
