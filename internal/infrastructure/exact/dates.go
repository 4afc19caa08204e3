package exact

import (
	"strconv"
	"strings"
	"time"
)

// parseExactDate parses the legacy OData date format /Date(<epoch-ms>)/ that
// Exact Online returns on read endpoints. Returns nil for empty or malformed
// values.
func parseExactDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "/Date(") || !strings.HasSuffix(s, ")/") {
		return nil
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "/Date("), ")/")
	// A timezone suffix like +0100 may follow the millisecond value.
	if i := strings.IndexAny(s[1:], "+-"); i >= 0 {
		s = s[:i+1]
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
