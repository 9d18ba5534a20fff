package fieldtrack

import (
	"time"
)

const dayFormat = "2006-01-02"

// timeNow is swapped out in tests that pin the clock.
var timeNow = time.Now

func iso8601Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseDay parses a YYYY-MM-DD calendar day in local time.
func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dayFormat, s, time.Local)
}
