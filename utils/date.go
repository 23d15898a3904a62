package utils

import (
	"fmt"
	"strings"
	"time"

	"writing_marketplace/constants"
)

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeadline accepts the formats browsers send from date and
// datetime-local inputs. Values without a zone are read as UTC.
func ParseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func FormatDisplayDate(t time.Time) string {
	return t.Format(constants.DISPLAY_DATE_FORMAT)
}
