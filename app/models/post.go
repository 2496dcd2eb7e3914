package models

import (
	"strings"
	"time"
)

// postDateLayouts are the date shapes the CMS is known to emit.
var postDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDate parses an ISO-8601 date string in any of the layouts the content
// source produces. Dates without a zone are read as UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range postDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PublishedAt returns the parsed post date.
func (p Post) PublishedAt() (time.Time, bool) {
	return ParseDate(p.Date)
}
