// Package timeutil handles the timezone and timestamp formats accepted by the
// analyze API: IANA zone names such as "Asia/Shanghai" and fixed offsets such
// as "+08:00".
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimezone resolves a timezone string into a *time.Location. It accepts
// IANA names and ±HH:MM (or ±HH) offsets.
func ParseTimezone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("timezone is empty")
	}

	if tz == "UTC" || tz == "Z" {
		return time.UTC, nil
	}

	if strings.HasPrefix(tz, "+") || strings.HasPrefix(tz, "-") {
		return parseOffset(tz)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}

// parseOffset builds a fixed-offset location from a ±HH:MM or ±HH string.
func parseOffset(tz string) (*time.Location, error) {
	sign := 1
	if tz[0] == '-' {
		sign = -1
	}

	parts := strings.SplitN(tz[1:], ":", 2)
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone offset %q", tz)
	}
	minutes := 0
	if len(parts) == 2 {
		minutes, err = strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid timezone offset %q", tz)
		}
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("timezone offset %q out of range", tz)
	}

	seconds := sign * (hours*3600 + minutes*60)
	if seconds == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(tz, seconds), nil
}

// ExtractTimezone returns the offset carried by an ISO 8601 timestamp as a
// timezone string: "UTC" for zero offset, otherwise ±HH:MM. Timestamps without
// an explicit offset are treated as UTC.
func ExtractTimezone(iso string) (string, error) {
	t, err := ParseISOTime(iso)
	if err != nil {
		return "", err
	}
	_, offset := t.Zone()
	if offset == 0 {
		return "UTC", nil
	}

	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/3600, (offset%3600)/60), nil
}

// ParseISOTime parses an ISO 8601 / RFC 3339 timestamp. Values without an
// offset are interpreted as UTC.
func ParseISOTime(iso string) (time.Time, error) {
	iso = strings.TrimSpace(iso)
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t, nil
	}
	// Accept timestamps without an explicit offset, as UTC.
	if t, err := time.Parse("2006-01-02T15:04:05", iso); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 timestamp %q", iso)
}

// CurrentTimeIn parses currentTime and converts it into the zone named by tz.
// When tz is empty the offset embedded in the timestamp itself is used.
func CurrentTimeIn(currentTime, tz string) (time.Time, error) {
	t, err := ParseISOTime(currentTime)
	if err != nil {
		return time.Time{}, err
	}

	if tz == "" {
		tz, err = ExtractTimezone(currentTime)
		if err != nil {
			return time.Time{}, err
		}
	}

	loc, err := ParseTimezone(tz)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// FormatTime renders a timestamp as "2006-01-02 15:04:05" for prompt text.
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// FormatDate renders the date part only.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// PastISO returns the RFC 3339 timestamp d before t. Used to anchor "just now"
// phrases in the extraction prompt.
func PastISO(t time.Time, d time.Duration) string {
	return t.Add(-d).Format(time.RFC3339)
}
