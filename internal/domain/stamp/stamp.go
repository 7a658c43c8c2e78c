package stamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format names a timestamp rendering.
type Format string

const (
	// FormatDefault renders local time as "2006-01-02 15:04:05.000000", dropping the
	// fraction when it is exactly zero.
	FormatDefault Format = "default"
	// FormatRFC3339 renders time.RFC3339Nano.
	FormatRFC3339 Format = "rfc3339"
	// FormatUnix renders whole seconds since the epoch.
	FormatUnix Format = "unix"
)

const (
	layoutSeconds = "2006-01-02 15:04:05"
	layoutMicros  = "2006-01-02 15:04:05.000000"
)

// ErrUnknownFormat indicates an unsupported timestamp format name.
var ErrUnknownFormat = errors.New("stamp: unknown time format")

// ParseFormat validates a format name; empty selects FormatDefault.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatDefault:
		return FormatDefault, nil
	case FormatRFC3339:
		return FormatRFC3339, nil
	case FormatUnix:
		return FormatUnix, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, value)
	}
}

// Render formats t according to f.
func Render(t time.Time, f Format) (string, error) {
	switch f {
	case "", FormatDefault:
		if t.Nanosecond()/int(time.Microsecond) == 0 {
			return t.Format(layoutSeconds), nil
		}
		return t.Format(layoutMicros), nil
	case FormatRFC3339:
		return t.Format(time.RFC3339Nano), nil
	case FormatUnix:
		return strconv.FormatInt(t.Unix(), 10), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}

// Parse reads a timestamp produced by Render. Default-format values carry no zone
// and are interpreted in loc.
func Parse(value string, f Format, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	trimmed := strings.TrimSpace(value)
	switch f {
	case "", FormatDefault:
		if t, err := time.ParseInLocation(layoutMicros, trimmed, loc); err == nil {
			return t, nil
		}
		t, err := time.ParseInLocation(layoutSeconds, trimmed, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("stamp: parsing %q: %w", value, err)
		}
		return t, nil
	case FormatRFC3339:
		t, err := time.Parse(time.RFC3339Nano, trimmed)
		if err != nil {
			return time.Time{}, fmt.Errorf("stamp: parsing %q: %w", value, err)
		}
		return t, nil
	case FormatUnix:
		secs, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("stamp: parsing %q: %w", value, err)
		}
		return time.Unix(secs, 0).In(loc), nil
	default:
		return time.Time{}, fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}
