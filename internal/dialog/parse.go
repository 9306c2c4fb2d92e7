package dialog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrBadTime marks input that does not parse as a valid HH:MM value.
	ErrBadTime = errors.New("dialog: invalid time format")

	// ErrBadQuote marks input that does not split into quote text and author.
	ErrBadQuote = errors.New("dialog: invalid quote format")
)

// quoteRe splits a proposal into quote text and author: optional surrounding
// quotation marks, then text, then a hyphen separator, then the author.
// The lazy text group means the split happens at the first hyphen, so an
// author containing hyphens survives intact.
var quoteRe = regexp.MustCompile(`^["“]?(.*?)["”]?\s*-\s*(.+)$`)

// ParseTime validates a 24-hour "HH:MM" value and returns its parts.
func ParseTime(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return hour, minute, nil
}

// NormalizeTime parses s and renders it back as zero-padded "HH:MM",
// so "9:5" and "09:05" store identically.
func NormalizeTime(s string) (string, error) {
	h, m, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// ParseQuote splits a proposed quote into text and author.
// Both segments must be non-empty after trimming.
func ParseQuote(s string) (text, author string, err error) {
	m := quoteRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", ErrBadQuote
	}
	text = strings.TrimSpace(m[1])
	author = strings.TrimSpace(m[2])
	if text == "" || author == "" {
		return "", "", ErrBadQuote
	}
	return text, author, nil
}
