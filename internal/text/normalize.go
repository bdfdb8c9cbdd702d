// Package text cleans raw input before it reaches the tweet filter.
package text

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyText is returned when the input text is empty or whitespace-only.
	ErrEmptyText = errors.New("text is empty")
	// ErrTextTooLong is returned when the input exceeds the byte limit.
	ErrTextTooLong = errors.New("text too long")
)

// Normalize prepares one raw tweet. It drops invalid UTF-8, folds line
// endings to \n, trims surrounding whitespace and rejects empty input.
func Normalize(s string) (string, error) {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// CheckLength rejects s when it is longer than maxBytes. A non-positive
// limit disables the check.
func CheckLength(s string, maxBytes int) error {
	if maxBytes > 0 && len(s) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTextTooLong, len(s), maxBytes)
	}
	return nil
}
