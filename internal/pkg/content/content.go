// Package content normalizes user supplied text before it is stored.
package content

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmpty    = errors.New("content is empty")
	ErrTooLong  = errors.New("content is too long")
	ErrEncoding = errors.New("content is not valid UTF-8")
)

// Normalize returns s in Unicode NFC with surrounding whitespace removed.
// Control characters other than newline and tab are dropped.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Clean normalizes s and checks it is non-empty and at most maxRunes runes long.
// maxRunes <= 0 disables the length check.
func Clean(s string, maxRunes int) (string, error) {
	if !utf8.ValidString(s) {
		return "", ErrEncoding
	}
	s = Normalize(s)
	if s == "" {
		return "", ErrEmpty
	}
	if maxRunes > 0 {
		if n := utf8.RuneCountInString(s); n > maxRunes {
			return "", fmt.Errorf("%w: %d runes, limit %d", ErrTooLong, n, maxRunes)
		}
	}
	return s, nil
}
