package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameRunes bounds stored original names; object keys embed them.
const MaxFileNameRunes = 120

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators, drops control characters and
// rejects traversal. Over-long names are shortened with their extension kept,
// so CJK titles survive intact.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" || s == "." {
		return "", ErrInvalidFileName
	}
	if utf8.RuneCountInString(s) > MaxFileNameRunes {
		ext := path.Ext(s)
		if utf8.RuneCountInString(ext) >= MaxFileNameRunes/2 {
			ext = ""
		}
		base := []rune(strings.TrimSuffix(s, ext))
		s = string(base[:MaxFileNameRunes-utf8.RuneCountInString(ext)]) + ext
	}
	return s, nil
}
