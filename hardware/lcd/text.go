package lcd

import (
	"bytes"
	"unicode/utf8"
)

var spaceBytes = bytes.Repeat([]byte{' '}, MaxWidth)

// FitWidth returns exactly width bytes: b truncated or padded right with spaces.
// Sometimes returns slice into shared spaceBytes, do not modify result.
func FitWidth(b []byte, width int) []byte {
	if width <= 0 {
		return []byte{}
	}
	l := len(b)
	switch {
	case l >= width:
		return b[:width]
	case l == 0 && width <= len(spaceBytes):
		return spaceBytes[:width]
	}
	buf := make([]byte, 0, width)
	buf = append(buf, b...)
	for len(buf) < width {
		buf = append(buf, ' ')
	}
	return buf
}

// ASCII keeps 7-bit characters, other runes become '?'.
func ASCII(s string) []byte {
	result := make([]byte, 0, len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			result = append(result, byte(r))
		} else {
			result = append(result, '?')
		}
	}
	return result
}
