// Package field encodes and decodes the fixed-width octal and string
// fields of a ustar header block.
package field

import (
	"bytes"
	"errors"
	"strconv"
)

// ErrInvalid reports a numeric field containing bytes that are not octal
// digits, padding, or a terminator.
var ErrInvalid = errors.New("invalid octal field")

// FormatOctal writes v into dst as zero-padded octal ASCII with a trailing
// NUL terminator. It reports whether v fits in the field.
func FormatOctal(dst []byte, v int64) bool {
	if v < 0 {
		return false
	}
	s := strconv.FormatInt(v, 8)
	if len(s) > len(dst)-1 {
		return false
	}
	pad := len(dst) - 1 - len(s)
	for i := 0; i < pad; i++ {
		dst[i] = '0'
	}
	copy(dst[pad:], s)
	dst[len(dst)-1] = 0
	return true
}

// ParseOctal reads a fixed-width octal ASCII field. Leading spaces and a
// trailing run of NUL or space bytes are ignored; an empty field is zero.
// Any other non-octal byte makes the field invalid.
func ParseOctal(src []byte) (int64, error) {
	start, end := 0, len(src)
	for start < end && src[start] == ' ' {
		start++
	}
	for end > start && (src[end-1] == 0 || src[end-1] == ' ') {
		end--
	}
	var v int64
	for _, c := range src[start:end] {
		if c < '0' || c > '7' {
			return 0, ErrInvalid
		}
		v = v<<3 | int64(c-'0')
	}
	return v, nil
}

// FormatString writes s into dst, NUL-padding the remainder. It reports
// whether s fits.
func FormatString(dst []byte, s string) bool {
	if len(s) > len(dst) {
		return false
	}
	n := copy(dst, s)
	clear(dst[n:])
	return true
}

// ParseString reads a NUL-terminated string field. A field with no NUL
// uses its full width.
func ParseString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}
