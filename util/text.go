package util

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

// LossyUTF8 returns b decoded as UTF-8 with every invalid sequence
// replaced by U+FFFD.  It never fails.
func LossyUTF8(b []byte) []byte {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		// The UTF-8 decoder substitutes rather than erroring; fall back
		// to the std replacement if that ever changes.
		return bytes.ToValidUTF8(b, []byte("�"))
	}
	return out
}

// EnsureNewline appends '\n' to b when it does not already end in one.
func EnsureNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}
