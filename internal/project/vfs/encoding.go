package vfs

import (
	"bytes"
	"unicode/utf8"
)

// SniffLen is how many leading bytes IsBinary inspects.
const SniffLen = 8192

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// IsBinary attempts to detect if content is binary (not text).
// Uses heuristics: presence of null bytes, high ratio of non-printable characters.
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	sample := content
	if len(sample) > SniffLen {
		sample = sample[:SniffLen]
	}

	// Null bytes are a strong indicator of binary
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	// Count non-text bytes (control characters except tab, newline, carriage return, form feed)
	nonText := 0
	for _, b := range sample {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			nonText++
		}
	}

	// If more than 10% are non-text, consider it binary
	return float64(nonText)/float64(len(sample)) > 0.1
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(content []byte) []byte {
	return bytes.TrimPrefix(content, bomUTF8)
}

// IsText reports whether a line is valid UTF-8 text.
func IsText(line []byte) bool {
	return utf8.Valid(line)
}
