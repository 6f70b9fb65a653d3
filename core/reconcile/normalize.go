package reconcile

import "strings"

// DefaultCodeLength is the length of a canonical code.
const DefaultCodeLength = 13

// Normalizer extracts the canonical lookup code from raw scanner input.
type Normalizer struct {
	length int
}

// NewNormalizer creates a normalizer for codes of the given length.
// A non-positive length selects DefaultCodeLength.
func NewNormalizer(length int) Normalizer {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return Normalizer{length: length}
}

// Length returns the configured code length.
func (n Normalizer) Length() int {
	return n.length
}

// Normalize keeps the ASCII digits of raw and, when there are at least Length
// of them, returns the last Length digits. Shorter inputs are returned as is,
// without padding. Scanners prepend framing digits, so the payload is
// right-aligned.
func (n Normalizer) Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}

	digits := b.String()
	length := n.length
	if length <= 0 {
		length = DefaultCodeLength
	}
	if len(digits) >= length {
		digits = digits[len(digits)-length:]
	}
	return strings.TrimSpace(digits)
}
