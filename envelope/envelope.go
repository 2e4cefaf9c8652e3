// Package envelope maps arbitrary bytes to and from the ASCII envelope used to
// carry PSETs over text channels: standard base64 (RFC 4648 alphabet) with
// '=' padding retained.
package envelope

import (
	"encoding/base64"
)

// Encoding is the envelope alphabet. Strict mode rejects non-zero padding bits,
// so every accepted text has exactly one byte sequence behind it.
var Encoding = base64.StdEncoding.Strict()

// Encode returns the envelope text for b. It never fails; an empty input
// yields an empty string.
func Encode(b []byte) string {
	return Encoding.EncodeToString(b)
}

// Decode returns the bytes carried by s.
//
// On failure the returned error is the base64.CorruptInputError produced by
// the decoder, whose value is the byte offset of the first malformed input.
// Line breaks are not part of the envelope and are rejected at their offset.
func Decode(s string) ([]byte, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return nil, base64.CorruptInputError(i)
		}
	}
	return Encoding.DecodeString(s)
}

// Offset reports the byte offset carried by an envelope decode error.
func Offset(err error) (int64, bool) {
	cie, ok := err.(base64.CorruptInputError)
	if !ok {
		return 0, false
	}
	return int64(cie), true
}
