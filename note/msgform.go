package note

import (
	"crypto/sha256"
	"strconv"
)

// messageForm serializes e into the protocol's id-hashing form:
// [0, pubkey_hex, created_at, kind, tags, content]
//
// This is deliberately hand-rolled rather than encoding/json: json.Marshal
// HTML-escapes '<','>','&' by default, which would make the hash diverge
// from every other implementation of this protocol for content containing
// those bytes.
func messageForm(e *E) []byte {
	var b []byte
	b = append(b, '[', '0', ',', '"')
	b = appendHexLower(b, e.PubKey[:])
	b = append(b, '"', ',')
	b = strconv.AppendInt(b, e.CreatedAt, 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(e.Kind), 10)
	b = append(b, ',', '[')
	for i, t := range e.Tags {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '[')
		for j, el := range t {
			if j > 0 {
				b = append(b, ',')
			}
			b = appendJSONString(b, el)
		}
		b = append(b, ']')
	}
	b = append(b, ']', ',')
	b = appendJSONString(b, e.Content)
	b = append(b, ']')
	return b
}

// appendJSONString appends s as a minimal-escaping JSON string literal,
// matching the protocol's normalization rule (escape '"', '\\', and control
// characters; everything else, including multi-byte UTF-8, passes through
// verbatim).
func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				const hexdig = "0123456789abcdef"
				dst = append(dst, '\\', 'u', '0', '0', hexdig[c>>4], hexdig[c&0xf])
			} else {
				dst = append(dst, c)
			}
		}
	}
	dst = append(dst, '"')
	return dst
}

func appendHexLower(dst []byte, b []byte) []byte {
	const hexdig = "0123456789abcdef"
	for _, c := range b {
		dst = append(dst, hexdig[c>>4], hexdig[c&0xf])
	}
	return dst
}

// ComputeID returns the id implied by e's current fields, i.e.
// sha256(messageForm(e)), without mutating e.
func ComputeID(e *E) ID {
	return sha256.Sum256(messageForm(e))
}

// VerifyID reports whether e.ID matches sha256(messageForm(e)).
func VerifyID(e *E) bool {
	return ComputeID(e) == e.ID
}
