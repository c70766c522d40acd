// Package note implements the canonical note codec: JSON <-> binary,
// id/signature verification, and zero-copy tag iteration over the binary
// layout.
package note

import (
	"github.com/deso-protocol/core/lib"
)

// MaxNoteSize is the hard cap on an encoded note; larger notes are
// rejected as TooLarge.
const MaxNoteSize = 1 << 20

// ID is a note's 32-byte content-addressed identifier.
type ID [32]byte

// PubKey is a 32-byte x-only schnorr public key.
type PubKey [32]byte

// Sig is a 64-byte schnorr signature.
type Sig [64]byte

// AsBlockHash adapts an ID to the deso-protocol BlockHash shape; both are
// plain 32-byte arrays so the conversion is a reinterpretation, not a copy
// of semantics.
func (id ID) AsBlockHash() *lib.BlockHash {
	bh := lib.BlockHash(id)
	return &bh
}

// PubKeyFromBlockHash recovers a PubKey from a BlockHash-shaped value.
func PubKeyFromBlockHash(bh *lib.BlockHash) PubKey {
	return PubKey(*bh)
}

// Hex returns the lowercase hex encoding of an ID.
func (id ID) Hex() string { return encodeHex(id[:]) }

// Hex returns the lowercase hex encoding of a PubKey.
func (p PubKey) Hex() string { return encodeHex(p[:]) }

// Hex returns the lowercase hex encoding of a Sig.
func (s Sig) Hex() string { return encodeHex(s[:]) }

// Tag is one row of a note's tag array; the first element is conventionally
// a single-character name ("e", "p", "t", ...).
type Tag []string

// E is the in-memory representation of a note (nostr calls this an Event).
type E struct {
	ID        ID
	PubKey    PubKey
	CreatedAt int64
	Kind      uint32
	Tags      []Tag
	Content   string
	Sig       Sig

	// relaySource records the ingest-time relay origin; it is not part of
	// the canonical message form and is never hashed.
	relaySource string
}

// RelaySource returns the relay name this note was ingested from, if any.
func (e *E) RelaySource() string { return e.relaySource }

// SetRelaySource stamps the relay name this note was delivered by; used by
// the ingestion pipeline before handing the note to the writer.
func (e *E) SetRelaySource(relay string) { e.relaySource = relay }

// FirstTagValue returns the second element of the first tag row whose first
// element equals name, and whether one was found.
func (e *E) FirstTagValue(name string) (string, bool) {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name {
			return t[1], true
		}
	}
	return "", false
}

// TagsNamed returns every tag row whose first element equals name, in order.
func (e *E) TagsNamed(name string) []Tag {
	var out []Tag
	for _, t := range e.Tags {
		if len(t) >= 1 && t[0] == name {
			out = append(out, t)
		}
	}
	return out
}

// IsProfile reports whether this note is a kind-0 profile record.
func (e *E) IsProfile() bool { return e.Kind == 0 }
