// Package metadata maintains the fixed-width NoteMetadata projector: a
// 16-byte Counts entry plus zero or more 16-byte Reaction entries per
// note, updated transactionally alongside ingest.
//
// The 16-byte packed layout follows note/binary.go's own fixed-header
// encoding style (little-endian fields packed with encoding/binary),
// generalized from "one note header" to "one metadata entry".
package metadata

import "encoding/binary"

// entryType distinguishes the two first-class NoteMetadata entry kinds.
type entryType uint16

const (
	typeCounts   entryType = 1
	typeReaction entryType = 2
)

// entrySize is the fixed width of every NoteMetadata entry: type(u16) +
// aux(u32) + aux2(u16) + payload(u64) = 16 bytes.
const entrySize = 2 + 4 + 2 + 8

// Counts holds the five derived tallies tracked per note.
type Counts struct {
	Reactions     uint32
	ThreadReplies uint32
	Quotes        uint16
	DirectReplies uint16
	Reposts       uint16
}

// EncodeCounts packs a Counts into the 16-byte entry layout. It spends two
// 16-byte entries' worth of fields (reactions/thread_replies are u32,
// quotes/direct_replies/reposts are u16) by splitting aux into
// reactions(u32) and reusing aux2/payload for the rest, bit-packed as:
// aux=reactions, aux2=quotes, payload = thread_replies<<32 |
// direct_replies<<16 | reposts.
func EncodeCounts(c Counts) []byte {
	b := make([]byte, entrySize)
	binary.LittleEndian.PutUint16(b[0:], uint16(typeCounts))
	binary.LittleEndian.PutUint32(b[2:], c.Reactions)
	binary.LittleEndian.PutUint16(b[6:], c.Quotes)
	payload := uint64(c.ThreadReplies)<<32 | uint64(c.DirectReplies)<<16 | uint64(c.Reposts)
	binary.LittleEndian.PutUint64(b[8:], payload)
	return b
}

// DecodeCounts unpacks a Counts entry; ok is false if b isn't a Counts
// entry.
func DecodeCounts(b []byte) (Counts, bool) {
	if len(b) != entrySize || entryType(binary.LittleEndian.Uint16(b[0:])) != typeCounts {
		return Counts{}, false
	}
	payload := binary.LittleEndian.Uint64(b[8:])
	return Counts{
		Reactions:     binary.LittleEndian.Uint32(b[2:]),
		Quotes:        binary.LittleEndian.Uint16(b[6:]),
		ThreadReplies: uint32(payload >> 32),
		DirectReplies: uint16(payload >> 16),
		Reposts:       uint16(payload),
	}, true
}

// maxInlineSymbol is the longest reaction symbol (e.g. "+", "-", a 4-byte
// UTF-8 emoji rune) stored inline in aux's four bytes; longer symbols are
// interned and referenced by a table handle instead. aux2 carries the
// inline/handle discriminator so the two modes never alias.
const maxInlineSymbol = 4

const (
	reactionModeHandle uint16 = 0
	reactionModeInline uint16 = 1
)

// EncodeReaction packs a single reaction-symbol tally. Symbols up to 4
// bytes (plain ASCII "+"/"-" or a single UTF-8 emoji rune) are inlined
// into aux; longer ones go through handle, a caller-assigned index into
// an external symbol table (see SymbolTable).
func EncodeReaction(symbol string, handle uint32, count uint64) []byte {
	b := make([]byte, entrySize)
	binary.LittleEndian.PutUint16(b[0:], uint16(typeReaction))
	if len(symbol) <= maxInlineSymbol {
		var inline [4]byte
		copy(inline[:], symbol)
		binary.LittleEndian.PutUint32(b[2:], binary.LittleEndian.Uint32(inline[:]))
		binary.LittleEndian.PutUint16(b[6:], reactionModeInline)
	} else {
		binary.LittleEndian.PutUint32(b[2:], handle)
		binary.LittleEndian.PutUint16(b[6:], reactionModeHandle)
	}
	binary.LittleEndian.PutUint64(b[8:], count)
	return b
}

// ReactionInfo is the decoded form of a Reaction entry.
type ReactionInfo struct {
	InlineSymbol string // non-empty (or Handle's zero value) when inlined
	Handle       uint32 // valid only when the entry was handle-mode
	Count        uint64
}

// DecodeReaction unpacks a Reaction entry; ok is false if b isn't one.
func DecodeReaction(b []byte) (ReactionInfo, bool) {
	if len(b) != entrySize || entryType(binary.LittleEndian.Uint16(b[0:])) != typeReaction {
		return ReactionInfo{}, false
	}
	count := binary.LittleEndian.Uint64(b[8:])
	mode := binary.LittleEndian.Uint16(b[6:])
	if mode == reactionModeInline {
		var inline [4]byte
		binary.LittleEndian.PutUint32(inline[:], binary.LittleEndian.Uint32(b[2:]))
		n := 0
		for n < 4 && inline[n] != 0 {
			n++
		}
		return ReactionInfo{InlineSymbol: string(inline[:n]), Count: count}, true
	}
	return ReactionInfo{Handle: binary.LittleEndian.Uint32(b[2:]), Count: count}, true
}
