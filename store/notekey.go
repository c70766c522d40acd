package store

import "encoding/binary"

// NoteKey is the monotonically increasing row identifier every secondary
// index ultimately points at, and the tiebreaker appended to every
// time-ordered index key.
type NoteKey uint64

var noteKeyCounterKey = []byte("next_note_key")

// EncodeNoteKey renders a NoteKey as big-endian bytes, so that numeric
// ordering matches byte ordering (required by every index that appends it
// as a tiebreaker).
func EncodeNoteKey(k NoteKey) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(k))
	return b
}

// DecodeNoteKey parses a big-endian NoteKey.
func DecodeNoteKey(b []byte) NoteKey {
	return NoteKey(binary.BigEndian.Uint64(b))
}

// NextNoteKey allocates the next NoteKey by reading-and-incrementing a
// counter stored under the Meta prefix, inside tx's transaction so
// allocation is atomic with the rest of the ingest commit.
func (tx *Txn) NextNoteKey() (NoteKey, error) {
	key := Key(tx.prefix.Meta, noteKeyCounterKey)
	cur := uint64(0)
	if v, err := tx.Get(key); err == nil {
		cur = binary.BigEndian.Uint64(v)
	} else if err != ErrNotFound {
		return 0, err
	}
	next := cur + 1
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, next)
	if err := tx.Set(key, b); err != nil {
		return 0, err
	}
	return NoteKey(next), nil
}
