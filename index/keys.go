// Package index defines and maintains every secondary index over the
// store's sub-databases: key encoders/decoders, the descending-time
// encoding trick, and the insert path run once per committed note.
package index

import (
	"encoding/binary"

	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// EncodeDescTime renders created_at as u64::MAX - created_at, big-endian,
// so that a forward byte-order scan yields newest-first.
func EncodeDescTime(createdAt int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, ^uint64(createdAt))
	return b
}

// DecodeDescTime inverts EncodeDescTime.
func DecodeDescTime(b []byte) int64 {
	return int64(^binary.BigEndian.Uint64(b))
}

// CreatedAtKey builds the Created-at index key: (desc_time, NoteKey).
func CreatedAtKey(createdAt int64, nk store.NoteKey) []byte {
	return store.Key(nil, EncodeDescTime(createdAt), store.EncodeNoteKey(nk))
}

// KindKey builds the Kind index key: (kind BE u32, desc_time, NoteKey).
func KindKey(kind uint32, createdAt int64, nk store.NoteKey) []byte {
	kb := make([]byte, 4)
	binary.BigEndian.PutUint32(kb, kind)
	return store.Key(nil, kb, EncodeDescTime(createdAt), store.EncodeNoteKey(nk))
}

// KindPrefix builds a scan prefix matching every entry for one kind.
func KindPrefix(kind uint32) []byte {
	kb := make([]byte, 4)
	binary.BigEndian.PutUint32(kb, kind)
	return kb
}

// AuthorKey builds the Author index key: (pubkey[32], desc_time, NoteKey).
func AuthorKey(pk note.PubKey, createdAt int64, nk store.NoteKey) []byte {
	return store.Key(nil, pk[:], EncodeDescTime(createdAt), store.EncodeNoteKey(nk))
}

// AuthorPrefix builds a scan prefix matching every entry for one author.
func AuthorPrefix(pk note.PubKey) []byte {
	return append([]byte(nil), pk[:]...)
}

// TagValueBytes renders a tag's second element the way the Tag index keys
// it: 32-byte binary id for 64-hex values under "e"/"p", UTF-8 otherwise.
func TagValueBytes(tagChar byte, value string) []byte {
	if (tagChar == 'e' || tagChar == 'p') && len(value) == 64 {
		if id, err := note.IDFromHex(value); err == nil {
			return id[:]
		}
	}
	return []byte(value)
}

// TagKey builds the Tag index key: (tag_char, value_bytes, desc_time, NoteKey).
func TagKey(tagChar byte, valueBytes []byte, createdAt int64, nk store.NoteKey) []byte {
	return store.Key(nil, []byte{tagChar}, valueBytes, EncodeDescTime(createdAt), store.EncodeNoteKey(nk))
}

// TagPrefix builds a scan prefix matching every entry for (tagChar, value).
func TagPrefix(tagChar byte, valueBytes []byte) []byte {
	return store.Key(nil, []byte{tagChar}, valueBytes)
}

// FTSKey builds a full-text posting key: (token, desc_time, NoteKey). Tokens
// sort lexicographically so a scan for one token groups its whole posting
// list contiguously, newest first.
func FTSKey(token string, createdAt int64, nk store.NoteKey) []byte {
	return store.Key(nil, []byte(token), []byte{0}, EncodeDescTime(createdAt), store.EncodeNoteKey(nk))
}

// FTSPrefix builds a scan prefix matching every posting for one token.
func FTSPrefix(token string) []byte {
	return store.Key(nil, []byte(token), []byte{0})
}

// NoteRelayKey builds a NoteRelays entry key: (NoteKey, relay name).
func NoteRelayKey(nk store.NoteKey, relay string) []byte {
	return store.Key(nil, store.EncodeNoteKey(nk), []byte(relay))
}

// NoteRelayPrefix builds a scan prefix matching every relay recorded for nk.
func NoteRelayPrefix(nk store.NoteKey) []byte {
	return store.EncodeNoteKey(nk)
}

// SuffixNoteKey extracts the trailing 8-byte NoteKey any index key ends
// with.
func SuffixNoteKey(key []byte) store.NoteKey {
	return store.DecodeNoteKey(key[len(key)-8:])
}

// SuffixTimeAndKey extracts the trailing (desc_time, NoteKey) pair every
// time-ordered index key ends with, decoding desc_time back to its
// original created_at value. Callers that need to k-way merge several
// value-buckets of the same index (e.g. several authors) by created_at
// use this instead of SuffixNoteKey alone.
func SuffixTimeAndKey(key []byte) (createdAt int64, nk store.NoteKey) {
	n := len(key)
	return DecodeDescTime(key[n-16 : n-8]), store.DecodeNoteKey(key[n-8:])
}
