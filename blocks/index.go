package blocks

import (
	"strings"

	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/store"
)

// hashtagKey and hashtagPrefix mirror index.TagKey/TagPrefix's
// (value, desc_time, NoteKey) layout so a hashtag posting list scans
// newest-first exactly like a "t"-tag posting list, but lives under the
// Blocks sub-database: inline "#word" spans are not necessarily mirrored
// by an explicit NIP-12 "t" tag, so they need their own index to be
// searchable. The leading word byte is always >= '0' (digit/letter/
// underscore), so it can never collide with blockTreeKey's 0x00 marker
// byte sharing the same sub-database.
func hashtagKey(word string, createdAt int64, nk store.NoteKey) []byte {
	return store.Key(nil, []byte(strings.ToLower(word)), []byte{0}, index.EncodeDescTime(createdAt), store.EncodeNoteKey(nk))
}

func hashtagPrefix(word string) []byte {
	return store.Key(nil, []byte(strings.ToLower(word)), []byte{0})
}

// blockTreeKey is the row key for a note's encoded block tree, distinct
// from any hashtagKey in the same sub-database by its 0x00 leading byte.
func blockTreeKey(nk store.NoteKey) []byte {
	return store.Key(nil, []byte{0}, store.EncodeNoteKey(nk))
}

// Index parses content into its block tree, persists the tree itself under
// NoteKey (see Load), and records a posting for every hashtag block under
// the Blocks sub-database, keyed by (word, 0x00, desc created_at, NoteKey) so a later re-index
// (e.g. a corrected duplicate ingest) does not duplicate entries.
func Index(tx *store.Txn, nk store.NoteKey, createdAt int64, content string) ([]Block, error) {
	bs := Parse(content)
	if err := tx.Set(store.Key(tx.Prefixes().Blocks, blockTreeKey(nk)), Encode(bs)); err != nil {
		return nil, err
	}
	for _, b := range bs {
		if b.Kind != KindHashtag {
			continue
		}
		if err := tx.Set(store.Key(tx.Prefixes().Blocks, hashtagKey(b.Hashtag, createdAt, nk)), nil); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

// Load retrieves and decodes the block tree Index persisted for nk. It
// returns nil, nil if the note has no recorded tree (never indexed).
func Load(tx *store.Txn, nk store.NoteKey) ([]Block, error) {
	v, err := tx.Get(store.Key(tx.Prefixes().Blocks, blockTreeKey(nk)))
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// ScanHashtag walks the hashtag posting list for one word, newest-first.
func ScanHashtag(tx *store.Txn, word string, fn func(store.NoteKey) bool) error {
	stop := errStopScan
	err := tx.KeysOnlyPrefix(store.Key(tx.Prefixes().Blocks, hashtagPrefix(word)), func(key []byte) error {
		if !fn(index.SuffixNoteKey(key)) {
			return stop
		}
		return nil
	})
	if err == stop {
		return nil
	}
	return err
}

type stopScan struct{}

func (stopScan) Error() string { return "blocks: scan stopped early" }

var errStopScan error = stopScan{}
