package index

import (
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// ScanKind walks the Kind index for one kind, newest-first, invoking fn
// with each NoteKey until fn returns false or the index is exhausted.
func ScanKind(tx *store.Txn, kind uint32, fn func(store.NoteKey) bool) error {
	stop := errStop
	err := tx.KeysOnlyPrefix(store.Key(tx.Prefixes().Kind, KindPrefix(kind)), func(key []byte) error {
		if !fn(SuffixNoteKey(key)) {
			return stop
		}
		return nil
	})
	if err == stop {
		return nil
	}
	return err
}

// ScanAuthor walks the Author index for one pubkey, newest-first.
func ScanAuthor(tx *store.Txn, pk note.PubKey, fn func(store.NoteKey) bool) error {
	stop := errStop
	err := tx.KeysOnlyPrefix(store.Key(tx.Prefixes().Author, AuthorPrefix(pk)), func(key []byte) error {
		if !fn(SuffixNoteKey(key)) {
			return stop
		}
		return nil
	})
	if err == stop {
		return nil
	}
	return err
}

// ScanTag walks the Tag index for one (char, value) pair, newest-first.
func ScanTag(tx *store.Txn, tagChar byte, valueBytes []byte, fn func(store.NoteKey) bool) error {
	stop := errStop
	err := tx.KeysOnlyPrefix(store.Key(tx.Prefixes().Tag, TagPrefix(tagChar, valueBytes)), func(key []byte) error {
		if !fn(SuffixNoteKey(key)) {
			return stop
		}
		return nil
	})
	if err == stop {
		return nil
	}
	return err
}

// ScanCreatedAt walks the global Created-at index, newest-first.
func ScanCreatedAt(tx *store.Txn, fn func(store.NoteKey) bool) error {
	stop := errStop
	err := tx.KeysOnlyPrefix(tx.Prefixes().CreatedAt, func(key []byte) error {
		if !fn(SuffixNoteKey(key)) {
			return stop
		}
		return nil
	})
	if err == stop {
		return nil
	}
	return err
}

// ScanFTS walks the full-text posting list for one token, newest-first.
func ScanFTS(tx *store.Txn, token string, fn func(store.NoteKey) bool) error {
	stop := errStop
	err := tx.KeysOnlyPrefix(store.Key(tx.Prefixes().FTS, FTSPrefix(token)), func(key []byte) error {
		if !fn(SuffixNoteKey(key)) {
			return stop
		}
		return nil
	})
	if err == stop {
		return nil
	}
	return err
}

// LoadNote fetches and decodes the canonical note stored at nk.
func LoadNote(tx *store.Txn, nk store.NoteKey) (*note.E, error) {
	b, err := tx.Get(store.Key(tx.Prefixes().Notes, store.EncodeNoteKey(nk)))
	if err != nil {
		return nil, err
	}
	return note.DecodeCanonical(b)
}

// sentinel used internally to unwind KeysOnlyPrefix early; never escapes
// this package.
type stopIteration struct{}

func (stopIteration) Error() string { return "index: scan stopped early" }

var errStop error = stopIteration{}
