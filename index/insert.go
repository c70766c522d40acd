package index

import (
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// Indexer owns the SeenIDCache front and performs every core
// secondary-index mutation for one committed note: NoteKey assignment,
// Notes/IDToKey, and the Created-at/Kind/Author/Tag/FTS postings.
// Profile, block-tree, metadata, and relay updates are separate
// projectors composed on top by package ingest; keeping them out of this
// package lets each stay independently testable.
type Indexer struct {
	seen *SeenIDCache
}

// NewIndexer builds an Indexer with a SeenIDCache of the given size.
func NewIndexer(cacheSize uint) *Indexer {
	return &Indexer{seen: NewSeenIDCache(cacheSize)}
}

// Seen exposes the recently-committed-id cache. The ingest workers do not
// consult it; duplicates are detected by InsertNote in the writer.
func (ix *Indexer) Seen() *SeenIDCache { return ix.seen }

// LookupKey resolves a note id to its NoteKey by reading the IdToKey
// sub-database; the SeenIDCache is not consulted.
func (ix *Indexer) LookupKey(tx *store.Txn, id note.ID) (store.NoteKey, bool, error) {
	key := store.Key(tx.Prefixes().IDToKey, id[:])
	v, err := tx.Get(key)
	if err == store.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return store.DecodeNoteKey(v), true, nil
}

// InsertResult reports what InsertNote actually did.
type InsertResult struct {
	Key      store.NoteKey
	Inserted bool // false when the note was already present (dedup no-op)
}

// InsertNote assigns a NoteKey if the note is new, writes Notes/IdToKey,
// and maintains Created-at/Kind/Author/Tag.
// Re-insertion of an id already present is a no-op and returns the
// existing key with Inserted=false (callers still append to NoteRelays).
func (ix *Indexer) InsertNote(tx *store.Txn, e *note.E, canonical []byte) (InsertResult, error) {
	if nk, ok, err := ix.LookupKey(tx, e.ID); err != nil {
		return InsertResult{}, err
	} else if ok {
		ix.seen.Add(e.ID)
		return InsertResult{Key: nk, Inserted: false}, nil
	}

	nk, err := tx.NextNoteKey()
	if err != nil {
		return InsertResult{}, err
	}
	p := tx.Prefixes()

	if err := tx.Set(store.Key(p.Notes, store.EncodeNoteKey(nk)), canonical); err != nil {
		return InsertResult{}, err
	}
	if err := tx.Set(store.Key(p.IDToKey, e.ID[:]), store.EncodeNoteKey(nk)); err != nil {
		return InsertResult{}, err
	}
	if err := tx.Set(store.Key(p.CreatedAt, CreatedAtKey(e.CreatedAt, nk)), nil); err != nil {
		return InsertResult{}, err
	}
	if err := tx.Set(store.Key(p.Kind, KindKey(e.Kind, e.CreatedAt, nk)), nil); err != nil {
		return InsertResult{}, err
	}
	if err := tx.Set(store.Key(p.Author, AuthorKey(e.PubKey, e.CreatedAt, nk)), nil); err != nil {
		return InsertResult{}, err
	}
	for _, t := range e.Tags {
		c, ok := t.FirstElementByte()
		if !ok || len(t) < 2 {
			continue
		}
		vb := TagValueBytes(c, t[1])
		if err := tx.Set(store.Key(p.Tag, TagKey(c, vb, e.CreatedAt, nk)), nil); err != nil {
			return InsertResult{}, err
		}
	}
	for _, tok := range Tokenize(e.Content) {
		if err := tx.Set(store.Key(p.FTS, FTSKey(tok, e.CreatedAt, nk)), nil); err != nil {
			return InsertResult{}, err
		}
	}

	ix.seen.Add(e.ID)
	return InsertResult{Key: nk, Inserted: true}, nil
}

// AppendRelay adds relay to a note's NoteRelays multimap if not already
// present. Returns whether a new entry was written.
func AppendRelay(tx *store.Txn, nk store.NoteKey, relay string) (bool, error) {
	if relay == "" {
		return false, nil
	}
	p := tx.Prefixes()
	key := store.Key(p.NoteRelays, NoteRelayKey(nk, relay))
	if has, err := tx.Has(key); err != nil {
		return false, err
	} else if has {
		return false, nil
	}
	if err := tx.Set(key, nil); err != nil {
		return false, err
	}
	return true, nil
}
