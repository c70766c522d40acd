package metadata

import (
	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/nip10"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// noteMetaKey is the single key a note's whole metadata blob set lives
// under: the Counts entry followed by zero or more Reaction entries,
// concatenated into one fixed-width-entry blob per note.
func noteMetaKey(nk store.NoteKey) []byte {
	return store.EncodeNoteKey(nk)
}

func loadEntries(tx *store.Txn, nk store.NoteKey) ([]byte, error) {
	v, err := tx.Get(store.Key(tx.Prefixes().NoteMeta, noteMetaKey(nk)))
	if err == store.ErrNotFound {
		return nil, nil
	}
	return v, err
}

func saveEntries(tx *store.Txn, nk store.NoteKey, blob []byte) error {
	return tx.Set(store.Key(tx.Prefixes().NoteMeta, noteMetaKey(nk)), blob)
}

// loadCounts returns the Counts entry from blob, or a zero Counts if none
// is present yet.
func loadCounts(blob []byte) (Counts, int) {
	for off := 0; off+entrySize <= len(blob); off += entrySize {
		if c, ok := DecodeCounts(blob[off : off+entrySize]); ok {
			return c, off
		}
	}
	return Counts{}, -1
}

func storeCounts(blob []byte, c Counts, off int) []byte {
	encoded := EncodeCounts(c)
	if off < 0 {
		return append(blob, encoded...)
	}
	copy(blob[off:off+entrySize], encoded)
	return blob
}

// mutateCounts loads a note's metadata blob, applies fn to its Counts
// (inserting a zero Counts entry if absent), and saves the result.
func mutateCounts(tx *store.Txn, nk store.NoteKey, fn func(*Counts)) error {
	blob, err := loadEntries(tx, nk)
	if err != nil {
		return err
	}
	c, off := loadCounts(blob)
	fn(&c)
	blob = storeCounts(blob, c, off)
	return saveEntries(tx, nk, blob)
}

// bumpReaction finds or inserts the Reaction entry for symbol within nk's
// blob and increments its count by one.
func bumpReaction(tx *store.Txn, nk store.NoteKey, symbol string) error {
	blob, err := loadEntries(tx, nk)
	if err != nil {
		return err
	}

	for off := 0; off+entrySize <= len(blob); off += entrySize {
		info, ok := DecodeReaction(blob[off : off+entrySize])
		if !ok {
			continue
		}
		entrySymbol := info.InlineSymbol
		if entrySymbol == "" && info.Handle != 0 {
			s, err := ResolveSymbol(tx, info.Handle)
			if err != nil {
				return err
			}
			entrySymbol = s
		}
		if entrySymbol == symbol {
			copy(blob[off:off+entrySize], EncodeReaction(symbol, info.Handle, info.Count+1))
			return saveEntries(tx, nk, blob)
		}
	}

	var handle uint32
	if len(symbol) > maxInlineSymbol {
		var err error
		handle, err = InternSymbol(tx, symbol)
		if err != nil {
			return err
		}
	}
	blob = append(blob, EncodeReaction(symbol, handle, 1)...)
	return saveEntries(tx, nk, blob)
}

// Apply performs the ingest-time NoteMetadata update for one
// newly-inserted note e (stored under nk), resolving the parent note's key
// itself through ix (via NIP-10 thread structure for kind 1). It is a
// no-op for kinds that carry no metadata effect.
func Apply(tx *store.Txn, ix *index.Indexer, e *note.E, nk store.NoteKey) error {
	switch e.Kind {
	case 7:
		return applyReaction(tx, ix, e)
	case 6, 16:
		return applyRepost(tx, ix, e)
	case 1:
		return applyReply(tx, ix, e)
	default:
		return nil
	}
}

func resolveParent(tx *store.Txn, ix *index.Indexer, id note.ID) (store.NoteKey, bool, error) {
	return ix.LookupKey(tx, id)
}

func applyReaction(tx *store.Txn, ix *index.Indexer, e *note.E) error {
	th := nip10.ParseThread(e.Tags)
	target := th.ReplyTo()
	if target == nil {
		return nil
	}
	parentKey, ok, err := resolveParent(tx, ix, target.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil // parent not yet stored, skip (no out-of-order reconciliation)
	}
	symbol := e.Content
	if symbol == "" {
		symbol = "+"
	}
	if err := mutateCounts(tx, parentKey, func(c *Counts) { c.Reactions++ }); err != nil {
		return err
	}
	return bumpReaction(tx, parentKey, symbol)
}

func applyRepost(tx *store.Txn, ix *index.Indexer, e *note.E) error {
	th := nip10.ParseThread(e.Tags)
	target := th.ReplyTo()
	if target == nil {
		return nil
	}
	parentKey, ok, err := resolveParent(tx, ix, target.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return mutateCounts(tx, parentKey, func(c *Counts) {
		c.Reposts++
		if e.Content != "" {
			c.Quotes++
		}
	})
}

func applyReply(tx *store.Txn, ix *index.Indexer, e *note.E) error {
	th := nip10.ParseThread(e.Tags)
	if th.ReplyTo() == nil {
		return nil
	}
	if reply := th.ReplyTo(); reply != nil {
		if parentKey, ok, err := resolveParent(tx, ix, reply.ID); err != nil {
			return err
		} else if ok {
			if err := mutateCounts(tx, parentKey, func(c *Counts) { c.DirectReplies++ }); err != nil {
				return err
			}
		}
	}
	if th.Root != nil {
		if rootKey, ok, err := resolveParent(tx, ix, th.Root.ID); err != nil {
			return err
		} else if ok {
			if err := mutateCounts(tx, rootKey, func(c *Counts) { c.ThreadReplies++ }); err != nil {
				return err
			}
		}
	}
	return nil
}
