package query

import (
	"container/heap"

	"github.com/nostrdb-go/notedb/filter"
	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// runOne plans and executes a single filter: it picks one driving index by
// selectivity priority (ids > search > authors > tags > kinds >
// created_at), merges the resulting candidate streams newest-first, and
// applies the full predicate (plus search-term verification) to each
// candidate until limit is reached.
func runOne(tx *store.Txn, f *filter.F, maxResults int) ([]Result, error) {
	limit := maxResults
	if l, ok := f.Limit(); ok && int(l) < limit {
		limit = int(l)
	}

	terms, driveTerm := searchTerms(f)

	// search is a normal matched field of the full predicate regardless of
	// which index ends up driving the scan, so the verifier is built once
	// here and threaded through every branch below, including runIDs.
	verify, err := index.NewContentVerifier(terms)
	if err != nil {
		return nil, err
	}

	switch {
	case len(f.IDs()) > 0:
		return runIDs(tx, f, limit, verify)

	case driveTerm != "":
		cursors := []*store.Cursor{tx.NewCursor(store.Key(tx.Prefixes().FTS, index.FTSPrefix(driveTerm)))}
		return runCursors(tx, f, limit, verify, cursors)

	case len(f.Authors()) > 0:
		cursors := make([]*store.Cursor, 0, len(f.Authors()))
		for _, pk := range f.Authors() {
			cursors = append(cursors, tx.NewCursor(store.Key(tx.Prefixes().Author, index.AuthorPrefix(pk))))
		}
		return runCursors(tx, f, limit, verify, cursors)

	case len(f.Tags()) > 0:
		var cursors []*store.Cursor
		for c, values := range f.Tags() {
			for _, v := range values {
				vb := index.TagValueBytes(c, v)
				cursors = append(cursors, tx.NewCursor(store.Key(tx.Prefixes().Tag, index.TagPrefix(c, vb))))
			}
		}
		return runCursors(tx, f, limit, verify, cursors)

	case len(f.Kinds()) > 0:
		cursors := make([]*store.Cursor, 0, len(f.Kinds()))
		for _, k := range f.Kinds() {
			cursors = append(cursors, tx.NewCursor(store.Key(tx.Prefixes().Kind, index.KindPrefix(k))))
		}
		return runCursors(tx, f, limit, verify, cursors)

	default:
		cursors := []*store.Cursor{tx.NewCursor(tx.Prefixes().CreatedAt)}
		return runCursors(tx, f, limit, verify, cursors)
	}
}

// searchTerms tokenizes f's search field (if any) the same way the
// full-text index does, and picks the first term as the driving posting
// list; the rest are verified against each candidate's content directly.
func searchTerms(f *filter.F) (terms []string, driveTerm string) {
	q, ok := f.Search()
	if !ok {
		return nil, ""
	}
	terms = index.Tokenize(q)
	if len(terms) == 0 {
		return nil, ""
	}
	return terms, terms[0]
}

// runIDs looks notes up directly by id (often a point lookup) rather than
// scanning any index, since the ids field already names a bounded
// candidate set. It still applies verify: ids and search are independent
// fields of the same AND-across-fields predicate, so an id filter paired
// with a search filter must only return ids whose content matches.
func runIDs(tx *store.Txn, f *filter.F, limit int, verify *index.ContentVerifier) ([]Result, error) {
	out := make([]Result, 0, len(f.IDs()))
	for _, id := range f.IDs() {
		nk, ok, err := lookupByID(tx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		e, err := index.LoadNote(tx, nk)
		if err != nil {
			return nil, err
		}
		if !f.Matches(e) {
			continue
		}
		if !verify.AllPresent(e.Content) {
			continue
		}
		out = append(out, Result{Key: nk, Note: e})
		if len(out) >= limit {
			break
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func lookupByID(tx *store.Txn, id note.ID) (store.NoteKey, bool, error) {
	v, err := tx.Get(store.Key(tx.Prefixes().IDToKey, id[:]))
	if err == store.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return store.DecodeNoteKey(v), true, nil
}

// runCursors k-way merges cursors (each already sorted newest-first by the
// shared (desc_time, NoteKey) key suffix) into one candidate stream,
// loading and matching each note until limit results are produced or
// since/all cursors are exhausted.
func runCursors(tx *store.Txn, f *filter.F, limit int, verify *index.ContentVerifier, cursors []*store.Cursor) ([]Result, error) {
	defer func() {
		for _, c := range cursors {
			c.Close()
		}
	}()

	h := &cursorHeap{}
	for _, c := range cursors {
		if c.Valid() {
			heap.Push(h, c)
		}
	}

	since, hasSince := f.Since()

	out := make([]Result, 0, limit)
	for h.Len() > 0 && len(out) < limit {
		c := heap.Pop(h).(*store.Cursor)
		createdAt, nk := index.SuffixTimeAndKey(c.Key())

		c.Next()
		if c.Valid() {
			heap.Push(h, c)
		}

		if hasSince && createdAt < since {
			// the heap pops newest-first, so every remaining candidate
			// from every cursor is at or older than this one.
			break
		}

		e, err := index.LoadNote(tx, nk)
		if err != nil {
			return nil, err
		}
		if !f.Matches(e) {
			continue
		}
		if !verify.AllPresent(e.Content) {
			continue
		}
		out = append(out, Result{Key: nk, Note: e})
	}
	return out, nil
}
