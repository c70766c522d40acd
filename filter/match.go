package filter

import "github.com/nostrdb-go/notedb/note"

// Matches reports whether e satisfies every present field of f except
// search (AND across fields, OR within a tag field's element set). The
// search field is not evaluated here: it requires a tokenizer and a
// multi-pattern scan over e.Content, which callers apply separately via
// an index.ContentVerifier built from f.Search() (package query verifies
// posting-list candidates this way; package subscribe verifies live notes
// the same way).
func (f *F) Matches(e *note.E) bool {
	if e == nil {
		return false
	}
	if len(f.ids) > 0 && !containsID(f.ids, e.ID) {
		return false
	}
	if len(f.kinds) > 0 && !containsUint32(f.kinds, e.Kind) {
		return false
	}
	if len(f.authors) > 0 && !containsPubKey(f.authors, e.PubKey) {
		return false
	}
	for c, values := range f.tags {
		if !anyTagMatches(e, c, values) {
			return false
		}
	}
	if since, ok := f.Since(); ok && e.CreatedAt < since {
		return false
	}
	if until, ok := f.Until(); ok && e.CreatedAt > until {
		return false
	}
	if f.custom != nil && !f.custom(e) {
		return false
	}
	return true
}

func anyTagMatches(e *note.E, c byte, values []string) bool {
	for _, t := range e.Tags {
		fc, ok := t.FirstElementByte()
		if !ok || fc != c {
			continue
		}
		if len(t) < 2 {
			continue
		}
		for _, v := range values {
			if t[1] == v {
				return true
			}
		}
	}
	return false
}

func containsID(set []note.ID, v note.ID) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsPubKey(set []note.PubKey, v note.PubKey) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsUint32(set []uint32, v uint32) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
