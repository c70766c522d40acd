// Package filter implements the in-memory filter DSL: an ordered set of
// fields, each holding a homogeneous, duplicate-collapsing element set,
// combined by AND-across-fields / OR-within-tag-field semantics.
package filter

import "github.com/nostrdb-go/notedb/note"

// F is the primary query form: an ordered set of fields. Each field may
// be set at most once; Set* setters return an *Error on a second
// attempt.
type F struct {
	ids     []note.ID
	authors []note.PubKey
	kinds   []uint32
	tags    map[byte][]string // first-char -> set of values (hex for e/p)
	tagKeys []byte            // insertion order of tags map keys

	since  *int64
	until  *int64
	limit  *uint
	search *string
	custom func(*note.E) bool

	idsSet, authorsSet, kindsSet, sinceSet, untilSet, limitSet, searchSet, customSet bool
}

// New returns an empty filter ready for incremental construction.
func New() *F { return &F{} }

// SetIDs sets the ids field once; duplicate ids collapse.
func (f *F) SetIDs(ids ...note.ID) error {
	if f.idsSet {
		return errAlreadyExists("ids")
	}
	f.ids = dedupIDs(ids)
	f.idsSet = true
	return nil
}

// SetAuthors sets the authors field once.
func (f *F) SetAuthors(authors ...note.PubKey) error {
	if f.authorsSet {
		return errAlreadyExists("authors")
	}
	f.authors = dedupPubKeys(authors)
	f.authorsSet = true
	return nil
}

// SetKinds sets the kinds field once.
func (f *F) SetKinds(kinds ...uint32) error {
	if f.kindsSet {
		return errAlreadyExists("kinds")
	}
	f.kinds = dedupUint32(kinds)
	f.kindsSet = true
	return nil
}

// SetTag sets the element set for tag character c once; c must be a single
// ASCII letter or digit as in the wire form ("#e", "#p", "#t", ...).
func (f *F) SetTag(c byte, values ...string) error {
	if f.tags == nil {
		f.tags = make(map[byte][]string)
	}
	if _, ok := f.tags[c]; ok {
		return errAlreadyStarted("tags[" + string(c) + "]")
	}
	f.tags[c] = dedupStrings(values)
	f.tagKeys = append(f.tagKeys, c)
	return nil
}

// SetSince sets the since scalar field once.
func (f *F) SetSince(ts int64) error {
	if f.sinceSet {
		return errAlreadyExists("since")
	}
	f.since = &ts
	f.sinceSet = true
	return nil
}

// SetUntil sets the until scalar field once.
func (f *F) SetUntil(ts int64) error {
	if f.untilSet {
		return errAlreadyExists("until")
	}
	f.until = &ts
	f.untilSet = true
	return nil
}

// SetLimit sets the limit scalar field once.
func (f *F) SetLimit(n uint) error {
	if f.limitSet {
		return errAlreadyExists("limit")
	}
	f.limit = &n
	f.limitSet = true
	return nil
}

// SetSearch sets the search field once.
func (f *F) SetSearch(q string) error {
	if f.searchSet {
		return errAlreadyExists("search")
	}
	f.search = &q
	f.searchSet = true
	return nil
}

// SetCustom installs a user-supplied predicate, applied after index
// selection on the query thread; it must not block.
func (f *F) SetCustom(pred func(*note.E) bool) error {
	if f.customSet {
		return errAlreadyExists("custom")
	}
	f.custom = pred
	f.customSet = true
	return nil
}

// MutateSince/MutateUntil/MutateLimit update an already-set scalar field
// in place without touching the rest of the field table, letting a
// long-lived subscription narrow its since/until/limit bounds over time.
func (f *F) MutateSince(ts int64) { f.since = &ts; f.sinceSet = true }
func (f *F) MutateUntil(ts int64) { f.until = &ts; f.untilSet = true }
func (f *F) MutateLimit(n uint)   { f.limit = &n; f.limitSet = true }

// Accessors (read-only field sequence).
func (f *F) IDs() []note.ID            { return f.ids }
func (f *F) Authors() []note.PubKey    { return f.authors }
func (f *F) Kinds() []uint32           { return f.kinds }
func (f *F) Tags() map[byte][]string   { return f.tags }
func (f *F) Since() (int64, bool)      { return derefInt64(f.since) }
func (f *F) Until() (int64, bool)      { return derefInt64(f.until) }
func (f *F) Limit() (uint, bool)       { return derefUint(f.limit) }
func (f *F) Search() (string, bool)    { return derefString(f.search) }
func (f *F) Custom() func(*note.E) bool { return f.custom }

func derefInt64(p *int64) (int64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
func derefUint(p *uint) (uint, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
func derefString(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func dedupIDs(in []note.ID) []note.ID {
	seen := make(map[note.ID]struct{}, len(in))
	out := make([]note.ID, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupPubKeys(in []note.PubKey) []note.PubKey {
	seen := make(map[note.PubKey]struct{}, len(in))
	out := make([]note.PubKey, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupUint32(in []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(in))
	out := make([]uint32, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Clone returns a deep copy of f, with Limit implicitly reset to 1 when
// cloning for subscription reference-counting use (matching the orly
// reference's Clone semantics), unless preserveLimit is set.
func (f *F) Clone(preserveLimit bool) *F {
	c := &F{
		ids:       append([]note.ID(nil), f.ids...),
		authors:   append([]note.PubKey(nil), f.authors...),
		kinds:     append([]uint32(nil), f.kinds...),
		tagKeys:   append([]byte(nil), f.tagKeys...),
		custom:    f.custom,
		idsSet:    f.idsSet,
		authorsSet: f.authorsSet,
		kindsSet:  f.kindsSet,
		searchSet: f.searchSet,
		customSet: f.customSet,
	}
	if f.tags != nil {
		c.tags = make(map[byte][]string, len(f.tags))
		for k, v := range f.tags {
			c.tags[k] = append([]string(nil), v...)
		}
	}
	if f.since != nil {
		v := *f.since
		c.since, c.sinceSet = &v, true
	}
	if f.until != nil {
		v := *f.until
		c.until, c.untilSet = &v, true
	}
	if f.search != nil {
		v := *f.search
		c.search = &v
	}
	if preserveLimit {
		if f.limit != nil {
			v := *f.limit
			c.limit, c.limitSet = &v, true
		}
	} else {
		one := uint(1)
		c.limit, c.limitSet = &one, true
	}
	return c
}
