package filter

import (
	"encoding/json"
	"sort"

	"github.com/nostrdb-go/notedb/note"
)

// wireFilter is the JSON-visible shape of a filter, matching the wire
// convention of tag fields as "#<char>" keys.
type wireFilter struct {
	IDs     []string            `json:"ids,omitempty"`
	Authors []string            `json:"authors,omitempty"`
	Kinds   []uint32            `json:"kinds,omitempty"`
	Since   *int64              `json:"since,omitempty"`
	Until   *int64              `json:"until,omitempty"`
	Limit   *uint               `json:"limit,omitempty"`
	Search  *string             `json:"search,omitempty"`
}

// MarshalJSON renders f in wire form, with tag fields flattened to "#c" keys
// alongside the fixed fields.
func (f *F) MarshalJSON() ([]byte, error) {
	w := wireFilter{
		Kinds:  f.kinds,
		Since:  f.since,
		Until:  f.until,
		Limit:  f.limit,
		Search: f.search,
	}
	for _, id := range f.ids {
		w.IDs = append(w.IDs, id.Hex())
	}
	for _, a := range f.authors {
		w.Authors = append(w.Authors, a.Hex())
	}

	raw := make(map[string]json.RawMessage)
	base, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(base, &raw); err != nil {
		return nil, err
	}
	for _, c := range f.tagKeys {
		values := f.tags[c]
		b, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		raw["#"+string(c)] = b
	}
	return json.Marshal(raw)
}

// UnmarshalJSON parses wire form into f by replaying the Set* setters, so
// field presence and the set-once rules apply as for a hand-built filter.
func (f *F) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrDecode
	}

	*f = F{}

	if v, ok := raw["ids"]; ok {
		var hexes []string
		if err := json.Unmarshal(v, &hexes); err != nil {
			return ErrDecode
		}
		ids := make([]note.ID, 0, len(hexes))
		for _, h := range hexes {
			id, err := parseIDHex(h)
			if err != nil {
				return ErrDecode
			}
			ids = append(ids, id)
		}
		if err := f.SetIDs(ids...); err != nil {
			return err
		}
	}
	if v, ok := raw["authors"]; ok {
		var hexes []string
		if err := json.Unmarshal(v, &hexes); err != nil {
			return ErrDecode
		}
		authors := make([]note.PubKey, 0, len(hexes))
		for _, h := range hexes {
			pk, err := parsePubKeyHex(h)
			if err != nil {
				return ErrDecode
			}
			authors = append(authors, pk)
		}
		if err := f.SetAuthors(authors...); err != nil {
			return err
		}
	}
	if v, ok := raw["kinds"]; ok {
		var kinds []uint32
		if err := json.Unmarshal(v, &kinds); err != nil {
			return ErrDecode
		}
		if err := f.SetKinds(kinds...); err != nil {
			return err
		}
	}
	if v, ok := raw["since"]; ok {
		var ts int64
		if err := json.Unmarshal(v, &ts); err != nil {
			return ErrDecode
		}
		if err := f.SetSince(ts); err != nil {
			return err
		}
	}
	if v, ok := raw["until"]; ok {
		var ts int64
		if err := json.Unmarshal(v, &ts); err != nil {
			return ErrDecode
		}
		if err := f.SetUntil(ts); err != nil {
			return err
		}
	}
	if v, ok := raw["limit"]; ok {
		var n uint
		if err := json.Unmarshal(v, &n); err != nil {
			return ErrDecode
		}
		if err := f.SetLimit(n); err != nil {
			return err
		}
	}
	if v, ok := raw["search"]; ok {
		var q string
		if err := json.Unmarshal(v, &q); err != nil {
			return ErrDecode
		}
		if err := f.SetSearch(q); err != nil {
			return err
		}
	}

	var tagKeys []string
	for k := range raw {
		if len(k) == 2 && k[0] == '#' {
			tagKeys = append(tagKeys, k)
		}
	}
	sort.Strings(tagKeys)
	for _, k := range tagKeys {
		var values []string
		if err := json.Unmarshal(raw[k], &values); err != nil {
			return ErrDecode
		}
		if err := f.SetTag(k[1], values...); err != nil {
			return err
		}
	}
	return nil
}

func parseIDHex(h string) (note.ID, error)         { return note.IDFromHex(h) }
func parsePubKeyHex(h string) (note.PubKey, error) { return note.PubKeyFromHex(h) }
