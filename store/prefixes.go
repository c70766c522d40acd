package store

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Prefixes names every sub-database this package multiplexes onto a
// single badger instance. Each field's key-space is disjoint because
// every key written through this package is prefixed with the field's
// one-byte prefix_id, read off the struct tag below by GetPrefixes.
type Prefixes struct {
	// Notes: NoteKey -> canonical binary note.
	Notes []byte `prefix_id:"[0]"`
	// IDToKey: note.ID (32 bytes) -> NoteKey, for content-addressed lookup
	// and dedup.
	IDToKey []byte `prefix_id:"[1]"`
	// Profiles: ProfileKey -> flatbuffer-encoded Profile record.
	Profiles []byte `prefix_id:"[2]"`
	// PubKeyToProfile: alias kept distinct from Profiles so a profile's
	// latest-by-created_at resolution can be re-pointed without rewriting
	// the Profiles row itself.
	PubKeyToProfile []byte `prefix_id:"[3]"`
	// CreatedAt: (u64::MAX-created_at, NoteKey) -> empty, the global
	// time-ordered index.
	CreatedAt []byte `prefix_id:"[4]"`
	// Kind: (Kind, u64::MAX-created_at, NoteKey) -> empty.
	Kind []byte `prefix_id:"[5]"`
	// Author: (PubKey, u64::MAX-created_at, NoteKey) -> empty.
	Author []byte `prefix_id:"[6]"`
	// Tag: (TagChar, TagValue, u64::MAX-created_at, NoteKey) -> empty.
	Tag []byte `prefix_id:"[7]"`
	// FTS: (token, 0x00, u64::MAX-created_at, NoteKey) -> empty, word-level
	// full-text postings; profile-name postings share this sub-database
	// under a leading 0x01 marker byte (see package profile).
	FTS []byte `prefix_id:"[8]"`
	// Blocks: two row shapes share this sub-database. (0x00, NoteKey) ->
	// encoded content block tree (see package blocks' Encode/Decode), and
	// (word, 0x00, u64::MAX-created_at, NoteKey) -> empty, the inline
	// "#word" hashtag posting list.
	Blocks []byte `prefix_id:"[9]"`
	// NoteMeta: NoteKey -> NoteMetadata blob of fixed-size 16-byte entries.
	NoteMeta []byte `prefix_id:"[10]"`
	// NoteRelays: (NoteKey, relay name) -> empty, the append-only
	// multimap recording every relay a note was seen on.
	NoteRelays []byte `prefix_id:"[11]"`
	// Meta: small keys for internal bookkeeping (next NoteKey and
	// ProfileKey counters, the reaction symbol table).
	Meta []byte `prefix_id:"[12]"`

	// NEXT_TAG: 13
}

// GetPrefixes loads every prefix_id tag into a Prefixes struct via
// reflection.
func GetPrefixes() *Prefixes {
	p := &Prefixes{}
	elems := reflect.ValueOf(p).Elem()
	fields := elems.Type()
	for i := 0; i < fields.NumField(); i++ {
		field := elems.Field(i)
		field.Set(getPrefixIDValue(fields.Field(i), field.Type()))
	}
	return p
}

func getPrefixIDValue(sf reflect.StructField, ft reflect.Type) reflect.Value {
	value := sf.Tag.Get("prefix_id")
	if value == "" {
		panic(fmt.Errorf("store: prefix_id cannot be empty for field %s", sf.Name))
	}
	ref := reflect.New(ft)
	ref.Elem().Set(reflect.MakeSlice(ft, 0, 0))
	if value != "[]" {
		if err := json.Unmarshal([]byte(value), ref.Interface()); err != nil {
			panic(fmt.Errorf("store: bad prefix_id tag on field %s: %w", sf.Name, err))
		}
	}
	return ref.Elem()
}
