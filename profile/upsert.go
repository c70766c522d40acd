// Package profile maintains the kind-0 profile projector: the
// flatbuffer-encoded Profiles/PubkeyToProfileKey pair, upserted on every
// kind-0 note, keeping only the newest record per author —
// Profiles[ProfileKey].created_at is always the max seen for that
// pubkey.
package profile

import (
	"encoding/binary"
	"encoding/json"

	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// ProfileKey is the monotonic id assigned to each upserted profile
// record, parallel to store.NoteKey but in its own counter space.
type ProfileKey uint64

var profileKeyCounterKey = []byte("next_profile_key")

func nextProfileKey(tx *store.Txn) (ProfileKey, error) {
	key := store.Key(tx.Prefixes().Meta, profileKeyCounterKey)
	cur := uint64(0)
	if v, err := tx.Get(key); err == nil {
		cur = binary.BigEndian.Uint64(v)
	} else if err != store.ErrNotFound {
		return 0, err
	}
	next := cur + 1
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, next)
	if err := tx.Set(key, b); err != nil {
		return 0, err
	}
	return ProfileKey(next), nil
}

func encodeProfileKey(k ProfileKey) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(k))
	return b
}

func decodeProfileKey(b []byte) ProfileKey {
	return ProfileKey(binary.BigEndian.Uint64(b))
}

// content is the kind-0 JSON payload's recognized fields. The
// metadata-kind content is itself an opaque JSON blob; we decode the
// subset of well-known NIP-01 profile fields.
type content struct {
	Name    string `json:"name"`
	About   string `json:"about"`
	Picture string `json:"picture"`
	Nip05   string `json:"nip05"`
	Lud16   string `json:"lud16"`
}

// Upsert applies the kind-0 ingest step: if e.Content parses and
// e.CreatedAt is newer than any previously stored record for e.PubKey, it
// writes a new Profiles/PubkeyToProfileKey pair and returns the new
// ProfileKey. If the note is not newer, Upsert is a no-op and returns the
// existing key. Malformed content is tolerated — profile content is user
// JSON, not protocol-defined — and simply yields an empty-fields record.
func Upsert(tx *store.Txn, e *note.E) (ProfileKey, error) {
	p := tx.Prefixes()

	var existingKey ProfileKey
	var existingCreatedAt int64
	hasExisting := false
	if v, err := tx.Get(store.Key(p.PubKeyToProfile, e.PubKey[:])); err == nil {
		existingKey = decodeProfileKey(v)
		hasExisting = true
		if rec, err := tx.Get(store.Key(p.Profiles, encodeProfileKey(existingKey))); err == nil {
			existingCreatedAt = Decode(rec).CreatedAt
		}
	} else if err != store.ErrNotFound {
		return 0, err
	}

	if hasExisting && existingCreatedAt >= e.CreatedAt {
		return existingKey, nil
	}

	var c content
	_ = json.Unmarshal([]byte(e.Content), &c)

	rec := &Record{
		PubKey:    e.PubKey,
		CreatedAt: e.CreatedAt,
		Name:      c.Name,
		About:     c.About,
		Picture:   c.Picture,
		Nip05:     c.Nip05,
		Lud16:     c.Lud16,
	}

	pk, err := nextProfileKey(tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Set(store.Key(p.Profiles, encodeProfileKey(pk)), Encode(rec)); err != nil {
		return 0, err
	}
	if err := tx.Set(store.Key(p.PubKeyToProfile, e.PubKey[:]), encodeProfileKey(pk)); err != nil {
		return 0, err
	}
	for _, tok := range index.Tokenize(c.Name) {
		if err := tx.Set(store.Key(p.FTS, profileFTSKey(tok, e.CreatedAt, pk)), nil); err != nil {
			return 0, err
		}
	}
	return pk, nil
}

// profileFTSTokenMarker prefixes every profile-name posting's token with a
// byte no lowercase-alnum token (the only kind Tokenize produces) can
// start with, so a note-content scan (index.FTSPrefix, unprefixed) can
// never collide with a profile-name posting sharing the same sub-database.
const profileFTSTokenMarker = 0x01

// profileFTSKey builds a profile-name posting key: (marker, token, 0,
// desc_time, ProfileKey).
func profileFTSKey(token string, createdAt int64, pk ProfileKey) []byte {
	return store.Key(nil, []byte{profileFTSTokenMarker}, []byte(token), []byte{0},
		index.EncodeDescTime(createdAt), encodeProfileKey(pk))
}

// profileFTSPrefix builds a scan prefix for one profile-name token.
func profileFTSPrefix(token string) []byte {
	return store.Key(nil, []byte{profileFTSTokenMarker}, []byte(token), []byte{0})
}

// SearchByName returns every ProfileKey whose name tokenized to token,
// newest-first, up to limit results.
func SearchByName(tx *store.Txn, token string, limit int) ([]ProfileKey, error) {
	var out []ProfileKey
	err := tx.KeysOnlyPrefix(store.Key(tx.Prefixes().FTS, profileFTSPrefix(token)), func(key []byte) error {
		if limit > 0 && len(out) >= limit {
			return errStopProfileScan
		}
		out = append(out, decodeProfileKey(key[len(key)-8:]))
		return nil
	})
	if err == errStopProfileScan {
		return out, nil
	}
	return out, err
}

type stopProfileScan struct{}

func (stopProfileScan) Error() string { return "profile: scan stopped early" }

var errStopProfileScan error = stopProfileScan{}

// Lookup returns the Record for a pubkey's current profile, if any.
func Lookup(tx *store.Txn, pk note.PubKey) (*Record, bool, error) {
	p := tx.Prefixes()
	v, err := tx.Get(store.Key(p.PubKeyToProfile, pk[:]))
	if err == store.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rec, err := tx.Get(store.Key(p.Profiles, v))
	if err != nil {
		return nil, false, err
	}
	return Decode(rec), true, nil
}
