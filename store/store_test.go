package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig("")
	cfg.InMemory = true
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	p := s.Prefixes()

	key := Key(p.Notes, EncodeNoteKey(7))
	require.NoError(t, s.Update(func(tx *Txn) error {
		return tx.Set(key, []byte("hello"))
	}))

	var got []byte
	require.NoError(t, s.View(func(tx *Txn) error {
		var err error
		got, err = tx.Get(key)
		return err
	}))
	require.Equal(t, "hello", string(got))
}

func TestNextNoteKeyIncrements(t *testing.T) {
	s := openTestStore(t)
	var a, b NoteKey
	require.NoError(t, s.Update(func(tx *Txn) error {
		var err error
		a, err = tx.NextNoteKey()
		return err
	}))
	require.NoError(t, s.Update(func(tx *Txn) error {
		var err error
		b, err = tx.NextNoteKey()
		return err
	}))
	require.Equal(t, a+1, b)
}

func TestScanPrefixOrdering(t *testing.T) {
	s := openTestStore(t)
	p := s.Prefixes()

	require.NoError(t, s.Update(func(tx *Txn) error {
		for i := uint64(0); i < 5; i++ {
			if err := tx.Set(Key(p.Notes, EncodeNoteKey(NoteKey(i))), []byte{byte(i)}); err != nil {
				return err
			}
		}
		return nil
	}))

	var order []byte
	require.NoError(t, s.View(func(tx *Txn) error {
		return tx.ScanPrefix(p.Notes, func(key, value []byte) error {
			order = append(order, value[0])
			return nil
		})
	}))
	require.Equal(t, []byte{0, 1, 2, 3, 4}, order)
}

func TestPrefixesAreDisjoint(t *testing.T) {
	p := GetPrefixes()
	seen := map[byte]string{}
	v := []struct {
		name string
		b    []byte
	}{
		{"Notes", p.Notes}, {"IDToKey", p.IDToKey}, {"Profiles", p.Profiles},
		{"PubKeyToProfile", p.PubKeyToProfile}, {"CreatedAt", p.CreatedAt},
		{"Kind", p.Kind}, {"Author", p.Author}, {"Tag", p.Tag}, {"FTS", p.FTS},
		{"Blocks", p.Blocks}, {"NoteMeta", p.NoteMeta}, {"NoteRelays", p.NoteRelays},
		{"Meta", p.Meta},
	}
	for _, f := range v {
		require.Len(t, f.b, 1)
		if other, ok := seen[f.b[0]]; ok {
			t.Fatalf("prefix collision: %s and %s share byte %d", f.name, other, f.b[0])
		}
		seen[f.b[0]] = f.name
	}
}
