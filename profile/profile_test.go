package profile

import (
	"testing"

	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := store.DefaultConfig("")
	cfg.InMemory = true
	s, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var pk [32]byte
	pk[0] = 0xaa
	r := &Record{PubKey: pk, CreatedAt: 1234, Name: "alice", About: "hi", Picture: "http://x", Nip05: "a@b.c", Lud16: "a@getalby.com"}
	got := Decode(Encode(r))
	require.Equal(t, r, got)
}

func mkPK(b byte) note.PubKey {
	var pk note.PubKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func TestUpsertKeepsNewestOnly(t *testing.T) {
	s := openTestStore(t)
	pk := mkPK(3)

	older := &note.E{PubKey: pk, Kind: 0, CreatedAt: 100, Content: `{"name":"old-name"}`}
	newer := &note.E{PubKey: pk, Kind: 0, CreatedAt: 200, Content: `{"name":"new-name"}`}

	require.NoError(t, s.Update(func(tx *store.Txn) error {
		_, err := Upsert(tx, older)
		return err
	}))
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		_, err := Upsert(tx, newer)
		return err
	}))

	require.NoError(t, s.View(func(tx *store.Txn) error {
		rec, ok, err := Lookup(tx, pk)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "new-name", rec.Name)
		require.Equal(t, int64(200), rec.CreatedAt)
		return nil
	}))
}

func TestUpsertIgnoresStaleNote(t *testing.T) {
	s := openTestStore(t)
	pk := mkPK(4)

	newer := &note.E{PubKey: pk, Kind: 0, CreatedAt: 200, Content: `{"name":"new-name"}`}
	older := &note.E{PubKey: pk, Kind: 0, CreatedAt: 100, Content: `{"name":"old-name"}`}

	require.NoError(t, s.Update(func(tx *store.Txn) error {
		_, err := Upsert(tx, newer)
		return err
	}))
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		_, err := Upsert(tx, older)
		return err
	}))

	require.NoError(t, s.View(func(tx *store.Txn) error {
		rec, ok, err := Lookup(tx, pk)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "new-name", rec.Name)
		return nil
	}))
}

func TestSearchByNameFindsToken(t *testing.T) {
	s := openTestStore(t)
	pk := mkPK(5)
	e := &note.E{PubKey: pk, Kind: 0, CreatedAt: 1, Content: `{"name":"satoshi nakamoto"}`}

	require.NoError(t, s.Update(func(tx *store.Txn) error {
		_, err := Upsert(tx, e)
		return err
	}))

	require.NoError(t, s.View(func(tx *store.Txn) error {
		keys, err := SearchByName(tx, "satoshi", 10)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		return nil
	}))
}
