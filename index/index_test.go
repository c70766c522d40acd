package index

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

func TestEncodeDescTimeOrdersNewestFirst(t *testing.T) {
	older := EncodeDescTime(100)
	newer := EncodeDescTime(200)
	// A forward byte-compare scan should visit newer before older.
	require.Equal(t, -1, compareBytes(newer, older))
	require.Equal(t, int64(100), DecodeDescTime(older))
}

func compareBytes(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func mkNote(id byte, pk byte, kind uint32, createdAt int64, tags []note.Tag, content string) *note.E {
	var nid note.ID
	var npk note.PubKey
	for i := range nid {
		nid[i] = id
	}
	for i := range npk {
		npk[i] = pk
	}
	return &note.E{ID: nid, PubKey: npk, Kind: kind, CreatedAt: createdAt, Tags: tags, Content: content}
}

func TestInsertNoteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ix := NewIndexer(16)
	e := mkNote(1, 2, 1, 1000, nil, "hello world")
	canon := note.Canonical(e)

	var first, second InsertResult
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		var err error
		first, err = ix.InsertNote(tx, e, canon)
		return err
	}))
	require.True(t, first.Inserted)

	require.NoError(t, s.Update(func(tx *store.Txn) error {
		var err error
		second, err = ix.InsertNote(tx, e, canon)
		return err
	}))
	require.False(t, second.Inserted)
	require.Equal(t, first.Key, second.Key)
}

func TestScanKindAndAuthorAndTag(t *testing.T) {
	s := openTestStore(t)
	ix := NewIndexer(16)

	e1 := mkNote(1, 9, 1, 1000, []note.Tag{{"t", "nostr"}}, "hello nostr")
	e2 := mkNote(2, 9, 1, 2000, []note.Tag{{"t", "bitcoin"}}, "hello bitcoin")
	e3 := mkNote(3, 9, 7, 3000, nil, "+")

	require.NoError(t, s.Update(func(tx *store.Txn) error {
		for _, e := range []*note.E{e1, e2, e3} {
			if _, err := ix.InsertNote(tx, e, note.Canonical(e)); err != nil {
				return err
			}
		}
		return nil
	}))

	var kindOneKeys []store.NoteKey
	require.NoError(t, s.View(func(tx *store.Txn) error {
		return ScanKind(tx, 1, func(nk store.NoteKey) bool {
			kindOneKeys = append(kindOneKeys, nk)
			return true
		})
	}))
	require.Len(t, kindOneKeys, 2)
	// newest-first: e2 (2000) before e1 (1000)
	n2, err := loadAndCheck(t, s, kindOneKeys[0])
	require.NoError(t, err)
	require.Equal(t, int64(2000), n2.CreatedAt)

	var authorKeys []store.NoteKey
	require.NoError(t, s.View(func(tx *store.Txn) error {
		return ScanAuthor(tx, e1.PubKey, func(nk store.NoteKey) bool {
			authorKeys = append(authorKeys, nk)
			return true
		})
	}))
	require.Len(t, authorKeys, 3)

	var tagKeys []store.NoteKey
	require.NoError(t, s.View(func(tx *store.Txn) error {
		return ScanTag(tx, 't', TagValueBytes('t', "bitcoin"), func(nk store.NoteKey) bool {
			tagKeys = append(tagKeys, nk)
			return true
		})
	}))
	require.Len(t, tagKeys, 1)
}

func loadAndCheck(t *testing.T, s *store.Store, nk store.NoteKey) (*note.E, error) {
	t.Helper()
	var e *note.E
	err := s.View(func(tx *store.Txn) error {
		var err error
		e, err = LoadNote(tx, nk)
		return err
	})
	return e, err
}

func TestTokenizeDropsStopwordsAndShortTokens(t *testing.T) {
	toks := Tokenize("The quick brown fox, a cat")
	for _, tok := range toks {
		require.GreaterOrEqual(t, len(tok), MinTokenLength)
	}
	require.NotContains(t, toks, "the")
	require.NotContains(t, toks, "a")
	require.Contains(t, toks, "quick")
}

func TestAppendRelayDedups(t *testing.T) {
	s := openTestStore(t)
	ix := NewIndexer(16)
	e := mkNote(5, 6, 1, 1000, nil, "hi")

	var nk store.NoteKey
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		res, err := ix.InsertNote(tx, e, note.Canonical(e))
		nk = res.Key
		return err
	}))

	var added1, added2 bool
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		var err error
		added1, err = AppendRelay(tx, nk, "wss://relay.example")
		return err
	}))
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		var err error
		added2, err = AppendRelay(tx, nk, "wss://relay.example")
		return err
	}))
	require.True(t, added1)
	require.False(t, added2)
}
