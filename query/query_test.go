package query

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nostrdb-go/notedb/filter"
	"github.com/nostrdb-go/notedb/index"
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

type fixture struct {
	secKey *btcec.PrivateKey
	pubKey note.PubKey
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	secKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pk, err := btcec.ParsePubKey(secKey.PubKey().SerializeCompressed())
	require.NoError(t, err)
	var xonly note.PubKey
	copy(xonly[:], pk.SerializeCompressed()[1:])
	return fixture{secKey: secKey, pubKey: xonly}
}

func (fx fixture) note(t *testing.T, kind uint32, content string, createdAt int64, tags ...note.Tag) *note.E {
	t.Helper()
	b := note.NewBuilder().Kind(kind).Content(content).CreatedAt(createdAt).SignWith(fx.secKey)
	for _, tag := range tags {
		b.Tag(tag...)
	}
	e, err := b.Build()
	require.NoError(t, err)
	return e
}

func insert(t *testing.T, s *store.Store, ix *index.Indexer, e *note.E) store.NoteKey {
	t.Helper()
	var nk store.NoteKey
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		res, err := ix.InsertNote(tx, e, note.Canonical(e))
		if err != nil {
			return err
		}
		nk = res.Key
		return nil
	}))
	return nk
}

func mustFilter(t *testing.T, build func(f *filter.F) error) *filter.F {
	t.Helper()
	f := filter.New()
	require.NoError(t, build(f))
	return f
}

func TestRunByCreatedAtNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(1024)
	fx := newFixture(t)

	base := time.Now().Unix()
	e1 := fx.note(t, 1, "first", base-20)
	e2 := fx.note(t, 1, "second", base-10)
	e3 := fx.note(t, 1, "third", base)
	insert(t, s, ix, e1)
	insert(t, s, ix, e2)
	insert(t, s, ix, e3)

	f := filter.New()
	var out []Result
	require.NoError(t, s.View(func(tx *store.Txn) error {
		var err error
		out, err = Run(tx, []*filter.F{f}, 10)
		return err
	}))

	require.Len(t, out, 3)
	require.Equal(t, "third", out[0].Note.Content)
	require.Equal(t, "second", out[1].Note.Content)
	require.Equal(t, "first", out[2].Note.Content)
}

func TestRunFiltersByAuthor(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(1024)
	fxA := newFixture(t)
	fxB := newFixture(t)

	base := time.Now().Unix()
	insert(t, s, ix, fxA.note(t, 1, "from a", base))
	insert(t, s, ix, fxB.note(t, 1, "from b", base+1))

	f := mustFilter(t, func(f *filter.F) error { return f.SetAuthors(fxA.pubKey) })

	var out []Result
	require.NoError(t, s.View(func(tx *store.Txn) error {
		var err error
		out, err = Run(tx, []*filter.F{f}, 10)
		return err
	}))

	require.Len(t, out, 1)
	require.Equal(t, "from a", out[0].Note.Content)
}

func TestRunRespectsSinceAndLimit(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(1024)
	fx := newFixture(t)

	base := time.Now().Unix()
	for i := 0; i < 5; i++ {
		insert(t, s, ix, fx.note(t, 1, "note", base+int64(i)))
	}

	f := mustFilter(t, func(f *filter.F) error { return f.SetSince(base + 2) })

	var out []Result
	require.NoError(t, s.View(func(tx *store.Txn) error {
		var err error
		out, err = Run(tx, []*filter.F{f}, 10)
		return err
	}))
	require.Len(t, out, 3)

	require.NoError(t, f.SetLimit(2))
	require.NoError(t, s.View(func(tx *store.Txn) error {
		var err error
		out, err = Run(tx, []*filter.F{f}, 10)
		return err
	}))
	require.Len(t, out, 2)
}

func TestRunDedupsAcrossOrFilters(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(1024)
	fx := newFixture(t)

	base := time.Now().Unix()
	e := fx.note(t, 1, "shared", base)
	insert(t, s, ix, e)

	byAuthor := mustFilter(t, func(f *filter.F) error { return f.SetAuthors(fx.pubKey) })
	byKind := mustFilter(t, func(f *filter.F) error { return f.SetKinds(1) })

	var out []Result
	require.NoError(t, s.View(func(tx *store.Txn) error {
		var err error
		out, err = Run(tx, []*filter.F{byAuthor, byKind}, 10)
		return err
	}))
	require.Len(t, out, 1)
}

func TestRunSearchVerifiesAllTerms(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(1024)
	fx := newFixture(t)

	base := time.Now().Unix()
	insert(t, s, ix, fx.note(t, 1, "the quick brown fox", base))
	insert(t, s, ix, fx.note(t, 1, "the quick blue jay", base+1))

	f := mustFilter(t, func(f *filter.F) error { return f.SetSearch("quick fox") })

	var out []Result
	require.NoError(t, s.View(func(tx *store.Txn) error {
		var err error
		out, err = Run(tx, []*filter.F{f}, 10)
		return err
	}))
	require.Len(t, out, 1)
	require.Equal(t, "the quick brown fox", out[0].Note.Content)
}

func TestRunByIDsPointLookup(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(1024)
	fx := newFixture(t)

	base := time.Now().Unix()
	e1 := fx.note(t, 1, "one", base)
	e2 := fx.note(t, 1, "two", base+1)
	insert(t, s, ix, e1)
	insert(t, s, ix, e2)

	f := mustFilter(t, func(f *filter.F) error { return f.SetIDs(e2.ID) })

	var out []Result
	require.NoError(t, s.View(func(tx *store.Txn) error {
		var err error
		out, err = Run(tx, []*filter.F{f}, 10)
		return err
	}))
	require.Len(t, out, 1)
	require.Equal(t, "two", out[0].Note.Content)
}
