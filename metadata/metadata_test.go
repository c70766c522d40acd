package metadata

import (
	"testing"

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

func TestCountsEncodeDecodeRoundTrip(t *testing.T) {
	c := Counts{Reactions: 3, ThreadReplies: 7, Quotes: 2, DirectReplies: 4, Reposts: 1}
	got, ok := DecodeCounts(EncodeCounts(c))
	require.True(t, ok)
	require.Equal(t, c, got)
}

func TestReactionInlineRoundTrip(t *testing.T) {
	got, ok := DecodeReaction(EncodeReaction("+", 0, 5))
	require.True(t, ok)
	require.Equal(t, "+", got.InlineSymbol)
	require.Equal(t, uint64(5), got.Count)
}

func TestReactionHandleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	var handle uint32
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		var err error
		handle, err = InternSymbol(tx, "super-long-reaction-name")
		return err
	}))
	got, ok := DecodeReaction(EncodeReaction("super-long-reaction-name", handle, 9))
	require.True(t, ok)
	require.Empty(t, got.InlineSymbol)
	require.Equal(t, handle, got.Handle)

	require.NoError(t, s.View(func(tx *store.Txn) error {
		resolved, err := ResolveSymbol(tx, handle)
		require.NoError(t, err)
		require.Equal(t, "super-long-reaction-name", resolved)
		return nil
	}))
}

func mkID(b byte) note.ID {
	var id note.ID
	for i := range id {
		id[i] = b
	}
	return id
}

func mkPK(b byte) note.PubKey {
	var pk note.PubKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func TestApplyReactionBumpsParentCounts(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(16)

	parent := &note.E{ID: mkID(1), PubKey: mkPK(9), Kind: 1, CreatedAt: 100, Content: "hello"}
	var parentKey store.NoteKey
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		res, err := ix.InsertNote(tx, parent, note.Canonical(parent))
		parentKey = res.Key
		return err
	}))

	reaction := &note.E{ID: mkID(2), PubKey: mkPK(8), Kind: 7, CreatedAt: 200,
		Tags: []note.Tag{{"e", parent.ID.Hex()}}, Content: "+"}

	require.NoError(t, s.Update(func(tx *store.Txn) error {
		res, err := ix.InsertNote(tx, reaction, note.Canonical(reaction))
		if err != nil {
			return err
		}
		return Apply(tx, ix, reaction, res.Key)
	}))

	require.NoError(t, s.View(func(tx *store.Txn) error {
		blob, err := loadEntries(tx, parentKey)
		require.NoError(t, err)
		c, _ := loadCounts(blob)
		require.Equal(t, uint32(1), c.Reactions)
		return nil
	}))
}

func TestApplyReplyBumpsDirectAndThreadCounts(t *testing.T) {
	s := openTestStore(t)
	ix := index.NewIndexer(16)

	root := &note.E{ID: mkID(1), PubKey: mkPK(9), Kind: 1, CreatedAt: 100, Content: "root"}
	var rootKey store.NoteKey
	require.NoError(t, s.Update(func(tx *store.Txn) error {
		res, err := ix.InsertNote(tx, root, note.Canonical(root))
		rootKey = res.Key
		return err
	}))

	reply := &note.E{ID: mkID(2), PubKey: mkPK(8), Kind: 1, CreatedAt: 200,
		Tags: []note.Tag{{"e", root.ID.Hex(), "", "root"}}, Content: "a reply"}

	require.NoError(t, s.Update(func(tx *store.Txn) error {
		res, err := ix.InsertNote(tx, reply, note.Canonical(reply))
		if err != nil {
			return err
		}
		return Apply(tx, ix, reply, res.Key)
	}))

	require.NoError(t, s.View(func(tx *store.Txn) error {
		blob, err := loadEntries(tx, rootKey)
		require.NoError(t, err)
		c, _ := loadCounts(blob)
		require.Equal(t, uint16(1), c.DirectReplies)
		require.Equal(t, uint32(1), c.ThreadReplies)
		return nil
	}))
}
