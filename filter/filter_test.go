package filter

import (
	"encoding/json"
	"testing"

	"github.com/nostrdb-go/notedb/note"
	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, b byte) note.ID {
	var id note.ID
	for i := range id {
		id[i] = b
	}
	return id
}

func mustPubKey(t *testing.T, b byte) note.PubKey {
	var pk note.PubKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func TestSetFieldTwiceReturnsFieldAlreadyExists(t *testing.T) {
	f := New()
	require.NoError(t, f.SetKinds(1))
	err := f.SetKinds(2)
	require.Error(t, err)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, FieldAlreadyExists, ferr.Kind)
}

func TestSetTagTwiceSameCharReturnsFieldAlreadyStarted(t *testing.T) {
	f := New()
	require.NoError(t, f.SetTag('e', "abc"))
	err := f.SetTag('e', "def")
	require.Error(t, err)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, FieldAlreadyStarted, ferr.Kind)
}

func TestSetIDsDedups(t *testing.T) {
	f := New()
	id := mustID(t, 0x01)
	require.NoError(t, f.SetIDs(id, id, id))
	require.Len(t, f.IDs(), 1)
}

func TestMatchesAndAcrossFields(t *testing.T) {
	f := New()
	author := mustPubKey(t, 0xaa)
	require.NoError(t, f.SetAuthors(author))
	require.NoError(t, f.SetKinds(1))

	e := &note.E{PubKey: author, Kind: 1, CreatedAt: 100}
	require.True(t, f.Matches(e))

	e2 := &note.E{PubKey: author, Kind: 2, CreatedAt: 100}
	require.False(t, f.Matches(e2))
}

func TestMatchesTagOrWithinField(t *testing.T) {
	f := New()
	require.NoError(t, f.SetTag('t', "bitcoin", "nostr"))

	e := &note.E{Tags: []note.Tag{{"t", "nostr"}}}
	require.True(t, f.Matches(e))

	e2 := &note.E{Tags: []note.Tag{{"t", "other"}}}
	require.False(t, f.Matches(e2))
}

func TestMatchesSinceUntilRange(t *testing.T) {
	f := New()
	require.NoError(t, f.SetSince(100))
	require.NoError(t, f.SetUntil(200))

	require.True(t, f.Matches(&note.E{CreatedAt: 150}))
	require.False(t, f.Matches(&note.E{CreatedAt: 50}))
	require.False(t, f.Matches(&note.E{CreatedAt: 250}))
}

func TestJSONRoundTrip(t *testing.T) {
	f := New()
	author := mustPubKey(t, 0xbb)
	require.NoError(t, f.SetAuthors(author))
	require.NoError(t, f.SetKinds(1, 7))
	require.NoError(t, f.SetTag('e', "deadbeef"))
	require.NoError(t, f.SetSince(10))
	require.NoError(t, f.SetUntil(20))
	require.NoError(t, f.SetLimit(5))
	require.NoError(t, f.SetSearch("hello"))

	b, err := json.Marshal(f)
	require.NoError(t, err)

	f2 := New()
	require.NoError(t, json.Unmarshal(b, f2))

	require.Equal(t, f.Authors(), f2.Authors())
	require.Equal(t, f.Kinds(), f2.Kinds())
	require.Equal(t, f.Tags(), f2.Tags())
	since1, _ := f.Since()
	since2, _ := f2.Since()
	require.Equal(t, since1, since2)
	until1, _ := f.Until()
	until2, _ := f2.Until()
	require.Equal(t, until1, until2)
	limit1, _ := f.Limit()
	limit2, _ := f2.Limit()
	require.Equal(t, limit1, limit2)
	search1, _ := f.Search()
	search2, _ := f2.Search()
	require.Equal(t, search1, search2)
}

func TestCloneDefaultsLimitToOne(t *testing.T) {
	f := New()
	require.NoError(t, f.SetLimit(50))
	c := f.Clone(false)
	limit, ok := c.Limit()
	require.True(t, ok)
	require.Equal(t, uint(1), limit)

	c2 := f.Clone(true)
	limit2, ok := c2.Limit()
	require.True(t, ok)
	require.Equal(t, uint(50), limit2)
}
