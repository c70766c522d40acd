package note

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func TestBuilderSignAndVerify(t *testing.T) {
	secKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	e, err := NewBuilder().
		Kind(1).
		Content("hello, world").
		Tag("e", "0000000000000000000000000000000000000000000000000000000000000001", "", "root").
		Tag("t", "hashtags").
		SignWith(secKey).
		Build()
	require.NoError(t, err)

	require.True(t, VerifyID(e))
	require.True(t, VerifySig(e))
}

func TestJSONRoundTrip(t *testing.T) {
	secKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	e, err := NewBuilder().Kind(1).Content("round trip").SignWith(secKey).Build()
	require.NoError(t, err)

	b, err := Encode(e)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)

	require.Equal(t, e.ID, got.ID)
	require.Equal(t, e.PubKey, got.PubKey)
	require.Equal(t, e.Sig, got.Sig)
	require.Equal(t, e.Content, got.Content)
	require.Equal(t, e.CreatedAt, got.CreatedAt)
}

func TestCanonicalBinaryRoundTrip(t *testing.T) {
	secKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	e, err := NewBuilder().
		Kind(1).
		Content("hello, world").
		Tag("e", "0000000000000000000000000000000000000000000000000000000000000001", "", "root").
		Tag("t", "hashtags").
		Tag("x", "42").
		SignWith(secKey).
		Build()
	require.NoError(t, err)

	bin := Canonical(e)
	got, err := DecodeCanonical(bin)
	require.NoError(t, err)

	require.Equal(t, e.ID, got.ID)
	require.Equal(t, e.PubKey, got.PubKey)
	require.Equal(t, e.Content, got.Content)
	require.Equal(t, len(e.Tags), len(got.Tags))
	for i := range e.Tags {
		require.Equal(t, []string(e.Tags[i]), []string(got.Tags[i]))
	}
}

func TestTagIteratorMatchesDecode(t *testing.T) {
	secKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	e, err := NewBuilder().
		Kind(1).
		Content("abc").
		Tag("p", "0000000000000000000000000000000000000000000000000000000000000002").
		Tag("t", "nostr").
		SignWith(secKey).
		Build()
	require.NoError(t, err)

	bin := Canonical(e)
	it, err := NewTagIterator(bin)
	require.NoError(t, err)

	var rows []Tag
	for {
		row, ok := it.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	require.Equal(t, len(e.Tags), len(rows))
	for i := range e.Tags {
		require.Equal(t, []string(e.Tags[i]), []string(rows[i]))
	}
}
