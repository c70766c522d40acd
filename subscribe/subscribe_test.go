package subscribe

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nostrdb-go/notedb/filter"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
	"github.com/stretchr/testify/require"
)

func signedNote(t *testing.T, kind uint32) *note.E {
	t.Helper()
	secKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	e, err := note.NewBuilder().Kind(kind).Content("x").CreatedAt(time.Now().Unix()).SignWith(secKey).Build()
	require.NoError(t, err)
	return e
}

func TestPollReturnsMatchedKeyOnce(t *testing.T) {
	r := NewRegistry()
	f := filter.New()
	require.NoError(t, f.SetKinds(1))
	id, err := r.Subscribe([]*filter.F{f})
	require.NoError(t, err)

	e := signedNote(t, 1)
	r.Match(store.NoteKey(1), e)

	out, err := r.Poll(id, 10)
	require.NoError(t, err)
	require.Equal(t, []store.NoteKey{1}, out)

	out, err = r.Poll(id, 10)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestMatchIgnoresNonMatchingFilter(t *testing.T) {
	r := NewRegistry()
	f := filter.New()
	require.NoError(t, f.SetKinds(7))
	id, err := r.Subscribe([]*filter.F{f})
	require.NoError(t, err)

	r.Match(store.NoteKey(1), signedNote(t, 1))

	out, err := r.Poll(id, 10)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestPollAfterUnsubscribeReturnsErrClosed(t *testing.T) {
	r := NewRegistry()
	id, err := r.Subscribe([]*filter.F{filter.New()})
	require.NoError(t, err)
	r.Unsubscribe(id)

	_, err = r.Poll(id, 10)
	require.ErrorIs(t, err, ErrClosed)
}

func TestStreamWakesOnMatch(t *testing.T) {
	r := NewRegistry()
	f := filter.New()
	require.NoError(t, f.SetKinds(1))
	id, err := r.Subscribe([]*filter.F{f})
	require.NoError(t, err)
	stream := r.Stream(id, 8)
	defer stream.Close()

	done := make(chan struct{})
	var batch []store.NoteKey
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		b, ok, err := stream.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		batch = b
	}()

	time.Sleep(10 * time.Millisecond)
	r.Match(store.NoteKey(42), signedNote(t, 1))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream.Next never woke")
	}
	require.Equal(t, []store.NoteKey{42}, batch)
}

func TestStreamCloseUnblocksNext(t *testing.T) {
	r := NewRegistry()
	id, err := r.Subscribe([]*filter.F{filter.New()})
	require.NoError(t, err)
	stream := r.Stream(id, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok, err := stream.Next(context.Background())
		require.NoError(t, err)
		require.False(t, ok)
	}()

	time.Sleep(10 * time.Millisecond)
	stream.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream.Next never unblocked on Close")
	}
}

func TestStreamNextRespectsContextCancellation(t *testing.T) {
	r := NewRegistry()
	id, err := r.Subscribe([]*filter.F{filter.New()})
	require.NoError(t, err)
	stream := r.Stream(id, 8)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := stream.Next(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("stream.Next never respected context cancellation")
	}
}
