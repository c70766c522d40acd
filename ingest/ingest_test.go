package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
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

func signedNote(t *testing.T, kind uint32, content string, tags ...note.Tag) *note.E {
	t.Helper()
	secKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	b := note.NewBuilder().Kind(kind).Content(content).CreatedAt(time.Now().Unix()).SignWith(secKey)
	for _, tag := range tags {
		b.Tag(tag...)
	}
	e, err := b.Build()
	require.NoError(t, err)
	return e
}

func clientEnvelope(t *testing.T, e *note.E) []byte {
	t.Helper()
	noteJSON, err := note.Encode(e)
	require.NoError(t, err)
	env, err := json.Marshal([]json.RawMessage{json.RawMessage(`"EVENT"`), noteJSON})
	require.NoError(t, err)
	return env
}

func relayEnvelope(t *testing.T, subID string, e *note.E) []byte {
	t.Helper()
	noteJSON, err := note.Encode(e)
	require.NoError(t, err)
	subBytes, err := json.Marshal(subID)
	require.NoError(t, err)
	env, err := json.Marshal([]json.RawMessage{json.RawMessage(`"EVENT"`), subBytes, noteJSON})
	require.NoError(t, err)
	return env
}

func TestParseEnvelopeBothShapes(t *testing.T) {
	e := signedNote(t, 1, "hi")

	clientInner, err := parseEnvelope(clientEnvelope(t, e))
	require.NoError(t, err)
	var decoded note.E
	require.NoError(t, json.Unmarshal(clientInner, &decoded))

	relayInner, err := parseEnvelope(relayEnvelope(t, "sub1", e))
	require.NoError(t, err)
	require.JSONEq(t, string(clientInner), string(relayInner))
}

func TestParseEnvelopeRejectsMalformed(t *testing.T) {
	_, err := parseEnvelope([]byte(`not json`))
	require.Error(t, err)

	_, err = parseEnvelope([]byte(`["EVENT"]`))
	require.Error(t, err)

	_, err = parseEnvelope([]byte(`["NOTICE", "x"]`))
	require.Error(t, err)
}

func newTestPipeline(t *testing.T, cfg Config) (*Pipeline, *store.Store) {
	t.Helper()
	s := openTestStore(t)
	ix := index.NewIndexer(64)
	p := New(s, ix, cfg)
	p.Start()
	t.Cleanup(p.Stop)
	return p, s
}

func waitForCommit(t *testing.T, committed chan store.NoteKey) store.NoteKey {
	t.Helper()
	select {
	case nk := <-committed:
		return nk
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for commit")
		return 0
	}
}

func TestProcessEventCommitsAndIndexes(t *testing.T) {
	committed := make(chan store.NoteKey, 1)
	cfg := DefaultConfig()
	cfg.BatchSize = 1
	cfg.BatchInterval = 10 * time.Millisecond
	cfg.OnCommit = func(nk store.NoteKey, e *note.E, relay string) { committed <- nk }
	p, s := newTestPipeline(t, cfg)

	e := signedNote(t, 1, "hello, world")
	require.NoError(t, p.ProcessEvent(clientEnvelope(t, e), "", true))

	nk := waitForCommit(t, committed)

	require.NoError(t, s.View(func(tx *store.Txn) error {
		got, err := index.LoadNote(tx, nk)
		require.NoError(t, err)
		require.Equal(t, "hello, world", got.Content)
		return nil
	}))
}

func TestProcessEventRejectsBadSignature(t *testing.T) {
	rejected := make(chan RejectReason, 1)
	cfg := DefaultConfig()
	cfg.BatchInterval = 10 * time.Millisecond
	cfg.OnReject = func(reason RejectReason, err error) {
		if reason == ReasonSigInvalid {
			rejected <- reason
		}
	}
	p, _ := newTestPipeline(t, cfg)

	e := signedNote(t, 1, "tampered")
	e.Sig[0] ^= 0xff // corrupt the signature after signing

	require.NoError(t, p.ProcessEvent(clientEnvelope(t, e), "", true))

	select {
	case reason := <-rejected:
		require.Equal(t, ReasonSigInvalid, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("expected sig_invalid rejection")
	}
}

func TestProcessEventAppliesIngestFilter(t *testing.T) {
	rejected := make(chan RejectReason, 1)
	cfg := DefaultConfig()
	cfg.BatchInterval = 10 * time.Millisecond
	cfg.IngestFilter = func(e *note.E) bool { return e.Kind != 7 }
	cfg.OnReject = func(reason RejectReason, err error) { rejected <- reason }
	p, _ := newTestPipeline(t, cfg)

	e := signedNote(t, 7, "+")
	require.NoError(t, p.ProcessEvent(clientEnvelope(t, e), "", true))

	select {
	case reason := <-rejected:
		require.Equal(t, ReasonPolicyFiltered, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("expected policy_filtered rejection")
	}
}

func TestProcessEventDedupsDuplicateIngest(t *testing.T) {
	committed := make(chan store.NoteKey, 4)
	cfg := DefaultConfig()
	cfg.BatchSize = 1
	cfg.BatchInterval = 10 * time.Millisecond
	cfg.OnCommit = func(nk store.NoteKey, e *note.E, relay string) { committed <- nk }
	p, s := newTestPipeline(t, cfg)

	e := signedNote(t, 1, "idempotent")
	env := clientEnvelope(t, e)

	require.NoError(t, p.ProcessEvent(env, "relay-a", false))
	require.NoError(t, p.ProcessEvent(env, "relay-b", false))

	first := waitForCommit(t, committed)
	second := waitForCommit(t, committed)
	require.Equal(t, first, second)

	require.NoError(t, s.View(func(tx *store.Txn) error {
		count := 0
		err := tx.ScanPrefix(tx.Prefixes().NoteRelays, func(key, value []byte) error {
			count++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 2, count)
		return nil
	}))
}

func TestProcessEventQueueFullRejectsWhenNonBlocking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 1
	cfg.Workers = 0 // not started below; queue fills up with no drain
	s := openTestStore(t)
	ix := index.NewIndexer(16)
	p := New(s, ix, cfg)
	// deliberately do not Start(): nothing drains the queue.

	e := signedNote(t, 1, "one")
	require.NoError(t, p.ProcessEvent(clientEnvelope(t, e), "", true))

	e2 := signedNote(t, 1, "two")
	err := p.ProcessEvent(clientEnvelope(t, e2), "", true)
	require.ErrorIs(t, err, ErrQueueFull)
}
