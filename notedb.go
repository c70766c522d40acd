// Package notedb wires the store, index, ingest, query, and subscribe
// packages into a single embedded database handle.
package notedb

import (
	"errors"
	"fmt"

	"github.com/nostrdb-go/notedb/filter"
	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/ingest"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/query"
	"github.com/nostrdb-go/notedb/store"
	"github.com/nostrdb-go/notedb/subscribe"
)

// defaultCacheSize bounds the indexer's recently-committed-id cache.
const defaultCacheSize = 1 << 16

// Error kinds returned directly by DB's synchronous methods.
var (
	ErrDbOpenFailed      = errors.New("notedb: database open failed")
	ErrNotFound          = errors.New("notedb: not found")
	ErrDecodeError       = errors.New("notedb: decode error")
	ErrQueryFailed       = query.ErrQueryFailed
	ErrNoteProcessFailed = errors.New("notedb: note process failed")
	ErrTransactionFailed = store.ErrTransactionFailed
	ErrSubscriptionError = errors.New("notedb: subscription error")
	ErrBufferOverflow    = query.ErrBufferOverflow
)

// Config carries every option new(dir, config) recognizes.
type Config struct {
	// MapSize is the store's maximum size in bytes.
	MapSize int64
	// IngesterThreads is the number of parse/verify worker goroutines; 0
	// picks a sensible default.
	IngesterThreads int
	// SkipVerification omits signature and id checks in the worker.
	SkipVerification bool
	// WriterScratchBufferSize bounds the writer's per-batch note count.
	WriterScratchBufferSize int
	// IngestFilter is the pre-verification policy hook.
	IngestFilter func(*note.E) bool
	// SubCallback is an optional external notification hook, invoked
	// after the internal subscription waker, once per matched commit.
	SubCallback func(id subscribe.ID)
}

// DB is the embedded database handle: one store, its secondary indexes,
// the ingestion pipeline, and the subscription registry.
type DB struct {
	store *store.Store
	ix    *index.Indexer
	pipe  *ingest.Pipeline
	subs  *subscribe.Registry
	cfg   Config
}

// New opens (or creates) a database at dir with the given configuration,
// and starts its ingestion pipeline.
func New(dir string, cfg Config) (*DB, error) {
	scfg := store.DefaultConfig(dir)
	if cfg.MapSize > 0 {
		scfg.MapSize = cfg.MapSize
	}
	s, err := store.Open(scfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDbOpenFailed, err)
	}

	ix := index.NewIndexer(defaultCacheSize)
	subs := subscribe.NewRegistry()

	db := &DB{store: s, ix: ix, subs: subs, cfg: cfg}

	icfg := ingest.DefaultConfig()
	if cfg.IngesterThreads > 0 {
		icfg.Workers = cfg.IngesterThreads
	}
	if cfg.WriterScratchBufferSize > 0 {
		icfg.BatchSize = cfg.WriterScratchBufferSize
	}
	icfg.SkipVerification = cfg.SkipVerification
	icfg.IngestFilter = cfg.IngestFilter
	icfg.OnCommit = db.onCommit

	db.pipe = ingest.New(s, ix, icfg)
	db.pipe.Start()
	return db, nil
}

// onCommit is the ingest pipeline's post-commit hook: it matches the
// freshly committed note against every live subscription and wakes the
// ones that match, then fires the caller's SubCallback once per woken
// subscription id.
func (db *DB) onCommit(nk store.NoteKey, e *note.E, relay string) {
	woken := db.subs.Match(nk, e)
	if db.cfg.SubCallback == nil {
		return
	}
	for _, id := range woken {
		db.cfg.SubCallback(id)
	}
}

// Close stops the ingestion pipeline and closes the underlying store.
func (db *DB) Close() error {
	db.pipe.Stop()
	return db.store.Close()
}

// ProcessEvent submits a raw envelope frame (relay- or client-style) for
// asynchronous ingestion. See ingest.Pipeline.ProcessEvent for the
// synchronous/asynchronous failure split.
func (db *DB) ProcessEvent(raw []byte, relay string, fromClient bool) error {
	if err := db.pipe.ProcessEvent(raw, relay, fromClient); err != nil {
		return fmt.Errorf("%w: %v", ErrNoteProcessFailed, err)
	}
	return nil
}

// GetNoteByID looks up a note by its 32-byte id.
func (db *DB) GetNoteByID(id note.ID) (*note.E, error) {
	var e *note.E
	err := db.store.View(func(tx *store.Txn) error {
		nk, ok, err := db.ix.LookupKey(tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		e, err = index.LoadNote(tx, nk)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetNoteByKey looks up a note directly by its internal NoteKey, as
// returned by Poll/Stream batches.
func (db *DB) GetNoteByKey(nk store.NoteKey) (*note.E, error) {
	var e *note.E
	err := db.store.View(func(tx *store.Txn) error {
		var err error
		e, err = index.LoadNote(tx, nk)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Query runs filters (OR semantics) and returns at most maxResults notes,
// newest-first.
func (db *DB) Query(filters []*filter.F, maxResults int) ([]query.Result, error) {
	var out []query.Result
	err := db.store.View(func(tx *store.Txn) error {
		var err error
		out, err = query.Run(tx, filters, maxResults)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Subscribe registers filters for live matching and returns a subscription
// id a caller polls or streams against. It fails only if a filter's search
// field cannot be compiled into a content verifier.
func (db *DB) Subscribe(filters []*filter.F) (subscribe.ID, error) {
	return db.subs.Subscribe(filters)
}

// Unsubscribe removes a subscription.
func (db *DB) Unsubscribe(id subscribe.ID) {
	db.subs.Unsubscribe(id)
}

// Poll drains at most max pending matched NoteKeys for a subscription.
func (db *DB) Poll(id subscribe.ID, max int) ([]store.NoteKey, error) {
	out, err := db.subs.Poll(id, max)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubscriptionError, err)
	}
	return out, nil
}

// Stream opens a lazy batch sequence for a subscription; the caller owns
// the returned handle and must Close it.
func (db *DB) Stream(id subscribe.ID, notesPerAwait int) *subscribe.Stream {
	return db.subs.Stream(id, notesPerAwait)
}
