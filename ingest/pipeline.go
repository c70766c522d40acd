// Package ingest is the event ingestion pipeline: a bounded queue of raw
// envelope frames, N parse/verify worker goroutines, and a single writer
// goroutine that owns every write transaction and batches commits.
//
// badger permits only one write transaction at a time, so writes are
// generalized into an explicit worker-pool/writer split: workers parse
// and verify concurrently, and a single goroutine owns every write
// transaction and batches commits.
package ingest

import (
	"sync"
	"time"

	"github.com/nostrdb-go/notedb/blocks"
	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/internal/logging"
	"github.com/nostrdb-go/notedb/metadata"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/profile"
	"github.com/nostrdb-go/notedb/store"
)

var log = logging.WithComponent("ingest")

// Config carries the pipeline's tunables.
type Config struct {
	// QueueSize bounds the number of frames awaiting a worker. Zero picks
	// a small sensible default.
	QueueSize int
	// Workers is the number of parse/verify goroutines. Zero picks a
	// sensible default.
	Workers int
	// BatchSize is the writer's max notes-per-commit.
	BatchSize int
	// BatchInterval is the writer's max wait before committing a
	// partially-filled batch.
	BatchInterval time.Duration
	// SkipVerification omits id/signature checks.
	SkipVerification bool
	// BlockOnFull makes ProcessEvent block instead of rejecting when the
	// queue is full.
	BlockOnFull bool
	// IngestFilter is the pre-verification policy hook; nil accepts everything.
	IngestFilter func(*note.E) bool
	// OnReject is invoked once per asynchronously-dropped event, off the
	// caller's goroutine.
	OnReject func(reason RejectReason, err error)
	// OnCommit is invoked once per durably-committed note, from the
	// writer goroutine, after its batch's transaction commits. This is
	// the hook the subscription engine attaches to for match-and-wake.
	OnCommit func(nk store.NoteKey, e *note.E, relay string)
}

// DefaultConfig returns sensible defaults for all tunables.
func DefaultConfig() Config {
	return Config{
		QueueSize:     4096,
		Workers:       4,
		BatchSize:     256,
		BatchInterval: 50 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultConfig().QueueSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultConfig().Workers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultConfig().BatchSize
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = DefaultConfig().BatchInterval
	}
	return c
}

// verified is a frame that has survived parse+verify+dedup-precheck and is
// ready for the writer to commit.
type verified struct {
	e     *note.E
	raw   []byte
	relay string // empty for client-submitted events
}

// Pipeline owns the queue, workers, and writer goroutine for one store.
type Pipeline struct {
	cfg Config
	s   *store.Store
	ix  *index.Indexer

	queue   chan frame
	toWrite chan verified

	wg   sync.WaitGroup
	stop chan struct{}
}

// New builds a pipeline over s, indexing via ix. Call Start to launch its
// goroutines.
func New(s *store.Store, ix *index.Indexer, cfg Config) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:     cfg,
		s:       s,
		ix:      ix,
		queue:   make(chan frame, cfg.QueueSize),
		toWrite: make(chan verified, cfg.QueueSize),
		stop:    make(chan struct{}),
	}
}

// Start launches the worker pool and the writer goroutine.
func (p *Pipeline) Start() {
	var workers sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.runWorker()
		}()
	}
	// toWrite is closed once, after the last worker exits.
	go func() {
		workers.Wait()
		close(p.toWrite)
	}()
	p.wg.Add(1)
	go p.runWriter()
}

// Stop closes the intake queue and waits for every in-flight frame to
// drain through the worker pool and writer before returning.
func (p *Pipeline) Stop() {
	close(p.stop)
	close(p.queue)
	p.wg.Wait()
}

// ProcessEvent unwraps the outer envelope and enqueues the inner note JSON
// for worker processing. It returns immediately; everything past the
// outer envelope shape (bad signature, duplicate id, policy rejection) is
// surfaced only via Config.OnReject or metrics, never through this return
// value. The two synchronous failures are a syntactically unparseable
// outer envelope and backpressure (ErrQueueFull) when Config.BlockOnFull
// is false — matching the process_event contract exactly.
func (p *Pipeline) ProcessEvent(raw []byte, relay string, fromClient bool) error {
	noteJSON, err := parseEnvelope(raw)
	if err != nil {
		return err
	}
	f := frame{raw: noteJSON, relay: relay, fromClient: fromClient}
	queueDepth.Set(float64(len(p.queue)))

	if p.cfg.BlockOnFull {
		select {
		case p.queue <- f:
			return nil
		case <-p.stop:
			return ErrQueueFull
		}
	}

	select {
	case p.queue <- f:
		return nil
	default:
		p.reject(ReasonQueueFull, ErrQueueFull)
		return ErrQueueFull
	}
}

func (p *Pipeline) reject(reason RejectReason, err error) {
	eventsRejected.WithLabelValues(string(reason)).Inc()
	log.Debug().Str("reason", string(reason)).Err(err).Msg("event rejected")
	if p.cfg.OnReject != nil {
		p.cfg.OnReject(reason, err)
	}
}

// runWorker implements the Raw -> Parsed -> Verified state transitions:
// decode the wire note (ProcessEvent has already unwrapped the envelope),
// apply the ingest filter, then
// verify id/signature unless SkipVerification is set.
func (p *Pipeline) runWorker() {
	defer p.wg.Done()
	for f := range p.queue {
		e, err := note.Decode(f.raw)
		if err != nil {
			p.reject(ReasonMalformedJSON, err)
			continue
		}
		relay := f.relay
		if f.fromClient {
			relay = "" // client-style envelopes carry no source relay
		}
		if relay != "" {
			e.SetRelaySource(relay)
		}

		if p.cfg.IngestFilter != nil && !p.cfg.IngestFilter(e) {
			p.reject(ReasonPolicyFiltered, nil)
			continue
		}

		if !p.cfg.SkipVerification {
			if !note.VerifyID(e) {
				p.reject(ReasonIDMismatch, note.ErrIDMismatch)
				continue
			}
			if !note.VerifySig(e) {
				p.reject(ReasonSigInvalid, note.ErrSigInvalid)
				continue
			}
		}

		p.toWrite <- verified{e: e, raw: f.raw, relay: relay}
	}
}

// runWriter implements Deduped -> Committed: the single writer goroutine
// batches verified notes up to BatchSize or BatchInterval, then commits
// them inside one write transaction.
func (p *Pipeline) runWriter() {
	defer p.wg.Done()
	batch := make([]verified, 0, p.cfg.BatchSize)
	ticker := time.NewTicker(p.cfg.BatchInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.commitBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case v, ok := <-p.toWrite:
			if !ok {
				flush()
				return
			}
			batch = append(batch, v)
			if len(batch) >= p.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// commitBatch runs the Deduped->Committed transition for an entire batch
// inside one transaction, per-note dropping duplicates, and relies on
// store.Store.Update's own map-size growth retry for the partial-failure
// policy (grow and replay the whole batch on out-of-space, drop and count
// on persistent failure).
func (p *Pipeline) commitBatch(batch []verified) {
	t := newTimer()
	defer t.observeDuration(batchCommitSeconds)

	err := p.s.Update(func(tx *store.Txn) error {
		for _, v := range batch {
			if err := p.commitOne(tx, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		batchesDropped.Inc()
		log.Error().Err(err).Int("batch_size", len(batch)).Msg("batch commit failed persistently, dropping batch")
		return
	}
}

// commitOne performs the full index/projector fan-out for one note inside
// an already-open write transaction.
func (p *Pipeline) commitOne(tx *store.Txn, v verified) error {
	e := v.e
	res, err := p.ix.InsertNote(tx, e, note.Canonical(e))
	if err != nil {
		return err
	}
	if !res.Inserted {
		// idempotent re-ingest: still record the relay.
		if v.relay != "" {
			if _, err := index.AppendRelay(tx, res.Key, v.relay); err != nil {
				return err
			}
		}
		eventsAccepted.Inc()
		if p.cfg.OnCommit != nil {
			p.cfg.OnCommit(res.Key, e, v.relay)
		}
		return nil
	}

	if _, err := blocks.Index(tx, res.Key, e.CreatedAt, e.Content); err != nil {
		return err
	}
	if e.IsProfile() {
		if _, err := profile.Upsert(tx, e); err != nil {
			return err
		}
	}
	if err := metadata.Apply(tx, p.ix, e, res.Key); err != nil {
		return err
	}
	if v.relay != "" {
		if _, err := index.AppendRelay(tx, res.Key, v.relay); err != nil {
			return err
		}
	}

	eventsAccepted.Inc()
	if p.cfg.OnCommit != nil {
		p.cfg.OnCommit(res.Key, e, v.relay)
	}
	return nil
}
