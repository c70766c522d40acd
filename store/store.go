// Package store is the thin binding over the underlying ACID key-value
// store: transactions, cursors, and the named sub-database prefixes
// every other package keys its rows under. Every other package treats
// the underlying store as an opaque LMDB-style engine with MVCC readers
// and a single writer; badger is the concrete engine behind that
// boundary.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/nostrdb-go/notedb/internal/logging"
)

var log = logging.WithComponent("store")

const (
	// MinMapSize is the floor map-size init-retry halving stops at.
	MinMapSize = 512 << 20
	// DefaultGrowthFactor is applied to the map size when a commit fails
	// with an out-of-space error.
	DefaultGrowthFactor = 2.0
	// DefaultGrowthCeiling caps how large a single growth retry loop may
	// drive the map size before giving up and surfacing the failure.
	DefaultGrowthCeiling = 64 << 30
)

// Config carries the store's open-time and runtime-growth parameters.
type Config struct {
	Path           string
	MapSize        int64
	GrowthFactor   float64
	GrowthCeiling  int64
	SkipVerify     bool
	InMemory       bool
}

// DefaultConfig returns a Config with sensible defaults for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:          path,
		MapSize:       1 << 30,
		GrowthFactor:  DefaultGrowthFactor,
		GrowthCeiling: DefaultGrowthCeiling,
	}
}

// Store wraps a badger.DB with the Prefixes table and the current,
// possibly-grown, map size.
type Store struct {
	db      *badger.DB
	prefix  *Prefixes
	cfg     Config
	mapSize int64
}

// ErrTransactionFailed is returned when the underlying store enforces its
// single-writer rule and a second concurrent write transaction cannot be
// started.
var ErrTransactionFailed = errors.New("store: transaction failed (writer already active)")

// Open opens (or creates) the store at cfg.Path. If the underlying engine
// rejects the requested map size, Open halves it and retries down to
// MinMapSize before giving up.
func Open(cfg Config) (*Store, error) {
	size := cfg.MapSize
	if size <= 0 {
		size = DefaultConfig(cfg.Path).MapSize
	}

	var lastErr error
	for size >= MinMapSize {
		opts := badger.DefaultOptions(cfg.Path)
		if cfg.InMemory {
			opts = opts.WithInMemory(true)
		}
		opts = opts.WithValueLogFileSize(size - 1).WithLogger(nil)

		db, err := badger.Open(opts)
		if err == nil {
			log.Info().Str("path", cfg.Path).Str("map_size", humanize.Bytes(uint64(size))).Msg("store opened")
			return &Store{db: db, prefix: GetPrefixes(), cfg: cfg, mapSize: size}, nil
		}
		lastErr = err
		log.Warn().Err(err).Str("attempted_map_size", humanize.Bytes(uint64(size))).Msg("store open failed, halving map size")
		size /= 2
	}
	return nil, fmt.Errorf("store: open failed even at floor map size %d: %w", MinMapSize, lastErr)
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Prefixes returns the sub-database prefix table.
func (s *Store) Prefixes() *Prefixes { return s.prefix }

// MapSize returns the store's current configured map size.
func (s *Store) MapSize() int64 { return s.mapSize }

// View runs fn inside a read-only transaction. Any number of Views may run
// concurrently with each other and with an in-flight Update (MVCC).
func (s *Store) View(fn func(txn *Txn) error) error {
	return s.db.View(func(t *badger.Txn) error {
		return fn(&Txn{t: t, prefix: s.prefix})
	})
}

// ErrBatchTooLarge is returned by Update when the underlying engine rejects
// a commit as exceeding its per-transaction entry-count/size limit.
// Growing the store's map size cannot fix this: the limit is on one
// transaction's pending writes, not on on-disk space, so the caller must
// re-issue fn's writes across more than one Update call.
var ErrBatchTooLarge = errors.New("store: transaction too large, split the batch across multiple Update calls")

// Update runs fn inside a read-write transaction, retrying it on
// out-of-space failures while the recorded map size (MapSize) grows by
// cfg.GrowthFactor up to cfg.GrowthCeiling. The grown size is bookkeeping
// only: the open badger instance is not reconfigured between retries. The
// underlying engine allows only one writer at a time; a second concurrent
// Update call blocks until the first completes (badger's own locking),
// never racing.
//
// badger.ErrTxnTooBig is a distinct failure mode from out-of-space: it is
// a per-transaction entry-count/size ceiling, so retrying the identical fn
// against a grown map size would fail identically every time. Update
// surfaces that case immediately as ErrBatchTooLarge instead of
// looping; only genuine out-of-space errors drive the grow-and-retry loop.
func (s *Store) Update(fn func(txn *Txn) error) error {
	ceiling := s.cfg.GrowthCeiling
	if ceiling <= 0 {
		ceiling = DefaultGrowthCeiling
	}
	factor := s.cfg.GrowthFactor
	if factor <= 1 {
		factor = DefaultGrowthFactor
	}

	for {
		err := s.db.Update(func(t *badger.Txn) error {
			return fn(&Txn{t: t, prefix: s.prefix})
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, badger.ErrTxnTooBig) {
			return fmt.Errorf("%w: %v", ErrBatchTooLarge, err)
		}
		if !isOutOfSpace(err) {
			return err
		}
		if s.mapSize >= ceiling {
			return fmt.Errorf("store: commit failed at growth ceiling %d: %w", ceiling, err)
		}
		s.mapSize = int64(float64(s.mapSize) * factor)
		if s.mapSize > ceiling {
			s.mapSize = ceiling
		}
		log.Warn().Err(err).Str("new_map_size", humanize.Bytes(uint64(s.mapSize))).Msg("growing map size and retrying commit")
	}
}

func isOutOfSpace(err error) bool {
	return errors.Is(err, badger.ErrBlockedWrites) || errors.Is(err, badger.ErrDiskQuota)
}
