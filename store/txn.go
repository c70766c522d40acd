package store

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Txn.Get when no value is stored under key.
var ErrNotFound = badger.ErrKeyNotFound

// Txn is a live read or read-write transaction bound to one of the
// sub-databases via its Prefixes table. Every key passed to Get/Set/Delete
// is relative to a given prefix; callers build the full key with
// Key(prefix, parts...).
type Txn struct {
	t      *badger.Txn
	prefix *Prefixes
}

// Prefixes exposes the sub-database prefix table to callers building keys.
func (tx *Txn) Prefixes() *Prefixes { return tx.prefix }

// Key concatenates a sub-database prefix with its key parts into one
// badger key.
func Key(prefix []byte, parts ...[]byte) []byte {
	n := len(prefix)
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	out = append(out, prefix...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Get fetches the value stored under key, copying it out of badger's
// internal buffers so it outlives the transaction.
func (tx *Txn) Get(key []byte) ([]byte, error) {
	item, err := tx.t.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Has reports whether key exists, without copying its value.
func (tx *Txn) Has(key []byte) (bool, error) {
	_, err := tx.t.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Set writes key->value. Only valid inside an Update transaction.
func (tx *Txn) Set(key, value []byte) error {
	return tx.t.Set(key, value)
}

// Delete removes key. Only valid inside an Update transaction.
func (tx *Txn) Delete(key []byte) error {
	return tx.t.Delete(key)
}

// ScanPrefix iterates every key with the given prefix in ascending key
// order, invoking fn with a transaction-scoped key/value view. Returning
// an error from fn stops iteration and is propagated to the caller.
//
// A plain Seek/ValidForPrefix/Next loop, generalized to a callback so
// callers never need to materialize the whole matching key set.
func (tx *Txn) ScanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	it := tx.t.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

// ScanPrefixReverse is ScanPrefix but walks the prefix's key range in
// descending key order; over the descending created_at encoding (index
// package) this visits notes oldest-first.
func (tx *Txn) ScanPrefixReverse(prefix []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	it := tx.t.NewIterator(opts)
	defer it.Close()

	seekKey := append(append([]byte(nil), prefix...), 0xff)
	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

// Cursor is a pull-based, keys-only iterator over one prefix's key range,
// for callers (the query planner's k-way merge) that need to interleave
// several scans rather than drain one to completion via a callback.
type Cursor struct {
	it     *badger.Iterator
	prefix []byte
}

// NewCursor opens a forward, keys-only cursor positioned at the first key
// with the given prefix. Callers must Close it when done.
func (tx *Txn) NewCursor(prefix []byte) *Cursor {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := tx.t.NewIterator(opts)
	it.Seek(prefix)
	return &Cursor{it: it, prefix: prefix}
}

// Valid reports whether the cursor currently sits on a key matching its
// prefix.
func (c *Cursor) Valid() bool { return c.it.ValidForPrefix(c.prefix) }

// Key returns the current key. Only valid while Valid() is true.
func (c *Cursor) Key() []byte { return c.it.Item().KeyCopy(nil) }

// Next advances the cursor.
func (c *Cursor) Next() { c.it.Next() }

// Close releases the underlying iterator.
func (c *Cursor) Close() { c.it.Close() }

// KeysOnlyPrefix is ScanPrefix without value copies, for index probes
// that only need to test existence or extract a NoteKey suffix.
func (tx *Txn) KeysOnlyPrefix(prefix []byte, fn func(key []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := tx.t.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := fn(it.Item().KeyCopy(nil)); err != nil {
			return err
		}
	}
	return nil
}
