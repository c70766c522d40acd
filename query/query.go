// Package query is the filter planner and executor: for each filter it
// picks one driving secondary index by a fixed selectivity priority,
// k-way merges the resulting candidate streams newest-first, and applies
// the full filter predicate before emitting results.
package query

import (
	"errors"
	"sort"

	"github.com/nostrdb-go/notedb/filter"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// ErrQueryFailed is returned when the underlying transaction cannot be
// used (e.g. it was already discarded).
var ErrQueryFailed = errors.New("query: transaction invalid")

// ErrBufferOverflow is returned by EncodeJSON when the serialized result
// set exceeds the caller's byte bound.
var ErrBufferOverflow = errors.New("query: result serialization exceeded buffer bound")

// Result is one matched note. LoadNote copies out of the transaction's
// buffers before decoding, so a Result is safe to use after its
// transaction ends.
type Result struct {
	Key  store.NoteKey
	Note *note.E
}

// Run executes every filter in filters (OR semantics across filters),
// merges their result streams by (created_at desc, NoteKey desc) with
// NoteKey-based deduplication, and returns at most maxResults entries.
func Run(tx *store.Txn, filters []*filter.F, maxResults int) ([]Result, error) {
	if tx == nil {
		return nil, ErrQueryFailed
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	seen := make(map[store.NoteKey]struct{})
	out := make([]Result, 0, maxResults)

	for _, f := range filters {
		if f == nil {
			continue
		}
		results, err := runOne(tx, f, maxResults)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if _, dup := seen[r.Key]; dup {
				continue
			}
			seen[r.Key] = struct{}{}
			out = append(out, r)
		}
	}

	sortNewestFirst(out)
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

const defaultMaxResults = 500

func sortNewestFirst(out []Result) {
	// created_at desc, NoteKey desc — the same tie-break every driving
	// scan already produces individually; re-sort here because merging
	// across multiple OR'd filters can interleave their streams.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Note.CreatedAt != b.Note.CreatedAt {
			return a.Note.CreatedAt > b.Note.CreatedAt
		}
		return a.Key > b.Key
	})
}
