// Package subscribe is the in-memory subscription registry: it binds
// filters to a subscription id, matches newly committed notes against
// every active subscription on the writer's own goroutine, and wakes
// waiting consumers with a coalesced batch of NoteKeys.
package subscribe

import (
	"context"
	"errors"
	"sync"

	"github.com/nostrdb-go/notedb/filter"
	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/note"
	"github.com/nostrdb-go/notedb/store"
)

// ErrClosed is returned by Poll once the subscription has been
// unsubscribed; Stream.Next reports closure with ok false and a nil error.
var ErrClosed = errors.New("subscribe: subscription closed")

// ID identifies one live subscription, monotonically assigned.
type ID uint64

// Registry is the process-owned subscription map. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	mu   sync.Mutex
	subs map[ID]*subscription
	next ID
}

type subscription struct {
	id      ID
	mu      sync.Mutex
	filters []filterMatcher
	pending []store.NoteKey
	waker   chan struct{} // buffered 1: at most one pending wake
	closed  chan struct{} // closed exactly once, by Unsubscribe
	done    bool
}

// filterMatcher pairs a filter with the content verifier for its search
// field (nil if the filter has none), built once at Subscribe time since a
// subscription's filters never change for its lifetime and Match runs once
// per committed note for every live subscription.
type filterMatcher struct {
	f      *filter.F
	verify *index.ContentVerifier
}

func (m filterMatcher) matches(e *note.E) bool {
	return m.f.Matches(e) && m.verify.AllPresent(e.Content)
}

// NewRegistry returns an empty subscription registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[ID]*subscription)}
}

// Subscribe registers filters under a freshly assigned id. Filters are
// cloned so later caller-side mutation cannot affect the live matching
// set. A filter's search field, if set, is tokenized and compiled into a
// content verifier once here rather than per-Match-call.
func (r *Registry) Subscribe(filters []*filter.F) (ID, error) {
	cloned := make([]filterMatcher, len(filters))
	for i, f := range filters {
		cf := f.Clone(true)
		var terms []string
		if q, ok := cf.Search(); ok {
			terms = index.Tokenize(q)
		}
		verify, err := index.NewContentVerifier(terms)
		if err != nil {
			return 0, err
		}
		cloned[i] = filterMatcher{f: cf, verify: verify}
	}
	sub := &subscription{filters: cloned, waker: make(chan struct{}, 1), closed: make(chan struct{})}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	sub.id = id
	r.subs[id] = sub
	return id, nil
}

// Unsubscribe marks the subscription done and removes it from the
// registry. Any outstanding Stream's Next returns ok false once the
// remaining batches are drained; subsequent Poll calls return ErrClosed. No waker fires
// after this call returns.
func (r *Registry) Unsubscribe(id ID) {
	r.mu.Lock()
	sub, ok := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	sub.mu.Lock()
	sub.done = true
	sub.mu.Unlock()
	close(sub.closed)
}

// Match is called once per newly committed note, on the writer's
// goroutine after commit. It must stay cheap: a direct Matches call plus
// a precompiled search-term scan against the already-resident note, a
// short critical section per subscription, and a non-blocking wake. It
// returns the ids of every subscription woken, so a caller can drive an
// external notification hook once per woken id.
func (r *Registry) Match(nk store.NoteKey, e *note.E) []ID {
	r.mu.Lock()
	subs := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	var woken []ID
	for _, sub := range subs {
		sub.mu.Lock()
		if sub.done {
			sub.mu.Unlock()
			continue
		}
		matched := false
		for _, fm := range sub.filters {
			if fm.matches(e) {
				matched = true
				break
			}
		}
		if matched {
			sub.pending = append(sub.pending, nk)
			select {
			case sub.waker <- struct{}{}:
			default:
			}
			woken = append(woken, sub.id)
		}
		sub.mu.Unlock()
	}
	return woken
}

// Poll drains at most max pending NoteKeys for id, oldest-matched-first.
// It never blocks. Calling Poll after Unsubscribe returns ErrClosed.
func (r *Registry) Poll(id ID, max int) ([]store.NoteKey, error) {
	r.mu.Lock()
	sub, ok := r.subs[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrClosed
	}

	sub.mu.Lock()
	done := sub.done
	sub.mu.Unlock()
	if done {
		return nil, ErrClosed
	}
	return sub.drain(max), nil
}

// Stream opens a lazy batch sequence for id, each batch at most
// notesPerAwait NoteKeys. The returned Stream owns the subscription: the
// caller MUST call Close (idiomatically via defer) to unsubscribe and
// release it; Go has no drop hook to do this automatically, so unlike the
// waker-based original this is an explicit resource-ownership handle, the
// same idiom as context.CancelFunc or sql.Rows.
func (r *Registry) Stream(id ID, notesPerAwait int) *Stream {
	if notesPerAwait <= 0 {
		notesPerAwait = defaultNotesPerAwait
	}
	return &Stream{reg: r, id: id, notesPerAwait: notesPerAwait}
}

const defaultNotesPerAwait = 64

// Stream is a consumer-owned handle over one subscription's wake channel.
type Stream struct {
	reg           *Registry
	id            ID
	notesPerAwait int
}

// Next blocks until a batch of matched NoteKeys is available, ctx is
// canceled, or the subscription is unsubscribed. ok is false only when
// the subscription closed with no further batches to deliver.
func (s *Stream) Next(ctx context.Context) (batch []store.NoteKey, ok bool, err error) {
	s.reg.mu.Lock()
	sub, present := s.reg.subs[s.id]
	s.reg.mu.Unlock()
	if !present {
		return nil, false, nil
	}

	for {
		if b := sub.drain(s.notesPerAwait); len(b) > 0 {
			return b, true, nil
		}

		select {
		case <-sub.waker:
			continue
		case <-sub.closed:
			// one last drain: a match may have landed between the
			// previous drain and Unsubscribe closing this channel.
			b := sub.drain(s.notesPerAwait)
			return b, len(b) > 0, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// drain pops at most max pending NoteKeys directly from sub, bypassing
// the registry's id->subscription lookup (valid even after Unsubscribe
// has removed the entry, since the caller already holds sub).
func (sub *subscription) drain(max int) []store.NoteKey {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if max <= 0 || max > len(sub.pending) {
		max = len(sub.pending)
	}
	out := append([]store.NoteKey(nil), sub.pending[:max]...)
	sub.pending = sub.pending[max:]
	return out
}

// Close unsubscribes the stream's subscription, releasing its entry from
// the registry.
func (s *Stream) Close() {
	s.reg.Unsubscribe(s.id)
}
