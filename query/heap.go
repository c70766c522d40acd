package query

import (
	"github.com/nostrdb-go/notedb/index"
	"github.com/nostrdb-go/notedb/store"
)

// cursorHeap is a container/heap.Interface over a set of live store.Cursors,
// ordered so the cursor whose current key sorts newest-first (created_at
// desc, then NoteKey desc) always sits at the root. runCursors pops one
// cursor, consumes its current key, advances it, and pushes it back if it
// still has entries — a standard k-way merge.
type cursorHeap []*store.Cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	ci, cj := h[i].Key(), h[j].Key()
	ta, ka := index.SuffixTimeAndKey(ci)
	tb, kb := index.SuffixTimeAndKey(cj)
	if ta != tb {
		return ta > tb
	}
	return ka > kb
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x any) {
	*h = append(*h, x.(*store.Cursor))
}

func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}
