// Package nip10 computes root/reply/mention thread structure from a
// note's "e" tags, following the NIP-10 convention.
package nip10

import "github.com/nostrdb-go/notedb/note"

// Marker is the optional fourth element of a marked "e" tag.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerRoot
	MarkerReply
	MarkerMention
)

func parseMarker(s string) Marker {
	switch s {
	case "root":
		return MarkerRoot
	case "reply":
		return MarkerReply
	case "mention":
		return MarkerMention
	default:
		return MarkerNone
	}
}

// Ref is one parsed "e" tag reference.
type Ref struct {
	Index  int
	ID     note.ID
	Relay  string
	Marker Marker
}

// Thread is the root/reply/mention structure of a note's tags.
type Thread struct {
	Root    *Ref
	Reply   *Ref
	Mention *Ref
}

func tagToRef(t note.Tag, index int) (Ref, bool) {
	if len(t) < 2 || t[0] != "e" {
		return Ref{}, false
	}
	var id note.ID
	if !hexInto(id[:], t[1]) {
		return Ref{}, false
	}
	ref := Ref{Index: index, ID: id}
	if len(t) >= 3 && t[2] != "" {
		ref.Relay = t[2]
	}
	if len(t) >= 4 {
		ref.Marker = parseMarker(t[3])
	}
	return ref, true
}

func hexInto(dst []byte, s string) bool {
	if len(s) != len(dst)*2 {
		return false
	}
	for i := range dst {
		hi, ok1 := hexDigit(s[i*2])
		lo, ok2 := hexDigit(s[i*2+1])
		if !ok1 || !ok2 {
			return false
		}
		dst[i] = hi<<4 | lo
	}
	return true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ParseThread walks tags once and classifies "e" tags into root/reply/
// mention following NIP-10: explicitly marked tags win; in the absence of
// any marker, the legacy convention treats the first "e" tag as root and
// the last distinct one as reply.
func ParseThread(tags []note.Tag) Thread {
	var th Thread
	first := true
	anyMarker := false

	for i, t := range tags {
		if th.Root != nil && th.Reply != nil && th.Mention != nil {
			break
		}
		ref, ok := tagToRef(t, i)
		if !ok {
			continue
		}
		switch ref.Marker {
		case MarkerRoot:
			anyMarker = true
			r := ref
			th.Root = &r
		case MarkerReply:
			anyMarker = true
			r := ref
			th.Reply = &r
		case MarkerMention:
			anyMarker = true
			r := ref
			th.Mention = &r
		default:
			if !anyMarker && first {
				r := ref
				th.Root = &r
				first = false
			} else if !anyMarker {
				r := ref
				th.Reply = &r
			}
		}
	}
	return th
}

// IsReplyToRoot reports whether this note replies directly to its root
// (no distinct reply marker/tag was present).
func (t Thread) IsReplyToRoot() bool { return t.Root != nil && t.Reply == nil }

// ReplyTo returns the note this reply targets: the explicit reply ref if
// present, else the root ref, else nil (not a reply).
func (t Thread) ReplyTo() *Ref {
	if t.Reply != nil {
		return t.Reply
	}
	return t.Root
}
