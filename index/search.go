package index

import (
	"strings"

	"github.com/coregx/ahocorasick"
)

// ContentVerifier re-checks whether a note's content contains every term of
// a tokenized search query, via one multi-pattern Aho-Corasick scan. It is
// shared by package query (verifying full-text posting-list candidates) and
// package subscribe (verifying live-matched notes directly, since the
// subscription engine never assembles a posting-list candidate stream at
// all).
type ContentVerifier struct {
	automaton *ahocorasick.Automaton
	count     int
}

// NewContentVerifier builds a verifier from an already-tokenized term list.
// An empty terms yields a nil *ContentVerifier; AllPresent on a nil
// receiver always reports true, so callers can apply it unconditionally
// whether or not a search field was actually set.
func NewContentVerifier(terms []string) (*ContentVerifier, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(terms).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &ContentVerifier{automaton: automaton, count: len(terms)}, nil
}

// AllPresent reports whether content contains every term the verifier was
// built from. A nil verifier always reports true.
func (v *ContentVerifier) AllPresent(content string) bool {
	if v == nil {
		return true
	}
	matches := v.automaton.FindAllOverlapping([]byte(strings.ToLower(content)))
	seen := make(map[int]struct{}, v.count)
	for _, m := range matches {
		seen[m.PatternID] = struct{}{}
	}
	return len(seen) == v.count
}
