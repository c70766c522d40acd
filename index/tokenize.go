package index

import (
	"strings"
	"unicode"

	"github.com/orsinium-labs/stopwords"
)

// MinTokenLength is the minimum word length indexed into the full-text
// table.
const MinTokenLength = 2

var enStopwords = stopwords.MustGet("en")

// Tokenize lowercases and splits s on non-letter/non-digit runes, dropping
// tokens shorter than MinTokenLength and common English stopwords, in
// insertion order with duplicates collapsed (a posting is only ever
// written once per note per token).
func Tokenize(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		w := b.String()
		b.Reset()
		if len(w) < MinTokenLength {
			return
		}
		if enStopwords.Contains(w) {
			return
		}
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}
