// Package blocks tokenizes note content into an ordered, immutable block
// tree: text spans, hashtags, urls, legacy mention indices, bech32
// mentions, and lightning invoices.
package blocks

import (
	"github.com/nostrdb-go/notedb/bech32ids"
	"github.com/nostrdb-go/notedb/invoice"
)

// Kind discriminates the block union.
type Kind uint8

const (
	KindText Kind = iota
	KindHashtag
	KindURL
	KindMentionIndex
	KindMentionBech32
	KindInvoice
)

// Block is one node in the content block tree. Exactly one of the typed
// fields is meaningful, selected by Kind; Block.AsStr always reproduces the
// original substring that produced it.
type Block struct {
	Kind Kind
	str  string // verbatim source substring for every kind

	Hashtag      string // KindHashtag: the word, without '#'
	URL          string // KindURL
	MentionIndex int    // KindMentionIndex: legacy "#[n]" tag row reference

	Bech32 *bech32ids.Decoded // KindMentionBech32
	Invoice *invoice.Invoice  // KindInvoice
}

// AsStr returns the verbatim substring this block was parsed from; the
// concatenation of AsStr across a note's blocks reproduces its content
// exactly.
func (b Block) AsStr() string { return b.str }

func text(s string) Block { return Block{Kind: KindText, str: s} }
