package note

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Builder provides programmatic construction of notes with optional
// auto-created_at, auto-id, and auto-sig; tests and importers can disable
// recomputation to reproduce historical notes verbatim.
type Builder struct {
	e E

	autoCreatedAt bool
	autoID        bool
	autoSig       bool
	secKey        *btcec.PrivateKey
}

// NewBuilder returns a Builder with auto-created_at and auto-id enabled;
// auto-sig is enabled only once a secret key is supplied via SignWith.
func NewBuilder() *Builder {
	return &Builder{autoCreatedAt: true, autoID: true}
}

func (b *Builder) Kind(k uint32) *Builder       { b.e.Kind = k; return b }
func (b *Builder) Content(c string) *Builder    { b.e.Content = c; return b }
func (b *Builder) PubKey(pk PubKey) *Builder    { b.e.PubKey = pk; return b }
func (b *Builder) CreatedAt(ts int64) *Builder  { b.e.CreatedAt = ts; b.autoCreatedAt = false; return b }
func (b *Builder) Tag(row ...string) *Builder   { b.e.Tags = append(b.e.Tags, Tag(row)); return b }
func (b *Builder) ID(id ID) *Builder            { b.e.ID = id; b.autoID = false; return b }
func (b *Builder) Sig(sig Sig) *Builder         { b.e.Sig = sig; b.autoSig = false; return b }

// SignWith enables auto-sig: Build will sign the computed id with secKey
// and derive PubKey from it, overriding any PubKey previously set.
func (b *Builder) SignWith(secKey *btcec.PrivateKey) *Builder {
	b.secKey = secKey
	b.autoSig = true
	return b
}

// DisableAutoCreatedAt/DisableAutoID let tests and importers reproduce a
// historical note byte-for-byte.
func (b *Builder) DisableAutoCreatedAt() *Builder { b.autoCreatedAt = false; return b }
func (b *Builder) DisableAutoID() *Builder        { b.autoID = false; return b }

// Build finalizes the note, filling in created_at/id/sig according to the
// enabled automations, and returns a copy.
func (b *Builder) Build() (*E, error) {
	e := b.e
	if b.autoCreatedAt {
		e.CreatedAt = time.Now().Unix()
	}
	if b.autoSig && b.secKey != nil {
		// the id hashes the pubkey, so derive it before computing the id.
		copy(e.PubKey[:], b.secKey.PubKey().SerializeCompressed()[1:])
	}
	if b.autoID {
		e.ID = ComputeID(&e)
	}
	if b.autoSig && b.secKey != nil {
		if err := Sign(&e, b.secKey); err != nil {
			return nil, err
		}
	}
	return &e, nil
}
