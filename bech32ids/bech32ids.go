// Package bech32ids decodes and encodes the protocol's bech32-family
// user-visible identifiers (npub, nsec, note, nevent, nprofile, naddr,
// nrelay), backing the content block tree's MentionBech32 block kind.
//
// The bit-regrouping primitive (5-bit <-> 8-bit) comes from
// github.com/btcsuite/btcutil/bech32.
package bech32ids

import (
	"errors"

	"github.com/btcsuite/btcutil/bech32"
)

// Kind identifies which of the seven identifier shapes was decoded.
type Kind int

const (
	KindNpub Kind = iota
	KindNsec
	KindNote
	KindNprofile
	KindNevent
	KindNrelay
	KindNaddr
)

var prefixes = map[string]Kind{
	"npub":     KindNpub,
	"nsec":     KindNsec,
	"note":     KindNote,
	"nprofile": KindNprofile,
	"nevent":   KindNevent,
	"nrelay":   KindNrelay,
	"naddr":    KindNaddr,
}

var kindPrefix = map[Kind]string{
	KindNpub:     "npub",
	KindNsec:     "nsec",
	KindNote:     "note",
	KindNprofile: "nprofile",
	KindNevent:   "nevent",
	KindNrelay:   "nrelay",
	KindNaddr:    "naddr",
}

// Profile is the payload of an nprofile identifier.
type Profile struct {
	PubKey [32]byte
	Relays []string
}

// Event is the payload of an nevent identifier.
type Event struct {
	ID     [32]byte
	Author *[32]byte
	Kind   *uint32
	Relays []string
}

// Addr is the payload of an naddr identifier (a parameterized-replaceable
// event pointer).
type Addr struct {
	Identifier string
	Author     [32]byte
	Kind       uint32
	Relays     []string
}

// Decoded is the result of decoding any one of the supported identifiers;
// only the field matching Kind is populated.
type Decoded struct {
	Kind    Kind
	PubKey  [32]byte
	SecKey  [32]byte
	NoteID  [32]byte
	Profile Profile
	Event   Event
	Relay   string
	Addr    Addr
}

var (
	ErrUnknownPrefix = errors.New("bech32ids: unknown identifier prefix")
	ErrMalformed     = errors.New("bech32ids: malformed identifier")
)

// TLV entry type codes, as used by nprofile/nevent/naddr.
const (
	tlvSpecial = 0
	tlvRelay   = 1
	tlvAuthor  = 2
	tlvKind    = 3
)

// Decode parses any of the seven supported identifier strings.
func Decode(s string) (*Decoded, error) {
	hrp, data5, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, ErrMalformed
	}
	kind, ok := prefixes[hrp]
	if !ok {
		return nil, ErrUnknownPrefix
	}
	data, err := bech32.ConvertBits(data5, 5, 8, false)
	if err != nil {
		return nil, ErrMalformed
	}

	d := &Decoded{Kind: kind}
	switch kind {
	case KindNpub:
		if len(data) != 32 {
			return nil, ErrMalformed
		}
		copy(d.PubKey[:], data)
	case KindNsec:
		if len(data) != 32 {
			return nil, ErrMalformed
		}
		copy(d.SecKey[:], data)
	case KindNote:
		if len(data) != 32 {
			return nil, ErrMalformed
		}
		copy(d.NoteID[:], data)
	case KindNprofile:
		if err := decodeProfile(data, &d.Profile); err != nil {
			return nil, err
		}
	case KindNevent:
		if err := decodeEvent(data, &d.Event); err != nil {
			return nil, err
		}
	case KindNrelay:
		if err := decodeRelay(data, d); err != nil {
			return nil, err
		}
	case KindNaddr:
		if err := decodeAddr(data, &d.Addr); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func tlvEntries(data []byte) (map[byte][][]byte, error) {
	out := make(map[byte][][]byte)
	for i := 0; i+2 <= len(data); {
		typ := data[i]
		l := int(data[i+1])
		i += 2
		if i+l > len(data) {
			return nil, ErrMalformed
		}
		out[typ] = append(out[typ], data[i:i+l])
		i += l
	}
	return out, nil
}

func decodeProfile(data []byte, p *Profile) error {
	entries, err := tlvEntries(data)
	if err != nil {
		return err
	}
	special := entries[tlvSpecial]
	if len(special) != 1 || len(special[0]) != 32 {
		return ErrMalformed
	}
	copy(p.PubKey[:], special[0])
	for _, r := range entries[tlvRelay] {
		p.Relays = append(p.Relays, string(r))
	}
	return nil
}

func decodeEvent(data []byte, e *Event) error {
	entries, err := tlvEntries(data)
	if err != nil {
		return err
	}
	special := entries[tlvSpecial]
	if len(special) != 1 || len(special[0]) != 32 {
		return ErrMalformed
	}
	copy(e.ID[:], special[0])
	for _, r := range entries[tlvRelay] {
		e.Relays = append(e.Relays, string(r))
	}
	if a := entries[tlvAuthor]; len(a) == 1 && len(a[0]) == 32 {
		var author [32]byte
		copy(author[:], a[0])
		e.Author = &author
	}
	if k := entries[tlvKind]; len(k) == 1 && len(k[0]) == 4 {
		kv := uint32(k[0][0])<<24 | uint32(k[0][1])<<16 | uint32(k[0][2])<<8 | uint32(k[0][3])
		e.Kind = &kv
	}
	return nil
}

func decodeRelay(data []byte, d *Decoded) error {
	entries, err := tlvEntries(data)
	if err != nil {
		return err
	}
	special := entries[tlvSpecial]
	if len(special) != 1 {
		return ErrMalformed
	}
	d.Relay = string(special[0])
	return nil
}

func decodeAddr(data []byte, a *Addr) error {
	entries, err := tlvEntries(data)
	if err != nil {
		return err
	}
	if special := entries[tlvSpecial]; len(special) == 1 {
		a.Identifier = string(special[0])
	}
	if author := entries[tlvAuthor]; len(author) == 1 && len(author[0]) == 32 {
		copy(a.Author[:], author[0])
	}
	if k := entries[tlvKind]; len(k) == 1 && len(k[0]) == 4 {
		a.Kind = uint32(k[0][0])<<24 | uint32(k[0][1])<<16 | uint32(k[0][2])<<8 | uint32(k[0][3])
	}
	for _, r := range entries[tlvRelay] {
		a.Relays = append(a.Relays, string(r))
	}
	return nil
}

// EncodeNpub/EncodeNote provide the simple (non-TLV) encode direction, used
// by tests and by any future note/profile formatter.
func EncodeNpub(pubkey [32]byte) (string, error) { return encodeSimple("npub", pubkey[:]) }
func EncodeNote(id [32]byte) (string, error)     { return encodeSimple("note", id[:]) }
func EncodeNsec(seckey [32]byte) (string, error) { return encodeSimple("nsec", seckey[:]) }

func encodeSimple(hrp string, data []byte) (string, error) {
	data5, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, data5)
}

// KindPrefix returns the human-readable prefix for a Kind, mainly for
// diagnostics and tests.
func KindPrefix(k Kind) string { return kindPrefix[k] }
