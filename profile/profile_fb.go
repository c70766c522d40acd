package profile

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Profile is a hand-authored flatbuffers table: rather than run flatc
// over a .fbs file for one small schema, this is written the way
// generated code looks, using the flatbuffers Go runtime's
// Builder/Table primitives directly. Field order below fixes the
// vtable slot numbering; appending a field must go at the end.
type Profile struct {
	_tab flatbuffers.Table
}

// GetRootAsProfile returns a Profile view over an already-encoded buffer.
func GetRootAsProfile(buf []byte, offset flatbuffers.UOffsetT) *Profile {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	p := &Profile{}
	p.Init(buf, n+offset)
	return p
}

// Init binds the table view to buf at position i.
func (p *Profile) Init(buf []byte, i flatbuffers.UOffsetT) {
	p._tab.Bytes = buf
	p._tab.Pos = i
}

func (p *Profile) PubKey() []byte {
	o := flatbuffers.UOffsetT(p._tab.Offset(4))
	if o == 0 {
		return nil
	}
	return p._tab.ByteVector(o + p._tab.Pos)
}

func (p *Profile) CreatedAt() int64 {
	o := flatbuffers.UOffsetT(p._tab.Offset(6))
	if o == 0 {
		return 0
	}
	return p._tab.GetInt64(o + p._tab.Pos)
}

func (p *Profile) stringField(slot flatbuffers.VOffsetT) string {
	o := flatbuffers.UOffsetT(p._tab.Offset(slot))
	if o == 0 {
		return ""
	}
	return string(p._tab.ByteVector(o + p._tab.Pos))
}

func (p *Profile) Name() string    { return p.stringField(8) }
func (p *Profile) About() string   { return p.stringField(10) }
func (p *Profile) Picture() string { return p.stringField(12) }
func (p *Profile) Nip05() string   { return p.stringField(14) }
func (p *Profile) Lud16() string   { return p.stringField(16) }

const profileFieldCount = 7

func profileStart(b *flatbuffers.Builder) { b.StartObject(profileFieldCount) }

func profileAddPubKey(b *flatbuffers.Builder, v flatbuffers.UOffsetT) {
	b.PrependUOffsetTSlot(0, v, 0)
}
func profileAddCreatedAt(b *flatbuffers.Builder, v int64) {
	b.PrependInt64Slot(1, v, 0)
}
func profileAddName(b *flatbuffers.Builder, v flatbuffers.UOffsetT) {
	b.PrependUOffsetTSlot(2, v, 0)
}
func profileAddAbout(b *flatbuffers.Builder, v flatbuffers.UOffsetT) {
	b.PrependUOffsetTSlot(3, v, 0)
}
func profileAddPicture(b *flatbuffers.Builder, v flatbuffers.UOffsetT) {
	b.PrependUOffsetTSlot(4, v, 0)
}
func profileAddNip05(b *flatbuffers.Builder, v flatbuffers.UOffsetT) {
	b.PrependUOffsetTSlot(5, v, 0)
}
func profileAddLud16(b *flatbuffers.Builder, v flatbuffers.UOffsetT) {
	b.PrependUOffsetTSlot(6, v, 0)
}
func profileEnd(b *flatbuffers.Builder) flatbuffers.UOffsetT { return b.EndObject() }

// Record is the plain-Go view of a Profile used by the rest of the
// package; Encode/Decode translate to and from the flatbuffer wire form.
type Record struct {
	PubKey    [32]byte
	CreatedAt int64
	Name      string
	About     string
	Picture   string
	Nip05     string
	Lud16     string
}

// Encode builds the flatbuffer-encoded bytes for r.
func Encode(r *Record) []byte {
	b := flatbuffers.NewBuilder(256)

	nameOff := b.CreateString(r.Name)
	aboutOff := b.CreateString(r.About)
	pictureOff := b.CreateString(r.Picture)
	nip05Off := b.CreateString(r.Nip05)
	lud16Off := b.CreateString(r.Lud16)
	pubkeyOff := b.CreateByteVector(r.PubKey[:])

	profileStart(b)
	profileAddPubKey(b, pubkeyOff)
	profileAddCreatedAt(b, r.CreatedAt)
	profileAddName(b, nameOff)
	profileAddAbout(b, aboutOff)
	profileAddPicture(b, pictureOff)
	profileAddNip05(b, nip05Off)
	profileAddLud16(b, lud16Off)
	off := profileEnd(b)

	b.Finish(off)
	return b.FinishedBytes()
}

// Decode parses a flatbuffer-encoded Profile back into a Record.
func Decode(buf []byte) *Record {
	p := GetRootAsProfile(buf, 0)
	r := &Record{CreatedAt: p.CreatedAt(), Name: p.Name(), About: p.About(),
		Picture: p.Picture(), Nip05: p.Nip05(), Lud16: p.Lud16()}
	copy(r.PubKey[:], p.PubKey())
	return r
}
