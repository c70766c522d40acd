package blocks

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/nostrdb-go/notedb/bech32ids"
	"github.com/nostrdb-go/notedb/invoice"
)

// Encode serializes bs into the fixed layout stored under NoteKey in the
// Blocks sub-database, mirroring note/binary.go's string-interning
// approach: a fixed-width row per block referencing one shared,
// NUL-terminated string table, so a block tree with repeated substrings
// (rare, but e.g. two identical hashtags) pays for the string once.
//
//	header: count(u16)
//	row (9 bytes each): kind(u8) mention_index(i32) str_offset(u32)
//	string table: NUL-terminated strings, referenced by byte offset
func Encode(bs []Block) []byte {
	strTable := newStringInterner()
	rowsLen := len(bs) * 9
	buf := make([]byte, 2+rowsLen)
	binary.LittleEndian.PutUint16(buf, uint16(len(bs)))

	off := 2
	for _, b := range bs {
		buf[off] = byte(b.Kind)
		off++
		binary.LittleEndian.PutUint32(buf[off:], uint32(int32(b.MentionIndex)))
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], strTable.intern(b.str))
		off += 4
	}
	return append(buf, strTable.bytes()...)
}

// Decode reverses Encode. The typed fields of kinds whose payload isn't
// just the verbatim substring (Hashtag, URL, MentionIndex) are restored
// directly from the stored row; KindMentionBech32 and KindInvoice are
// restored by re-running their (cheap, string-only) decoders against the
// stored substring rather than also serializing their parsed forms.
func Decode(b []byte) ([]Block, error) {
	if len(b) < 2 {
		return nil, errors.New("blocks: truncated block tree")
	}
	count := int(binary.LittleEndian.Uint16(b))
	headerLen := 2 + count*9
	if headerLen > len(b) {
		return nil, errors.New("blocks: truncated block tree")
	}
	table := b[headerLen:]

	out := make([]Block, count)
	off := 2
	for i := 0; i < count; i++ {
		kind := Kind(b[off])
		off++
		mentionIndex := int(int32(binary.LittleEndian.Uint32(b[off:])))
		off += 4
		s := readInternedString(table, binary.LittleEndian.Uint32(b[off:]))
		off += 4

		blk := Block{Kind: kind, str: s}
		switch kind {
		case KindHashtag:
			blk.Hashtag = strings.TrimPrefix(s, "#")
		case KindURL:
			blk.URL = s
		case KindMentionIndex:
			blk.MentionIndex = mentionIndex
		case KindMentionBech32:
			token := strings.TrimPrefix(s, "nostr:")
			if d, err := bech32ids.Decode(token); err == nil {
				blk.Bech32 = d
			}
		case KindInvoice:
			if inv, err := invoice.Parse(s); err == nil {
				blk.Invoice = inv
			}
		}
		out[i] = blk
	}
	return out, nil
}

// stringInterner collects distinct strings once and assigns them byte
// offsets into a NUL-terminated table.
type stringInterner struct {
	offsets map[string]uint32
	buf     []byte
}

func newStringInterner() *stringInterner {
	return &stringInterner{offsets: make(map[string]uint32)}
}

func (s *stringInterner) intern(v string) uint32 {
	if off, ok := s.offsets[v]; ok {
		return off
	}
	off := uint32(len(s.buf))
	s.offsets[v] = off
	s.buf = append(s.buf, v...)
	s.buf = append(s.buf, 0)
	return off
}

func (s *stringInterner) bytes() []byte { return s.buf }

func readInternedString(table []byte, off uint32) string {
	if int(off) >= len(table) {
		return ""
	}
	end := off
	for int(end) < len(table) && table[end] != 0 {
		end++
	}
	return string(table[off:end])
}
