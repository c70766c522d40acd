package note

import (
	"encoding/binary"
	"errors"
)

// Canonical binary layout, all multi-byte integers little-endian:
//
//	header: id[32] pubkey[32] sig[64] created_at(u64) kind(u32)
//	        content_length(u32) tags_count(u16)
//	tag region: per row, element_count(u16) followed by that many elements
//	  element: tag(u8) + payload
//	    0 = Id32:  32 raw bytes
//	    1 = Str:   offset(u32) into the string table
//	    2 = Int:   value(u64)
//	content region: content_length raw UTF-8 bytes
//	string table: NUL-terminated strings, referenced by byte offset
const headerSize = 32 + 32 + 64 + 8 + 4 + 4 + 2

const (
	elemID32 uint8 = 0
	elemStr  uint8 = 1
	elemInt  uint8 = 2
)

// Canonical encodes e into the fixed binary layout stored as the Notes
// index value.
func Canonical(e *E) []byte {
	strTable := newStringInterner()

	// First pass: assign string offsets and measure the tag region.
	type encodedElem struct {
		kind uint8
		id   [32]byte
		off  uint32
		n    uint64
	}
	rows := make([][]encodedElem, len(e.Tags))
	tagRegionLen := 0
	for i, row := range e.Tags {
		elems := make([]encodedElem, len(row))
		for j, s := range row {
			if id, ok := parseHexID(s); ok {
				elems[j] = encodedElem{kind: elemID32, id: id}
			} else if n, ok := parseDecimalU64(s); ok {
				elems[j] = encodedElem{kind: elemInt, n: n}
			} else {
				elems[j] = encodedElem{kind: elemStr, off: strTable.intern(s)}
			}
		}
		rows[i] = elems
		tagRegionLen += 2 // element_count
		for _, el := range elems {
			tagRegionLen++ // tag byte
			switch el.kind {
			case elemID32:
				tagRegionLen += 32
			case elemStr:
				tagRegionLen += 4
			case elemInt:
				tagRegionLen += 8
			}
		}
	}

	content := []byte(e.Content)
	table := strTable.bytes()

	total := headerSize + tagRegionLen + len(content) + len(table)
	buf := make([]byte, total)

	off := 0
	copy(buf[off:], e.ID[:])
	off += 32
	copy(buf[off:], e.PubKey[:])
	off += 32
	copy(buf[off:], e.Sig[:])
	off += 64
	binary.LittleEndian.PutUint64(buf[off:], uint64(e.CreatedAt))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], e.Kind)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(content)))
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(e.Tags)))
	off += 2

	for _, elems := range rows {
		binary.LittleEndian.PutUint16(buf[off:], uint16(len(elems)))
		off += 2
		for _, el := range elems {
			buf[off] = el.kind
			off++
			switch el.kind {
			case elemID32:
				copy(buf[off:], el.id[:])
				off += 32
			case elemStr:
				binary.LittleEndian.PutUint32(buf[off:], el.off)
				off += 4
			case elemInt:
				binary.LittleEndian.PutUint64(buf[off:], el.n)
				off += 8
			}
		}
	}

	copy(buf[off:], content)
	off += len(content)
	copy(buf[off:], table)

	return buf
}

// DecodeCanonical reverses Canonical.
func DecodeCanonical(b []byte) (*E, error) {
	if len(b) < headerSize {
		return nil, errors.New("note: canonical buffer too short")
	}
	e := &E{}
	off := 0
	copy(e.ID[:], b[off:off+32])
	off += 32
	copy(e.PubKey[:], b[off:off+32])
	off += 32
	copy(e.Sig[:], b[off:off+64])
	off += 64
	e.CreatedAt = int64(binary.LittleEndian.Uint64(b[off:]))
	off += 8
	e.Kind = binary.LittleEndian.Uint32(b[off:])
	off += 4
	contentLen := binary.LittleEndian.Uint32(b[off:])
	off += 4
	tagsCount := binary.LittleEndian.Uint16(b[off:])
	off += 2

	type rawElem struct {
		kind uint8
		id   [32]byte
		off  uint32
		n    uint64
	}
	rows := make([][]rawElem, tagsCount)
	for i := range rows {
		if off+2 > len(b) {
			return nil, errors.New("note: truncated tag row")
		}
		n := binary.LittleEndian.Uint16(b[off:])
		off += 2
		elems := make([]rawElem, n)
		for j := range elems {
			if off >= len(b) {
				return nil, errors.New("note: truncated tag element")
			}
			kind := b[off]
			off++
			switch kind {
			case elemID32:
				var id [32]byte
				copy(id[:], b[off:off+32])
				off += 32
				elems[j] = rawElem{kind: kind, id: id}
			case elemStr:
				elems[j] = rawElem{kind: kind, off: binary.LittleEndian.Uint32(b[off:])}
				off += 4
			case elemInt:
				elems[j] = rawElem{kind: kind, n: binary.LittleEndian.Uint64(b[off:])}
				off += 8
			default:
				return nil, errors.New("note: unknown tag element kind")
			}
		}
		rows[i] = elems
	}

	if off+int(contentLen) > len(b) {
		return nil, errors.New("note: truncated content")
	}
	e.Content = string(b[off : off+int(contentLen)])
	off += int(contentLen)
	table := b[off:]

	e.Tags = make([]Tag, len(rows))
	for i, elems := range rows {
		row := make(Tag, len(elems))
		for j, el := range elems {
			switch el.kind {
			case elemID32:
				row[j] = encodeHex(el.id[:])
			case elemStr:
				row[j] = readInternedString(table, el.off)
			case elemInt:
				row[j] = formatDecimalU64(el.n)
			}
		}
		e.Tags[i] = row
	}
	return e, nil
}

func parseHexID(s string) ([32]byte, bool) {
	var id [32]byte
	if len(s) != 64 {
		return id, false
	}
	if err := decodeHexInto(id[:], s); err != nil {
		return id, false
	}
	return id, true
}

const maxUint64Div10 = ^uint64(0) / 10

func parseDecimalU64(s string) (uint64, bool) {
	if s == "" || len(s) > 20 {
		return 0, false
	}
	if s[0] == '0' && len(s) > 1 {
		return 0, false // no leading zero, keep as string
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if n > maxUint64Div10 || (n == maxUint64Div10 && d > ^uint64(0)%10) {
			return 0, false // would overflow, keep as string
		}
		n = n*10 + d
	}
	return n, true
}

func formatDecimalU64(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// stringInterner collects distinct strings once and assigns them byte
// offsets into a NUL-terminated table, so a repeated string (e.g. the
// same tag value appearing twice) costs one copy, not two.
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
