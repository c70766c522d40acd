package query

import "github.com/nostrdb-go/notedb/note"

// EncodeJSON renders results as a JSON array of wire-form notes, in the
// order given, failing with ErrBufferOverflow the moment the encoded
// output would exceed maxBytes rather than building an unbounded buffer.
func EncodeJSON(results []Result, maxBytes int) ([]byte, error) {
	out := make([]byte, 0, minInt(maxBytes, 4096))
	out = append(out, '[')
	for i, r := range results {
		if i > 0 {
			out = append(out, ',')
		}
		b, err := note.Encode(r.Note)
		if err != nil {
			return nil, err
		}
		if len(out)+len(b)+1 > maxBytes {
			return nil, ErrBufferOverflow
		}
		out = append(out, b...)
	}
	out = append(out, ']')
	if len(out) > maxBytes {
		return nil, ErrBufferOverflow
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
