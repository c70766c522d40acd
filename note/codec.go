package note

import (
	"encoding/json"
	"fmt"
)

// wireForm mirrors the protocol's canonical wire JSON:
//
//	{ "id": hex32, "pubkey": hex32, "created_at": u64, "kind": u32,
//	  "tags": [[str, ...], ...], "content": str, "sig": hex64 }
type wireForm struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      uint32     `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Decode parses the protocol's wire JSON form into an E. It does not verify
// the id or signature; call VerifyID/VerifySig explicitly (the ingestion
// pipeline does this as a distinct state-machine step).
func Decode(b []byte) (*E, error) {
	if len(b) > MaxNoteSize {
		return nil, ErrTooLarge
	}
	var w wireForm
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	e := &E{
		CreatedAt: w.CreatedAt,
		Kind:      w.Kind,
		Content:   w.Content,
	}
	if err := decodeHexInto(e.ID[:], w.ID); err != nil {
		return nil, fmt.Errorf("%w: bad id", ErrBadFieldType)
	}
	if err := decodeHexInto(e.PubKey[:], w.PubKey); err != nil {
		return nil, fmt.Errorf("%w: bad pubkey", ErrBadFieldType)
	}
	if err := decodeHexInto(e.Sig[:], w.Sig); err != nil {
		return nil, fmt.Errorf("%w: bad sig", ErrBadFieldType)
	}
	e.Tags = make([]Tag, len(w.Tags))
	for i, t := range w.Tags {
		e.Tags[i] = Tag(t)
	}
	return e, nil
}

// Encode serializes e back into the protocol's wire JSON form.
func Encode(e *E) ([]byte, error) {
	w := wireForm{
		ID:        e.ID.Hex(),
		PubKey:    e.PubKey.Hex(),
		CreatedAt: e.CreatedAt,
		Kind:      e.Kind,
		Content:   e.Content,
		Sig:       e.Sig.Hex(),
	}
	w.Tags = make([][]string, len(e.Tags))
	for i, t := range e.Tags {
		w.Tags[i] = []string(t)
	}
	return json.Marshal(w)
}
