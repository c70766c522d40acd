package note

import (
	"github.com/tmthrgd/go-hex"
)

func encodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func decodeHexInto(dst []byte, s string) error {
	n, err := hex.Decode(dst, []byte(s))
	if err != nil {
		return err
	}
	if n != len(dst) {
		return ErrBadFieldType
	}
	return nil
}

// IDFromHex decodes a 64-character lowercase hex string into an ID, for
// callers outside this package (filter JSON decode, CLI argument parsing).
func IDFromHex(s string) (ID, error) {
	var id ID
	if err := decodeHexInto(id[:], s); err != nil {
		return id, err
	}
	return id, nil
}

// PubKeyFromHex decodes a 64-character lowercase hex string into a PubKey.
func PubKeyFromHex(s string) (PubKey, error) {
	var pk PubKey
	if err := decodeHexInto(pk[:], s); err != nil {
		return pk, err
	}
	return pk, nil
}
