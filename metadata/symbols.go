package metadata

import (
	"encoding/binary"

	"github.com/nostrdb-go/notedb/store"
)

// symByHandlePrefix and handleBySymPrefix scope the handle<->string mapping inside the shared
// Meta sub-database: "rs:<handle>" -> symbol, "rn:<symbol>" -> handle.
var (
	symByHandlePrefix = []byte("rs:")
	handleBySymPrefix = []byte("rn:")
	nextHandleKey     = []byte("next_reaction_handle")
)

// InternSymbol returns the stable handle for a long (>4 byte) reaction
// symbol, assigning a new one on first use.
func InternSymbol(tx *store.Txn, symbol string) (uint32, error) {
	p := tx.Prefixes()
	lookupKey := store.Key(p.Meta, handleBySymPrefix, []byte(symbol))
	if v, err := tx.Get(lookupKey); err == nil {
		return decodeHandle(v), nil
	} else if err != store.ErrNotFound {
		return 0, err
	}

	counterKey := store.Key(p.Meta, nextHandleKey)
	cur := uint32(0)
	if v, err := tx.Get(counterKey); err == nil {
		cur = decodeHandle(v)
	} else if err != store.ErrNotFound {
		return 0, err
	}
	next := cur + 1
	if err := tx.Set(counterKey, encodeHandle(next)); err != nil {
		return 0, err
	}
	if err := tx.Set(lookupKey, encodeHandle(next)); err != nil {
		return 0, err
	}
	if err := tx.Set(store.Key(p.Meta, symByHandlePrefix, encodeHandle(next)), []byte(symbol)); err != nil {
		return 0, err
	}
	return next, nil
}

// ResolveSymbol reverses InternSymbol: handle -> symbol text.
func ResolveSymbol(tx *store.Txn, handle uint32) (string, error) {
	v, err := tx.Get(store.Key(tx.Prefixes().Meta, symByHandlePrefix, encodeHandle(handle)))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func encodeHandle(h uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, h)
	return b
}

func decodeHandle(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
