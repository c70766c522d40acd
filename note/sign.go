package note

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// VerifySig checks the BIP-340 schnorr signature e.Sig over e.ID against
// e.PubKey.
func VerifySig(e *E) bool {
	pk, err := schnorr.ParsePubKey(e.PubKey[:])
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(e.Sig[:])
	if err != nil {
		return false
	}
	return sig.Verify(e.ID[:], pk)
}

// Sign produces a BIP-340 schnorr signature over e.ID with secKey and
// stores the result in e.Sig. The caller is responsible for having
// already set e.ID (typically via Builder.Build, which calls ComputeID
// first).
func Sign(e *E, secKey *btcec.PrivateKey) error {
	sig, err := schnorr.Sign(secKey, e.ID[:])
	if err != nil {
		return err
	}
	copy(e.Sig[:], sig.Serialize())
	var xonly [32]byte
	pk := secKey.PubKey().SerializeCompressed()
	// SerializeCompressed is 33 bytes (prefix + 32-byte x coordinate); the
	// protocol's pubkeys are x-only, so drop the prefix byte.
	copy(xonly[:], pk[1:])
	e.PubKey = xonly
	return nil
}
