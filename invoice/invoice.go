// Package invoice implements the lightning payment-request sub-codec:
// parse_invoice(str) -> Invoice | err.
//
// BOLT11 invoices are themselves a bech32 encoding (human-readable part
// "ln<currency><amount>", data part timestamp + tagged fields +
// signature), so this reuses the same github.com/btcsuite/btcutil/bech32
// primitive wired for NIP-19 identifiers in package bech32ids, rather than
// a dedicated BOLT11 library (none was present in the corpus — see
// DESIGN.md).
package invoice

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/bech32"
)

// Invoice is the parsed subset of a BOLT11 payment request that the block
// parser needs to render an Invoice block.
type Invoice struct {
	Network     string // "bc", "tb", "bcrt", ...
	AmountMsat  uint64 // 0 if the invoice carries no amount
	Timestamp   time.Time
	Expiry      time.Duration // default 3600s per BOLT11 if absent
	Description string
	PaymentHash [32]byte
	Payee       *[33]byte // compressed pubkey, if the 'n' field is present
}

var (
	ErrMalformed    = errors.New("invoice: malformed payment request")
	ErrUnknownUnit  = errors.New("invoice: unknown amount multiplier")
	ErrNotAnInvoice = errors.New("invoice: missing ln prefix")
)

var multiplierMsat = map[byte]uint64{
	'm': 100_000_000,
	'u': 100_000,
	'n': 100,
	'p': 0, // handled specially: tenths of a millisatoshi, truncated
}

// Parse decodes a bolt11 string (with or without the "lightning:" URI
// scheme prefix) into an Invoice.
func Parse(s string) (*Invoice, error) {
	s = strings.TrimPrefix(s, "lightning:")
	s = strings.ToLower(s)
	if !strings.HasPrefix(s, "ln") {
		return nil, ErrNotAnInvoice
	}

	hrp, data5, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, ErrMalformed
	}
	if !strings.HasPrefix(hrp, "ln") {
		return nil, ErrNotAnInvoice
	}

	network, amountMsat, err := parseHRP(hrp)
	if err != nil {
		return nil, err
	}

	if len(data5) < 7+104 {
		return nil, ErrMalformed
	}
	tsBits := data5[:7]
	ts := uint64(0)
	for _, b := range tsBits {
		ts = ts<<5 | uint64(b)
	}

	inv := &Invoice{
		Network:    network,
		AmountMsat: amountMsat,
		Timestamp:  time.Unix(int64(ts), 0),
		Expiry:     time.Hour,
	}

	tagged := data5[7 : len(data5)-104]
	if err := parseTaggedFields(tagged, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func parseHRP(hrp string) (network string, amountMsat uint64, err error) {
	rest := hrp[2:] // strip "ln"
	i := 0
	for i < len(rest) && !(rest[i] >= '0' && rest[i] <= '9') {
		i++
	}
	network = rest[:i]
	amountPart := rest[i:]
	if amountPart == "" {
		return network, 0, nil
	}
	j := 0
	for j < len(amountPart) && amountPart[j] >= '0' && amountPart[j] <= '9' {
		j++
	}
	digits := amountPart[:j]
	n, convErr := strconv.ParseUint(digits, 10, 64)
	if convErr != nil {
		return "", 0, ErrMalformed
	}
	if j == len(amountPart) {
		// bare bitcoin amount, no multiplier: treat as whole BTC * 1e11 msat
		return network, n * 100_000_000_000, nil
	}
	mult := amountPart[j]
	if mult == 'p' {
		return network, n / 10, nil // tenths of a millisatoshi, truncated to msat
	}
	factor, ok := multiplierMsat[mult]
	if !ok {
		return "", 0, ErrUnknownUnit
	}
	return network, n * factor, nil
}

// parseTaggedFields walks the 5-bit tagged-field stream: type(5 bits) +
// data_length(10 bits) + data_length*5 bits of payload.
func parseTaggedFields(data5 []byte, inv *Invoice) error {
	i := 0
	for i+3 <= len(data5) {
		typ := data5[i]
		length := int(data5[i+1])<<5 | int(data5[i+2])
		i += 3
		if i+length > len(data5) {
			return ErrMalformed
		}
		field := data5[i : i+length]
		i += length

		bytesField, convErr := bech32.ConvertBits(field, 5, 8, false)
		switch typ {
		case 1: // 'p' payment_hash, 52*5=260 bits = 32 bytes
			if convErr == nil && len(bytesField) >= 32 {
				copy(inv.PaymentHash[:], bytesField[:32])
			}
		case 13: // 'd' short description
			if convErr == nil {
				inv.Description = string(bytesField)
			}
		case 6: // 'x' expiry, plain integer in the 5-bit field
			var v uint64
			for _, b := range field {
				v = v<<5 | uint64(b)
			}
			inv.Expiry = time.Duration(v) * time.Second
		case 19: // 'n' payee pubkey, 33 bytes
			if convErr == nil && len(bytesField) >= 33 {
				var pk [33]byte
				copy(pk[:], bytesField[:33])
				inv.Payee = &pk
			}
		}
	}
	return nil
}
