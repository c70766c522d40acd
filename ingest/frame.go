package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RejectReason is the set of asynchronous failure reasons the pipeline
// surfaces by metric/callback rather than by return value: a synchronous
// ProcessEvent only ever sees ErrQueueFull or a malformed outer envelope;
// everything else happens inside a worker.
type RejectReason string

const (
	ReasonMalformedJSON  RejectReason = "malformed_json"
	ReasonIDMismatch     RejectReason = "id_mismatch"
	ReasonSigInvalid     RejectReason = "sig_invalid"
	ReasonDuplicateID    RejectReason = "duplicate_id"
	ReasonPolicyFiltered RejectReason = "policy_filtered"
	ReasonQueueFull      RejectReason = "queue_full"
)

// ErrQueueFull is returned by ProcessEvent when the bounded queue is full
// and Config.BlockOnFull is false.
var ErrQueueFull = errors.New("ingest: queue full")

// frame is one envelope-unwrapped note handed to the queue: the inner
// Note's raw JSON bytes plus ingest metadata (relay name, client-vs-relay
// origin).
type frame struct {
	raw        []byte
	relay      string
	fromClient bool
}

// parseEnvelope unwraps the two accepted envelope shapes: relay-style
// ["EVENT", subscription_id, Note] and client-style ["EVENT", Note]. It
// returns the inner Note's raw JSON bytes.
func parseEnvelope(raw []byte) ([]byte, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("ingest: %w: %v", errMalformedEnvelope, err)
	}
	if len(outer) < 2 {
		return nil, fmt.Errorf("ingest: %w: envelope too short", errMalformedEnvelope)
	}
	var label string
	if err := json.Unmarshal(outer[0], &label); err != nil || label != "EVENT" {
		return nil, fmt.Errorf("ingest: %w: missing EVENT label", errMalformedEnvelope)
	}
	switch len(outer) {
	case 2:
		return outer[1], nil // client-style: ["EVENT", Note]
	default:
		return outer[len(outer)-1], nil // relay-style: ["EVENT", sub_id, Note]
	}
}

var errMalformedEnvelope = errors.New("malformed envelope")
