package graph

import (
	"encoding/json"
	"time"
)

// record is the stored envelope for node and relation values. Payload
// round-trips as base64 inside JSON; the timestamp marshals as RFC 3339.
type record struct {
	Payload []byte    `json:"payload"`
	TS      time.Time `json:"ts"`
}

func encodeRecord(op, key string, payload []byte, ts time.Time) ([]byte, error) {
	raw, err := json.Marshal(record{Payload: payload, TS: ts.UTC()})
	if err != nil {
		return nil, errCodecMismatch(op, key, err)
	}
	return raw, nil
}

func decodeRecord(op, key string, raw []byte) (record, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, errCodecMismatch(op, key, err)
	}
	return rec, nil
}
