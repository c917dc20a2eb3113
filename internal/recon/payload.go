package recon

import (
	"bytes"
	"encoding/json"
)

// envelopeKeys are the object keys upstreams nest their row arrays under.
var envelopeKeys = []string{"data", "rows", "body"}

// maxEnvelopeDepth bounds how many nested envelopes are unwrapped.
const maxEnvelopeDepth = 3

// DecodePayload decodes a JSON payload into raw records. Numbers are kept
// as json.Number. Invalid JSON yields an empty set.
func DecodePayload(data []byte) []RawRecord {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return Records(v)
}

// Records normalizes the three accepted payload shapes into a slice: a
// top-level array, an object holding the array under data/rows/body, or a
// single object. Unrecognized shapes and non-object array elements are
// ignored.
func Records(v any) []RawRecord {
	return records(v, 0)
}

func records(v any, depth int) []RawRecord {
	switch t := v.(type) {
	case []RawRecord:
		return t
	case []map[string]any:
		out := make([]RawRecord, 0, len(t))
		for _, m := range t {
			out = append(out, RawRecord(m))
		}
		return out
	case []any:
		out := make([]RawRecord, 0, len(t))
		for _, elem := range t {
			switch m := elem.(type) {
			case map[string]any:
				out = append(out, RawRecord(m))
			case RawRecord:
				out = append(out, m)
			}
		}
		return out
	case RawRecord:
		return records(map[string]any(t), depth)
	case map[string]any:
		if depth < maxEnvelopeDepth {
			for _, k := range envelopeKeys {
				switch nested := t[k].(type) {
				case []any, map[string]any:
					return records(nested, depth+1)
				}
			}
		}
		return []RawRecord{RawRecord(t)}
	}
	return nil
}
