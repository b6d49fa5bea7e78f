package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Prune drops empty strings, nils, and containers left empty after pruning.
// The second return value is false when v itself is pruned away.
// v must be acyclic, which any tree produced by encoding/json is.
func Prune(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		if t == "" {
			return nil, false
		}
		return t, true
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if pruned, ok := Prune(item); ok {
				out = append(out, pruned)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, item := range t {
			if pruned, ok := Prune(item); ok {
				out[key] = pruned
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		return v, true
	}
}

// encodePayload serializes a category output. The tree is pruned first; a
// top-level value that prunes away is written as an empty list so that the
// file still exists in the export.
func encodePayload(v any) ([]byte, error) {
	pruned, ok := Prune(v)
	if !ok {
		return []byte("[]"), nil
	}
	b, err := json.MarshalIndent(pruned, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return b, nil
}

// encodeRecords decodes raw records into a generic tree, normalizes each
// object and encodes the list with encodePayload. Records that are not valid
// JSON are logged and skipped.
func encodeRecords(logger *slog.Logger, records []Record, normalize func(map[string]any)) ([]byte, error) {
	tree := make([]any, 0, len(records))
	for i, r := range records {
		v, err := decodeTree(r)
		if err != nil {
			logger.Warn("skipping malformed record", "index", i, "error", err.Error())
			continue
		}
		if m, ok := v.(map[string]any); ok && normalize != nil {
			normalize(m)
		}
		tree = append(tree, v)
	}
	return encodePayload(tree)
}

// decodeTree decodes JSON keeping numbers as json.Number so that large ids and
// permission bitsets survive a round trip.
func decodeTree(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
