package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSON documents are handled as generic trees: map[string]any for objects,
// []any for arrays, json.Number for numbers and string/bool/nil for the
// rest. Nothing in a tree may be shared with another tree; use deepClone.

func decodeTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON document")
	}
	return v, nil
}

func deepClone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepClone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepClone(val)
		}
		return out
	default:
		return v
	}
}

// object walks path from root and returns the object found there.
func object(root any, path ...string) (map[string]any, bool) {
	cur, ok := root.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// removeStrings filters drop out of list, keeping the survivors in order.
func removeStrings(list []any, drop map[string]bool) []any {
	out := make([]any, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && drop[s] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// marshalCanonical encodes v with sorted object keys and no HTML escaping.
func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
