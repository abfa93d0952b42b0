package resolve

import (
	"bytes"
	"encoding/json"

	"github.com/roach88/pullgraph/internal/canonical"
	"github.com/roach88/pullgraph/internal/graph"
)

// Result is one level of a result tree: an ordered map from result key to
// value. Values are scalars, *Result (to-one join), []*Result (to-many join),
// or values passed through from the graph or a handler.
//
// Key order follows the query. A Result is built by one resolution and
// owned by the caller afterwards.
type Result struct {
	keys   []string
	values map[string]any
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{values: make(map[string]any)}
}

// Set stores v under key. Setting an existing key replaces its value and
// keeps its position.
func (r *Result) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Result) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in query order.
func (r *Result) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Map returns the tree as plain data: *Result becomes map[string]any and
// []*Result becomes []any, recursively. Other values are shared, not copied.
func (r *Result) Map() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = plain(r.values[k])
	}
	return out
}

func plain(v any) any {
	switch v := v.(type) {
	case *Result:
		return v.Map()
	case []*Result:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item.Map()
		}
		return out
	}
	return v
}

// CanonicalValue implements canonical.Valuer.
func (r *Result) CanonicalValue() any {
	if r == nil {
		return nil
	}
	return r.Map()
}

// Fingerprint is a content hash of the tree. Two results with the same data
// have the same fingerprint regardless of key order.
func (r *Result) Fingerprint() (string, error) {
	return canonical.Fingerprint(canonical.DomainResult, r)
}

// MarshalJSON encodes the result with keys in query order.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalNoEscape(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the JSON encoding, or the error text if encoding fails.
func (r *Result) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// copyEntity returns a shallow copy of e as plain data.
func copyEntity(e graph.Entity) map[string]any {
	out := make(map[string]any, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
