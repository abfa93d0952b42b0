// Package canonical encodes result trees as RFC 8785 canonical JSON and
// derives content fingerprints from that encoding.
//
// Two values that are equal as JSON data always encode to the same bytes,
// regardless of map iteration order, integer type, or Unicode normalization
// form of their strings. That makes the encoding suitable for golden files
// and for comparing results across resolutions.
package canonical

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Valuer is implemented by types that encode as some other plain value,
// such as an ordered result map or an ident.
type Valuer interface {
	CanonicalValue() any
}

// Marshal produces RFC 8785 canonical JSON.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings and keys are NFC normalized
//  4. Numbers use the ECMAScript shortest form; NaN and Inf are rejected
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case Valuer:
		return encode(buf, val.CanonicalValue())
	case encoding.TextMarshaler:
		text, err := val.MarshalText()
		if err != nil {
			return err
		}
		return encodeString(buf, string(text))
	case string:
		return encodeString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
		return nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			buf.WriteString(strconv.FormatInt(n, 10))
			return nil
		}
		f, err := val.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", val, err)
		}
		return encodeFloat(buf, f)
	case float64:
		return encodeFloat(buf, val)
	case float32:
		return encodeFloat(buf, float64(val))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return nil
	case reflect.String:
		return encodeString(buf, rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			buf.WriteString("[]")
			return nil
		}
		return encodeArray(buf, rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		return encodeObject(buf, rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encode(buf, rv.Elem().Interface())
	}
	return fmt.Errorf("unsupported type for canonical JSON: %T", v)
}

// encodeString writes a JSON string with NFC normalization.
// RFC 8785 compliance:
//   - No HTML escaping (<, >, & are NOT escaped)
//   - U+2028 and U+2029 are NOT escaped
//   - Only control characters (U+0000-U+001F), backslash, and quote are escaped
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes back into
// literal characters. json.Encoder escapes them for JavaScript embedding,
// which canonical JSON does not allow. A sequence preceded by an odd number
// of backslashes is an escaped backslash followed by text and is kept.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\\' && backslashes%2 == 0 && i+6 <= len(data) &&
			string(data[i+1:i+5]) == "u202" && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, c)
	}
	return out
}

// encodeFloat follows the ECMAScript Number.prototype.toString form, the
// same rule encoding/json uses.
func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v is forbidden in canonical JSON", f)
	}
	if f == 0 {
		buf.WriteString("0")
		return nil
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	buf.Write(b)
	return nil
}

func encodeArray(buf *bytes.Buffer, rv reflect.Value) error {
	buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, rv reflect.Value) error {
	// Keys are normalized before sorting so that two spellings of the same
	// key cannot order differently.
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	seen := make(map[string]bool, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := norm.NFC.String(iter.Key().String())
		if seen[k] {
			return fmt.Errorf("duplicate key %q after NFC normalization", k)
		}
		seen[k] = true
		entries = append(entries, entry{key: k, val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int { return compareUTF16(a.key, b.key) })

	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, e.key); err != nil {
			return fmt.Errorf("key %q: %w", e.key, err)
		}
		buf.WriteByte(':')
		if err := encode(buf, e.val.Interface()); err != nil {
			return fmt.Errorf("value for key %q: %w", e.key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// compareUTF16 orders strings by UTF-16 code units as RFC 8785 requires.
// Go's native string comparison uses UTF-8 bytes, which differs for
// characters outside the Basic Multilingual Plane.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
