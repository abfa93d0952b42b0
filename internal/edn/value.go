package edn

import (
	"fmt"
	"reflect"
	"sort"
)

// ToValue converts a form to plain Go data:
//
//	nil, bool, int64, float64, string
//	Keyword / Symbol (position stripped)
//	[]any for vectors and lists
//	map[string]any for maps
//
// Map keys that are keywords or symbols contribute their name; other keys
// contribute their printed form.
func ToValue(f Form) any {
	switch f := f.(type) {
	case nil, Nil:
		return nil
	case Bool:
		return f.Value
	case Int:
		return f.Value
	case Float:
		return f.Value
	case String:
		return f.Value
	case Keyword:
		return Keyword{Name: f.Name}
	case Symbol:
		return Symbol{Name: f.Name}
	case Vector:
		return toSlice(f.Items)
	case List:
		return toSlice(f.Items)
	case Map:
		out := make(map[string]any, len(f.Entries))
		for _, e := range f.Entries {
			out[KeyName(e.Key)] = ToValue(e.Value)
		}
		return out
	}
	return nil
}

func toSlice(items []Form) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = ToValue(item)
	}
	return out
}

// KeyName returns the string a form contributes when used as a map key.
func KeyName(f Form) string {
	switch f := f.(type) {
	case Keyword:
		return f.Name
	case Symbol:
		return f.Name
	case String:
		return f.Value
	}
	return Print(f)
}

// FromValue is the inverse of ToValue. Map keys are emitted as keywords in
// sorted order so output is deterministic.
func FromValue(v any) (Form, error) {
	switch v := v.(type) {
	case nil:
		return Nil{}, nil
	case Form:
		return v, nil
	case bool:
		return Bool{Value: v}, nil
	case string:
		return String{Value: v}, nil
	case float32:
		return Float{Value: float64(v)}, nil
	case float64:
		return Float{Value: v}, nil
	case []any:
		items := make([]Form, len(v))
		for i, item := range v {
			f, err := FromValue(item)
			if err != nil {
				return nil, err
			}
			items[i] = f
		}
		return Vector{Items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := Map{Entries: make([]Entry, 0, len(keys))}
		for _, k := range keys {
			f, err := FromValue(v[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m.Entries = append(m.Entries, Entry{Key: Keyword{Name: k}, Value: f})
		}
		return m, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int{Value: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int{Value: int64(rv.Uint())}, nil
	}
	return nil, fmt.Errorf("edn: cannot represent %T", v)
}
