package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Document keys and the ident encodings the loaders accept.
//
//	root:   {current-user: !ident [users, 1]}
//	tables: {users: {1: {name: Sam, friends: [{$ident: [users, 2]}]}}}
const (
	keyRoot   = "root"
	keyTables = "tables"
	identKey  = "$ident"
	identTag  = "!ident"
)

// LoadError reports a malformed graph document.
type LoadError struct {
	Source string
	Path   string
	Msg    string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads a graph document, choosing the decoder by file extension:
// .yaml/.yml, .json or .cue.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Msg: "read failed", Err: err}
	}

	var g *Graph
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		g, err = FromYAML(data)
	case ".json":
		g, err = FromJSON(data)
	case ".cue":
		g, err = FromCUE(data, path)
	default:
		return nil, &LoadError{Source: path, Msg: fmt.Sprintf("unsupported graph format %q", filepath.Ext(path))}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Source == "" {
			le.Source = path
		}
		return nil, err
	}
	return g, nil
}

// FromYAML decodes a YAML graph document. Idents may be written with the
// !ident tag or as {$ident: [table, id]} maps.
func FromYAML(data []byte) (*Graph, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Msg: "invalid YAML", Err: err}
	}
	return FromYAMLNode(&doc)
}

// FromYAMLNode decodes an already parsed YAML node. Used by the scenario
// harness, where the graph is embedded in a larger document.
func FromYAMLNode(n *yaml.Node) (*Graph, error) {
	if n.Kind == 0 {
		return New(), nil
	}
	v, err := yamlValue(n, "")
	if err != nil {
		return nil, err
	}
	if v == nil {
		return New(), nil
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, &LoadError{Msg: "graph document must be a mapping"}
	}
	return FromValue(doc)
}

func yamlValue(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0], path)
	case yaml.AliasNode:
		return yamlValue(n.Alias, path)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := yamlValue(c, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if n.Tag == identTag {
			return identFrom(items, path)
		}
		return items, nil
	case yaml.MappingNode:
		if n.Tag == identTag {
			return nil, &LoadError{Path: path, Msg: "!ident must tag a [table, id] sequence"}
		}
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			v, err := yamlValue(n.Content[i+1], joinPath(path, k))
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil
	case yaml.ScalarNode:
		if n.Tag == identTag {
			return nil, &LoadError{Path: path, Msg: "!ident must tag a [table, id] sequence"}
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &LoadError{Path: path, Msg: "invalid scalar", Err: err}
		}
		return v, nil
	}
	return nil, &LoadError{Path: path, Msg: fmt.Sprintf("unsupported YAML node kind %d", n.Kind)}
}

// FromJSON decodes a JSON graph document. Integers stay exact.
func FromJSON(data []byte) (*Graph, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Msg: "invalid JSON", Err: err}
	}
	return FromValue(doc)
}

// FromCUE evaluates a CUE graph document. The value must be concrete; it is
// exported to JSON and decoded like a JSON document, so idents use the
// {"$ident": [table, id]} form.
func FromCUE(data []byte, filename string) (*Graph, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Msg: "CUE compile failed", Err: err}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Msg: "CUE value is not concrete", Err: err}
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, &LoadError{Msg: "CUE export failed", Err: err}
	}
	return FromJSON(out)
}

// FromValue builds a graph from a decoded document with optional "root" and
// "tables" keys. Table row keys that look like integers become int64 ids.
func FromValue(doc map[string]any) (*Graph, error) {
	g := New()

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k != keyRoot && k != keyTables {
			return nil, &LoadError{Path: k, Msg: "unknown top-level key (want root or tables)"}
		}
	}

	if raw, ok := doc[keyRoot]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, &LoadError{Path: keyRoot, Msg: "must be a mapping"}
		}
		root, err := convertEntity(m, keyRoot)
		if err != nil {
			return nil, err
		}
		g.Root = root
	}

	if raw, ok := doc[keyTables]; ok && raw != nil {
		tables, ok := raw.(map[string]any)
		if !ok {
			return nil, &LoadError{Path: keyTables, Msg: "must be a mapping"}
		}
		for table, rowsRaw := range tables {
			tablePath := joinPath(keyTables, table)
			rows, ok := rowsRaw.(map[string]any)
			if !ok {
				return nil, &LoadError{Path: tablePath, Msg: "must be a mapping of id to entity"}
			}
			g.Tables[table] = make(map[any]Entity, len(rows))
			for id, rowRaw := range rows {
				rowPath := joinPath(tablePath, id)
				row, ok := rowRaw.(map[string]any)
				if !ok {
					return nil, &LoadError{Path: rowPath, Msg: "entity must be a mapping"}
				}
				e, err := convertEntity(row, rowPath)
				if err != nil {
					return nil, err
				}
				g.Add(table, rowKey(id), e)
			}
		}
	}
	return g, nil
}

func convertEntity(m map[string]any, path string) (Entity, error) {
	e := make(Entity, len(m))
	for k, raw := range m {
		v, err := convertValue(raw, joinPath(path, k))
		if err != nil {
			return nil, err
		}
		e[k] = v
	}
	return e, nil
}

func convertValue(raw any, path string) (any, error) {
	switch v := raw.(type) {
	case map[string]any:
		if ref, ok := v[identKey]; ok {
			if len(v) != 1 {
				return nil, &LoadError{Path: path, Msg: identKey + " map must have no other keys"}
			}
			items, ok := ref.([]any)
			if !ok {
				return nil, &LoadError{Path: path, Msg: identKey + " must be a [table, id] list"}
			}
			return identFrom(items, path)
		}
		return convertEntity(v, path)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			c, err := convertValue(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, &LoadError{Path: path, Msg: "invalid number", Err: err}
		}
		return f, nil
	case int:
		return int64(v), nil
	}
	return raw, nil
}

func identFrom(items []any, path string) (Ident, error) {
	if len(items) != 2 {
		return Ident{}, &LoadError{Path: path, Msg: fmt.Sprintf("ident needs [table, id], got %d items", len(items))}
	}
	table, ok := items[0].(string)
	if !ok || table == "" {
		return Ident{}, &LoadError{Path: path, Msg: "ident table must be a non-empty string"}
	}
	switch id := items[1].(type) {
	case string:
		if id == "_" {
			return Link(table), nil
		}
		return NewIdent(table, id), nil
	case int, int64, json.Number, float64:
		return NewIdent(table, id), nil
	}
	return Ident{}, &LoadError{Path: path, Msg: fmt.Sprintf("ident id must be a string or integer, got %T", items[1])}
}

// rowKey converts a document row key to an id.
func rowKey(k string) any {
	if n, err := strconv.ParseInt(k, 10, 64); err == nil {
		return n
	}
	return k
}

func joinPath(base, k string) string {
	if base == "" {
		return k
	}
	return base + "." + k
}
