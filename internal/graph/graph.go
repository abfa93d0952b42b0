// Package graph holds the normalized entity store queries resolve against.
//
// A Graph is a set of named tables mapping ids to entities, plus a root
// entity holding top-level attributes. Entities refer to each other with
// idents ([table id] pairs) rather than by nesting, so following an ident
// redirects resolution instead of copying data.
//
// The graph is owned by the caller. Resolution only reads it; callers that
// mutate a graph between resolutions must not do so concurrently with one.
package graph

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/roach88/pullgraph/internal/edn"
)

// Entity is an attribute map. Values are scalars, idents, nested entities,
// or slices of those.
type Entity map[string]any

// Ident addresses one entity: Tables[Table][ID]. IDs are normalized with
// NormalizeID so that Ident values compare equal regardless of which integer
// type produced them.
type Ident struct {
	Table string
	ID    any
}

type linkID struct{}

func (linkID) String() string { return "_" }

// LinkID is the id of a link ident, written [:key _]. A link ident addresses
// Root[key] instead of a table row.
var LinkID any = linkID{}

// NewIdent builds an ident with a normalized id.
func NewIdent(table string, id any) Ident {
	return Ident{Table: table, ID: NormalizeID(id)}
}

// Link builds the link ident for a root attribute.
func Link(key string) Ident {
	return Ident{Table: key, ID: LinkID}
}

// IsLink reports whether the ident addresses a root attribute.
func (i Ident) IsLink() bool {
	return i.ID == LinkID
}

// Form returns the bracketed form of the ident, e.g. [:users 1].
func (i Ident) Form() edn.Vector {
	var id edn.Form
	if i.IsLink() {
		id = edn.Sym("_")
	} else if f, err := edn.FromValue(i.ID); err == nil {
		id = f
	} else {
		id = edn.Sym("?")
	}
	return edn.Vec(edn.K(i.Table), id)
}

func (i Ident) String() string {
	return edn.Print(i.Form())
}

// MarshalJSON encodes the ident as {"$ident": [table, id]}, the same shape
// the document loaders accept.
func (i Ident) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.CanonicalValue())
}

// CanonicalValue is the plain-data view used for canonical encoding.
func (i Ident) CanonicalValue() any {
	id := i.ID
	if i.IsLink() {
		id = "_"
	}
	return map[string]any{identKey: []any{i.Table, id}}
}

// NormalizeID maps every integer kind to int64 and integral floats to int64.
// Other values are returned unchanged.
func NormalizeID(id any) any {
	switch v := id.(type) {
	case nil, string, int64, linkID:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		return v.String()
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	}

	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
	}
	return id
}

// Graph is the normalized store: Root plus Tables[table][id].
type Graph struct {
	Root   Entity
	Tables map[string]map[any]Entity
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Root:   Entity{},
		Tables: make(map[string]map[any]Entity),
	}
}

// Add stores e under [table id], replacing any existing entity.
func (g *Graph) Add(table string, id any, e Entity) {
	if g.Tables == nil {
		g.Tables = make(map[string]map[any]Entity)
	}
	rows, ok := g.Tables[table]
	if !ok {
		rows = make(map[any]Entity)
		g.Tables[table] = rows
	}
	rows[NormalizeID(id)] = e
}

// Set stores a root attribute.
func (g *Graph) Set(key string, v any) {
	if g.Root == nil {
		g.Root = Entity{}
	}
	g.Root[key] = v
}

// Lookup returns the raw value an ident addresses. For a table ident that is
// the entity; for a link ident it is whatever Root holds under the key,
// which may itself be an ident or a slice.
func (g *Graph) Lookup(id Ident) (any, bool) {
	if id.IsLink() {
		v, ok := g.Root[id.Table]
		return v, ok && v != nil
	}
	rows, ok := g.Tables[id.Table]
	if !ok {
		return nil, false
	}
	e, ok := rows[NormalizeID(id.ID)]
	if !ok || e == nil {
		return nil, false
	}
	return e, true
}

// Entity returns the entity an ident addresses. Link idents are followed
// through Root, including a root value that is itself an ident.
func (g *Graph) Entity(id Ident) (Entity, bool) {
	v, ok := g.Lookup(id)
	if !ok {
		return nil, false
	}
	e, _, ok := g.Follow(v)
	return e, ok
}

// Follow turns a value found in a join position into an entity. Idents are
// looked up (the ident is returned alongside the entity); entities and plain
// maps are returned as-is. Anything else, or an ident with no target,
// reports false.
func (g *Graph) Follow(v any) (Entity, *Ident, bool) {
	switch v := v.(type) {
	case Entity:
		return v, nil, v != nil
	case map[string]any:
		return Entity(v), nil, v != nil
	case Ident:
		if v.IsLink() {
			raw, ok := g.Root[v.Table]
			if !ok {
				return nil, nil, false
			}
			if inner, isIdent := raw.(Ident); isIdent {
				// Link to a link never resolves.
				if inner.IsLink() {
					return nil, nil, false
				}
				return g.Follow(inner)
			}
			e, _, ok := g.Follow(raw)
			return e, &v, ok
		}
		e, ok := g.Lookup(v)
		if !ok {
			return nil, nil, false
		}
		id := NewIdent(v.Table, v.ID)
		return e.(Entity), &id, true
	case *Ident:
		if v == nil {
			return nil, nil, false
		}
		return g.Follow(*v)
	}
	return nil, nil, false
}
