package query

import (
	"strings"

	"github.com/roach88/pullgraph/internal/graph"
)

// Query is an ordered sequence of nodes. Order decides the key order of the
// result; it never changes what is resolved.
type Query []Node

// Node is one query item.
//
// This is a sealed interface. The marker method keeps implementations inside
// this package.
type Node interface {
	// NodeKey is the result key the node contributes.
	NodeKey() Key
	queryNode()
}

// Params is an opaque payload attached to a node and forwarded to handlers.
type Params map[string]any

// Key names a result entry: an attribute name or an ident.
type Key struct {
	Attr  string
	Ident graph.Ident
}

// AttrKey returns the key for an attribute.
func AttrKey(name string) Key {
	return Key{Attr: name}
}

// IdentKey returns the key for an ident.
func IdentKey(id graph.Ident) Key {
	return Key{Ident: graph.NewIdent(id.Table, id.ID)}
}

// IsIdent reports whether the key addresses an entity rather than an attribute.
func (k Key) IsIdent() bool {
	return k.Attr == "" && k.Ident.Table != ""
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool {
	return k.Attr == "" && k.Ident.Table == ""
}

// String returns the attribute name, or the bracketed ident such as
// [:panelA 1]. Result maps are keyed by this string.
func (k Key) String() string {
	if k.IsIdent() {
		return k.Ident.String()
	}
	return k.Attr
}

// Prop reads one attribute of the current entity.
type Prop struct {
	Key Key
}

// ParamProp reads an attribute with params for the reader.
type ParamProp struct {
	Key    Key
	Params Params
}

// Join follows Key and applies Query to the entity, or to each entity of a
// collection, found there.
type Join struct {
	Key    Key
	Query  Query
	Params Params
}

// RecursiveJoin follows Key and re-applies the enclosing query to what it
// finds. Depth bounds the number of levels unless Unbounded is set, in which
// case recursion stops at entities already on the current path.
type RecursiveJoin struct {
	Key       Key
	Depth     int
	Unbounded bool
	Params    Params
}

// Branch is one arm of a union join.
type Branch struct {
	Tag   string
	Query Query
}

// UnionJoin follows Key and picks, per entity, the branch whose tag matches
// the entity's runtime tag.
type UnionJoin struct {
	Key      Key
	Branches []Branch
	Params   Params
}

// Branch returns the subquery registered under tag.
func (u UnionJoin) Branch(tag string) (Query, bool) {
	for _, b := range u.Branches {
		if b.Tag == tag {
			return b.Query, true
		}
	}
	return nil, false
}

// Ident reads a whole entity addressed by ident.
type Ident struct {
	Ident graph.Ident
}

// Mutation invokes a named mutation with params. Params may be nil.
type Mutation struct {
	Name   string
	Params Params
}

// IsMutationName reports whether name has the form of a mutation name: at
// least one character followed by a trailing "!", as in launch!.
func IsMutationName(name string) bool {
	return len(name) > 1 && strings.HasSuffix(name, "!")
}

func (n Prop) NodeKey() Key          { return n.Key }
func (n ParamProp) NodeKey() Key     { return n.Key }
func (n Join) NodeKey() Key          { return n.Key }
func (n RecursiveJoin) NodeKey() Key { return n.Key }
func (n UnionJoin) NodeKey() Key     { return n.Key }
func (n Ident) NodeKey() Key         { return IdentKey(n.Ident) }
func (n Mutation) NodeKey() Key      { return AttrKey(n.Name) }

func (Prop) queryNode()          {}
func (ParamProp) queryNode()     {}
func (Join) queryNode()          {}
func (RecursiveJoin) queryNode() {}
func (UnionJoin) queryNode()     {}
func (Ident) queryNode()         {}
func (Mutation) queryNode()      {}

// ParamsOf returns the params attached to n, or nil.
func ParamsOf(n Node) Params {
	switch n := n.(type) {
	case ParamProp:
		return n.Params
	case Join:
		return n.Params
	case RecursiveJoin:
		return n.Params
	case UnionJoin:
		return n.Params
	case Mutation:
		return n.Params
	}
	return nil
}

// Keys returns the result keys of q in order.
func (q Query) Keys() []string {
	keys := make([]string, 0, len(q))
	for _, n := range q {
		if n == nil {
			continue
		}
		keys = append(keys, n.NodeKey().String())
	}
	return keys
}
