package resolve

import (
	"context"
	"fmt"

	"github.com/roach88/pullgraph/internal/graph"
	"github.com/roach88/pullgraph/internal/query"
)

// ReadStatus tells the resolver what a Reader did with a node.
type ReadStatus int

const (
	// Declined means the reader does not handle the node; the resolver falls
	// back to the graph lookup. The zero value.
	Declined ReadStatus = iota

	// Found means the returned value is the node's value.
	Found

	// Omitted means the node has no value and its key is left out.
	Omitted
)

func (s ReadStatus) String() string {
	switch s {
	case Declined:
		return "declined"
	case Found:
		return "found"
	case Omitted:
		return "omitted"
	}
	return fmt.Sprintf("ReadStatus(%d)", int(s))
}

// Env is the context a Reader sees for one node.
type Env struct {
	Ctx   context.Context
	Graph *graph.Graph

	// Entity is the current context entity the node is read from.
	Entity graph.Entity

	// Ident is the ident Entity was reached through, or nil for the root
	// and for entities nested inline.
	Ident *graph.Ident

	// Path is the result path of the parent, outermost key first.
	Path []string

	// RequestID identifies the resolution in logs.
	RequestID string
}

// Reader overrides value lookup for nodes. It is consulted for every node
// except mutations, before the built-in graph lookup.
//
// The reader supplies the raw value only. For joins the resolver still shapes
// the value: an entity or ident becomes a nested result, a sequence becomes a
// list of results. A reader that returns Found for a Prop may return any
// value; it is placed in the result as-is.
//
// Params of the node are available through query.ParamsOf(node); the
// resolver never interprets them.
type Reader interface {
	Read(env *Env, node query.Node) (any, ReadStatus, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(env *Env, node query.Node) (any, ReadStatus, error)

// Read implements Reader.
func (f ReaderFunc) Read(env *Env, node query.Node) (any, ReadStatus, error) {
	return f(env, node)
}

// GraphReader is the built-in lookup: attribute keys read Env.Entity, ident
// keys read the graph. Absent and nil values are Omitted.
type GraphReader struct{}

// Read implements Reader.
func (GraphReader) Read(env *Env, node query.Node) (any, ReadStatus, error) {
	key := node.NodeKey()
	if key.IsIdent() {
		if key.Ident.IsLink() {
			v, ok := env.Graph.Lookup(key.Ident)
			if !ok {
				return nil, Omitted, nil
			}
			return v, Found, nil
		}
		// Return the ident itself so the entity keeps its identity for
		// union tags and cycle tracking.
		if _, ok := env.Graph.Lookup(key.Ident); !ok {
			return nil, Omitted, nil
		}
		return key.Ident, Found, nil
	}

	v, ok := env.Entity[key.Attr]
	if !ok || v == nil {
		return nil, Omitted, nil
	}
	return v, Found, nil
}

// Mutator performs named mutations. Mutations run sequentially in query
// order; the returned value is placed in the result under the mutation name
// without interpretation.
type Mutator interface {
	Mutate(ctx context.Context, name string, params query.Params) (any, error)
}

// MutatorFunc adapts a function to Mutator.
type MutatorFunc func(ctx context.Context, name string, params query.Params) (any, error)

// Mutate implements Mutator.
func (f MutatorFunc) Mutate(ctx context.Context, name string, params query.Params) (any, error) {
	return f(ctx, name, params)
}

// Tagger returns the union tag of an entity. ident is nil when the entity was
// not reached through an ident. ok=false means the entity has no tag, which
// resolves like a tag with no branch.
type Tagger func(entity graph.Entity, ident *graph.Ident) (tag string, ok bool)

// TableTagger tags an entity with the table of its ident. This is the default.
func TableTagger(_ graph.Entity, ident *graph.Ident) (string, bool) {
	if ident == nil || ident.IsLink() {
		return "", false
	}
	return ident.Table, true
}

// AttrTagger tags an entity with the value of one of its attributes, for
// graphs where heterogeneous entities share a table. The attribute must hold
// a non-empty string or a fmt.Stringer.
func AttrTagger(attr string) Tagger {
	return func(entity graph.Entity, _ *graph.Ident) (string, bool) {
		switch v := entity[attr].(type) {
		case string:
			return v, v != ""
		case fmt.Stringer:
			return v.String(), true
		}
		return "", false
	}
}
