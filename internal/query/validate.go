package query

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/pullgraph/internal/graph"
)

// InvalidNodeError describes one structural defect in a hand-built query.
// Path locates the node, e.g. "[1].friends[0]".
type InvalidNodeError struct {
	Path   string
	Reason string
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks the structure of q and reports every defect found. The
// result is nil or a *multierror.Error of *InvalidNodeError.
//
// Queries produced by the parser always validate. Validate exists for ASTs
// built in code, which can express things the text syntax cannot: empty
// keys, non-positive depths, mutations below the top level.
//
// Params are not inspected.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q, "", true)
	return v.errs.ErrorOrNil()
}

// validator accumulates defects during traversal.
type validator struct {
	errs *multierror.Error
}

func (v *validator) addError(path, format string, args ...any) {
	v.errs = multierror.Append(v.errs, &InvalidNodeError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) validateQuery(q Query, path string, top bool) {
	for i, n := range q {
		v.validateNode(n, fmt.Sprintf("%s[%d]", path, i), top)
	}
}

func (v *validator) validateNode(n Node, path string, top bool) {
	switch n := n.(type) {
	case nil:
		v.addError(path, "nil node")
	case Prop:
		v.validateKey(n.Key, path)
	case ParamProp:
		v.validateKey(n.Key, path)
	case Join:
		v.validateKey(n.Key, path)
		v.validateQuery(n.Query, path+"."+n.Key.String(), false)
	case RecursiveJoin:
		v.validateKey(n.Key, path)
		switch {
		case n.Unbounded && n.Depth != 0:
			v.addError(path, "recursive join %s is unbounded but has depth %d", n.Key, n.Depth)
		case !n.Unbounded && n.Depth < 1:
			v.addError(path, "recursive join %s needs depth >= 1 or Unbounded", n.Key)
		}
	case UnionJoin:
		v.validateKey(n.Key, path)
		if len(n.Branches) == 0 {
			v.addError(path, "union join %s has no branches", n.Key)
		}
		seen := make(map[string]bool, len(n.Branches))
		for _, b := range n.Branches {
			if b.Tag == "" {
				v.addError(path, "union join %s has a branch with an empty tag", n.Key)
			} else if seen[b.Tag] {
				v.addError(path, "union join %s has duplicate tag %q", n.Key, b.Tag)
			}
			seen[b.Tag] = true
			v.validateQuery(b.Query, path+"."+n.Key.String()+"<"+b.Tag+">", false)
		}
	case Ident:
		v.validateIdent(n.Ident, path)
	case Mutation:
		if n.Name == "" {
			v.addError(path, "mutation has no name")
		} else if !IsMutationName(n.Name) {
			v.addError(path, "mutation name %s does not end in !", n.Name)
		}
		if !top {
			v.addError(path, "mutation %s is only allowed at the top level of a query", n.Name)
		}
	default:
		v.addError(path, "unknown node type %T", n)
	}
}

func (v *validator) validateKey(k Key, path string) {
	switch {
	case k.IsZero():
		v.addError(path, "empty key")
	case k.Attr != "" && k.Ident.Table != "":
		v.addError(path, "key has both attribute %q and ident %s", k.Attr, k.Ident)
	case k.IsIdent():
		v.validateIdent(k.Ident, path)
	}
}

func (v *validator) validateIdent(id graph.Ident, path string) {
	if id.Table == "" {
		v.addError(path, "ident has no table")
	}
	if id.ID == nil {
		v.addError(path, "ident %s has no id", id)
		return
	}
	if !reflect.TypeOf(id.ID).Comparable() {
		v.addError(path, "ident id of type %T cannot be used as a key", id.ID)
	}
}
