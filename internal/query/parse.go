package query

import (
	"errors"
	"fmt"

	"github.com/roach88/pullgraph/internal/edn"
	"github.com/roach88/pullgraph/internal/graph"
)

// RecursionSymbol marks an unbounded recursive join.
const RecursionSymbol = "..."

// ParseError reports a malformed query with the position of the offending form.
// Pos is invalid for errors found in sources that carry no positions.
type ParseError struct {
	Pos    edn.Pos
	Reason string
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Reason)
	}
	return "parse error: " + e.Reason
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func errorf(f edn.Form, format string, args ...any) error {
	var pos edn.Pos
	if f != nil {
		pos = f.Position()
	}
	return &ParseError{Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

// Parse normalizes a query source to an AST. src may be:
//
//	Query       validated and returned as-is
//	edn.Form    a vector of query items
//	string      query text
//
// Parse is pure; on error nothing is returned.
func Parse(src any) (Query, error) {
	switch s := src.(type) {
	case Query:
		if err := Validate(s); err != nil {
			return nil, err
		}
		return s, nil
	case string:
		return ParseString(s)
	case edn.Form:
		return ParseForm(s)
	case nil:
		return nil, &ParseError{Reason: "nil query source"}
	}
	return nil, &ParseError{Reason: fmt.Sprintf("unsupported query source %T", src)}
}

// ParseString reads query text.
func ParseString(text string) (Query, error) {
	f, err := edn.ReadOne(text)
	if err != nil {
		var se *edn.SyntaxError
		if errors.As(err, &se) {
			return nil, &ParseError{Pos: se.Pos, Reason: se.Msg}
		}
		return nil, err
	}
	return ParseForm(f)
}

// ParseForm converts a form, which must be a vector, to a query.
func ParseForm(f edn.Form) (Query, error) {
	v, ok := f.(edn.Vector)
	if !ok {
		return nil, errorf(f, "query must be a vector, got %s", describe(f))
	}
	return parseQuery(v, true)
}

func parseQuery(v edn.Vector, top bool) (Query, error) {
	q := make(Query, 0, len(v.Items))
	for _, item := range v.Items {
		n, err := parseItem(item, top)
		if err != nil {
			return nil, err
		}
		q = append(q, n)
	}
	return q, nil
}

func parseItem(f edn.Form, top bool) (Node, error) {
	switch f := f.(type) {
	case edn.Keyword:
		return Prop{Key: AttrKey(f.Name)}, nil
	case edn.Vector:
		id, err := parseIdent(f)
		if err != nil {
			return nil, err
		}
		return Ident{Ident: id}, nil
	case edn.Map:
		return parseJoin(f, nil)
	case edn.List:
		return parseList(f, top)
	}
	return nil, errorf(f, "unknown query item %s", describe(f))
}

func parseIdent(v edn.Vector) (graph.Ident, error) {
	if len(v.Items) != 2 {
		return graph.Ident{}, errorf(v, "ident must be [table id], got %d items", len(v.Items))
	}
	table, ok := v.Items[0].(edn.Keyword)
	if !ok {
		return graph.Ident{}, errorf(v.Items[0], "ident table must be a keyword, got %s", describe(v.Items[0]))
	}
	switch id := v.Items[1].(type) {
	case edn.Int:
		return graph.NewIdent(table.Name, id.Value), nil
	case edn.String:
		return graph.NewIdent(table.Name, id.Value), nil
	case edn.Symbol:
		if id.Name == "_" {
			return graph.Link(table.Name), nil
		}
	}
	return graph.Ident{}, errorf(v.Items[1], "ident id must be an integer, a string or _, got %s", describe(v.Items[1]))
}

func parseKey(f edn.Form) (Key, error) {
	switch f := f.(type) {
	case edn.Keyword:
		return AttrKey(f.Name), nil
	case edn.Vector:
		id, err := parseIdent(f)
		if err != nil {
			return Key{}, err
		}
		return IdentKey(id), nil
	}
	return Key{}, errorf(f, "join key must be a keyword or an ident, got %s", describe(f))
}

func parseJoin(m edn.Map, params Params) (Node, error) {
	if len(m.Entries) != 1 {
		return nil, errorf(m, "join map must have exactly one key, got %d", len(m.Entries))
	}
	entry := m.Entries[0]
	key, err := parseKey(entry.Key)
	if err != nil {
		return nil, err
	}

	switch target := entry.Value.(type) {
	case edn.Vector:
		sub, err := parseQuery(target, false)
		if err != nil {
			return nil, err
		}
		return Join{Key: key, Query: sub, Params: params}, nil
	case edn.Map:
		branches, err := parseBranches(target)
		if err != nil {
			return nil, err
		}
		return UnionJoin{Key: key, Branches: branches, Params: params}, nil
	case edn.Symbol:
		if target.Name == RecursionSymbol {
			return RecursiveJoin{Key: key, Unbounded: true, Params: params}, nil
		}
	case edn.Int:
		if target.Value < 1 {
			return nil, errorf(target, "recursion depth must be at least 1, got %d", target.Value)
		}
		return RecursiveJoin{Key: key, Depth: int(target.Value), Params: params}, nil
	}
	return nil, errorf(entry.Value, "join target for %s must be a vector, a union map, ... or a positive depth, got %s",
		key, describe(entry.Value))
}

func parseBranches(m edn.Map) ([]Branch, error) {
	if len(m.Entries) == 0 {
		return nil, errorf(m, "union join needs at least one branch")
	}
	branches := make([]Branch, 0, len(m.Entries))
	seen := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		var tag string
		switch k := e.Key.(type) {
		case edn.Keyword:
			tag = k.Name
		case edn.Symbol:
			tag = k.Name
		case edn.String:
			tag = k.Value
		default:
			return nil, errorf(e.Key, "union tag must be a keyword, symbol or string, got %s", describe(e.Key))
		}
		if seen[tag] {
			return nil, errorf(e.Key, "duplicate union tag %q", tag)
		}
		seen[tag] = true

		v, ok := e.Value.(edn.Vector)
		if !ok {
			return nil, errorf(e.Value, "union branch %q must be a vector query, got %s", tag, describe(e.Value))
		}
		sub, err := parseQuery(v, false)
		if err != nil {
			return nil, err
		}
		branches = append(branches, Branch{Tag: tag, Query: sub})
	}
	return branches, nil
}

func parseList(l edn.List, top bool) (Node, error) {
	if len(l.Items) == 0 {
		return nil, errorf(l, "empty list in query")
	}

	if sym, ok := l.Items[0].(edn.Symbol); ok {
		if !top {
			return nil, errorf(l, "mutation %s is only allowed at the top level of a query", sym.Name)
		}
		if !IsMutationName(sym.Name) {
			return nil, errorf(sym, "%s is not a mutation name, mutation names end in !", sym.Name)
		}
		if len(l.Items) > 2 {
			return nil, errorf(l, "mutation takes at most one params map, got %d forms", len(l.Items)-1)
		}
		var params Params
		if len(l.Items) == 2 {
			p, err := parseParams(l.Items[1])
			if err != nil {
				return nil, err
			}
			params = p
		}
		return Mutation{Name: sym.Name, Params: params}, nil
	}

	if len(l.Items) != 2 {
		return nil, errorf(l, "parameterized expression must be (expr {params}), got %d forms", len(l.Items))
	}
	params, err := parseParams(l.Items[1])
	if err != nil {
		return nil, err
	}

	switch head := l.Items[0].(type) {
	case edn.Keyword:
		return ParamProp{Key: AttrKey(head.Name), Params: params}, nil
	case edn.Vector:
		id, err := parseIdent(head)
		if err != nil {
			return nil, err
		}
		return ParamProp{Key: IdentKey(id), Params: params}, nil
	case edn.Map:
		return parseJoin(head, params)
	}
	return nil, errorf(l.Items[0], "cannot parameterize %s", describe(l.Items[0]))
}

func parseParams(f edn.Form) (Params, error) {
	m, ok := f.(edn.Map)
	if !ok {
		return nil, errorf(f, "params must be a map, got %s", describe(f))
	}
	params := make(Params, len(m.Entries))
	for _, e := range m.Entries {
		switch e.Key.(type) {
		case edn.Keyword, edn.String, edn.Symbol:
		default:
			return nil, errorf(e.Key, "param keys must be keywords, strings or symbols, got %s", describe(e.Key))
		}
		params[edn.KeyName(e.Key)] = edn.ToValue(e.Value)
	}
	return params, nil
}

func describe(f edn.Form) string {
	switch f.(type) {
	case nil, edn.Nil:
		return "nil"
	case edn.Bool:
		return "boolean " + edn.Print(f)
	case edn.Int, edn.Float:
		return "number " + edn.Print(f)
	case edn.String:
		return "string " + edn.Print(f)
	case edn.Keyword:
		return "keyword " + edn.Print(f)
	case edn.Symbol:
		return "symbol " + edn.Print(f)
	case edn.Vector:
		return "vector"
	case edn.List:
		return "list"
	case edn.Map:
		return "map"
	}
	return fmt.Sprintf("%T", f)
}
