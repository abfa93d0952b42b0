package query

import (
	"fmt"
	"sort"

	"github.com/roach88/pullgraph/internal/edn"
)

// String prints q as query text. ParseString(q.String()) yields q again for
// any query whose params hold plain data (see edn.FromValue).
func (q Query) String() string {
	return edn.Print(q.Form())
}

// Form returns q as a vector form.
func (q Query) Form() edn.Vector {
	items := make([]edn.Form, 0, len(q))
	for _, n := range q {
		items = append(items, NodeForm(n))
	}
	return edn.Vec(items...)
}

// NodeForm returns the form a single node is written as.
func NodeForm(n Node) edn.Form {
	switch n := n.(type) {
	case Prop:
		return keyForm(n.Key)
	case ParamProp:
		return edn.L(keyForm(n.Key), paramsForm(n.Params))
	case Join:
		return withParams(edn.M(keyForm(n.Key), n.Query.Form()), n.Params)
	case RecursiveJoin:
		var target edn.Form = edn.Sym(RecursionSymbol)
		if !n.Unbounded {
			target = edn.I(int64(n.Depth))
		}
		return withParams(edn.M(keyForm(n.Key), target), n.Params)
	case UnionJoin:
		branches := make([]edn.Form, 0, 2*len(n.Branches))
		for _, b := range n.Branches {
			branches = append(branches, edn.K(b.Tag), b.Query.Form())
		}
		return withParams(edn.M(keyForm(n.Key), edn.M(branches...)), n.Params)
	case Ident:
		return n.Ident.Form()
	case Mutation:
		if n.Params == nil {
			return edn.L(edn.Sym(n.Name))
		}
		return edn.L(edn.Sym(n.Name), paramsForm(n.Params))
	}
	return edn.Nil{}
}

func keyForm(k Key) edn.Form {
	if k.IsIdent() {
		return k.Ident.Form()
	}
	return edn.K(k.Attr)
}

func withParams(join edn.Map, params Params) edn.Form {
	if params == nil {
		return join
	}
	return edn.L(join, paramsForm(params))
}

// paramsForm prints params with sorted keys. Values with no literal
// representation are printed as strings.
func paramsForm(p Params) edn.Map {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := edn.Map{Entries: make([]edn.Entry, 0, len(keys))}
	for _, k := range keys {
		v, err := edn.FromValue(p[k])
		if err != nil {
			v = edn.Str(fmt.Sprint(p[k]))
		}
		m.Entries = append(m.Entries, edn.Entry{Key: edn.K(k), Value: v})
	}
	return m
}
