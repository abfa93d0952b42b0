// Package query defines the pull query language: its AST, the parser from
// bracketed text or forms, the printer back to text, and a structural
// validator for ASTs built in code.
//
// SYNTAX:
//
// A query is a vector of items. Each item is one of:
//
//	:person/name                       Prop
//	(:items {:limit 10})               ParamProp
//	{:friends [:person/name]}          Join
//	{:friends ...}                     RecursiveJoin, unbounded
//	{:parent 3}                        RecursiveJoin, at most 3 levels
//	{:feed {:post [:title]             UnionJoin, branch chosen per item tag
//	        :photo [:url]}}
//	({:items [:id]} {:limit 10})       Join carrying params
//	[:users 1]                         Ident
//	(launch! {:id 7})                  Mutation, top level only
//
// Join keys may be idents as well as attributes:
//
//	{[:users 1] [:name]}               join directly to users/1
//	{[:current-user _] [:name]}        join to whatever root attribute current-user holds
//
// A leading quote is ignored, so {:friends '...} reads like {:friends ...}.
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method. Only the node types in this package
// implement it, so consumers can switch exhaustively:
//
//	switch n := node.(type) {
//	case Prop:
//	case ParamProp:
//	case Join:
//	case RecursiveJoin:
//	case UnionJoin:
//	case Ident:
//	case Mutation:
//	}
//
// Params are opaque to this package. The parser converts param maps to
// map[string]any via edn.ToValue and nothing here interprets them.
package query
