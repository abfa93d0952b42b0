// Package edn reads and prints the bracketed notation used to author queries.
//
// The notation is a small EDN subset:
//
//	:person/name            keyword
//	launch!  ...  _         symbol
//	"Sam" 42 -1.5 true nil  scalars
//	[a b]  (a b)  {k v}     vector, list, map
//
// Commas are whitespace, ';' starts a line comment, and a leading quote
// ('form) is accepted and ignored. Every form records the position it was
// read from so callers can report errors against the source text.
package edn

import "fmt"

// Pos is a location in source text. Line and Column are 1-based.
// The zero Pos means the form was built in code rather than read.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether the position came from the reader.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Form is a sealed interface over every value the reader produces.
// Only types in this package implement it.
type Form interface {
	Position() Pos
	form()
}

// Nil is the nil literal.
type Nil struct{ At Pos }

// Bool is true or false.
type Bool struct {
	Value bool
	At    Pos
}

// Int is an integer literal. Always int64.
type Int struct {
	Value int64
	At    Pos
}

// Float is a floating point literal.
type Float struct {
	Value float64
	At    Pos
}

// String is a double-quoted string literal.
type String struct {
	Value string
	At    Pos
}

// Keyword is a colon-prefixed name. Name excludes the colon.
type Keyword struct {
	Name string
	At   Pos
}

// Symbol is a bare name such as launch!, ... or _.
type Symbol struct {
	Name string
	At   Pos
}

// Vector is a [bracketed] sequence.
type Vector struct {
	Items []Form
	At    Pos
}

// List is a (parenthesized) sequence.
type List struct {
	Items []Form
	At    Pos
}

// Map is a {braced} sequence of key/value pairs. Entry order is source order.
type Map struct {
	Entries []Entry
	At      Pos
}

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   Form
	Value Form
}

func (f Nil) Position() Pos     { return f.At }
func (f Bool) Position() Pos    { return f.At }
func (f Int) Position() Pos     { return f.At }
func (f Float) Position() Pos   { return f.At }
func (f String) Position() Pos  { return f.At }
func (f Keyword) Position() Pos { return f.At }
func (f Symbol) Position() Pos  { return f.At }
func (f Vector) Position() Pos  { return f.At }
func (f List) Position() Pos    { return f.At }
func (f Map) Position() Pos     { return f.At }

func (Nil) form()     {}
func (Bool) form()    {}
func (Int) form()     {}
func (Float) form()   {}
func (String) form()  {}
func (Keyword) form() {}
func (Symbol) form()  {}
func (Vector) form()  {}
func (List) form()    {}
func (Map) form()     {}

// K builds a keyword form.
func K(name string) Keyword { return Keyword{Name: name} }

// Sym builds a symbol form.
func Sym(name string) Symbol { return Symbol{Name: name} }

// Str builds a string form.
func Str(s string) String { return String{Value: s} }

// I builds an integer form.
func I(n int64) Int { return Int{Value: n} }

// Vec builds a vector form.
func Vec(items ...Form) Vector { return Vector{Items: items} }

// L builds a list form.
func L(items ...Form) List { return List{Items: items} }

// M builds a map form from alternating keys and values.
// Panics on an odd number of arguments; intended for literals in code and tests.
func M(kvs ...Form) Map {
	if len(kvs)%2 != 0 {
		panic("edn.M: odd number of key/value forms")
	}
	m := Map{Entries: make([]Entry, 0, len(kvs)/2)}
	for i := 0; i < len(kvs); i += 2 {
		m.Entries = append(m.Entries, Entry{Key: kvs[i], Value: kvs[i+1]})
	}
	return m
}

// MarshalText renders the keyword with its colon, so keywords inside plain
// data encode as strings such as ":desc".
func (f Keyword) MarshalText() ([]byte, error) { return []byte(":" + f.Name), nil }

// MarshalText renders the symbol name.
func (f Symbol) MarshalText() ([]byte, error) { return []byte(f.Name), nil }
