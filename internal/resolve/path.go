package resolve

import "github.com/roach88/pullgraph/internal/graph"

// pathSet tracks the idents of entities on the current resolution path,
// from the root down to the entity being resolved. An unbounded recursive
// join that reaches an entity already in the set has found a cycle.
//
// Only ancestors are tracked, not every entity seen so far: two siblings
// that share a child both resolve it in full.
type pathSet struct {
	on map[graph.Ident]int
}

func newPathSet() *pathSet {
	return &pathSet{on: make(map[graph.Ident]int)}
}

// contains reports whether id is an ancestor of the current position.
func (p *pathSet) contains(id *graph.Ident) bool {
	if id == nil {
		return false
	}
	return p.on[*id] > 0
}

// push marks id as entered and returns the matching pop. Entities without
// an ident are not tracked.
func (p *pathSet) push(id *graph.Ident) func() {
	if id == nil {
		return func() {}
	}
	key := *id
	p.on[key]++
	return func() {
		if p.on[key] <= 1 {
			delete(p.on, key)
			return
		}
		p.on[key]--
	}
}
