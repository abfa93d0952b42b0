package resolve

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/roach88/pullgraph/internal/graph"
	"github.com/roach88/pullgraph/internal/query"
)

// Resolver evaluates queries against graphs. It holds only configuration,
// is immutable after New, and is safe for concurrent use.
type Resolver struct {
	reader   Reader
	mutator  Mutator
	tagger   Tagger
	logger   *zap.Logger
	ids      IDGenerator
	maxDepth int
}

// New creates a Resolver. With no options it reads straight from the graph,
// tags union items by ident table, and rejects mutations.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		tagger:   TableTagger,
		logger:   zap.NewNop(),
		ids:      UUIDv7Generator{},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve evaluates q against g starting from g.Root.
func (r *Resolver) Resolve(ctx context.Context, q query.Query, g *graph.Graph) (*Result, error) {
	if g == nil {
		g = graph.New()
	}
	return r.ResolveFrom(ctx, q, g, g.Root)
}

// ResolveFrom evaluates q against g with root as the starting context.
//
// The query is validated first; an invalid query fails with INVALID_QUERY
// before any node is read. Any error aborts the whole resolution and no
// partial result is returned. Mutations that ran before the error are not
// undone.
func (r *Resolver) ResolveFrom(ctx context.Context, q query.Query, g *graph.Graph, root graph.Entity) (*Result, error) {
	return r.resolve(ctx, q, g, root, nil)
}

// ResolveIdent evaluates q against g starting from the entity id addresses.
// The starting entity counts as visited, so an unbounded recursive join
// that leads back to it is cut there. Link idents are followed through the
// graph root.
func (r *Resolver) ResolveIdent(ctx context.Context, q query.Query, g *graph.Graph, id graph.Ident) (*Result, error) {
	if g == nil {
		g = graph.New()
	}
	root, rootID, ok := g.Follow(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, id)
	}
	if rootID == nil {
		// A link to an inline entity has no table ident of its own.
		rootID = &id
	}
	return r.resolve(ctx, q, g, root, rootID)
}

func (r *Resolver) resolve(ctx context.Context, q query.Query, g *graph.Graph, root graph.Entity, rootID *graph.Ident) (*Result, error) {
	if err := query.Validate(q); err != nil {
		return nil, &ResolutionError{Code: ErrCodeInvalidQuery, Message: "query failed validation", Err: err}
	}
	if g == nil {
		g = graph.New()
	}

	requestID := r.ids.Generate()
	w := &walker{
		r:         r,
		ctx:       ctx,
		g:         g,
		log:       r.logger.With(zap.String("request_id", requestID)),
		requestID: requestID,
		onPath:    newPathSet(),
	}

	w.log.Debug("resolving query", zap.Int("nodes", len(q)))
	res, err := w.resolveQuery(q, root, rootID, nil)
	if err != nil {
		w.log.Debug("resolution failed", zap.Error(err))
		return nil, err
	}
	return res, nil
}

// budgets holds the remaining levels of bounded recursive joins, keyed by
// join key, for one query frame. Entering a regular join starts a fresh
// frame with no budgets.
type budgets map[string]int

func (b budgets) with(key string, remaining int) budgets {
	out := make(budgets, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	out[key] = remaining
	return out
}

// walker holds the state of one resolution. It is not shared between
// goroutines.
type walker struct {
	r         *Resolver
	ctx       context.Context
	g         *graph.Graph
	log       *zap.Logger
	requestID string
	path      []string
	onPath    *pathSet
	depth     int
}

func (w *walker) fail(code ResolutionErrorCode, msg string, err error) error {
	return &ResolutionError{
		Code:    code,
		Message: msg,
		Path:    append([]string(nil), w.path...),
		Err:     err,
	}
}

// resolveQuery applies q to entity. id is the ident entity was reached
// through, if any.
func (w *walker) resolveQuery(q query.Query, entity graph.Entity, id *graph.Ident, b budgets) (*Result, error) {
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > w.r.maxDepth {
		return nil, w.fail(ErrCodeDepthExceeded, fmt.Sprintf("result nesting exceeds %d levels", w.r.maxDepth), nil)
	}

	pop := w.onPath.push(id)
	defer pop()

	res := NewResult()
	for _, n := range q {
		if err := w.ctx.Err(); err != nil {
			return nil, w.fail(ErrCodeCancelled, "resolution abandoned", err)
		}
		// Mutations only sit at the top level, so below it q is being
		// re-applied by a recursive join and they have already run.
		if _, ok := n.(query.Mutation); ok && w.depth > 1 {
			continue
		}

		key := n.NodeKey().String()
		w.path = append(w.path, key)
		v, ok, err := w.resolveNode(n, q, entity, id, b)
		w.path = w.path[:len(w.path)-1]
		if err != nil {
			return nil, err
		}
		if ok {
			res.Set(key, v)
		}
	}
	return res, nil
}

// resolveNode returns the value of n in entity. ok=false means the key is
// omitted. enclosing is the query n belongs to, which recursive joins
// re-apply.
func (w *walker) resolveNode(n query.Node, enclosing query.Query, entity graph.Entity, id *graph.Ident, b budgets) (any, bool, error) {
	switch n := n.(type) {
	case query.Mutation:
		return w.mutate(n)
	case query.RecursiveJoin:
		return w.recurse(n, enclosing, entity, id, b)
	}

	v, status, err := w.read(n, entity, id)
	if err != nil {
		return nil, false, err
	}
	if status == Omitted {
		return nil, false, nil
	}

	switch n := n.(type) {
	case query.Prop, query.ParamProp:
		if n.NodeKey().IsIdent() {
			return w.entityValue(v)
		}
		return v, true, nil
	case query.Ident:
		return w.entityValue(v)
	case query.Join:
		return w.shape(v, func(e graph.Entity, eid *graph.Ident) (*Result, error) {
			return w.resolveQuery(n.Query, e, eid, nil)
		})
	case query.UnionJoin:
		return w.shape(v, func(e graph.Entity, eid *graph.Ident) (*Result, error) {
			return w.union(n, e, eid)
		})
	}
	return nil, false, w.fail(ErrCodeInvalidQuery, fmt.Sprintf("unknown node type %T", n), nil)
}

func (w *walker) recurse(n query.RecursiveJoin, enclosing query.Query, entity graph.Entity, id *graph.Ident, b budgets) (any, bool, error) {
	key := n.Key.String()
	child := b
	if !n.Unbounded {
		remaining := n.Depth
		if left, ok := b[key]; ok {
			remaining = left
		}
		if remaining <= 0 {
			w.log.Debug("recursion depth exhausted", zap.Strings("path", w.path))
			return nil, false, nil
		}
		child = b.with(key, remaining-1)
	}

	v, status, err := w.read(n, entity, id)
	if err != nil {
		return nil, false, err
	}
	if status == Omitted {
		return nil, false, nil
	}

	return w.shape(v, func(e graph.Entity, eid *graph.Ident) (*Result, error) {
		if n.Unbounded && w.onPath.contains(eid) {
			w.log.Debug("recursion cycle cut", zap.Strings("path", w.path), zap.Stringer("ident", eid))
			return NewResult(), nil
		}
		return w.resolveQuery(enclosing, e, eid, child)
	})
}

func (w *walker) union(n query.UnionJoin, e graph.Entity, id *graph.Ident) (*Result, error) {
	tag, ok := w.r.tagger(e, id)
	if !ok {
		w.log.Debug("union item has no tag", zap.Strings("path", w.path))
		return NewResult(), nil
	}
	sub, ok := n.Branch(tag)
	if !ok {
		w.log.Debug("union item has no matching branch", zap.Strings("path", w.path), zap.String("tag", tag))
		return NewResult(), nil
	}
	return w.resolveQuery(sub, e, id, nil)
}

// read consults the configured Reader, falling back to the graph when it
// declines.
func (w *walker) read(n query.Node, entity graph.Entity, id *graph.Ident) (any, ReadStatus, error) {
	env := &Env{
		Ctx:       w.ctx,
		Graph:     w.g,
		Entity:    entity,
		Ident:     id,
		Path:      append([]string(nil), w.path[:len(w.path)-1]...),
		RequestID: w.requestID,
	}

	if w.r.reader != nil {
		v, status, err := w.r.reader.Read(env, n)
		if err != nil {
			w.log.Warn("reader failed", zap.Strings("path", w.path), zap.Error(err))
			return nil, Omitted, w.fail(ErrCodeReadFailed, fmt.Sprintf("reading %s", n.NodeKey()), err)
		}
		switch status {
		case Found:
			return v, Found, nil
		case Omitted:
			return nil, Omitted, nil
		}
	}
	return GraphReader{}.Read(env, n)
}

// shape turns a join value into results: a sequence yields []*Result with
// unresolvable items skipped, a single entity or ident yields *Result, and
// anything else is omitted.
func (w *walker) shape(v any, apply func(graph.Entity, *graph.Ident) (*Result, error)) (any, bool, error) {
	if items, ok := sequence(v); ok {
		out := make([]*Result, 0, len(items))
		for i, item := range items {
			e, id, ok := w.g.Follow(item)
			if !ok {
				w.log.Debug("to-many item omitted", zap.Strings("path", w.path), zap.Int("index", i))
				continue
			}
			w.path = append(w.path, strconv.Itoa(i))
			r, err := apply(e, id)
			w.path = w.path[:len(w.path)-1]
			if err != nil {
				return nil, false, err
			}
			out = append(out, r)
		}
		return out, true, nil
	}

	e, id, ok := w.g.Follow(v)
	if !ok {
		w.log.Debug("join target is not an entity", zap.Strings("path", w.path), zap.String("type", fmt.Sprintf("%T", v)))
		return nil, false, nil
	}
	r, err := apply(e, id)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// entityValue is the value of an ident read without a subquery: a shallow
// copy of the entity, a list of copies for a link to a collection, or the
// raw value for a link to a scalar.
func (w *walker) entityValue(v any) (any, bool, error) {
	if items, ok := sequence(v); ok {
		out := make([]any, 0, len(items))
		for _, item := range items {
			if e, _, ok := w.g.Follow(item); ok {
				out = append(out, copyEntity(e))
			}
		}
		return out, true, nil
	}
	if e, _, ok := w.g.Follow(v); ok {
		return copyEntity(e), true, nil
	}
	return v, true, nil
}

func (w *walker) mutate(m query.Mutation) (any, bool, error) {
	if w.r.mutator == nil {
		return nil, false, &MutationError{Name: m.Name, Err: ErrNoMutator}
	}
	v, err := w.r.mutator.Mutate(w.ctx, m.Name, m.Params)
	if err != nil {
		w.log.Warn("mutation failed", zap.String("mutation", m.Name), zap.Error(err))
		return nil, false, &MutationError{Name: m.Name, Err: err}
	}
	w.log.Info("mutation executed", zap.String("mutation", m.Name))
	return v, true, nil
}

// sequence reports whether v is a to-many value and returns its items.
func sequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil, string:
		return nil, false
	case []any:
		return s, true
	case []graph.Ident:
		out := make([]any, len(s))
		for i, id := range s {
			out[i] = id
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
