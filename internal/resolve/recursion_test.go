package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pullgraph/internal/graph"
	"github.com/roach88/pullgraph/internal/query"
	"github.com/roach88/pullgraph/internal/testutil"
)

func TestRecursiveJoin_UnboundedStopsAtCycle(t *testing.T) {
	res := mustResolve(t, `[{:current-user [:name {:friends ...}]}]`, testutil.People())

	// Sam -> Ana -> Sam again: the revisited item is empty.
	assertTree(t, map[string]any{
		"current-user": map[string]any{
			"name": "Sam",
			"friends": []any{
				map[string]any{
					"name":    "Ana",
					"friends": []any{map[string]any{}},
				},
				map[string]any{"name": "Lee"},
			},
		},
	}, res)
}

func TestRecursiveJoin_SelfLoop(t *testing.T) {
	g := graph.New()
	g.Set("me", graph.NewIdent("users", 1))
	g.Add("users", 1, graph.Entity{"name": "Sam", "self": graph.NewIdent("users", 1)})

	res := mustResolve(t, `[{:me [:name {:self ...}]}]`, g)

	assertTree(t, map[string]any{
		"me": map[string]any{"name": "Sam", "self": map[string]any{}},
	}, res)
}

func TestRecursiveJoin_SiblingsShareChild(t *testing.T) {
	g := graph.New()
	g.Set("parents", []any{graph.NewIdent("users", 1), graph.NewIdent("users", 2)})
	g.Add("users", 1, graph.Entity{"name": "A", "kids": []any{graph.NewIdent("users", 3)}})
	g.Add("users", 2, graph.Entity{"name": "B", "kids": []any{graph.NewIdent("users", 3)}})
	g.Add("users", 3, graph.Entity{"name": "C"})

	res := mustResolve(t, `[{:parents [:name {:kids ...}]}]`, g)

	// Only ancestors cut recursion, so C appears under both parents.
	assertTree(t, map[string]any{
		"parents": []any{
			map[string]any{"name": "A", "kids": []any{map[string]any{"name": "C"}}},
			map[string]any{"name": "B", "kids": []any{map[string]any{"name": "C"}}},
		},
	}, res)
}

func TestRecursiveJoin_Bounded(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]any
	}{
		{
			name: "depth 1",
			src:  `[{:current-user [:name {:friends 1}]}]`,
			want: map[string]any{
				"current-user": map[string]any{
					"name": "Sam",
					"friends": []any{
						map[string]any{"name": "Ana"},
						map[string]any{"name": "Lee"},
					},
				},
			},
		},
		{
			name: "depth 2 revisits without cycle check",
			src:  `[{:current-user [:name {:friends 2}]}]`,
			want: map[string]any{
				"current-user": map[string]any{
					"name": "Sam",
					"friends": []any{
						map[string]any{
							"name":    "Ana",
							"friends": []any{map[string]any{"name": "Sam"}},
						},
						map[string]any{"name": "Lee"},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustResolve(t, tt.src, testutil.People())
			assertTree(t, tt.want, res)
		})
	}
}

func TestRecursiveJoin_ToOneChain(t *testing.T) {
	res := mustResolve(t, `[{:head [:name {:next ...}]}]`, testutil.Chain(3))

	assertTree(t, map[string]any{
		"head": map[string]any{
			"name": "node-1",
			"next": map[string]any{
				"name": "node-2",
				"next": map[string]any{"name": "node-3"},
			},
		},
	}, res)
}

func TestRecursiveJoin_BudgetsAreIndependent(t *testing.T) {
	g := testutil.Chain(4)
	for i := 1; i <= 4; i++ {
		e, _ := g.Entity(graph.NewIdent("nodes", i))
		e["also"] = graph.NewIdent("nodes", i)
	}

	// :next may descend twice and :also once, each counted on its own.
	res := mustResolve(t, `[{:head [:name {:next 2} {:also 1}]}]`, g)

	assertTree(t, map[string]any{
		"head": map[string]any{
			"name": "node-1",
			"next": map[string]any{
				"name": "node-2",
				"next": map[string]any{
					"name": "node-3",
					"also": map[string]any{"name": "node-3"},
				},
				"also": map[string]any{
					"name": "node-2",
					"next": map[string]any{"name": "node-3"},
				},
			},
			"also": map[string]any{
				"name": "node-1",
				"next": map[string]any{
					"name": "node-2",
					"next": map[string]any{"name": "node-3"},
				},
			},
		},
	}, res)
}

func TestRecursiveJoin_BudgetResetsInsideJoin(t *testing.T) {
	g := testutil.Chain(3)
	for i := 1; i <= 3; i++ {
		e, _ := g.Entity(graph.NewIdent("nodes", i))
		e["first"] = graph.NewIdent("nodes", 1)
	}

	// Each {:first [...]} starts a new frame, so its {:next 1} gets a fresh
	// budget at every level.
	res := mustResolve(t, `[{:head [{:next 1} {:first [:name {:next 1}]}]}]`, g)

	assertTree(t, map[string]any{
		"head": map[string]any{
			"next": map[string]any{
				"first": map[string]any{
					"name": "node-1",
					"next": map[string]any{"name": "node-2"},
				},
			},
			"first": map[string]any{
				"name": "node-1",
				"next": map[string]any{"name": "node-2"},
			},
		},
	}, res)
}

func TestRecursiveJoin_DepthGuard(t *testing.T) {
	q, err := query.ParseString(`[{:head [:name {:next ...}]}]`)
	require.NoError(t, err)

	res, err := New(WithMaxDepth(4)).Resolve(context.Background(), q, testutil.Chain(10))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsDepthExceeded(err))

	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, []string{"head", "next", "next", "next"}, re.Path)
}

func TestRecursiveJoin_WithinDepthGuard(t *testing.T) {
	q, err := query.ParseString(`[{:head [{:next ...}]}]`)
	require.NoError(t, err)

	_, err = New(WithMaxDepth(5)).Resolve(context.Background(), q, testutil.Chain(4))
	assert.NoError(t, err)
}

func TestUnionJoin_ToManyDispatch(t *testing.T) {
	res := mustResolve(t, `[{:feed {posts [:title] photos [:url]}}]`, testutil.Feed())

	// videos has no branch and resolves to an empty result.
	assertTree(t, map[string]any{
		"feed": []any{
			map[string]any{"title": "Hello"},
			map[string]any{"url": "a.png"},
			map[string]any{},
			map[string]any{"title": "Again"},
		},
	}, res)
}

func TestUnionJoin_ToOne(t *testing.T) {
	res := mustResolve(t, `[{:pinned {photos [:url :author] posts [:title]}}]`, testutil.Feed())

	assertTree(t, map[string]any{
		"pinned": map[string]any{"url": "a.png", "author": "Lee"},
	}, res)
}

func TestUnionJoin_AttrTagger(t *testing.T) {
	res := mustResolve(t, `[{:feed {post [:author] photo [:url]}}]`, testutil.Feed(),
		WithTagger(AttrTagger("kind")))

	assertTree(t, map[string]any{
		"feed": []any{
			map[string]any{"author": "Sam"},
			map[string]any{"url": "a.png"},
			map[string]any{},
			map[string]any{"author": "Ana"},
		},
	}, res)
}

func TestUnionJoin_InlineEntityHasNoTableTag(t *testing.T) {
	g := graph.New()
	g.Set("thing", map[string]any{"a": int64(1)})

	res := mustResolve(t, `[{:thing {things [:a]}}]`, g)

	assertTree(t, map[string]any{"thing": map[string]any{}}, res)
}

func TestUnionJoin_InsideRecursion(t *testing.T) {
	g := graph.New()
	g.Set("root-item", graph.NewIdent("folders", 1))
	g.Add("folders", 1, graph.Entity{
		"name":     "top",
		"children": []any{graph.NewIdent("files", 1), graph.NewIdent("folders", 2)},
	})
	g.Add("folders", 2, graph.Entity{
		"name":     "sub",
		"children": []any{graph.NewIdent("files", 2)},
	})
	g.Add("files", 1, graph.Entity{"name": "a.txt", "size": int64(3)})
	g.Add("files", 2, graph.Entity{"name": "b.txt", "size": int64(5)})

	res := mustResolve(t, `[{:root-item {folders [:name {:children ...}] files [:name :size]}}]`, g)

	// The recursion re-applies the folders branch it sits in, not the union,
	// so files below the top level get the folder query.
	assertTree(t, map[string]any{
		"root-item": map[string]any{
			"name": "top",
			"children": []any{
				map[string]any{"name": "a.txt"},
				map[string]any{
					"name":     "sub",
					"children": []any{map[string]any{"name": "b.txt"}},
				},
			},
		},
	}, res)
}

func TestRecursiveJoin_TopLevelMutationRunsOnce(t *testing.T) {
	g := graph.New()
	g.Set("name", "root")
	g.Set("next", graph.NewIdent("nodes", 1))
	g.Add("nodes", 1, graph.Entity{"name": "one", "next": graph.NewIdent("nodes", 2)})
	g.Add("nodes", 2, graph.Entity{"name": "two"})

	m := testutil.NewRecordingMutator()
	res := mustResolve(t, `[(ping!) :name {:next ...}]`, g, WithMutator(m))

	assert.Equal(t, []string{"ping!"}, m.Names())
	assertTree(t, map[string]any{
		"ping!": map[string]any{"seq": int64(1)},
		"name":  "root",
		"next": map[string]any{
			"name": "one",
			"next": map[string]any{"name": "two"},
		},
	}, res)
}

func TestResolveIdent_StartsOnCycle(t *testing.T) {
	q, err := query.ParseString(`[:name {:friends ...}]`)
	require.NoError(t, err)

	tests := []struct {
		name string
		id   graph.Ident
	}{
		{"table ident", graph.NewIdent("users", 1)},
		{"link ident", graph.Link("current-user")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().ResolveIdent(context.Background(), q, testutil.People(), tt.id)
			require.NoError(t, err)

			// Sam is where resolution started, so Ana's friend Sam is cut.
			assertTree(t, map[string]any{
				"name": "Sam",
				"friends": []any{
					map[string]any{
						"name":    "Ana",
						"friends": []any{map[string]any{}},
					},
					map[string]any{"name": "Lee"},
				},
			}, res)
		})
	}
}

func TestResolveIdent_NotFound(t *testing.T) {
	q, err := query.ParseString(`[:name]`)
	require.NoError(t, err)

	res, err := New().ResolveIdent(context.Background(), q, testutil.People(), graph.NewIdent("users", 99))
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrRootNotFound))
}
