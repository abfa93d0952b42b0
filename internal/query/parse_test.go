package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pullgraph/internal/edn"
	"github.com/roach88/pullgraph/internal/graph"
)

func TestParseString_Prop(t *testing.T) {
	q, err := ParseString("[:person/name :person/age]")
	require.NoError(t, err)

	assert.Equal(t, Query{
		Prop{Key: AttrKey("person/name")},
		Prop{Key: AttrKey("person/age")},
	}, q)
	assert.Equal(t, []string{"person/name", "person/age"}, q.Keys())
}

func TestParseString_ParamProp(t *testing.T) {
	q, err := ParseString(`[(:items {:limit 10 "order" :desc})]`)
	require.NoError(t, err)

	require.Len(t, q, 1)
	assert.Equal(t, ParamProp{
		Key:    AttrKey("items"),
		Params: Params{"limit": int64(10), "order": edn.Keyword{Name: "desc"}},
	}, q[0])
}

func TestParseString_Join(t *testing.T) {
	q, err := ParseString("[{:table [:name {:data [:disk-activity]}]}]")
	require.NoError(t, err)

	assert.Equal(t, Query{
		Join{Key: AttrKey("table"), Query: Query{
			Prop{Key: AttrKey("name")},
			Join{Key: AttrKey("data"), Query: Query{Prop{Key: AttrKey("disk-activity")}}},
		}},
	}, q)
}

func TestParseString_ParamJoin(t *testing.T) {
	q, err := ParseString("[({:items [:id]} {:limit 2})]")
	require.NoError(t, err)

	assert.Equal(t, Join{
		Key:    AttrKey("items"),
		Query:  Query{Prop{Key: AttrKey("id")}},
		Params: Params{"limit": int64(2)},
	}, q[0])
}

func TestParseString_RecursiveJoin(t *testing.T) {
	tests := []struct {
		src  string
		want Node
	}{
		{"[{:friends ...}]", RecursiveJoin{Key: AttrKey("friends"), Unbounded: true}},
		{"[{:friends '...}]", RecursiveJoin{Key: AttrKey("friends"), Unbounded: true}},
		{"[{:parent 3}]", RecursiveJoin{Key: AttrKey("parent"), Depth: 3}},
		{"[({:parent 1} {:x true})]", RecursiveJoin{Key: AttrKey("parent"), Depth: 1, Params: Params{"x": true}}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			q, err := ParseString(tt.src)
			require.NoError(t, err)
			require.Len(t, q, 1)
			assert.Equal(t, tt.want, q[0])
		})
	}
}

func TestParseString_UnionJoin(t *testing.T) {
	q, err := ParseString("[{:feed {:post [:title] photo [:url] \"video\" [:length]}}]")
	require.NoError(t, err)

	u, ok := q[0].(UnionJoin)
	require.True(t, ok)
	assert.Equal(t, AttrKey("feed"), u.Key)
	require.Len(t, u.Branches, 3)
	assert.Equal(t, []string{"post", "photo", "video"}, []string{u.Branches[0].Tag, u.Branches[1].Tag, u.Branches[2].Tag})

	sub, ok := u.Branch("photo")
	require.True(t, ok)
	assert.Equal(t, Query{Prop{Key: AttrKey("url")}}, sub)

	_, ok = u.Branch("audio")
	assert.False(t, ok)
}

func TestParseString_IdentKeyedUnion(t *testing.T) {
	q, err := ParseString("[{[:panelA 1] {panelA [:boo]}}]")
	require.NoError(t, err)

	u, ok := q[0].(UnionJoin)
	require.True(t, ok)
	assert.True(t, u.Key.IsIdent())
	assert.Equal(t, graph.NewIdent("panelA", 1), u.Key.Ident)
	assert.Equal(t, "[:panelA 1]", u.Key.String())
}

func TestParseString_Ident(t *testing.T) {
	q, err := ParseString(`[[:users 1] [:groups "admins"] [:current-user _]]`)
	require.NoError(t, err)

	assert.Equal(t, Query{
		Ident{Ident: graph.NewIdent("users", 1)},
		Ident{Ident: graph.NewIdent("groups", "admins")},
		Ident{Ident: graph.Link("current-user")},
	}, q)
}

func TestParseString_IdentJoinKey(t *testing.T) {
	q, err := ParseString("[{[:users 1] [:name]} ([:users 2] {:fields 1})]")
	require.NoError(t, err)

	assert.Equal(t, Join{Key: IdentKey(graph.NewIdent("users", 1)), Query: Query{Prop{Key: AttrKey("name")}}}, q[0])
	assert.Equal(t, ParamProp{Key: IdentKey(graph.NewIdent("users", 2)), Params: Params{"fields": int64(1)}}, q[1])
}

func TestParseString_Mutation(t *testing.T) {
	q, err := ParseString("[(launch! {:id 7}) (reset!)]")
	require.NoError(t, err)

	assert.Equal(t, Query{
		Mutation{Name: "launch!", Params: Params{"id": int64(7)}},
		Mutation{Name: "reset!"},
	}, q)
	assert.Equal(t, []string{"launch!", "reset!"}, q.Keys())
}

func TestParseString_Errors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantPos   string
		wantInMsg string
	}{
		{"unterminated", "[:a {:b [:c]}", "1:1", "unterminated"},
		{"mismatched", "[:a {:b [:c)}]", "1:12", "mismatched"},
		{"not a vector", ":a", "1:1", "query must be a vector"},
		{"two-key join", "[{:a [:x] :b [:y]}]", "1:2", "exactly one key"},
		{"empty join map", "[{}]", "1:2", "exactly one key"},
		{"zero depth", "[{:a 0}]", "1:6", "at least 1"},
		{"negative depth", "[{:a -2}]", "1:6", "at least 1"},
		{"bad recursive symbol", "[{:a ..}]", "1:6", "join target"},
		{"string target", `[{:a "x"}]`, "1:6", "join target"},
		{"non-vector branch", "[{:feed {:post :title}}]", "1:16", "must be a vector query"},
		{"empty union", "[{:feed {}}]", "1:9", "at least one branch"},
		{"duplicate tag", "[{:feed {:a [] a []}}]", "1:16", "duplicate union tag"},
		{"bad union tag", "[{:feed {1 []}}]", "1:10", "union tag"},
		{"string item", `["name"]`, "1:2", "unknown query item"},
		{"number item", "[1]", "1:2", "unknown query item"},
		{"bad join key", `[{"a" [:b]}]`, "1:3", "join key"},
		{"short ident", "[[:users]]", "1:2", "[table id]"},
		{"ident table", "[[users 1]]", "1:3", "table must be a keyword"},
		{"ident id", "[[:users :x]]", "1:10", "ident id"},
		{"empty list", "[()]", "1:2", "empty list"},
		{"param arity", "[(:a {:x 1} {:y 2})]", "1:2", "(expr {params})"},
		{"params not map", "[(:a [1])]", "1:6", "params must be a map"},
		{"bad param key", "[(:a {1 2})]", "1:7", "param keys"},
		{"bad param head", `[("a" {})]`, "1:3", "cannot parameterize"},
		{"nested mutation", "[{:a [(launch!)]}]", "1:7", "top level"},
		{"mutation arity", "[(launch! {} {})]", "1:2", "at most one params map"},
		{"mutation params", "[(launch! 1)]", "1:11", "params must be a map"},
		{"ellipsis mutation", "[(...)]", "1:3", "not a mutation name"},
		{"mutation without bang", "[(launch {:id 7})]", "1:3", "end in !"},
		{"bare bang", "[(!)]", "1:3", "not a mutation name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseString(tt.src)
			require.Error(t, err)
			assert.Nil(t, q, "no partial result on failure")

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantPos, pe.Pos.String())
			assert.Contains(t, pe.Reason, tt.wantInMsg)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParse_Sources(t *testing.T) {
	want := Query{Prop{Key: AttrKey("a")}}

	q, err := Parse("[:a]")
	require.NoError(t, err)
	assert.Equal(t, want, q)

	q, err = Parse(edn.Vec(edn.K("a")))
	require.NoError(t, err)
	assert.Equal(t, want, q)

	q, err = Parse(want)
	require.NoError(t, err)
	assert.Equal(t, want, q)
}

func TestParse_InvalidSources(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
	assert.True(t, IsParseError(err))

	_, err = Parse(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported query source int")
	assert.Equal(t, "parse error: unsupported query source int", err.Error())

	_, err = Parse(Query{Prop{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty key")
}
