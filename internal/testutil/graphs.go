package testutil

import (
	"fmt"

	"github.com/roach88/pullgraph/internal/graph"
)

// People returns a small social graph with a friendship cycle:
//
//	root: current-user -> [:users 1], app/title "Directory"
//	users 1 Sam (age 23), friends [2 3]
//	users 2 Ana, friends [1]
//	users 3 Lee
//	groups admins, members [1]
//
// Every call returns a fresh graph the caller may modify.
func People() *graph.Graph {
	g := graph.New()
	g.Set("current-user", graph.NewIdent("users", 1))
	g.Set("app/title", "Directory")

	g.Add("users", 1, graph.Entity{
		"name":    "Sam",
		"age":     int64(23),
		"friends": []any{graph.NewIdent("users", 2), graph.NewIdent("users", 3)},
	})
	g.Add("users", 2, graph.Entity{
		"name":    "Ana",
		"friends": []any{graph.NewIdent("users", 1)},
	})
	g.Add("users", 3, graph.Entity{
		"name": "Lee",
	})
	g.Add("groups", "admins", graph.Entity{
		"label":   "Admins",
		"members": []any{graph.NewIdent("users", 1)},
	})
	return g
}

// Feed returns a graph whose root "feed" mixes entities from several
// tables, for union joins:
//
//	feed [[:posts 1] [:photos 1] [:videos 1] [:posts 2]]
func Feed() *graph.Graph {
	g := graph.New()
	g.Set("feed", []any{
		graph.NewIdent("posts", 1),
		graph.NewIdent("photos", 1),
		graph.NewIdent("videos", 1),
		graph.NewIdent("posts", 2),
	})
	g.Set("pinned", graph.NewIdent("photos", 1))

	g.Add("posts", 1, graph.Entity{"kind": "post", "title": "Hello", "author": "Sam"})
	g.Add("posts", 2, graph.Entity{"kind": "post", "title": "Again", "author": "Ana"})
	g.Add("photos", 1, graph.Entity{"kind": "photo", "url": "a.png", "author": "Lee"})
	g.Add("videos", 1, graph.Entity{"kind": "video", "src": "v.mp4"})
	return g
}

// Dashboard returns a graph with an inline entity under root, an ident into
// another table, and an addressable panel:
//
//	root: person/name "Sam", person/age 23
//	      table {name "Disk Performance Table", data -> [:statistics 1]}
//	statistics 1 {disk-activity [12 7 31]}
//	panelA 1 {boo 42}
func Dashboard() *graph.Graph {
	g := graph.New()
	g.Set("person/name", "Sam")
	g.Set("person/age", int64(23))
	g.Set("table", map[string]any{
		"name": "Disk Performance Table",
		"data": graph.NewIdent("statistics", 1),
	})

	g.Add("statistics", 1, graph.Entity{
		"disk-activity": []any{int64(12), int64(7), int64(31)},
	})
	g.Add("panelA", 1, graph.Entity{"boo": int64(42)})
	return g
}

// Chain returns n nodes linked by "next" with no cycle:
//
//	root: head -> [:nodes 1]
//	nodes i {name "node-i", next -> [:nodes i+1]}, the last has no next
func Chain(n int) *graph.Graph {
	g := graph.New()
	if n < 1 {
		return g
	}
	g.Set("head", graph.NewIdent("nodes", 1))
	for i := 1; i <= n; i++ {
		e := graph.Entity{"name": fmt.Sprintf("node-%d", i)}
		if i < n {
			e["next"] = graph.NewIdent("nodes", i+1)
		}
		g.Add("nodes", i, e)
	}
	return g
}
