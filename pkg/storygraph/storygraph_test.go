package storygraph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-Global/storygraph-v0/pkg/model"
)

func entity(t *testing.T, key, title string) *model.Node {
	t.Helper()
	n, err := model.NewEntity(key, title, nil)
	require.NoError(t, err)
	return n
}

func action(t *testing.T, key, title string) *model.Node {
	t.Helper()
	n, err := model.NewAction(key, title, nil)
	require.NoError(t, err)
	return n
}

func involved(t *testing.T, src, dst *model.Node) *model.Edge {
	t.Helper()
	e, err := model.NewEdge(model.Involved, src.Ref(), dst.Ref())
	require.NoError(t, err)
	return e
}

func TestLoad(t *testing.T) {
	hare := entity(t, "d/1", "hare")
	leaves := action(t, "d/3", "leaves")
	tortoise := entity(t, "d/5", "tortoise")

	g := New("fable")
	err := g.Load(
		[]*model.Node{leaves, hare, tortoise, hare},
		[]*model.Edge{involved(t, leaves, tortoise), involved(t, leaves, hare), involved(t, leaves, hare)},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount(), "duplicate edges collapse")

	keys := []string{}
	for _, n := range g.Nodes() {
		keys = append(keys, n.Key)
	}
	assert.Equal(t, []string{"d/1", "d/3", "d/5"}, keys)

	edges := g.Edges()
	assert.Equal(t, "d/1", edges[0].Dest.Key, "edges ordered by dest key within a source")
	assert.Equal(t, "d/5", edges[1].Dest.Key)

	assert.ErrorIs(t, g.Load(nil, nil), ErrAlreadyLoaded)
}

func TestLoadRejectsDuplicateKeys(t *testing.T) {
	g := New("dup")
	err := g.Load([]*model.Node{entity(t, "k", "a"), entity(t, "k", "b")}, nil)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.False(t, g.Loaded())
	assert.Equal(t, 0, g.NodeCount(), "failed load leaves the graph empty")
}

func TestEdgeOrderIsDeterministic(t *testing.T) {
	doc, err := model.NewDocument("doc", "Headline", "article", time.Time{}, nil)
	require.NoError(t, err)
	a, b, c := entity(t, "a", "a"), action(t, "b", "b"), action(t, "c", "c")

	contains := func(dst *model.Node) *model.Edge {
		e, err := model.NewEdge(model.Contains, doc.Ref(), dst.Ref())
		require.NoError(t, err)
		return e
	}

	build := func(edges []*model.Edge) []model.EdgeKey {
		g := New("order")
		require.NoError(t, g.Load([]*model.Node{doc, a, b, c}, edges))
		var keys []model.EdgeKey
		for _, e := range g.Edges() {
			keys = append(keys, e.Key())
		}
		return keys
	}

	first := build([]*model.Edge{contains(c), involved(t, a, b), contains(a)})
	second := build([]*model.Edge{contains(a), contains(c), involved(t, a, b)})

	assert.Equal(t, first, second)
	assert.Equal(t, []model.EdgeKey{
		{Label: model.Contains, SourceKey: "doc", DestKey: "a"},
		{Label: model.Contains, SourceKey: "doc", DestKey: "c"},
		{Label: model.Involved, SourceKey: "a", DestKey: "b"},
	}, first)
}

func TestMerge(t *testing.T) {
	shared1 := entity(t, "src/elon", "Elon")
	shared1.Attrs.AddToSet("det", "the")
	shared2 := entity(t, "src/elon", "Elon")
	shared2.Attrs.AddToSet("det", "a")
	tweet1 := action(t, "d1/2", "tweeted")
	tweet2 := action(t, "d2/2", "posted")

	g1 := New("one")
	require.NoError(t, g1.Load([]*model.Node{shared1, tweet1}, []*model.Edge{involved(t, tweet1, shared1)}))
	g2 := New("two")
	require.NoError(t, g2.Load([]*model.Node{shared2, tweet2}, []*model.Edge{involved(t, tweet2, shared2)}))

	merged, err := Merge("both", g1, g2)
	require.NoError(t, err)

	assert.Equal(t, 3, merged.NodeCount())
	assert.Equal(t, 2, merged.EdgeCount())
	elon, ok := merged.Node("src/elon")
	require.True(t, ok)
	assert.Equal(t, []string{"the", "a"}, elon.Attrs.StringSet("det"))
}

func TestMergeLeavesInputsUntouched(t *testing.T) {
	n1 := entity(t, "k", "thing")
	n1.Attrs.AddToSet("det", "the")
	n2 := entity(t, "k", "thing")
	n2.Attrs.AddToSet("det", "a")
	other := action(t, "d1/1", "saw")
	e := involved(t, other, n1)
	e.Attrs = model.Attrs{"weight": int64(1)}

	g1 := New("one")
	require.NoError(t, g1.Load([]*model.Node{n1, other}, []*model.Edge{e}))
	g2 := New("two")
	require.NoError(t, g2.Load([]*model.Node{n2}, nil))

	merged, err := Merge("both", g1, g2)
	require.NoError(t, err)

	got, ok := merged.Node("k")
	require.True(t, ok)
	assert.Equal(t, []string{"the", "a"}, got.Attrs.StringSet("det"))

	orig, ok := g1.Node("k")
	require.True(t, ok)
	assert.NotSame(t, orig, got)
	assert.Equal(t, []string{"the"}, orig.Attrs.StringSet("det"))
	assert.Equal(t, []string{"a"}, n2.Attrs.StringSet("det"))

	mergedEdges := merged.Edges()
	require.Len(t, mergedEdges, 1)
	assert.NotSame(t, g1.Edges()[0], mergedEdges[0])
	mergedEdges[0].Attrs["weight"] = int64(2)
	assert.Equal(t, int64(1), g1.Edges()[0].Attrs["weight"])
}

func TestMergeRejectsTypeClash(t *testing.T) {
	g1 := New("one")
	require.NoError(t, g1.Load([]*model.Node{entity(t, "k", "x")}, nil))
	g2 := New("two")
	require.NoError(t, g2.Load([]*model.Node{action(t, "k", "x")}, nil))

	_, err := Merge("both", g1, g2)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestView(t *testing.T) {
	hare := entity(t, "d/1", "hare")
	leaves := action(t, "d/3", "leaves")
	outside := entity(t, "other/9", "fox")

	g := New("fable")
	require.NoError(t, g.Load(
		[]*model.Node{hare, leaves},
		[]*model.Edge{involved(t, leaves, hare), involved(t, leaves, outside)},
	))

	v := g.View()
	require.Len(t, v.Nodes, 2)
	require.Len(t, v.Edges, 1, "edge to a node outside the graph is skipped")
	assert.Equal(t, "hare", v.Nodes[0].Title)
	assert.Equal(t, ViewEdge{From: 1, To: 0, Label: model.Involved, Attrs: v.Edges[0].Attrs}, v.Edges[0])
	assert.Equal(t, []int{0}, v.Outgoing(1))

	assert.Equal(t, v, g.View(), "view is idempotent")
}
