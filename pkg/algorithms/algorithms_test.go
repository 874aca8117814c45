package algorithms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// storyGraph builds two stories: a hare and a tortoise meet in a race, and
// an unrelated note stands alone.
//
//	race -> hare, race -> tortoise, sleeps -> hare
//	note -> paper
func storyGraph(t *testing.T) (*storage.GraphStorage, map[string]uint64) {
	t.Helper()
	gs, err := storage.NewGraphStorage("")
	require.NoError(t, err)
	t.Cleanup(func() { gs.Close() })

	ids := map[string]uint64{}
	for _, n := range []struct{ label, key string }{
		{"entity", "hare"}, {"entity", "tortoise"}, {"action", "race"},
		{"action", "sleeps"}, {"action", "note"}, {"entity", "paper"},
	} {
		node, err := gs.CreateNode([]string{n.label}, map[string]any{"key": n.key})
		require.NoError(t, err)
		ids[n.key] = node.ID
	}
	for _, e := range [][2]string{{"race", "hare"}, {"race", "tortoise"}, {"sleeps", "hare"}, {"note", "paper"}} {
		_, err := gs.CreateEdge(ids[e[0]], ids[e[1]], "involved", nil)
		require.NoError(t, err)
	}
	return gs, ids
}

func TestPageRank(t *testing.T) {
	gs, ids := storyGraph(t)

	result, err := PageRank(gs, DefaultPageRankOptions())
	require.NoError(t, err)
	assert.True(t, result.Converged)

	sum := 0.0
	for _, s := range result.Scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, result.Scores[ids["hare"]], result.Scores[ids["tortoise"]])
	assert.Greater(t, result.Scores[ids["tortoise"]], result.Scores[ids["race"]])

	top := Top(gs, result.Scores, 2)
	require.Len(t, top, 2)
	assert.Equal(t, ids["hare"], top[0].NodeID)
	assert.Equal(t, "hare", top[0].Node.Properties["key"])
}

func TestPageRankEmptyGraph(t *testing.T) {
	gs, err := storage.NewGraphStorage("")
	require.NoError(t, err)

	result, err := PageRank(gs, DefaultPageRankOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Scores)
	assert.True(t, result.Converged)
}

func TestTopBreaksTiesByID(t *testing.T) {
	gs, ids := storyGraph(t)
	scores := map[uint64]float64{ids["paper"]: 0.5, ids["hare"]: 0.5, ids["note"]: 0.1}

	top := Top(gs, scores, 10)
	require.Len(t, top, 3)
	assert.Equal(t, []uint64{ids["hare"], ids["paper"], ids["note"]},
		[]uint64{top[0].NodeID, top[1].NodeID, top[2].NodeID})
	assert.Nil(t, Top(gs, scores, 0))
}

func TestFilter(t *testing.T) {
	gs, ids := storyGraph(t)
	result, err := PageRank(gs, DefaultPageRankOptions())
	require.NoError(t, err)

	entities := Filter(Top(gs, result.Scores, 10), "entity")
	require.Len(t, entities, 3)
	for _, rn := range entities {
		assert.NotEqual(t, ids["race"], rn.NodeID)
	}
}

func TestDegreeCentrality(t *testing.T) {
	gs, ids := storyGraph(t)

	degree, err := DegreeCentrality(gs)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/5.0, degree[ids["hare"]], 1e-9)
	assert.InDelta(t, 1.0/5.0, degree[ids["paper"]], 1e-9)
	assert.False(t, math.IsNaN(degree[ids["note"]]))
}

func TestConnectedComponents(t *testing.T) {
	gs, ids := storyGraph(t)

	result, err := ConnectedComponents(gs)
	require.NoError(t, err)
	require.Len(t, result.Communities, 2)

	assert.Equal(t, 4, result.Communities[0].Size)
	assert.Equal(t, 2, result.Communities[1].Size)
	assert.Equal(t, result.NodeCommunity[ids["hare"]], result.NodeCommunity[ids["sleeps"]])
	assert.NotEqual(t, result.NodeCommunity[ids["hare"]], result.NodeCommunity[ids["paper"]])
	assert.Equal(t, 1, result.NodeCommunity[ids["note"]])
}
