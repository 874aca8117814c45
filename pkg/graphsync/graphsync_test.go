package graphsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

func newEmbeddedDriver(t *testing.T, opts ...Option) *Driver {
	t.Helper()
	store, err := OpenEmbedded(EmbeddedConfig{})
	require.NoError(t, err)
	d := NewDriver(store, opts...)
	t.Cleanup(func() { d.Close(context.Background()) })
	return d
}

var posted = time.Date(2020, 4, 17, 12, 0, 0, 0, time.UTC)

func sampleGraph(t *testing.T) (*storygraph.StoryGraph, []*model.Node, []*model.Edge) {
	t.Helper()
	nike, err := model.NewSource("1059194370", "Nike", "twitter_account", map[string]any{"followers": 7000000})
	require.NoError(t, err)
	user, err := model.NewSource("415859364", "Jordan", "twitter_account", nil)
	require.NoError(t, err)
	doc, err := model.NewDocument("t1", "Just do it @Nike", "tweet", posted, map[string]any{"lang": "en"})
	require.NoError(t, err)
	ent, err := model.NewEntity("t1/0", "Nike", map[string]any{"pos": "PROPN"})
	require.NoError(t, err)

	authored, err := model.NewEdge(model.Authored, user.Ref(), doc.Ref(), model.WithTime(posted))
	require.NoError(t, err)
	refs, err := model.NewEdge(model.References, doc.Ref(), nike.Ref(), model.WithTime(posted))
	require.NoError(t, err)
	interacts, err := model.NewEdge(model.Interacts, user.Ref(), nike.Ref(),
		model.WithTime(posted.Add(time.Hour)), model.WithInteractionType("reply"))
	require.NoError(t, err)
	contains, err := model.NewEdge(model.Contains, doc.Ref(), ent.Ref())
	require.NoError(t, err)

	nodes := []*model.Node{nike, user, doc, ent}
	edges := []*model.Edge{authored, refs, interacts, contains}
	g := storygraph.New("sample")
	require.NoError(t, g.Load(nodes, edges))
	return g, nodes, edges
}

func TestUploadNodesIsIdempotent(t *testing.T) {
	d := newEmbeddedDriver(t)
	ctx := context.Background()
	_, nodes, _ := sampleGraph(t)

	require.NoError(t, d.EnsureConstraints(ctx))

	first, err := d.UploadNodes(ctx, nodes)
	require.NoError(t, err)
	assert.Equal(t, UploadReport{Total: 4, Inserted: 4}, first)

	second, err := d.UploadNodes(ctx, nodes)
	require.NoError(t, err)
	assert.Equal(t, UploadReport{Total: 4, Skipped: 4}, second)

	stats := d.Store().(*EmbeddedStore).Graph().GetStatistics()
	assert.Equal(t, uint64(4), stats.NodeCount)
}

func TestUploadEdges(t *testing.T) {
	d := newEmbeddedDriver(t)
	ctx := context.Background()
	_, nodes, edges := sampleGraph(t)

	_, err := d.UploadNodes(ctx, nodes)
	require.NoError(t, err)

	report, err := d.UploadEdges(ctx, edges)
	require.NoError(t, err)
	assert.Equal(t, UploadReport{Total: 4, Inserted: 4}, report)

	report, err = d.UploadEdges(ctx, edges)
	require.NoError(t, err)
	assert.Equal(t, UploadReport{Total: 4, Skipped: 4}, report)
}

func TestUploadEdgesMissingEndpoint(t *testing.T) {
	d := newEmbeddedDriver(t)
	ctx := context.Background()
	_, nodes, edges := sampleGraph(t)

	// only the user is stored, so the authored edge has no document
	_, err := d.UploadNodes(ctx, nodes[1:2])
	require.NoError(t, err)

	report, err := d.UploadEdges(ctx, edges[:1])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEndpointMissing)
	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, UploadReport{Total: 1, Failed: 1}, report)

	stats := d.Store().(*EmbeddedStore).Graph().GetStatistics()
	assert.Equal(t, uint64(0), stats.EdgeCount)
}

func TestUploadGraphAndQuery(t *testing.T) {
	d := newEmbeddedDriver(t)
	ctx := context.Background()
	g, _, _ := sampleGraph(t)

	report, err := d.UploadGraph(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Nodes.Inserted)
	assert.Equal(t, 4, report.Edges.Inserted)

	doc, err := d.QueryNode(ctx, model.Document, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Just do it @Nike", doc.Title)
	assert.Equal(t, "tweet", doc.DocType)
	assert.True(t, doc.DateProcessed.Equal(posted))
	assert.Equal(t, "en", doc.Attrs["lang"])

	_, err = d.QueryNode(ctx, model.Entity, "t1")
	assert.ErrorIs(t, err, ErrNotFound)

	nodes, err := d.QueryNodesByKey(ctx, []string{"t1", "1059194370", "missing"})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "1059194370", nodes[0].Key)
	assert.Equal(t, model.Source, nodes[0].Type)
	assert.Equal(t, "twitter_account", nodes[0].SourceType)
	assert.Equal(t, "t1", nodes[1].Key)
}

func TestStructuredQueryWithTimeRange(t *testing.T) {
	d := newEmbeddedDriver(t)
	ctx := context.Background()
	g, _, _ := sampleGraph(t)
	_, err := d.UploadGraph(ctx, g)
	require.NoError(t, err)

	start := posted.Add(30 * time.Minute)
	end := posted.Add(24 * time.Hour)
	where, err := FormatTimeRange("r.time", &start, &end)
	require.NoError(t, err)

	records, err := d.StructuredQuery(ctx, StructuredQuery{
		Match:  "(s:source)-[r]->(x)",
		Where:  where,
		Return: "r",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	models, err := RecordToModels(records[0])
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, EdgeTuple{Label: model.Interacts, SourceKey: "415859364", DestKey: "1059194370"}, models[0])

	_, err = d.StructuredQuery(ctx, StructuredQuery{Return: "n"})
	assert.Error(t, err, "Match is required")
}

func TestRawQueryRejectsWrites(t *testing.T) {
	d := newEmbeddedDriver(t)

	_, err := d.RawQuery(context.Background(), "CREATE (n:entity {key: 'x'})", nil)
	assert.ErrorIs(t, err, ErrReadOnly)

	records, err := d.RawQuery(context.Background(), "MATCH (n) RETURN count(n) AS n", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	n, _ := records[0].Get("n")
	assert.Equal(t, int64(0), n)
}

func TestFormatTimeRange(t *testing.T) {
	t1 := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2021, 3, 2, 0, 0, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name       string
		start, end *time.Time
		want       string
		wantErr    bool
	}{
		{name: "no bounds", want: ""},
		{name: "start only", start: &t1, want: "r.time >= datetime('2021-03-01T00:00:00Z')"},
		{name: "end only", end: &t2, want: "r.time <= datetime('2021-03-01T23:00:00Z')"},
		{name: "both", start: &t1, end: &t2,
			want: "r.time >= datetime('2021-03-01T00:00:00Z') AND r.time <= datetime('2021-03-01T23:00:00Z')"},
		{name: "reversed", start: &t2, end: &t1, wantErr: true},
		{name: "empty", start: &t1, end: &t1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTimeRange("r.time", tt.start, tt.end)
			if tt.wantErr {
				var rangeErr *RangeError
				require.ErrorAs(t, err, &rangeErr)
				assert.ErrorIs(t, err, ErrRange)
				assert.Equal(t, "r.time", rangeErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenUnavailableBackend(t *testing.T) {
	d, err := Open(context.Background(), Config{Backend: "bogus"})
	require.NotNil(t, d)

	var unavailable *StoreUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, "bogus", unavailable.Backend)

	ctx := context.Background()
	_, err = d.UploadNodes(ctx, nil)
	assert.ErrorIs(t, err, ErrDriverNotInitialized)
	_, err = d.QueryNode(ctx, model.Entity, "x")
	assert.ErrorIs(t, err, ErrDriverNotInitialized)
	_, err = d.RawQuery(ctx, "MATCH (n) RETURN n", nil)
	assert.ErrorIs(t, err, ErrDriverNotInitialized)
	assert.ErrorIs(t, d.EnsureConstraints(ctx), ErrDriverNotInitialized)
	assert.NoError(t, d.Close(ctx))
}

func TestOpenEmbeddedOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	_, nodes, _ := sampleGraph(t)

	d, err := Open(ctx, Config{Backend: BackendEmbedded, DataDir: dir})
	require.NoError(t, err)
	_, err = d.UploadNodes(ctx, nodes)
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx))

	d, err = Open(ctx, Config{DataDir: dir})
	require.NoError(t, err)
	defer d.Close(ctx)
	report, err := d.UploadNodes(ctx, nodes)
	require.NoError(t, err)
	assert.Equal(t, len(nodes), report.Skipped, "snapshot should survive a reopen")
}

func TestRecordToModels(t *testing.T) {
	rec := Record{
		Keys: []string{"n", "count", "r", "list"},
		Values: []any{
			NodeRecord{ID: "1", Labels: []string{"entity"}, Props: map[string]any{"key": "e", "title": "Nike", "type": "entity"}},
			int64(3),
			RelationshipRecord{ID: "2", Type: "involved", Props: map[string]any{"source_key": "e", "dest_key": "a"}},
			[]any{NodeRecord{ID: "3", Labels: []string{"action"}, Props: map[string]any{"key": "a", "title": "run"}}},
		},
	}

	models, err := RecordToModels(rec)
	require.NoError(t, err)
	require.Len(t, models, 3)

	n, ok := models[0].(*model.Node)
	require.True(t, ok)
	assert.Equal(t, model.Entity, n.Type)
	assert.Equal(t, EdgeTuple{Label: model.Involved, SourceKey: "e", DestKey: "a"}, models[1])
	action, ok := models[2].(*model.Node)
	require.True(t, ok)
	assert.Equal(t, model.Action, action.Type, "labels are the fallback discriminator")
}

func TestRecordToModelsUnknownTypes(t *testing.T) {
	tests := []Record{
		{Keys: []string{"n"}, Values: []any{NodeRecord{Props: map[string]any{"key": "x", "type": "gizmo"}}}},
		{Keys: []string{"r"}, Values: []any{RelationshipRecord{Type: "likes"}}},
	}
	for _, rec := range tests {
		_, err := RecordToModels(rec)
		var unrecognized *model.UnrecognizedTypeError
		assert.ErrorAs(t, err, &unrecognized)
		assert.True(t, errors.Is(err, model.ErrUnrecognizedType))
	}
}

func TestPing(t *testing.T) {
	d := newEmbeddedDriver(t)
	assert.NoError(t, d.Ping(context.Background()))

	var unopened *Driver
	assert.ErrorIs(t, unopened.Ping(context.Background()), ErrDriverNotInitialized)
}
