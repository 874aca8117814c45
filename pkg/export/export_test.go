package export

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

func sampleGraph(t *testing.T) *storygraph.StoryGraph {
	t.Helper()
	doc, err := model.NewDocument("d", "Just do it", "tweet", time.Date(2020, 4, 17, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	ent, err := model.NewEntity("d/0", "Nike", map[string]any{"pos": "PROPN", "ents": []string{"ORG"}, "idx": 0})
	require.NoError(t, err)
	act, err := model.NewAction("d/1", "do", map[string]any{"pos": "VERB", "idx": 2})
	require.NoError(t, err)

	contains, err := model.NewEdge(model.Contains, doc.Ref(), ent.Ref())
	require.NoError(t, err)
	involved, err := model.NewEdge(model.Involved, ent.Ref(), act.Ref(), model.WithAttrs(map[string]any{"dep": "nsubj"}))
	require.NoError(t, err)
	back, err := model.NewEdge(model.Involved, act.Ref(), ent.Ref())
	require.NoError(t, err)
	loop, err := model.NewEdge(model.Sequence, act.Ref(), act.Ref())
	require.NoError(t, err)

	g := storygraph.New("Nike launch")
	require.NoError(t, g.Load([]*model.Node{doc, ent, act}, []*model.Edge{contains, involved, back, loop}))
	return g
}

func TestWriteGraphML(t *testing.T) {
	v := sampleGraph(t).View()

	var buf bytes.Buffer
	require.NoError(t, WriteGraphML(&buf, v))

	var doc graphMLDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "directed", doc.Graph.EdgeDefault)
	assert.Len(t, doc.Graph.Nodes, 3)
	assert.Len(t, doc.Graph.Edges, 4)

	keys := map[string]graphMLKey{}
	for _, k := range doc.Keys {
		keys[k.ID] = k
	}
	assert.Equal(t, "long", keys["n_idx"].AttrType)
	assert.Equal(t, "string", keys["n_pos"].AttrType)
	assert.Equal(t, "node", keys["n_title"].For)
	assert.Equal(t, "edge", keys["e_label"].For)
	assert.Equal(t, "e_dep", keys["e_dep"].ID)

	values := func(data []graphMLData) map[string]string {
		out := map[string]string{}
		for _, d := range data {
			out[d.Key] = d.Value
		}
		return out
	}
	// nodes come in key order: d, d/0, d/1
	entity := values(doc.Graph.Nodes[1].Data)
	assert.Equal(t, "Nike", entity["n_title"])
	assert.Equal(t, "entity", entity["n_type"])
	assert.Equal(t, "ORG", entity["n_ents"])

	for _, e := range doc.Graph.Edges {
		assert.NotEmpty(t, values(e.Data)["e_label"], "every edge is labelled")
	}
}

func TestGraphMLValueTypes(t *testing.T) {
	tests := []struct {
		in       any
		typ, out string
	}{
		{"x", "string", "x"},
		{true, "boolean", "true"},
		{int64(3), "long", "3"},
		{1.5, "double", "1.5"},
		{time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC), "string", "2021-01-02T03:04:05Z"},
		{[]int64{1, 2}, "string", "1,2"},
	}
	for _, tt := range tests {
		typ, out := graphMLValue(tt.in)
		assert.Equal(t, tt.typ, typ)
		assert.Equal(t, tt.out, out)
	}
}

func TestWriteDOT(t *testing.T) {
	v := sampleGraph(t).View()

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, v))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph"), out)
	assert.Equal(t, len(v.Edges), strings.Count(out, "->"), "parallel edges and self-loops are kept")
	assert.Contains(t, out, "label=contains")
	assert.Contains(t, out, "label=sequence")
	assert.Contains(t, out, `"d/0"`)
}

func TestJSONRoundTrip(t *testing.T) {
	g := sampleGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, g))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Title, got.Title)
	require.Equal(t, g.NodeCount(), got.NodeCount())
	require.Equal(t, g.EdgeCount(), got.EdgeCount())

	doc, ok := got.Node("d")
	require.True(t, ok)
	assert.Equal(t, model.Document, doc.Type)
	assert.Equal(t, "tweet", doc.DocType)
	assert.True(t, doc.DateProcessed.Equal(time.Date(2020, 4, 17, 0, 0, 0, 0, time.UTC)))

	ent, ok := got.Node("d/0")
	require.True(t, ok)
	assert.Equal(t, int64(0), ent.Attrs["idx"])
	assert.Equal(t, []string{"ORG"}, ent.Attrs["ents"])

	for i, e := range got.Edges() {
		want := g.Edges()[i]
		assert.Equal(t, want.Key(), e.Key())
		assert.True(t, want.Time().Equal(e.Time()))
	}
}

func TestReadJSONRejectsUnknownTypes(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"title":"x","nodes":[{"key":"a","title":"a","type":"gizmo"}],"edges":[]}`))
	assert.ErrorIs(t, err, model.ErrUnrecognizedType)

	_, err = ReadJSON(strings.NewReader(`{"nodes":[`))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"Nike launch":    "Nike_launch",
		"../etc/passwd":  "etc_passwd",
		"":               "graph",
		"tweets 2020-04": "tweets_2020-04",
	}
	for in, want := range tests {
		assert.Equal(t, want, FileName(in), in)
	}
}

func TestExportToFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := NewExporter(NewFileSink(dir))

	locations, err := e.Export(context.Background(), sampleGraph(t))
	require.NoError(t, err)
	require.Len(t, locations, len(Formats))

	for _, name := range []string{"Nike_launch.xml", "Nike_launch.dot", "Nike_launch.json", "Nike_launch.html"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temporary files left behind")
}

func TestFileSinkRejectsPaths(t *testing.T) {
	_, err := NewFileSink(t.TempDir()).Put(context.Background(), "../x.xml", "", nil)
	assert.Error(t, err)
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestExportToS3Sink(t *testing.T) {
	client := &fakeS3{}
	e := NewExporter(NewS3Sink(client, "stories", "runs/1"))

	locations, err := e.Export(context.Background(), sampleGraph(t), FormatGraphML, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s3://stories/runs/1/Nike_launch.xml",
		"s3://stories/runs/1/Nike_launch.json",
	}, locations)

	require.Len(t, client.inputs, 2)
	assert.Equal(t, "stories", *client.inputs[0].Bucket)
	assert.Equal(t, "runs/1/Nike_launch.xml", *client.inputs[0].Key)
	assert.Equal(t, "application/xml", *client.inputs[0].ContentType)
	assert.Contains(t, string(client.bodies[0]), "<graphml")
}

func TestExportS3Failure(t *testing.T) {
	denied := errors.New("access denied")
	e := NewExporter(NewS3Sink(&fakeS3{err: denied}, "stories", ""))

	locations, err := e.Export(context.Background(), sampleGraph(t), FormatJSON)
	assert.ErrorIs(t, err, denied)
	assert.Empty(t, locations)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("GraphML")
	require.NoError(t, err)
	assert.Equal(t, FormatGraphML, f)

	_, err = ParseFormat("png")
	assert.Error(t, err)
}
