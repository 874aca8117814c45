package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// newTestGraph builds a user who authored a tweet that mentions a brand,
// plus a direct interaction between the user and the brand.
func newTestGraph(t *testing.T) (*storage.GraphStorage, *Executor) {
	t.Helper()

	gs, err := storage.NewGraphStorage("")
	if err != nil {
		t.Fatalf("NewGraphStorage failed: %v", err)
	}
	t.Cleanup(func() { gs.Close() })

	mustNode := func(labels []string, props map[string]any) *storage.Node {
		n, err := gs.CreateNode(labels, props)
		if err != nil {
			t.Fatalf("CreateNode failed: %v", err)
		}
		return n
	}
	mustEdge := func(from, to *storage.Node, typ string, props map[string]any) {
		if _, err := gs.CreateEdge(from.ID, to.ID, typ, props); err != nil {
			t.Fatalf("CreateEdge failed: %v", err)
		}
	}

	posted := time.Date(2020, 4, 17, 12, 0, 0, 0, time.UTC)
	nike := mustNode([]string{"Source"}, map[string]any{"key": "1059194370", "title": "Nike"})
	user := mustNode([]string{"Source"}, map[string]any{"key": "415859364", "title": "Jordan"})
	other := mustNode([]string{"Source"}, map[string]any{"key": "99", "title": "Casey"})
	tweet := mustNode([]string{"Document"}, map[string]any{"key": "t1", "title": "Just do it @Nike", "likes": int64(12)})

	mustEdge(user, tweet, "Authored", map[string]any{"time": posted})
	mustEdge(tweet, nike, "References", map[string]any{"time": posted})
	mustEdge(user, nike, "Interacts", map[string]any{"time": posted, "interaction_type": "mention"})
	mustEdge(other, user, "Interacts", map[string]any{"time": posted.Add(time.Hour), "interaction_type": "reply"})

	return gs, NewExecutor(gs)
}

func column(t *testing.T, res *Result, name string) []any {
	t.Helper()
	idx := -1
	for i, c := range res.Columns {
		if c == name {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("column %q not in %v", name, res.Columns)
	}
	out := make([]any, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = row[idx]
	}
	return out
}

func TestExecuteLookupByKey(t *testing.T) {
	_, exec := newTestGraph(t)

	res, err := exec.Execute(context.Background(),
		"MATCH (n:Source {key: $key}) RETURN n LIMIT 1", map[string]any{"key": "1059194370"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	n, ok := res.Record(0)["n"].(*storage.Node)
	if !ok {
		t.Fatalf("expected *storage.Node, got %T", res.Record(0)["n"])
	}
	if n.Properties["title"] != "Nike" {
		t.Errorf("title = %v, want Nike", n.Properties["title"])
	}

	res, err = exec.Execute(context.Background(),
		"MATCH (n:Document {key: $key}) RETURN n", map[string]any{"key": "1059194370"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("label mismatch should return no rows, got %d", len(res.Rows))
	}
}

func TestExecuteTraversalDirections(t *testing.T) {
	_, exec := newTestGraph(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []any
	}{
		{"outgoing", "MATCH (s:Source {key: '415859364'})-[:Interacts]->(d) RETURN d.key AS k ORDER BY k", []any{"1059194370"}},
		{"incoming", "MATCH (s:Source {key: '415859364'})<-[:Interacts]-(d) RETURN d.key AS k ORDER BY k", []any{"99"}},
		{"both", "MATCH (s:Source {key: '415859364'})-[:Interacts]-(d) RETURN d.key AS k ORDER BY k", []any{"1059194370", "99"}},
		{"any type", "MATCH (s:Source {key: '415859364'})-->(d) RETURN d.key AS k ORDER BY k", []any{"1059194370", "t1"}},
		{"two hops", "MATCH (s:Source)-[:Authored]->(doc:Document)-[:References]->(b:Source) RETURN b.title AS k", []any{"Nike"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := exec.Execute(ctx, tt.query, nil)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			got := column(t, res, "k")
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("row %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExecuteWhere(t *testing.T) {
	_, exec := newTestGraph(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		params map[string]any
		want   int
	}{
		{"in list param", "MATCH (n) WHERE n.key IN $keys RETURN n", map[string]any{"keys": []string{"99", "t1", "missing"}}, 2},
		{"missing property is null", "MATCH (n) WHERE n.likes > 5 RETURN n", nil, 1},
		{"is null", "MATCH (n:Source) WHERE n.likes IS NULL RETURN n", nil, 3},
		{"contains", "MATCH (n) WHERE n.title CONTAINS '@Nike' RETURN n", nil, 1},
		{"starts with case fold", "MATCH (n) WHERE toLower(n.title) STARTS WITH 'ni' RETURN n", nil, 1},
		{"not", "MATCH (n:Source) WHERE NOT n.key = '99' RETURN n", nil, 2},
		{"or", "MATCH (n) WHERE n.key = '99' OR n.key = 't1' RETURN n", nil, 2},
		{"time window", "MATCH (a)-[r:Interacts]->(b) WHERE r.time >= datetime('2020-04-17T12:30:00Z') AND r.time < datetime('2020-04-18') RETURN r", nil, 1},
		{"relationship property", "MATCH (a)-[r:Interacts {interaction_type: 'reply'}]->(b) RETURN r", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := exec.Execute(ctx, tt.query, tt.params)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if len(res.Rows) != tt.want {
				t.Errorf("got %d rows, want %d", len(res.Rows), tt.want)
			}
		})
	}
}

func TestExecuteCountWithoutMatches(t *testing.T) {
	_, exec := newTestGraph(t)

	res, err := exec.Execute(context.Background(),
		"MATCH (s:Source {key: $source_key})-[r:Authored]->(d:Source {key: $dest_key}) RETURN count(r) AS n",
		map[string]any{"source_key": "415859364", "dest_key": "1059194370"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("count over nothing should return one row, got %d", len(res.Rows))
	}
	if got := res.Record(0)["n"]; got != int64(0) {
		t.Errorf("count = %v, want 0", got)
	}
}

func TestExecuteGroupedCount(t *testing.T) {
	_, exec := newTestGraph(t)

	res, err := exec.Execute(context.Background(),
		"MATCH (s:Source)-[r]->(x) RETURN s.key AS source, count(*) AS total, count(DISTINCT type(r)) AS kinds ORDER BY total DESC, source", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := [][]any{
		{"415859364", int64(2), int64(2)},
		{"99", int64(1), int64(1)},
	}
	if len(res.Rows) != len(want) {
		t.Fatalf("got %v, want %v", res.Rows, want)
	}
	for i := range want {
		for j := range want[i] {
			if res.Rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %v, want %v", i, j, res.Rows[i][j], want[i][j])
			}
		}
	}
}

func TestExecuteDistinctSkipLimit(t *testing.T) {
	_, exec := newTestGraph(t)
	ctx := context.Background()

	res, err := exec.Execute(ctx, "MATCH (n)-[r]->() RETURN DISTINCT type(r) AS t ORDER BY t", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	got := column(t, res, "t")
	want := []any{"Authored", "Interacts", "References"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}

	res, err = exec.Execute(ctx, "MATCH (n) RETURN n.key AS k ORDER BY k SKIP 1 LIMIT $n", map[string]any{"n": 2})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	got = column(t, res, "k")
	if len(got) != 2 || got[0] != "415859364" || got[1] != "99" {
		t.Errorf("paged keys = %v", got)
	}

	if _, err := exec.Execute(ctx, "MATCH (n) RETURN n LIMIT -1", nil); !errors.Is(err, ErrType) {
		t.Errorf("negative LIMIT should be a type error, got %v", err)
	}
}

func TestExecuteCreate(t *testing.T) {
	gs, exec := newTestGraph(t)
	ctx := context.Background()

	res, err := exec.Execute(ctx, "CREATE (n:Document $props) RETURN n.key AS key",
		map[string]any{"props": map[string]any{"key": "t2", "title": "second", "skipped": nil}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Stats.NodesCreated != 1 {
		t.Errorf("NodesCreated = %d, want 1", res.Stats.NodesCreated)
	}
	if got := res.Record(0)["key"]; got != "t2" {
		t.Errorf("key = %v, want t2", got)
	}

	res, err = exec.Execute(ctx,
		"MATCH (s:Source {key: $source_key}), (d:Document {key: $dest_key}) CREATE (s)-[r:Authored $props]->(d) RETURN count(r) AS created",
		map[string]any{"source_key": "99", "dest_key": "t2", "props": map[string]any{"time": time.Unix(0, 0).UTC()}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := res.Record(0)["created"]; got != int64(1) {
		t.Errorf("created = %v, want 1", got)
	}
	if res.Stats.RelationshipsCreated != 1 {
		t.Errorf("RelationshipsCreated = %d, want 1", res.Stats.RelationshipsCreated)
	}
	if got := gs.GetStatistics().EdgeCount; got != 5 {
		t.Errorf("EdgeCount = %d, want 5", got)
	}

	res, err = exec.Execute(ctx,
		"MATCH (s:Source {key: $source_key}), (d:Document {key: $dest_key}) CREATE (s)-[r:Authored]->(d) RETURN count(r) AS created",
		map[string]any{"source_key": "99", "dest_key": "nope"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := res.Record(0)["created"]; got != int64(0) {
		t.Errorf("created with a missing endpoint = %v, want 0", got)
	}
}

func TestExecuteWithTransactionRollback(t *testing.T) {
	gs, exec := newTestGraph(t)
	before := gs.GetStatistics()

	tx := gs.BeginTransaction()
	_, err := exec.ExecuteWith(context.Background(), tx,
		"CREATE (a:Source {key: 'x'})-[:Interacts]->(b:Source {key: 'y'})", nil)
	if err != nil {
		t.Fatalf("ExecuteWith failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	after := gs.GetStatistics()
	if after.NodeCount != before.NodeCount || after.EdgeCount != before.EdgeCount {
		t.Errorf("rollback left %d nodes / %d edges, want %d / %d",
			after.NodeCount, after.EdgeCount, before.NodeCount, before.EdgeCount)
	}
}

func TestExecuteFunctions(t *testing.T) {
	_, exec := newTestGraph(t)
	exec.now = func() time.Time { return time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := exec.Execute(context.Background(),
		"MATCH (n:Document) RETURN labels(n) AS l, size(n.title) AS s, coalesce(n.missing, 'dflt') AS c, toString(n.likes) AS str, date() AS today, 7 % 4 + 2 * 3 AS math", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	rec := res.Record(0)

	labels, ok := rec["l"].([]any)
	if !ok || len(labels) != 1 || labels[0] != "Document" {
		t.Errorf("labels = %v", rec["l"])
	}
	if rec["s"] != int64(16) {
		t.Errorf("size = %v, want 16", rec["s"])
	}
	if rec["c"] != "dflt" {
		t.Errorf("coalesce = %v", rec["c"])
	}
	if rec["str"] != "12" {
		t.Errorf("toString = %v", rec["str"])
	}
	if today, ok := rec["today"].(time.Time); !ok || !today.Equal(time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date() = %v", rec["today"])
	}
	if rec["math"] != int64(9) {
		t.Errorf("7 %% 4 + 2 * 3 = %v, want 9", rec["math"])
	}
}

func TestExecuteErrors(t *testing.T) {
	_, exec := newTestGraph(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		params map[string]any
		want   error
	}{
		{"missing param", "MATCH (n {key: $key}) RETURN n", nil, ErrMissingParam},
		{"unbound variable", "MATCH (n) RETURN m", nil, ErrUnboundVariable},
		{"unknown function", "RETURN nope(1)", nil, ErrUnknownFunction},
		{"non-boolean where", "MATCH (n) WHERE n.key RETURN n", nil, ErrType},
		{"aggregate in where", "MATCH (n) WHERE count(n) > 1 RETURN n", nil, ErrType},
		{"syntax", "MATCH (n RETURN n", nil, ErrSyntax},
		{"undirected create", "CREATE (a)-[:T]-(b)", nil, ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec.Execute(ctx, tt.query, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExecuteHonoursCancellation(t *testing.T) {
	_, exec := newTestGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exec.Execute(ctx, "MATCH (n) RETURN n", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
