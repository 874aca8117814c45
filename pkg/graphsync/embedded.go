package graphsync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/metrics"
	"github.com/Go-Global/storygraph-v0/pkg/query"
	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// EmbeddedStore is a Store over the in-process graph engine
type EmbeddedStore struct {
	graph  *storage.GraphStorage
	exec   *query.Executor
	logger logging.Logger
	owned  bool
}

// EmbeddedConfig configures OpenEmbedded. An empty DataDir keeps the graph
// in memory only.
type EmbeddedConfig struct {
	DataDir string
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// OpenEmbedded opens (or creates) an embedded store. Close snapshots it.
func OpenEmbedded(cfg EmbeddedConfig) (*EmbeddedStore, error) {
	graph, err := storage.NewGraphStorageWithConfig(storage.StorageConfig{
		DataDir: cfg.DataDir,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	s := NewEmbeddedStore(graph, cfg.Logger)
	s.owned = true
	return s, nil
}

// NewEmbeddedStore wraps an open graph. Closing the store leaves the graph
// open.
func NewEmbeddedStore(graph *storage.GraphStorage, logger logging.Logger) *EmbeddedStore {
	logger = logging.OrNop(logger)
	return &EmbeddedStore{
		graph:  graph,
		exec:   query.NewExecutor(graph, query.WithLogger(logger)),
		logger: logger.With(logging.Component("embedded-store")),
	}
}

// Graph returns the underlying graph
func (s *EmbeddedStore) Graph() *storage.GraphStorage {
	return s.graph
}

// Read runs a query that must not write
func (s *EmbeddedStore) Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	q, err := query.Parse(cypher)
	if err != nil {
		return nil, err
	}
	if !q.ReadOnly() {
		return nil, ErrReadOnly
	}
	res, err := s.exec.Run(ctx, s.graph, q, params)
	if err != nil {
		return nil, err
	}
	return toRecords(res), nil
}

// Write runs fn in a storage transaction; writes are undone on error
func (s *EmbeddedStore) Write(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := s.graph.BeginTransaction()
	if err := fn(ctx, &embeddedTx{exec: s.exec, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", logging.Int64("tx", int64(tx.ID())), logging.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

// EnsureUniqueKey creates a unique index on (label, property)
func (s *EmbeddedStore) EnsureUniqueKey(_ context.Context, label, property string) error {
	if err := s.graph.CreateUniqueIndex(label, property); err != nil {
		return duplicateOr(err)
	}
	return nil
}

// Close snapshots and closes the graph when the store opened it
func (s *EmbeddedStore) Close(context.Context) error {
	if !s.owned {
		return nil
	}
	return s.graph.Close()
}

type embeddedTx struct {
	exec *query.Executor
	tx   *storage.Transaction
}

func (t *embeddedTx) Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	res, err := t.exec.ExecuteWith(ctx, t.tx, cypher, params)
	if err != nil {
		return nil, duplicateOr(err)
	}
	return toRecords(res), nil
}

// duplicateOr tags uniqueness violations with ErrDuplicate
func duplicateOr(err error) error {
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

func toRecords(res *query.Result) []Record {
	records := make([]Record, len(res.Rows))
	for i, row := range res.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = embeddedValue(v)
		}
		records[i] = Record{Keys: res.Columns, Values: values}
	}
	return records
}

func embeddedValue(v any) any {
	switch x := v.(type) {
	case *storage.Node:
		return NodeRecord{
			ID:     strconv.FormatUint(x.ID, 10),
			Labels: append([]string(nil), x.Labels...),
			Props:  x.Properties,
		}
	case *storage.Edge:
		return RelationshipRecord{
			ID:      strconv.FormatUint(x.ID, 10),
			Type:    x.Type,
			StartID: strconv.FormatUint(x.FromNodeID, 10),
			EndID:   strconv.FormatUint(x.ToNodeID, 10),
			Props:   x.Properties,
		}
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = embeddedValue(el)
		}
		return out
	}
	return v
}
