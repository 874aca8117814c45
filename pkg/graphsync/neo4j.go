package graphsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/validation"
)

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Neo4jConfig holds bolt connection settings
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
	MaxPool  int
	Logger   logging.Logger
}

// Neo4jStore is a Store backed by a Neo4j server
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   logging.Logger
}

// OpenNeo4j connects and verifies connectivity
func OpenNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxPool > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPool
			}
		})
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return &Neo4jStore{
		driver:   driver,
		database: cfg.Database,
		logger:   logging.OrNop(cfg.Logger).With(logging.Component("neo4j-store")),
	}, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// Read runs a query in a read transaction
func (s *Neo4jStore) Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return runNeo4j(ctx, tx, cypher, params)
	})
	if err != nil {
		return nil, duplicateOrNeo4j(err)
	}
	return out.([]Record), nil
}

// Write runs fn in a managed write transaction. The driver may retry fn on
// transient errors, so fn must be safe to repeat.
func (s *Neo4jStore) Write(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(ctx, neo4jTx{tx: tx})
	})
	return duplicateOrNeo4j(err)
}

// EnsureUniqueKey creates a uniqueness constraint if it is missing
func (s *Neo4jStore) EnsureUniqueKey(ctx context.Context, label, property string) error {
	if err := validation.ValidateIdentifier(label); err != nil {
		return err
	}
	if err := validation.ValidateIdentifier(property); err != nil {
		return err
	}
	name := fmt.Sprintf("storygraph_%s_%s_unique", strings.ToLower(label), strings.ToLower(property))
	cypher := fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE", name, label, property)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// Close closes the driver
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (t neo4jTx) Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	records, err := runNeo4j(ctx, t.tx, cypher, params)
	return records, duplicateOrNeo4j(err)
}

func runNeo4j(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]Record, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	rows, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(rows))
	for i, row := range rows {
		values := make([]any, len(row.Values))
		for j, v := range row.Values {
			values[j] = neo4jValue(v)
		}
		records[i] = Record{Keys: row.Keys, Values: values}
	}
	return records, nil
}

func duplicateOrNeo4j(err error) error {
	if err == nil || errors.Is(err, ErrDuplicate) {
		return err
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolationCode {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

// neo4jValue converts driver values to the Record value set. Temporal
// types without a zone are read as UTC.
func neo4jValue(v any) any {
	switch x := v.(type) {
	case dbtype.Node:
		return NodeRecord{ID: x.ElementId, Labels: x.Labels, Props: neo4jProps(x.Props)}
	case dbtype.Relationship:
		return RelationshipRecord{
			ID:      x.ElementId,
			Type:    x.Type,
			StartID: x.StartElementId,
			EndID:   x.EndElementId,
			Props:   neo4jProps(x.Props),
		}
	case dbtype.Date:
		return x.Time()
	case dbtype.LocalDateTime:
		return x.Time()
	case dbtype.Duration:
		return x.String()
	case time.Time:
		return x
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = neo4jValue(el)
		}
		return out
	case map[string]any:
		return neo4jProps(x)
	}
	return v
}

func neo4jProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = neo4jValue(v)
	}
	return out
}
