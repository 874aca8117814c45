// Package graphsync projects story graphs onto a persistent graph store,
// keyed by natural key, and reads them back.
package graphsync

import (
	"context"
	"errors"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/metrics"
)

// Backend names accepted by Open
const (
	BackendEmbedded = "embedded"
	BackendNeo4j    = "neo4j"
)

// DefaultQueryTimeout bounds every store call when no timeout is configured
const DefaultQueryTimeout = 30 * time.Second

// Config selects and configures the store behind a Driver
type Config struct {
	Backend      string
	URI          string
	User         string
	Password     string
	Database     string
	DataDir      string
	MaxPool      int
	QueryTimeout time.Duration
	Logger       logging.Logger
	Metrics      *metrics.Registry
}

// Driver synchronizes story graphs with a Store
type Driver struct {
	store   Store
	initErr error
	logger  logging.Logger
	metrics *metrics.Registry
	timeout time.Duration
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the driver logger
func WithLogger(l logging.Logger) Option {
	return func(d *Driver) { d.logger = logging.OrNop(l) }
}

// WithMetrics records sync and store metrics in r
func WithMetrics(r *metrics.Registry) Option {
	return func(d *Driver) { d.metrics = r }
}

// WithTimeout bounds every store call
func WithTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDriver wraps an open store
func NewDriver(store Store, opts ...Option) *Driver {
	d := &Driver{
		store:   store,
		logger:  logging.NewNopLogger(),
		timeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(logging.Component("graphsync"))
	return d
}

// Open connects to the configured backend. When the backend cannot be
// opened it still returns a Driver, together with a *StoreUnavailableError;
// every call on that Driver fails with ErrDriverNotInitialized.
func Open(ctx context.Context, cfg Config) (*Driver, error) {
	opts := []Option{WithLogger(cfg.Logger), WithMetrics(cfg.Metrics), WithTimeout(cfg.QueryTimeout)}

	var store Store
	var err error
	switch cfg.Backend {
	case BackendNeo4j:
		connectCtx, cancel := context.WithTimeout(ctx, timeoutOr(cfg.QueryTimeout))
		store, err = OpenNeo4j(connectCtx, Neo4jConfig{
			URI:      cfg.URI,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Database,
			MaxPool:  cfg.MaxPool,
			Logger:   cfg.Logger,
		})
		cancel()
	case BackendEmbedded, "":
		cfg.Backend = BackendEmbedded
		store, err = OpenEmbedded(EmbeddedConfig{DataDir: cfg.DataDir, Logger: cfg.Logger, Metrics: cfg.Metrics})
	default:
		err = errors.New("unknown backend " + cfg.Backend)
	}

	if err != nil {
		d := NewDriver(nil, opts...)
		d.initErr = &StoreUnavailableError{Backend: cfg.Backend, URI: cfg.URI, Cause: err}
		d.logger.Error("failed to open graph store",
			logging.String("backend", cfg.Backend), logging.Error(err))
		return d, d.initErr
	}
	return NewDriver(store, opts...), nil
}

func timeoutOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return DefaultQueryTimeout
}

// Store returns the backing store, or nil when the driver is not initialized
func (d *Driver) Store() Store {
	return d.store
}

// Close closes the backing store
func (d *Driver) Close(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	return d.store.Close(ctx)
}

func (d *Driver) ready() error {
	if d == nil || d.store == nil {
		return ErrDriverNotInitialized
	}
	return nil
}

// call runs one store operation under the driver timeout. Failures are
// logged, counted and returned as *StoreError.
func (d *Driver) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if d.metrics != nil {
		d.metrics.RecordStoreOperation(op, status, time.Since(start))
	}
	if err == nil {
		return nil
	}

	if !errors.Is(err, ErrDuplicate) && !errors.Is(err, ErrEndpointMissing) {
		d.logger.Error("store operation failed", logging.Operation(op), logging.Error(err))
	}
	return &StoreError{Op: op, Cause: err}
}

func (d *Driver) read(ctx context.Context, op, cypher string, params map[string]any) ([]Record, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	var records []Record
	err := d.call(ctx, op, func(ctx context.Context) error {
		var err error
		records, err = d.store.Read(ctx, cypher, params)
		return err
	})
	return records, err
}
