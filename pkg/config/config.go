// Package config loads storygraph settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Go-Global/storygraph-v0/pkg/export"
	"github.com/Go-Global/storygraph-v0/pkg/graphsync"
	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/validation"
	"github.com/Go-Global/storygraph-v0/pkg/visualization"
)

// Config is the complete storygraph configuration
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	NLP      NLPConfig      `yaml:"nlp"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LogConfig selects the log level and encoding
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the graph store. An empty Backend means neo4j when
// a URI is set and the embedded store otherwise.
type StoreConfig struct {
	Backend      string        `yaml:"backend"`
	URI          string        `yaml:"uri"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"database"`
	DataDir      string        `yaml:"data_dir"`
	MaxPool      int           `yaml:"max_pool"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// NLPConfig locates the parsing service
type NLPConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PipelineConfig tunes extraction
type PipelineConfig struct {
	Concurrency   int  `yaml:"concurrency"`
	SentenceOrder bool `yaml:"sentence_order"`
	LinkDocument  bool `yaml:"link_document"`
	Raw           bool `yaml:"raw"`
	ContextRadius int  `yaml:"context_radius"`
}

// OutputConfig controls exported artifacts. With S3 set, artifacts go to
// the bucket instead of Dir.
type OutputConfig struct {
	Dir     string    `yaml:"dir"`
	Formats []string  `yaml:"formats"`
	Layout  string    `yaml:"layout"`
	Seed    int64     `yaml:"seed"`
	S3      *S3Config `yaml:"s3"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: string(logging.FormatConsole)},
		Store: StoreConfig{
			MaxPool:      10,
			QueryTimeout: graphsync.DefaultQueryTimeout,
		},
		NLP: NLPConfig{
			Endpoint: "http://localhost:8080/parse",
			Timeout:  30 * time.Second,
		},
		Pipeline: PipelineConfig{Concurrency: 4, LinkDocument: true},
		Output: OutputConfig{
			Dir:     "./output",
			Formats: []string{string(export.FormatGraphML), string(export.FormatHTML)},
			Layout:  visualization.LayoutForce,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; envFile
// an optional .env file whose absence is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decodeYAML(bytes.NewReader(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.resolve()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML decodes strictly: unknown keys are errors
func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// resolve fills settings derived from others
func (c *Config) resolve() {
	if c.Store.Backend == "" {
		if c.Store.URI != "" {
			c.Store.Backend = graphsync.BackendNeo4j
		} else {
			c.Store.Backend = graphsync.BackendEmbedded
		}
	}
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("config")

	cv.OneOf("log.level", c.Log.Level, []string{"debug", "info", "warn", "warning", "error"}).
		OneOf("log.format", c.Log.Format, []string{string(logging.FormatJSON), string(logging.FormatConsole)}).
		OneOf("store.backend", c.Store.Backend, []string{"", graphsync.BackendEmbedded, graphsync.BackendNeo4j}).
		When(c.Store.Backend == graphsync.BackendNeo4j, func(cv *validation.ConfigValidator) {
			cv.Required("store.uri", c.Store.URI).
				Positive("store.max_pool", c.Store.MaxPool)
		}).
		MinDuration("store.query_timeout", c.Store.QueryTimeout, time.Second).
		MinDuration("nlp.timeout", c.NLP.Timeout, time.Second).
		Positive("pipeline.concurrency", c.Pipeline.Concurrency).
		Custom("pipeline.context_radius", func() error {
			if c.Pipeline.ContextRadius < 0 {
				return fmt.Errorf("must not be negative, got %d", c.Pipeline.ContextRadius)
			}
			return nil
		}).
		OneOf("output.layout", c.Output.Layout, []string{
			visualization.LayoutForce, visualization.LayoutHierarchical, visualization.LayoutCircular,
		}).
		Custom("output.formats", func() error {
			_, err := c.ExportFormats()
			return err
		}).
		When(c.Output.S3 != nil, func(cv *validation.ConfigValidator) {
			cv.Custom("output.s3", func() error { return validation.Struct(c.Output.S3) })
		}).
		When(c.Output.S3 == nil, func(cv *validation.ConfigValidator) {
			cv.Required("output.dir", c.Output.Dir)
		})

	return cv.Validate()
}

// ExportFormats parses Output.Formats
func (c *Config) ExportFormats() ([]export.Format, error) {
	formats := make([]export.Format, 0, len(c.Output.Formats))
	for _, name := range c.Output.Formats {
		f, err := export.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Logger builds the configured logger writing to w
func (c *Config) Logger(w io.Writer) logging.Logger {
	return logging.New(logging.Format(c.Log.Format), w, logging.ParseLevel(c.Log.Level))
}

// GraphsyncConfig translates the store section for graphsync.Open
func (c *Config) GraphsyncConfig(logger logging.Logger) graphsync.Config {
	return graphsync.Config{
		Backend:      c.Store.Backend,
		URI:          c.Store.URI,
		User:         c.Store.User,
		Password:     c.Store.Password,
		Database:     c.Store.Database,
		DataDir:      c.Store.DataDir,
		MaxPool:      c.Store.MaxPool,
		QueryTimeout: c.Store.QueryTimeout,
		Logger:       logger,
	}
}

// S3Config is the bucket section of the output config
type S3Config = export.S3Config
