package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every storygraph environment variable
const EnvPrefix = "STORYGRAPH_"

// LookupFunc reads one environment variable; os.LookupEnv in production
type LookupFunc func(key string) (string, bool)

// loadDotEnv loads a .env file into the process environment without
// overriding variables that are already set
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from the environment. The LOCAL_GRAPH_*
// variables are read first so the STORYGRAPH_STORE_* ones win.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok {
				*dst = v
			}
		}
	}
	num := func(dst *int, key string) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	flag := func(dst *bool, key string) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str(&c.Log.Level, "LOG_LEVEL", EnvPrefix+"LOG_LEVEL")
	str(&c.Log.Format, EnvPrefix+"LOG_FORMAT")

	str(&c.Store.Backend, EnvPrefix+"STORE_BACKEND")
	str(&c.Store.URI, "LOCAL_GRAPH_URI", EnvPrefix+"STORE_URI")
	str(&c.Store.User, "LOCAL_GRAPH_USER", EnvPrefix+"STORE_USER")
	str(&c.Store.Password, "LOCAL_GRAPH_PWD", EnvPrefix+"STORE_PASSWORD")
	str(&c.Store.Database, EnvPrefix+"STORE_DATABASE")
	str(&c.Store.DataDir, EnvPrefix+"DATA_DIR")
	num(&c.Store.MaxPool, EnvPrefix+"STORE_MAX_POOL")
	dur(&c.Store.QueryTimeout, EnvPrefix+"STORE_QUERY_TIMEOUT")

	str(&c.NLP.Endpoint, EnvPrefix+"NLP_ENDPOINT")
	dur(&c.NLP.Timeout, EnvPrefix+"NLP_TIMEOUT")

	num(&c.Pipeline.Concurrency, EnvPrefix+"CONCURRENCY")
	flag(&c.Pipeline.SentenceOrder, EnvPrefix+"SENTENCE_ORDER")
	num(&c.Pipeline.ContextRadius, EnvPrefix+"CONTEXT_RADIUS")

	str(&c.Output.Dir, EnvPrefix+"OUTPUT_DIR")
	str(&c.Output.Layout, EnvPrefix+"LAYOUT")
	if v, ok := lookup(EnvPrefix + "FORMATS"); ok {
		c.Output.Formats = splitList(v)
	}
	if bucket, ok := lookup(EnvPrefix + "S3_BUCKET"); ok && bucket != "" {
		if c.Output.S3 == nil {
			c.Output.S3 = &S3Config{}
		}
		c.Output.S3.Bucket = bucket
	}
	if c.Output.S3 != nil {
		str(&c.Output.S3.Prefix, EnvPrefix+"S3_PREFIX")
		str(&c.Output.S3.Region, "AWS_REGION", EnvPrefix+"S3_REGION")
		str(&c.Output.S3.Endpoint, "AWS_ENDPOINT", EnvPrefix+"S3_ENDPOINT")
		str(&c.Output.S3.AccessKey, "AWS_ACCESS_KEY")
		str(&c.Output.S3.SecretKey, "AWS_SECRET_KEY")
	}

	str(&c.Metrics.Addr, EnvPrefix+"METRICS_ADDR")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
