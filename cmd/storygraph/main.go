package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/Go-Global/storygraph-v0/pkg/config"
	"github.com/Go-Global/storygraph-v0/pkg/graphsync"
	"github.com/Go-Global/storygraph-v0/pkg/health"
	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/metrics"
	"github.com/Go-Global/storygraph-v0/pkg/server"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks a command line the command cannot act on
var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
	flags   func(fs *flag.FlagSet) func(a *app) error
}

var commands []*command

func init() {
	commands = []*command{
		extractCommand(),
		tweetsCommand(),
		uploadCommand(),
		queryCommand(),
		renderCommand(),
		checkCommand(),
		statsCommand(),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	name := args[0]
	switch name {
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitOK
	}

	for _, cmd := range commands {
		if cmd.name == name {
			return runCommand(ctx, cmd, args[1:], stdout, stderr)
		}
	}
	fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	var sb strings.Builder
	sb.WriteString(`storygraph - build story graphs from text and tweets

Usage:
  storygraph <command> [options]

Available Commands:
`)
	for _, cmd := range commands {
		fmt.Fprintf(&sb, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	sb.WriteString(`
Common Options:
  -config FILE        YAML configuration file
  -env FILE           .env file (default: .env when present)
  -log-level LEVEL    debug, info, warn or error
  -metrics-addr ADDR  serve /metrics, /health, /ready and /live on ADDR

Use "storygraph <command> -h" for more information about a command.
`)
	fmt.Fprint(w, sb.String())
}

// app carries what every command needs once flags and config are loaded
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	stdout  io.Writer
	stderr  io.Writer

	mu     sync.Mutex
	driver *graphsync.Driver
}

func runCommand(ctx context.Context, cmd *command, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	envFile := fs.String("env", "", "`.env` file")
	logLevel := fs.String("log-level", "", "log level override")
	metricsAddr := fs.String("metrics-addr", "", "serve /metrics on this address")
	apply := cmd.flags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	a := &app{
		cfg:     cfg,
		logger:  cfg.Logger(stderr).With(logging.String("command", cmd.name)),
		metrics: metrics.NewRegistry(),
		stdout:  stdout,
		stderr:  stderr,
	}
	if err := apply(a); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if cfg.Metrics.Addr != "" {
		stopMetrics := a.serveMetrics(cfg.Metrics.Addr)
		defer stopMetrics()
	}

	if err := cmd.run(ctx, a, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n\n", err)
			fs.Usage()
			return exitUsage
		}
		fmt.Fprintln(stderr, errorStyle.Render("Error: "+err.Error()))
		return exitError
	}
	return exitOK
}

// sideMux serves the metrics registry and the health endpoints
func (a *app) sideMux() *http.ServeMux {
	hc := health.NewHealthChecker()
	hc.RegisterLivenessCheck("process", health.SimpleCheck("process"))
	hc.RegisterCheck("memory", health.MemoryCheck(nil))
	hc.RegisterReadinessCheck("graph_store", func(ctx context.Context) health.Check {
		var ping func(context.Context) error
		if d := a.openedDriver(); d != nil {
			ping = d.Ping
		}
		return health.GraphStoreCheck(a.cfg.Store.Backend, ping)(ctx)
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	hc.Register(mux)
	return mux
}

// serveMetrics serves sideMux until the returned func is called
func (a *app) serveMetrics(addr string) func() {
	srv := server.NewGracefulServer(addr, a.sideMux(), a.logger)
	go func() {
		if err := srv.Start(context.Background()); err != nil {
			a.logger.Error("metrics server failed", logging.Error(err))
		}
	}()

	return func() {
		srv.Shutdown(server.DefaultShutdownTimeout)
	}
}

// stringList is a repeatable string flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
