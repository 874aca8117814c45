package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Go-Global/storygraph-v0/pkg/export"
	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/nlp"
	"github.com/Go-Global/storygraph-v0/pkg/pipeline"
	"github.com/Go-Global/storygraph-v0/pkg/social"
)

func extractCommand() *command {
	var (
		inputs  stringList
		title   string
		docType string
		upload  bool
		out     outputFlags
	)
	return &command{
		name:    "extract",
		summary: "Extract a story graph from documents",
		flags: func(fs *flag.FlagSet) func(a *app) error {
			inputs = nil
			fs.Var(&inputs, "in", "input file: spaCy .json, .conllu or plain text (repeatable)")
			fs.StringVar(&title, "title", "Graph", "graph title")
			fs.StringVar(&docType, "doc-type", "text", "document type recorded on document nodes")
			fs.BoolVar(&upload, "upload", false, "upload the graph to the configured store")
			return out.register(fs, "")
		},
		run: func(ctx context.Context, a *app, args []string) error {
			files := append(append([]string(nil), inputs...), args...)
			if len(files) == 0 {
				return fmt.Errorf("%w: at least one input file is required", errUsage)
			}

			docs, needsParser, err := a.readInputs(files, docType)
			if err != nil {
				return err
			}
			var parser nlp.Parser
			if needsParser {
				parser = nlp.NewHTTPParser(a.cfg.NLP.Endpoint, a.cfg.NLP.Timeout)
			}

			x := pipeline.New(parser,
				pipeline.WithLogger(a.logger),
				pipeline.WithMetrics(a.metrics),
				pipeline.WithConcurrency(a.cfg.Pipeline.Concurrency))
			g, err := x.ExtractAll(ctx, title, docs)
			if err != nil {
				return err
			}
			return a.finish(ctx, g, &out, upload)
		},
	}
}

// readInputs decodes parsed documents and collects raw text. Document keys
// are the file stems so re-running over the same files yields the same keys.
func (a *app) readInputs(files []string, docType string) ([]pipeline.Input, bool, error) {
	inputs := make([]pipeline.Input, 0, len(files))
	needsParser := false

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, false, err
		}
		base := filepath.Base(path)
		ext := strings.ToLower(filepath.Ext(base))
		opts := pipeline.Options{
			DocumentKey:   export.FileName(strings.TrimSuffix(base, filepath.Ext(base))),
			DocumentTitle: base,
			DocType:       docType,
			Timestamp:     info.ModTime().UTC(),
			Raw:           a.cfg.Pipeline.Raw,
			ContextRadius: a.cfg.Pipeline.ContextRadius,
			SentenceOrder: a.cfg.Pipeline.SentenceOrder,
			LinkDocument:  a.cfg.Pipeline.LinkDocument,
		}

		in := pipeline.Input{Options: opts}
		switch ext {
		case ".json", ".conllu":
			doc, err := decodeDocument(path, ext)
			if err != nil {
				return nil, false, fmt.Errorf("%s: %w", path, err)
			}
			in.Doc = doc
		default:
			text, err := os.ReadFile(path)
			if err != nil {
				return nil, false, err
			}
			in.Text = string(text)
			needsParser = true
		}
		a.logger.Debug("input read", logging.Path(path), logging.DocumentKey(opts.DocumentKey))
		inputs = append(inputs, in)
	}
	return inputs, needsParser, nil
}

func decodeDocument(path, ext string) (*nlp.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if ext == ".conllu" {
		return nlp.DecodeCoNLLU(f)
	}
	return nlp.DecodeJSON(f)
}

func tweetsCommand() *command {
	var (
		tweetsPath string
		usersPath  string
		title      string
		upload     bool
		out        outputFlags
	)
	return &command{
		name:    "tweets",
		summary: "Build a social graph from tweet and user JSON",
		flags: func(fs *flag.FlagSet) func(a *app) error {
			fs.StringVar(&tweetsPath, "tweets", "", "tweets JSON file (required)")
			fs.StringVar(&usersPath, "users", "", "users JSON file")
			fs.StringVar(&title, "title", "Tweets", "graph title")
			fs.BoolVar(&upload, "upload", false, "upload the graph to the configured store")
			return out.register(fs, "")
		},
		run: func(ctx context.Context, a *app, args []string) error {
			if tweetsPath == "" {
				return fmt.Errorf("%w: -tweets is required", errUsage)
			}

			f, err := os.Open(tweetsPath)
			if err != nil {
				return err
			}
			tweets, err := social.DecodeTweets(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", tweetsPath, err)
			}

			users := map[string]*social.User{}
			if usersPath != "" {
				f, err := os.Open(usersPath)
				if err != nil {
					return err
				}
				users, err = social.DecodeUsers(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", usersPath, err)
				}
			}

			g, err := social.NewBuilder(a.logger).Build(title, tweets, users)
			if err != nil {
				return err
			}
			return a.finish(ctx, g, &out, upload)
		},
	}
}

func uploadCommand() *command {
	var in string
	return &command{
		name:    "upload",
		summary: "Upload a graph exported as JSON to the graph store",
		flags: func(fs *flag.FlagSet) func(a *app) error {
			fs.StringVar(&in, "in", "", "graph JSON written by the json export")
			return func(*app) error { return nil }
		},
		run: func(ctx context.Context, a *app, args []string) error {
			path, err := singleInput(in, args)
			if err != nil {
				return err
			}
			g, err := readGraph(path, a)
			if err != nil {
				return err
			}
			report, err := a.upload(ctx, g)
			printSummary(a.stdout, g, nil, &report)
			return err
		},
	}
}

func renderCommand() *command {
	var (
		in  string
		out outputFlags
	)
	return &command{
		name:    "render",
		summary: "Render a graph exported as JSON to HTML or other formats",
		flags: func(fs *flag.FlagSet) func(a *app) error {
			fs.StringVar(&in, "in", "", "graph JSON written by the json export")
			return out.register(fs, string(export.FormatHTML))
		},
		run: func(ctx context.Context, a *app, args []string) error {
			path, err := singleInput(in, args)
			if err != nil {
				return err
			}
			g, err := readGraph(path, a)
			if err != nil {
				return err
			}
			return a.finish(ctx, g, &out, false)
		},
	}
}

func singleInput(flagValue string, args []string) (string, error) {
	switch {
	case flagValue != "" && len(args) == 0:
		return flagValue, nil
	case flagValue == "" && len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("%w: exactly one input graph is required", errUsage)
}
