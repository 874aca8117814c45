// Package pipeline turns text into story graphs: parse, pick nodes,
// contract the parse tree into relations, annotate coreference and package
// the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Go-Global/storygraph-v0/pkg/contraction"
	"github.com/Go-Global/storygraph-v0/pkg/coref"
	"github.com/Go-Global/storygraph-v0/pkg/extraction"
	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/metrics"
	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/nlp"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// AttrDep holds the dependency label of an involved edge.
const AttrDep = "dep"

// ErrNoParser is returned when raw text is given but no parser is set.
var ErrNoParser = errors.New("no NLP parser configured")

// Options controls one extraction.
type Options struct {
	// Title names the resulting graph.
	Title string
	// DocumentKey prefixes node keys; a random UUID when empty.
	DocumentKey   string
	DocumentTitle string
	DocType       string
	// Timestamp is stamped on every edge; the epoch when zero.
	Timestamp time.Time
	// Raw keeps every token and the full parse tree.
	Raw bool
	// ContextRadius records neighbouring words on each node when positive.
	ContextRadius int
	// SentenceOrder links the root actions of consecutive sentences.
	SentenceOrder bool
	// LinkDocument adds a document node that contains every extracted node.
	LinkDocument bool
}

// Extractor runs the extraction pipeline.
type Extractor struct {
	parser      nlp.Parser
	logger      logging.Logger
	metrics     *metrics.Registry
	concurrency int
}

// Option configures an Extractor.
type Option func(*Extractor)

func WithLogger(l logging.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithConcurrency bounds the documents processed at once by ExtractAll.
func WithConcurrency(n int) Option {
	return func(e *Extractor) { e.concurrency = n }
}

// New creates an extractor. parser may be nil when only pre-parsed
// documents are processed.
func New(parser nlp.Parser, opts ...Option) *Extractor {
	e := &Extractor{
		parser:      parser,
		logger:      logging.NewNopLogger(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.Component("pipeline"))
	return e
}

// Extract parses text and builds its story graph.
func (e *Extractor) Extract(ctx context.Context, text string, opts Options) (*storygraph.StoryGraph, error) {
	if e.parser == nil {
		return nil, ErrNoParser
	}
	doc, err := e.parser.Parse(ctx, text)
	if err != nil {
		e.record("parse_error", 0, 0)
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return e.ExtractDocument(doc, opts)
}

// ExtractDocument builds the story graph of an already parsed document.
func (e *Extractor) ExtractDocument(doc *nlp.Document, opts Options) (*storygraph.StoryGraph, error) {
	if opts.DocumentKey == "" {
		opts.DocumentKey = uuid.NewString()
	}
	timer := logging.StartTimer(e.logger, "document extracted", logging.DocumentKey(opts.DocumentKey))

	g, passes, err := e.extract(doc, opts)
	if err != nil {
		e.record("error", 0, 0)
		timer.EndError(err)
		return nil, err
	}

	e.record("ok", timer.Elapsed(), passes)
	if e.metrics != nil {
		for _, n := range g.Nodes() {
			e.metrics.RecordNodes(string(n.Type), 1)
		}
		e.metrics.RelationsExtracted.Add(float64(g.EdgeCount()))
	}
	timer.End(logging.Int("nodes", g.NodeCount()), logging.Int("edges", g.EdgeCount()), logging.Int("passes", passes))
	return g, nil
}

func (e *Extractor) record(status string, d time.Duration, passes int) {
	if e.metrics != nil {
		e.metrics.RecordExtraction(status, d, passes)
	}
}

func (e *Extractor) extract(doc *nlp.Document, opts Options) (*storygraph.StoryGraph, int, error) {
	nodes, err := extraction.Build(doc, extraction.Options{
		DocumentKey:   opts.DocumentKey,
		Raw:           opts.Raw,
		ContextRadius: opts.ContextRadius,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("extract nodes: %w", err)
	}

	res := contraction.Contract(doc, contraction.NewTokenSet(nodes.Tokens()...))
	relations := coref.Annotate(doc, nodes, res.Relations)

	var edgeOpts []model.EdgeOption
	if !opts.Timestamp.IsZero() {
		edgeOpts = append(edgeOpts, model.WithTime(opts.Timestamp))
	}

	var edges []*model.Edge
	for _, r := range relations {
		src, okSrc := nodes.Node(r.Source)
		dst, okDst := nodes.Node(r.Dest)
		if !okSrc || !okDst {
			continue
		}
		edge, err := model.NewEdge(model.Involved, src.Ref(), dst.Ref(),
			append(edgeOpts, model.WithAttrs(map[string]any{AttrDep: r.Label}))...)
		if err != nil {
			return nil, 0, fmt.Errorf("relation %s %d->%d: %w", r.Label, r.Source, r.Dest, err)
		}
		edges = append(edges, edge)
	}

	if opts.SentenceOrder {
		seq, err := sentenceOrder(doc, nodes, edgeOpts)
		if err != nil {
			return nil, 0, err
		}
		edges = append(edges, seq...)
	}

	all := nodes.Nodes()
	if opts.LinkDocument {
		docNode, contains, err := documentLinks(doc, all, opts, edgeOpts)
		if err != nil {
			return nil, 0, err
		}
		all = append(all, docNode)
		edges = append(edges, contains...)
	}

	g := storygraph.New(opts.Title, storygraph.WithLogger(e.logger))
	if err := g.Load(all, edges); err != nil {
		return nil, 0, err
	}
	return g, res.Passes, nil
}

// sentenceOrder chains the root actions of consecutive sentences.
// Sentences whose root is not an action break the chain.
func sentenceOrder(doc *nlp.Document, nodes *extraction.NodeMap, edgeOpts []model.EdgeOption) ([]*model.Edge, error) {
	var edges []*model.Edge
	var prev *model.Node
	for _, root := range doc.Roots() {
		n, ok := nodes.Node(root.Index)
		if !ok || n.Type != model.Action {
			prev = nil
			continue
		}
		if prev != nil {
			e, err := model.NewEdge(model.Sequence, prev.Ref(), n.Ref(), edgeOpts...)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)
		}
		prev = n
	}
	return edges, nil
}

func documentLinks(doc *nlp.Document, nodes []*model.Node, opts Options, edgeOpts []model.EdgeOption) (*model.Node, []*model.Edge, error) {
	title := opts.DocumentTitle
	if title == "" {
		title = opts.Title
	}
	docType := opts.DocType
	if docType == "" {
		docType = "text"
	}

	docNode, err := model.NewDocument(opts.DocumentKey, title, docType, time.Now().UTC(), map[string]any{"text": doc.Text})
	if err != nil {
		return nil, nil, err
	}

	edges := make([]*model.Edge, 0, len(nodes))
	for _, n := range nodes {
		e, err := model.NewEdge(model.Contains, docNode.Ref(), n.Ref(), edgeOpts...)
		if err != nil {
			return nil, nil, err
		}
		edges = append(edges, e)
	}
	return docNode, edges, nil
}

// Input is one document for ExtractAll: either raw text or a parsed
// document.
type Input struct {
	Text    string
	Doc     *nlp.Document
	Options Options
}

// ExtractAll extracts every input concurrently and merges the graphs by
// natural key. The first failure cancels the remaining work.
func (e *Extractor) ExtractAll(ctx context.Context, title string, inputs []Input) (*storygraph.StoryGraph, error) {
	graphs := make([]*storygraph.StoryGraph, len(inputs))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(max(e.concurrency, 1))

	for i, in := range inputs {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var (
				g   *storygraph.StoryGraph
				err error
			)
			if in.Doc != nil {
				g, err = e.ExtractDocument(in.Doc, in.Options)
			} else {
				g, err = e.Extract(ctx, in.Text, in.Options)
			}
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			graphs[i] = g
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("documents merged", logging.Count(len(graphs)))
	return storygraph.Merge(title, graphs...)
}
