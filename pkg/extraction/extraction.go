// Package extraction picks the tokens of a parsed document that become
// story graph nodes and collects their descriptive attributes.
package extraction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/nlp"
)

// Attribute names written by the extractor.
const (
	AttrDet        = "det"
	AttrAdj        = "adj"
	AttrAdjectives = "adjectives"
	AttrPOS        = "pos"
	AttrTag        = "tag"
	AttrContext    = "context"
)

// Options controls node extraction.
type Options struct {
	// DocumentKey prefixes node keys; defaults to "doc".
	DocumentKey string
	// Raw turns every token into a node instead of only nouns and verbs.
	Raw bool
	// ContextRadius, when positive, records up to that many neighbouring
	// words on each side of a node's token under AttrContext. The window
	// stays inside the sentence and stops at punctuation.
	ContextRadius int
}

func (o Options) addContext(doc *nlp.Document, t *nlp.Token, n *model.Node) {
	if o.ContextRadius > 0 {
		n.Attrs.AddToSet(AttrContext, doc.ContextText(t, o.ContextRadius, true))
	}
}

func (o Options) key(tokenIdx int) string {
	prefix := o.DocumentKey
	if prefix == "" {
		prefix = "doc"
	}
	return fmt.Sprintf("%s/%d", prefix, tokenIdx)
}

// NodeMap maps token indexes to the nodes built for them. Several tokens
// map to one node after compound merging.
type NodeMap struct {
	byToken map[int]*model.Node
}

// Node returns the node built for a token.
func (m *NodeMap) Node(tokenIdx int) (*model.Node, bool) {
	n, ok := m.byToken[tokenIdx]
	return n, ok
}

// Tokens returns every mapped token index in ascending order.
func (m *NodeMap) Tokens() []int {
	idx := make([]int, 0, len(m.byToken))
	for i := range m.byToken {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Nodes returns the distinct nodes ordered by their first token.
func (m *NodeMap) Nodes() []*model.Node {
	seen := make(map[*model.Node]bool, len(m.byToken))
	var out []*model.Node
	for _, i := range m.Tokens() {
		n := m.byToken[i]
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Build extracts entity and action nodes from doc.
func Build(doc *nlp.Document, opts Options) (*NodeMap, error) {
	if opts.Raw {
		return buildRaw(doc, opts)
	}

	entities, err := BuildEntities(doc, opts)
	if err != nil {
		return nil, err
	}
	if err := MergeCompounds(doc, entities, opts); err != nil {
		return nil, err
	}
	actions, err := BuildActions(doc, opts)
	if err != nil {
		return nil, err
	}

	for i, n := range actions {
		entities[i] = n
	}
	return &NodeMap{byToken: entities}, nil
}

func isEntityPOS(pos string) bool {
	return pos == nlp.POSNoun || pos == nlp.POSPronoun || pos == nlp.POSProperNoun
}

// BuildEntities creates an entity for every noun, pronoun and proper noun.
func BuildEntities(doc *nlp.Document, opts Options) (map[int]*model.Node, error) {
	out := make(map[int]*model.Node)
	for _, t := range doc.Tokens {
		if !isEntityPOS(t.POS) {
			continue
		}
		n, err := model.NewEntity(opts.key(t.Index), t.Text, nil)
		if err != nil {
			return nil, err
		}
		for _, c := range doc.Children(t) {
			switch c.Dep {
			case nlp.DepDet:
				n.Attrs.AddToSet(AttrDet, c.Text)
			case nlp.DepAdvcl, nlp.DepAmod:
				n.Attrs.AddToSet(AttrAdj, doc.SubtreeText(c))
			}
		}
		opts.addContext(doc, t, n)
		out[t.Index] = n
	}
	return out, nil
}

// BuildActions creates an action for every verb.
func BuildActions(doc *nlp.Document, opts Options) (map[int]*model.Node, error) {
	out := make(map[int]*model.Node)
	for _, t := range doc.Tokens {
		if t.POS != nlp.POSVerb {
			continue
		}
		n, err := model.NewAction(opts.key(t.Index), t.Text, nil)
		if err != nil {
			return nil, err
		}
		for _, c := range doc.Children(t) {
			switch c.Dep {
			case nlp.DepDet:
				n.Attrs.AddToSet(AttrDet, c.Text)
			case nlp.DepAdvcl, nlp.DepAmod, nlp.DepAdvmod:
				n.Attrs.AddToSet(AttrAdjectives, doc.SubtreeText(c))
			}
		}
		opts.addContext(doc, t, n)
		out[t.Index] = n
	}
	return out, nil
}

// MergeCompounds collapses each maximal run of compound tokens, together
// with the token that follows it, into one entity titled with the joined
// text. All tokens of the run are remapped to the merged node. A run at the
// very end of the document has no head to merge into and is left alone.
func MergeCompounds(doc *nlp.Document, nodes map[int]*model.Node, opts Options) error {
	runStart := -1
	for i, t := range doc.Tokens {
		if t.Dep == nlp.DepCompound {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart < 0 {
			continue
		}
		if err := mergeRun(doc.Tokens[runStart:i+1], nodes, opts); err != nil {
			return err
		}
		runStart = -1
	}
	return nil
}

func mergeRun(run []*nlp.Token, nodes map[int]*model.Node, opts Options) error {
	words := make([]string, len(run))
	for i, t := range run {
		words[i] = t.Text
	}

	merged, err := model.NewEntity(opts.key(run[0].Index), strings.Join(words, " "), nil)
	if err != nil {
		return err
	}
	for _, t := range run {
		if n, ok := nodes[t.Index]; ok {
			merged.Attrs.Union(n.Attrs)
		}
	}
	for _, t := range run {
		nodes[t.Index] = merged
	}
	return nil
}

func buildRaw(doc *nlp.Document, opts Options) (*NodeMap, error) {
	out := make(map[int]*model.Node, len(doc.Tokens))
	for _, t := range doc.Tokens {
		typ := model.Entity
		if t.POS == nlp.POSVerb {
			typ = model.Action
		}
		n, err := model.NewNode(typ, opts.key(t.Index), t.Text, map[string]any{
			AttrPOS: t.POS,
			AttrTag: t.Tag,
		})
		if err != nil {
			return nil, err
		}
		opts.addContext(doc, t, n)
		out[t.Index] = n
	}
	return &NodeMap{byToken: out}, nil
}

// NewNodeMap wraps an existing token to node mapping.
func NewNodeMap(byToken map[int]*model.Node) *NodeMap {
	return &NodeMap{byToken: byToken}
}
