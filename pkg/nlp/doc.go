// Package nlp defines the contract with the external NLP pipeline: a
// tokenized, tagged and dependency-parsed document with coreference
// clusters. The pipeline itself runs out of process.
package nlp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Universal POS tags and dependency labels the extractor reacts to.
const (
	POSNoun       = "NOUN"
	POSPronoun    = "PRON"
	POSProperNoun = "PROPN"
	POSVerb       = "VERB"
	POSPunct      = "PUNCT"

	DepRoot     = "ROOT"
	DepDet      = "det"
	DepCompound = "compound"
	DepPrep     = "prep"
	DepAdvcl    = "advcl"
	DepAmod     = "amod"
	DepAdvmod   = "advmod"
)

// NoHead marks a root token.
const NoHead = -1

// Token is one node of a sentence's dependency tree.
type Token struct {
	Index int
	Text  string
	// Whitespace is the trailing whitespace in the source text.
	Whitespace string
	Lemma      string
	POS        string
	Tag        string
	Dep        string
	Head       int
	Sentence   int

	children []int
}

// IsRoot reports whether the token heads its sentence.
func (t *Token) IsRoot() bool { return t.Head == NoHead }

// Span is a half-open token range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of tokens in the span.
func (s Span) Len() int { return s.End - s.Start }

// Cluster groups mentions that refer to the same thing. Main is the
// canonical mention.
type Cluster struct {
	Main     Span
	Mentions []Span
}

// Document is a parsed text. Construct it with NewDocument so children and
// sentence membership are derived consistently.
type Document struct {
	Text      string
	Tokens    []*Token
	Sentences []Span
	Clusters  []Cluster
}

// NewDocument indexes tokens, derives children from heads and assigns
// sentences. Tokens must be in document order with Index equal to their
// position; Head is a token index or NoHead. Sentence boundaries are taken
// from sentences when given, otherwise one sentence per root.
func NewDocument(text string, tokens []*Token, sentences []Span, clusters []Cluster) (*Document, error) {
	d := &Document{Text: text, Tokens: tokens, Clusters: clusters}

	for i, t := range tokens {
		if t == nil {
			return nil, fmt.Errorf("token %d is nil", i)
		}
		if t.Index != i {
			return nil, fmt.Errorf("token %d has index %d", i, t.Index)
		}
		t.children = t.children[:0]
	}
	for _, t := range tokens {
		if t.Head == t.Index {
			t.Head = NoHead
		}
		if t.IsRoot() {
			continue
		}
		if t.Head < 0 || t.Head >= len(tokens) {
			return nil, fmt.Errorf("token %d (%q) has head %d outside the document", t.Index, t.Text, t.Head)
		}
		parent := tokens[t.Head]
		parent.children = append(parent.children, t.Index)
	}
	if err := d.checkAcyclic(); err != nil {
		return nil, err
	}

	if len(sentences) == 0 {
		sentences = d.deriveSentences()
	}
	d.Sentences = sentences
	for si, s := range sentences {
		if s.Start < 0 || s.End > len(tokens) || s.Start > s.End {
			return nil, fmt.Errorf("sentence %d span [%d,%d) is out of range", si, s.Start, s.End)
		}
		for i := s.Start; i < s.End; i++ {
			tokens[i].Sentence = si
		}
	}

	for ci, c := range clusters {
		for _, m := range append([]Span{c.Main}, c.Mentions...) {
			if m.Start < 0 || m.End > len(tokens) || m.Start >= m.End {
				return nil, fmt.Errorf("cluster %d mention [%d,%d) is out of range", ci, m.Start, m.End)
			}
		}
	}
	return d, nil
}

var errCycle = errors.New("dependency heads form a cycle")

func (d *Document) checkAcyclic() error {
	state := make([]uint8, len(d.Tokens)) // 0 unseen, 1 on path, 2 done
	for _, t := range d.Tokens {
		var path []int
		cur := t.Index
		for cur != NoHead && state[cur] == 0 {
			state[cur] = 1
			path = append(path, cur)
			cur = d.Tokens[cur].Head
		}
		if cur != NoHead && state[cur] == 1 {
			return fmt.Errorf("token %d: %w", cur, errCycle)
		}
		for _, p := range path {
			state[p] = 2
		}
	}
	return nil
}

// deriveSentences splits at roots: each root's subtree extent is a sentence.
func (d *Document) deriveSentences() []Span {
	var spans []Span
	for _, t := range d.Tokens {
		if !t.IsRoot() {
			continue
		}
		sub := d.Subtree(t)
		spans = append(spans, Span{Start: sub[0].Index, End: sub[len(sub)-1].Index + 1})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// Children returns the direct dependents of t in token order.
func (d *Document) Children(t *Token) []*Token {
	out := make([]*Token, len(t.children))
	for i, c := range t.children {
		out[i] = d.Tokens[c]
	}
	return out
}

// Subtree returns t and all of its descendants in token order.
func (d *Document) Subtree(t *Token) []*Token {
	var idx []int
	stack := []int{t.Index}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		idx = append(idx, cur)
		stack = append(stack, d.Tokens[cur].children...)
	}
	sort.Ints(idx)
	out := make([]*Token, len(idx))
	for i, j := range idx {
		out[i] = d.Tokens[j]
	}
	return out
}

// SubtreeText renders the subtree of t as words separated by single
// spaces, punctuation included.
func (d *Document) SubtreeText(t *Token) string {
	sub := d.Subtree(t)
	words := make([]string, len(sub))
	for i, tok := range sub {
		words[i] = tok.Text
	}
	return strings.Join(words, " ")
}

// SpanText renders a token span with its original spacing.
func (d *Document) SpanText(s Span) string {
	return joinTokens(d.Tokens[s.Start:s.End])
}

func joinTokens(tokens []*Token) string {
	var b strings.Builder
	for i, t := range tokens {
		b.WriteString(t.Text)
		if i < len(tokens)-1 {
			ws := t.Whitespace
			if ws == "" && tokens[i+1].Index != t.Index+1 {
				ws = " "
			}
			b.WriteString(ws)
		}
	}
	return b.String()
}

// Roots returns the root token of every sentence in document order.
func (d *Document) Roots() []*Token {
	var roots []*Token
	for _, t := range d.Tokens {
		if t.IsRoot() {
			roots = append(roots, t)
		}
	}
	return roots
}

// Context returns up to radius tokens on each side of t within its
// sentence, stopping early at punctuation when stopAtPunct is set.
func (d *Document) Context(t *Token, radius int, stopAtPunct bool) []*Token {
	var left, right []*Token
	for i := t.Index - 1; i >= 0 && len(left) < radius; i-- {
		n := d.Tokens[i]
		if n.Sentence != t.Sentence || (stopAtPunct && n.POS == POSPunct) {
			break
		}
		left = append(left, n)
	}
	for i := t.Index + 1; i < len(d.Tokens) && len(right) < radius; i++ {
		n := d.Tokens[i]
		if n.Sentence != t.Sentence || (stopAtPunct && n.POS == POSPunct) {
			break
		}
		right = append(right, n)
	}

	out := make([]*Token, 0, len(left)+len(right))
	for i := len(left) - 1; i >= 0; i-- {
		out = append(out, left[i])
	}
	return append(out, right...)
}

// ContextText renders t together with its Context window, keeping the
// original spacing.
func (d *Document) ContextText(t *Token, radius int, stopAtPunct bool) string {
	window := d.Context(t, radius, stopAtPunct)
	at := 0
	for at < len(window) && window[at].Index < t.Index {
		at++
	}
	tokens := make([]*Token, 0, len(window)+1)
	tokens = append(tokens, window[:at]...)
	tokens = append(tokens, t)
	tokens = append(tokens, window[at:]...)
	return joinTokens(tokens)
}
