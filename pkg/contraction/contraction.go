// Package contraction reduces a dependency parse to relations between a
// chosen set of tokens. Edges into tokens outside the set are repeatedly
// collapsed, handing their children to the parent, until every surviving
// edge ends at a chosen token.
package contraction

import (
	"sort"

	"github.com/Go-Global/storygraph-v0/pkg/nlp"
)

// Relation is a labelled directed edge between two token indexes. The
// label is the dependency relation of the destination token.
type Relation struct {
	Label  string
	Source int
	Dest   int
}

func (r Relation) less(o Relation) bool {
	if r.Source != o.Source {
		return r.Source < o.Source
	}
	if r.Dest != o.Dest {
		return r.Dest < o.Dest
	}
	return r.Label < o.Label
}

// TokenSet is a set of token indexes.
type TokenSet map[int]struct{}

// NewTokenSet builds a set from indexes.
func NewTokenSet(idx ...int) TokenSet {
	s := make(TokenSet, len(idx))
	for _, i := range idx {
		s[i] = struct{}{}
	}
	return s
}

// Has reports whether token i is in the set.
func (s TokenSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Result is the outcome of one contraction.
type Result struct {
	// Relations is sorted by source, destination, then label.
	Relations []Relation
	// Passes counts contraction steps, each removing one edge.
	Passes int
}

// Contract reduces the parse tree of doc to relations among targets.
func Contract(doc *nlp.Document, targets TokenSet) Result {
	edges := make([]Relation, 0, len(doc.Tokens))
	for _, t := range doc.Tokens {
		for _, c := range doc.Children(t) {
			edges = append(edges, Relation{Label: c.Dep, Source: t.Index, Dest: c.Index})
		}
	}
	return contract(len(doc.Tokens), edges, targets)
}

// adjacency holds outgoing edges per token, each list kept sorted.
type adjacency [][]Relation

func (a adjacency) add(r Relation) {
	list := a[r.Source]
	i := sort.Search(len(list), func(i int) bool { return !list[i].less(r) })
	if i < len(list) && list[i] == r {
		return
	}
	list = append(list, Relation{})
	copy(list[i+1:], list[i:])
	list[i] = r
	a[r.Source] = list
}

func (a adjacency) remove(r Relation) {
	list := a[r.Source]
	for i, e := range list {
		if e == r {
			a[r.Source] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// firstViolation scans tokens in index order and returns the first edge
// that ends outside targets.
func (a adjacency) firstViolation(targets TokenSet) (Relation, bool) {
	for _, list := range a {
		for _, e := range list {
			if !targets.Has(e.Dest) {
				return e, true
			}
		}
	}
	return Relation{}, false
}

func contract(n int, edges []Relation, targets TokenSet) Result {
	adj := make(adjacency, n)
	for _, e := range edges {
		adj.add(e)
	}

	var res Result
	for n > len(targets) {
		edge, found := adj.firstViolation(targets)
		if !found {
			break
		}

		removals := []Relation{edge}
		var additions []Relation
		for _, grand := range adj[edge.Dest] {
			removals = append(removals, grand)
			additions = append(additions, Relation{Label: grand.Label, Source: edge.Source, Dest: grand.Dest})
			// a preposition hands over only its object
			if edge.Label == nlp.DepPrep {
				break
			}
		}

		for _, r := range removals {
			adj.remove(r)
		}
		for _, r := range additions {
			adj.add(r)
		}
		res.Passes++
	}

	for src, list := range adj {
		if !targets.Has(src) {
			continue
		}
		res.Relations = append(res.Relations, list...)
	}
	return res
}
