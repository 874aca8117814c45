// Package coref labels nodes with the canonical mention of their
// coreference cluster. Nodes and relations are never merged.
package coref

import (
	"slices"

	"github.com/Go-Global/storygraph-v0/pkg/contraction"
	"github.com/Go-Global/storygraph-v0/pkg/extraction"
	"github.com/Go-Global/storygraph-v0/pkg/nlp"
)

// AttrCoreferent holds the canonical mention text.
const AttrCoreferent = "coreferent"

// Annotate sets the coreferent attribute on every node reached by a
// cluster's main span or one of its mentions and returns the relation set
// deduplicated and sorted.
func Annotate(doc *nlp.Document, nodes *extraction.NodeMap, relations []contraction.Relation) []contraction.Relation {
	for _, cluster := range doc.Clusters {
		canonical := doc.SpanText(cluster.Main)
		spans := append([]nlp.Span{cluster.Main}, cluster.Mentions...)
		for _, span := range spans {
			for i := span.Start; i < span.End; i++ {
				if n, ok := nodes.Node(i); ok {
					n.Attrs[AttrCoreferent] = []string{canonical}
				}
			}
		}
	}
	return Dedupe(relations)
}

// Dedupe returns a sorted copy of relations without duplicates.
func Dedupe(relations []contraction.Relation) []contraction.Relation {
	out := slices.Clone(relations)
	slices.SortFunc(out, func(a, b contraction.Relation) int {
		switch {
		case a.Source != b.Source:
			return a.Source - b.Source
		case a.Dest != b.Dest:
			return a.Dest - b.Dest
		case a.Label < b.Label:
			return -1
		case a.Label > b.Label:
			return 1
		}
		return 0
	})
	return slices.Compact(out)
}
