package nlp

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// jsonDoc mirrors spaCy's Doc.to_json() output, extended with token-level
// coreference clusters.
type jsonDoc struct {
	Text   string      `json:"text"`
	Tokens []jsonToken `json:"tokens"`
	Sents  []struct {
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"sents"`
	Clusters []struct {
		Main     [2]int   `json:"main"`
		Mentions [][2]int `json:"mentions"`
	} `json:"coref_clusters"`
}

type jsonToken struct {
	ID    int    `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
	POS   string `json:"pos"`
	Lemma string `json:"lemma"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
}

// DecodeJSON reads one parsed document. Sentence boundaries in the input are
// character offsets; coreference spans are token offsets.
func DecodeJSON(r io.Reader) (*Document, error) {
	var raw jsonDoc
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode parsed document: %w", err)
	}
	return raw.toDocument()
}

func (raw *jsonDoc) toDocument() (*Document, error) {
	sort.Slice(raw.Tokens, func(i, j int) bool { return raw.Tokens[i].ID < raw.Tokens[j].ID })

	tokens := make([]*Token, len(raw.Tokens))
	for i, jt := range raw.Tokens {
		if jt.Start < 0 || jt.End > len(raw.Text) || jt.Start > jt.End {
			return nil, fmt.Errorf("token %d has character range [%d,%d) outside the text", jt.ID, jt.Start, jt.End)
		}
		tokens[i] = &Token{
			Index: jt.ID,
			Text:  raw.Text[jt.Start:jt.End],
			Lemma: jt.Lemma,
			POS:   jt.POS,
			Tag:   jt.Tag,
			Dep:   jt.Dep,
			Head:  jt.Head,
		}
		if i > 0 {
			prev := raw.Tokens[i-1]
			if prev.End <= jt.Start {
				tokens[i-1].Whitespace = raw.Text[prev.End:jt.Start]
			}
		}
	}

	var sentences []Span
	for _, s := range raw.Sents {
		span := Span{Start: -1}
		for i, jt := range raw.Tokens {
			if jt.Start >= s.Start && jt.End <= s.End {
				if span.Start < 0 {
					span.Start = i
				}
				span.End = i + 1
			}
		}
		if span.Start >= 0 {
			sentences = append(sentences, span)
		}
	}

	clusters := make([]Cluster, 0, len(raw.Clusters))
	for _, c := range raw.Clusters {
		cl := Cluster{Main: Span{Start: c.Main[0], End: c.Main[1]}}
		for _, m := range c.Mentions {
			cl.Mentions = append(cl.Mentions, Span{Start: m[0], End: m[1]})
		}
		clusters = append(clusters, cl)
	}

	return NewDocument(raw.Text, tokens, sentences, clusters)
}
