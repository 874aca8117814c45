package nlp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DecodeCoNLLU reads CoNLL-U output (one token per line, blank line between
// sentences, 1-based heads with 0 for the root). Columns may be separated by
// tabs or runs of spaces. Multiword and empty-node lines are skipped, as is
// everything after MISC. SpaceAfter=No in MISC is honoured.
func DecodeCoNLLU(r io.Reader) (*Document, error) {
	var (
		tokens    []*Token
		sentences []Span
		sentStart int
		offset    int
	)

	flush := func() {
		if len(tokens) > sentStart {
			sentences = append(sentences, Span{Start: sentStart, End: len(tokens)})
		}
		sentStart = len(tokens)
		offset = len(tokens)
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 8 {
			return nil, fmt.Errorf("conllu line %d: expected at least 8 columns, got %d", lineNo, len(cols))
		}
		if strings.ContainsAny(cols[0], "-.") {
			continue
		}
		id, err := strconv.Atoi(cols[0])
		if err != nil {
			return nil, fmt.Errorf("conllu line %d: bad id %q", lineNo, cols[0])
		}
		head, err := strconv.Atoi(cols[6])
		if err != nil {
			return nil, fmt.Errorf("conllu line %d: bad head %q", lineNo, cols[6])
		}

		t := &Token{
			Index:      offset + id - 1,
			Text:       cols[1],
			Lemma:      cols[2],
			POS:        cols[3],
			Tag:        cols[4],
			Dep:        cols[7],
			Head:       NoHead,
			Whitespace: " ",
		}
		if head > 0 {
			t.Head = offset + head - 1
		}
		if len(cols) >= 10 && strings.Contains(cols[9], "SpaceAfter=No") {
			t.Whitespace = ""
		}
		tokens = append(tokens, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read conllu: %w", err)
	}
	flush()

	if len(tokens) > 0 {
		tokens[len(tokens)-1].Whitespace = ""
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
		b.WriteString(t.Whitespace)
	}
	return NewDocument(b.String(), tokens, sentences, nil)
}

// ParseCoNLLU is DecodeCoNLLU over a string.
func ParseCoNLLU(s string) (*Document, error) {
	return DecodeCoNLLU(strings.NewReader(s))
}
