package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Parser turns raw text into a parsed document.
type Parser interface {
	Parse(ctx context.Context, text string) (*Document, error)
}

// HTTPParser calls an NLP service that accepts {"text": ...} and answers
// with the JSON format read by DecodeJSON.
type HTTPParser struct {
	endpoint string
	client   *http.Client
}

// NewHTTPParser creates a parser for the service at endpoint.
func NewHTTPParser(endpoint string, timeout time.Duration) *HTTPParser {
	return &HTTPParser{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *HTTPParser) Parse(ctx context.Context, text string) (*Document, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("parse request: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return DecodeJSON(resp.Body)
}

// StaticParser returns pre-parsed documents by text; used for offline runs
// over documents decoded from files.
type StaticParser map[string]*Document

func (s StaticParser) Parse(_ context.Context, text string) (*Document, error) {
	doc, ok := s[text]
	if !ok {
		return nil, fmt.Errorf("no parsed document for text %.40q", text)
	}
	return doc, nil
}
