package model

import (
	"cmp"
	"slices"
	"time"
)

// Endpoint identifies an edge end by natural key and node type.
type Endpoint struct {
	Key  string
	Type NodeType
}

// EdgeKey is the identity of an edge: at most one edge per label between
// two keys.
type EdgeKey struct {
	Label     Label
	SourceKey string
	DestKey   string
}

// Compare orders edge keys by label, then source key, then dest key.
func (k EdgeKey) Compare(o EdgeKey) int {
	switch {
	case k.Label != o.Label:
		return cmp.Compare(k.Label, o.Label)
	case k.SourceKey != o.SourceKey:
		return cmp.Compare(k.SourceKey, o.SourceKey)
	default:
		return cmp.Compare(k.DestKey, o.DestKey)
	}
}

// Edge is a labelled, directed relationship between two nodes.
type Edge struct {
	Label  Label
	Source Endpoint
	Dest   Endpoint
	Attrs  Attrs
}

type endpointRule struct {
	sources []NodeType
	dests   []NodeType
}

// edgeRules is the typed-edge table. Anything absent is rejected.
var edgeRules = map[Label]endpointRule{
	Contains:   {sources: []NodeType{Document}, dests: []NodeType{Entity, Action}},
	Authored:   {sources: []NodeType{Source}, dests: []NodeType{Document}},
	Interacts:  {sources: []NodeType{Source}, dests: []NodeType{Source, Document}},
	References: {sources: []NodeType{Document}, dests: []NodeType{Source, Document}},
	Involved:   {sources: []NodeType{Entity, Action}, dests: []NodeType{Action, Entity}},
	Sequence:   {sources: []NodeType{Action}, dests: []NodeType{Action}},
}

// CheckTypes reports whether label may connect a src node to a dst node.
func CheckTypes(label Label, src, dst NodeType) error {
	rule, ok := edgeRules[label]
	if !ok {
		return &UnrecognizedTypeError{Kind: "edge label", Value: string(label)}
	}
	if !slices.Contains(rule.sources, src) || !slices.Contains(rule.dests, dst) {
		return &TypeConstraintError{Label: label, SourceType: src, DestType: dst}
	}
	return nil
}

type edgeConfig struct {
	when            time.Time
	interactionType string
	attrs           map[string]any
}

// EdgeOption customizes NewEdge.
type EdgeOption func(*edgeConfig)

// WithTimestamp sets the edge time from Unix seconds.
func WithTimestamp(unix int64) EdgeOption {
	return func(c *edgeConfig) { c.when = time.Unix(unix, 0).UTC() }
}

// WithTime sets the edge time.
func WithTime(t time.Time) EdgeOption {
	return func(c *edgeConfig) { c.when = t.UTC() }
}

// WithInteractionType names the interaction of an interacts edge
// ("reply", "retweet", "quote", ...).
func WithInteractionType(kind string) EdgeOption {
	return func(c *edgeConfig) { c.interactionType = kind }
}

// WithAttrs adds extra attributes; they are flattened like node attributes.
func WithAttrs(attrs map[string]any) EdgeOption {
	return func(c *edgeConfig) { c.attrs = attrs }
}

var reservedEdgeProps = map[string]bool{
	PropLabel:          true,
	PropSourceKey:      true,
	PropSourceNodeType: true,
	PropDestKey:        true,
	PropDestNodeType:   true,
	PropTime:           true,
}

// NewEdge validates the endpoint types against the typed-edge table and
// builds an edge whose attributes always carry a time (epoch by default).
func NewEdge(label Label, src, dst Endpoint, opts ...EdgeOption) (*Edge, error) {
	if err := CheckTypes(label, src.Type, dst.Type); err != nil {
		return nil, err
	}
	if src.Key == "" || dst.Key == "" {
		return nil, invalid("endpoint", src.Key+"->"+dst.Key, "edge endpoints need keys")
	}

	cfg := edgeConfig{when: time.Unix(0, 0).UTC()}
	for _, opt := range opts {
		opt(&cfg)
	}

	attrs, err := Flatten(cfg.attrs)
	if err != nil {
		return nil, err
	}
	for k := range attrs {
		if reservedEdgeProps[k] {
			return nil, invalid(k, attrs[k], "attribute name is reserved")
		}
	}

	if label == Interacts {
		if cfg.interactionType == "" {
			return nil, invalid(PropInteractionType, "", "interacts edges need an interaction type")
		}
	}
	if cfg.interactionType != "" {
		attrs[PropInteractionType] = cfg.interactionType
	}
	attrs[PropTime] = cfg.when

	return &Edge{Label: label, Source: src, Dest: dst, Attrs: attrs}, nil
}

// Key returns the edge identity.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Label: e.Label, SourceKey: e.Source.Key, DestKey: e.Dest.Key}
}

// Time returns the edge time attribute.
func (e *Edge) Time() time.Time {
	t, _ := e.Attrs[PropTime].(time.Time)
	return t
}

// Properties returns the store projection of the edge.
func (e *Edge) Properties() map[string]any {
	props := make(map[string]any, len(e.Attrs)+5)
	for k, v := range e.Attrs.Clone() {
		props[k] = v
	}
	props[PropLabel] = string(e.Label)
	props[PropSourceKey] = e.Source.Key
	props[PropSourceNodeType] = string(e.Source.Type)
	props[PropDestKey] = e.Dest.Key
	props[PropDestNodeType] = string(e.Dest.Type)
	return props
}
