package model

import (
	"time"
)

// Node is a typed vertex of a story graph. Identity is the natural key.
type Node struct {
	Key   string
	Title string
	Type  NodeType
	Attrs Attrs

	// SourceType describes a source node ("twitter_account", "journalist", ...).
	SourceType string
	// DocType and DateProcessed describe a document node.
	DocType       string
	DateProcessed time.Time

	// DBID is the store-assigned identifier, set only on hydrated nodes.
	DBID string
}

var reservedNodeProps = map[string]bool{
	PropKey:           true,
	PropTitle:         true,
	PropType:          true,
	PropSourceType:    true,
	PropDocType:       true,
	PropDateProcessed: true,
}

// NewNode validates the type and key and flattens attrs into a fresh map.
func NewNode(typ NodeType, key, title string, attrs map[string]any) (*Node, error) {
	if _, err := ParseNodeType(string(typ)); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, invalid(PropKey, key, "node key must not be empty")
	}
	n := &Node{Key: key, Title: title, Type: typ, Attrs: Attrs{}}
	if err := n.SetAttrs(attrs); err != nil {
		return nil, err
	}
	return n, nil
}

func NewEntity(key, title string, attrs map[string]any) (*Node, error) {
	return NewNode(Entity, key, title, attrs)
}

func NewAction(key, title string, attrs map[string]any) (*Node, error) {
	return NewNode(Action, key, title, attrs)
}

// NewSource creates a source node, an origin of information such as an account.
func NewSource(key, name, sourceType string, attrs map[string]any) (*Node, error) {
	n, err := NewNode(Source, key, name, attrs)
	if err != nil {
		return nil, err
	}
	n.SourceType = sourceType
	return n, nil
}

// NewDocument creates a document node, a unit of content such as a tweet.
func NewDocument(key, title, docType string, processed time.Time, attrs map[string]any) (*Node, error) {
	n, err := NewNode(Document, key, title, attrs)
	if err != nil {
		return nil, err
	}
	n.DocType = docType
	n.DateProcessed = processed
	return n, nil
}

// SetAttrs flattens attrs and writes them over the node's attributes.
func (n *Node) SetAttrs(attrs map[string]any) error {
	flat, err := Flatten(attrs)
	if err != nil {
		return err
	}
	for k := range flat {
		if reservedNodeProps[k] {
			return invalid(k, flat[k], "attribute name is reserved")
		}
	}
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	for k, v := range flat {
		n.Attrs[k] = v
	}
	return nil
}

// Ref returns the endpoint descriptor used when building edges.
func (n *Node) Ref() Endpoint {
	return Endpoint{Key: n.Key, Type: n.Type}
}

// Properties returns the store projection: the attributes plus the
// identity fields and any type-specific fields.
func (n *Node) Properties() map[string]any {
	props := make(map[string]any, len(n.Attrs)+5)
	for k, v := range n.Attrs.Clone() {
		props[k] = v
	}
	props[PropKey] = n.Key
	props[PropTitle] = n.Title
	props[PropType] = string(n.Type)

	switch n.Type {
	case Source:
		if n.SourceType != "" {
			props[PropSourceType] = n.SourceType
		}
	case Document:
		if n.DocType != "" {
			props[PropDocType] = n.DocType
		}
		if !n.DateProcessed.IsZero() {
			props[PropDateProcessed] = n.DateProcessed
		}
	}
	return props
}

// NodeFromProperties rebuilds a node of the given type from its store
// projection. Values are re-normalized, so lists decoded as []any become
// typed slices again.
func NodeFromProperties(typ NodeType, props map[string]any) (*Node, error) {
	key, _ := props[PropKey].(string)
	title, _ := props[PropTitle].(string)

	attrs := make(map[string]any, len(props))
	for k, v := range props {
		if !reservedNodeProps[k] {
			attrs[k] = v
		}
	}

	n, err := NewNode(typ, key, title, attrs)
	if err != nil {
		return nil, err
	}
	switch typ {
	case Source:
		n.SourceType, _ = props[PropSourceType].(string)
	case Document:
		n.DocType, _ = props[PropDocType].(string)
		n.DateProcessed, _ = props[PropDateProcessed].(time.Time)
	}
	return n, nil
}
