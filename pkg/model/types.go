package model

// NodeType discriminates the four node variants.
type NodeType string

const (
	Entity   NodeType = "entity"
	Action   NodeType = "action"
	Source   NodeType = "source"
	Document NodeType = "document"
)

// NodeTypes lists every node type in a stable order.
var NodeTypes = []NodeType{Entity, Action, Source, Document}

// ParseNodeType maps a stored discriminator back to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	for _, t := range NodeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &UnrecognizedTypeError{Kind: "node type", Value: s}
}

// Label is an edge relationship name.
type Label string

const (
	Contains   Label = "contains"
	Authored   Label = "authored"
	Interacts  Label = "interacts"
	References Label = "references"
	Involved   Label = "involved"
	Sequence   Label = "sequence"
)

// Labels lists every edge label in a stable order.
var Labels = []Label{Contains, Authored, Interacts, References, Involved, Sequence}

// ParseLabel maps a stored relationship type back to a Label.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", &UnrecognizedTypeError{Kind: "edge label", Value: s}
}

// Reserved property names written next to the flattened attributes.
const (
	PropKey           = "key"
	PropTitle         = "title"
	PropType          = "type"
	PropSourceType    = "source_type"
	PropDocType       = "doc_type"
	PropDateProcessed = "date_processed"

	PropLabel           = "label"
	PropSourceKey       = "source_key"
	PropSourceNodeType  = "source_type"
	PropDestKey         = "dest_key"
	PropDestNodeType    = "dest_type"
	PropTime            = "time"
	PropInteractionType = "interaction_type"
)
