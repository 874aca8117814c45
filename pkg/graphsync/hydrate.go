package graphsync

import (
	"fmt"

	"github.com/Go-Global/storygraph-v0/pkg/model"
)

// Model is a hydrated record value: *model.Node or EdgeTuple
type Model = any

// EdgeTuple identifies a stored relationship. Relationships are not
// hydrated into typed edges.
type EdgeTuple struct {
	Label     model.Label
	SourceKey string
	DestKey   string
}

type nodeConstructor func(props map[string]any) (*model.Node, error)

// nodeConstructors maps the stored type discriminator to a constructor
var nodeConstructors = map[string]nodeConstructor{
	string(model.Entity):   func(p map[string]any) (*model.Node, error) { return model.NodeFromProperties(model.Entity, p) },
	string(model.Action):   func(p map[string]any) (*model.Node, error) { return model.NodeFromProperties(model.Action, p) },
	string(model.Source):   func(p map[string]any) (*model.Node, error) { return model.NodeFromProperties(model.Source, p) },
	string(model.Document): func(p map[string]any) (*model.Node, error) { return model.NodeFromProperties(model.Document, p) },
}

// RecordToModels hydrates the node and relationship values of a record,
// in column order. Scalar columns are ignored. An unknown node type or
// relationship label fails with *model.UnrecognizedTypeError.
func RecordToModels(rec Record) ([]Model, error) {
	var out []Model
	for i, v := range rec.Values {
		models, err := hydrate(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", rec.Keys[i], err)
		}
		out = append(out, models...)
	}
	return out, nil
}

func hydrate(v any) ([]Model, error) {
	switch x := v.(type) {
	case NodeRecord:
		n, err := hydrateNode(x)
		if err != nil {
			return nil, err
		}
		return []Model{n}, nil
	case RelationshipRecord:
		e, err := hydrateEdge(x)
		if err != nil {
			return nil, err
		}
		return []Model{e}, nil
	case []any:
		var out []Model
		for _, el := range x {
			models, err := hydrate(el)
			if err != nil {
				return nil, err
			}
			out = append(out, models...)
		}
		return out, nil
	}
	return nil, nil
}

func hydrateNode(rec NodeRecord) (*model.Node, error) {
	discriminator, _ := rec.Props[model.PropType].(string)
	if discriminator == "" && len(rec.Labels) > 0 {
		discriminator = rec.Labels[0]
	}
	construct, ok := nodeConstructors[discriminator]
	if !ok {
		return nil, &model.UnrecognizedTypeError{Kind: "node type", Value: discriminator}
	}
	return construct(rec.Props)
}

func hydrateEdge(rec RelationshipRecord) (EdgeTuple, error) {
	label, err := model.ParseLabel(rec.Type)
	if err != nil {
		return EdgeTuple{}, err
	}
	src, _ := rec.Props[model.PropSourceKey].(string)
	dst, _ := rec.Props[model.PropDestKey].(string)
	return EdgeTuple{Label: label, SourceKey: src, DestKey: dst}, nil
}
