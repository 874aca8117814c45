package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTypesTable(t *testing.T) {
	allowed := map[Label]map[NodeType][]NodeType{
		Contains:   {Document: {Entity, Action}},
		Authored:   {Source: {Document}},
		Interacts:  {Source: {Source, Document}},
		References: {Document: {Source, Document}},
		Involved:   {Entity: {Action, Entity}, Action: {Action, Entity}},
		Sequence:   {Action: {Action}},
	}

	for _, label := range Labels {
		for _, src := range NodeTypes {
			for _, dst := range NodeTypes {
				want := false
				for _, d := range allowed[label][src] {
					if d == dst {
						want = true
					}
				}
				err := CheckTypes(label, src, dst)
				if want {
					assert.NoError(t, err, "%s %s->%s", label, src, dst)
					continue
				}
				var terr *TypeConstraintError
				if assert.ErrorAs(t, err, &terr, "%s %s->%s", label, src, dst) {
					assert.Equal(t, label, terr.Label)
					assert.ErrorIs(t, err, ErrTypeConstraint)
				}
			}
		}
	}
}

func TestCheckTypesUnknownLabel(t *testing.T) {
	err := CheckTypes("likes", Source, Document)
	assert.ErrorIs(t, err, ErrUnrecognizedType)
}

func TestNewEdgeDefaults(t *testing.T) {
	e, err := NewEdge(Involved, Endpoint{"d/3", Action}, Endpoint{"d/1", Entity})
	require.NoError(t, err)

	assert.True(t, e.Time().Equal(time.Unix(0, 0)), "default time should be the epoch")
	assert.Equal(t, EdgeKey{Involved, "d/3", "d/1"}, e.Key())

	props := e.Properties()
	assert.Equal(t, "involved", props["label"])
	assert.Equal(t, "d/3", props["source_key"])
	assert.Equal(t, "entity", props["dest_type"])
}

func TestNewEdgeTimestamp(t *testing.T) {
	e, err := NewEdge(Authored, Endpoint{"u1", Source}, Endpoint{"t1", Document}, WithTimestamp(1587169286))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 4, 18, 0, 21, 26, 0, time.UTC), e.Time())
}

func TestInteractsNeedsInteractionType(t *testing.T) {
	_, err := NewEdge(Interacts, Endpoint{"u1", Source}, Endpoint{"t1", Document})
	assert.ErrorIs(t, err, ErrValidation)

	e, err := NewEdge(Interacts, Endpoint{"u1", Source}, Endpoint{"t1", Document}, WithInteractionType("retweet"))
	require.NoError(t, err)
	assert.Equal(t, "retweet", e.Attrs["interaction_type"])
}

func TestNewEdgeRejects(t *testing.T) {
	_, err := NewEdge(Contains, Endpoint{"e", Entity}, Endpoint{"d", Document})
	assert.True(t, errors.Is(err, ErrTypeConstraint))

	_, err = NewEdge(Involved, Endpoint{"", Entity}, Endpoint{"a", Action})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewEdge(Involved, Endpoint{"e", Entity}, Endpoint{"a", Action}, WithAttrs(map[string]any{"label": "x"}))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewEdge(Involved, Endpoint{"e", Entity}, Endpoint{"a", Action}, WithAttrs(map[string]any{"bad": struct{}{}}))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEdgeKeyCompare(t *testing.T) {
	a := EdgeKey{Contains, "d", "x"}
	b := EdgeKey{Involved, "a", "a"}
	c := EdgeKey{Involved, "a", "b"}
	assert.Negative(t, a.Compare(b))
	assert.Negative(t, b.Compare(c))
	assert.Zero(t, c.Compare(c))
	assert.Positive(t, c.Compare(a))
}
