package query

// Query represents a complete query statement
type Query struct {
	Match  *MatchClause
	Where  *WhereClause
	Create *CreateClause
	Return *ReturnClause
}

// ReadOnly reports whether executing the query can change the graph.
func (q *Query) ReadOnly() bool {
	return q.Create == nil
}

// MatchClause represents the MATCH patterns. Several MATCH clauses are
// folded into one list.
type MatchClause struct {
	Patterns []*Pattern
}

// Pattern represents a path of nodes joined by relationships
type Pattern struct {
	Nodes         []*NodePattern
	Relationships []*RelationshipPattern
}

// NodePattern represents a node in a pattern: (variable:Label {prop: value})
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties *PropertyMap
}

// RelationshipPattern represents a relationship between Nodes[i] and
// Nodes[i+1] of its pattern
type RelationshipPattern struct {
	Variable   string
	Type       string
	Direction  Direction
	Properties *PropertyMap
}

// PropertyMap is an inline {k: expr} map or a $param holding a map.
type PropertyMap struct {
	Entries []*MapEntry
	Param   string
}

// MapEntry is one key of an inline property map
type MapEntry struct {
	Key   string
	Value Expression
}

// Direction represents relationship direction
type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
	DirectionBoth
)

func (d Direction) String() string {
	switch d {
	case DirectionOutgoing:
		return "->"
	case DirectionIncoming:
		return "<-"
	case DirectionBoth:
		return "-"
	default:
		return "?"
	}
}

// WhereClause represents filtering conditions
type WhereClause struct {
	Expression Expression
}

// CreateClause represents node/relationship creation
type CreateClause struct {
	Patterns []*Pattern
}

// ReturnClause represents the projection and its modifiers
type ReturnClause struct {
	Items    []*ReturnItem
	Distinct bool
	OrderBy  []*OrderByItem
	Skip     Expression
	Limit    Expression
}

// ReturnItem represents a single return item
type ReturnItem struct {
	Expression Expression
	Alias      string
}

// Column is the name of the item in the result
func (r *ReturnItem) Column() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Expression.String()
}

// OrderByItem represents ordering specification
type OrderByItem struct {
	Expression Expression
	Descending bool
}
