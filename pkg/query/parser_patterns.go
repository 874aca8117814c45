package query

// parsePattern parses a graph pattern
func (p *Parser) parsePattern() (*Pattern, error) {
	pattern := &Pattern{}

	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	pattern.Nodes = append(pattern.Nodes, node)

	// Parse relationships and nodes
	for {
		tokenType := p.peek().Type
		if tokenType != TokenMinus && tokenType != TokenArrowLeft {
			break
		}
		rel, err := p.parseRelationship()
		if err != nil {
			return nil, err
		}
		target, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		pattern.Relationships = append(pattern.Relationships, rel)
		pattern.Nodes = append(pattern.Nodes, target)
	}

	return pattern, nil
}

// parseNode parses a node pattern: (variable:Label {prop: value})
func (p *Parser) parseNode() (*NodePattern, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	node := &NodePattern{}

	// Variable (optional)
	if p.peek().Type == TokenIdentifier {
		node.Variable = p.advance().Value
	}

	// Labels (optional)
	for p.peek().Type == TokenColon {
		p.advance() // consume :
		label, err := p.expectName()
		if err != nil {
			return nil, err
		}
		node.Labels = append(node.Labels, label)
	}

	// Properties (optional)
	props, err := p.parseOptionalProperties()
	if err != nil {
		return nil, err
	}
	node.Properties = props

	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return node, nil
}

// parseRelationship parses -[r:TYPE {props}]->, <-[...]- or -[...]-
func (p *Parser) parseRelationship() (*RelationshipPattern, error) {
	rel := &RelationshipPattern{}
	lead := p.advance()
	incoming := lead.Type == TokenArrowLeft

	// Relationship details (optional)
	if p.peek().Type == TokenLeftBracket {
		p.advance() // consume [

		if p.peek().Type == TokenIdentifier {
			rel.Variable = p.advance().Value
		}
		if p.peek().Type == TokenColon {
			p.advance() // consume :
			relType, err := p.expectName()
			if err != nil {
				return nil, err
			}
			rel.Type = relType
		}
		props, err := p.parseOptionalProperties()
		if err != nil {
			return nil, err
		}
		rel.Properties = props

		if _, err := p.expect(TokenRightBracket); err != nil {
			return nil, err
		}
	}

	trail := p.peek()
	outgoing := false
	switch trail.Type {
	case TokenArrowRight:
		outgoing = true
	case TokenMinus:
	default:
		return nil, syntaxErrorAt(trail, "expected '-' or '->' to close relationship, got %s", trail.Type)
	}
	p.advance()

	switch {
	case incoming && outgoing:
		return nil, syntaxErrorAt(lead, "relationship cannot point both ways")
	case incoming:
		rel.Direction = DirectionIncoming
	case outgoing:
		rel.Direction = DirectionOutgoing
	default:
		rel.Direction = DirectionBoth
	}
	return rel, nil
}

// parseOptionalProperties parses {k: v, ...} or $param when present
func (p *Parser) parseOptionalProperties() (*PropertyMap, error) {
	switch p.peek().Type {
	case TokenParameter:
		return &PropertyMap{Param: p.advance().Value}, nil
	case TokenLeftBrace:
	default:
		return nil, nil
	}
	p.advance() // consume {

	props := &PropertyMap{}
	if p.peek().Type == TokenRightBrace {
		p.advance()
		return props, nil
	}
	for {
		key, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		props.Entries = append(props.Entries, &MapEntry{Key: key, Value: value})

		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return props, nil
}
