package query

import (
	"strconv"
	"strings"
)

// parseExpression parses a boolean expression
func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOrExpression()
}

// parseOrExpression parses OR expressions
func (p *Parser) parseOrExpression() (Expression, error) {
	left, err := p.parseAndExpression()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == TokenOr {
		p.advance()
		right, err := p.parseAndExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: "OR", Right: right}
	}

	return left, nil
}

// parseAndExpression parses AND expressions
func (p *Parser) parseAndExpression() (Expression, error) {
	left, err := p.parseNotExpression()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == TokenAnd {
		p.advance()
		right, err := p.parseNotExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: "AND", Right: right}
	}

	return left, nil
}

// parseNotExpression parses NOT prefix (binds tighter than AND, looser than comparisons)
func (p *Parser) parseNotExpression() (Expression, error) {
	if p.peek().Type == TokenNot {
		p.advance()
		operand, err := p.parseNotExpression()
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Operator: "NOT", Operand: operand}, nil
	}
	return p.parseComparisonExpression()
}

var comparisonOperators = map[TokenType]string{
	TokenEquals:        "=",
	TokenNotEquals:     "<>",
	TokenLessThan:      "<",
	TokenGreaterThan:   ">",
	TokenLessEquals:    "<=",
	TokenGreaterEquals: ">=",
	TokenIn:            "IN",
	TokenContains:      "CONTAINS",
}

// parseComparisonExpression parses comparison, membership, string and
// null-test operators
func (p *Parser) parseComparisonExpression() (Expression, error) {
	left, err := p.parseAdditiveExpression()
	if err != nil {
		return nil, err
	}

	token := p.peek()
	if op, ok := comparisonOperators[token.Type]; ok {
		p.advance()
		right, err := p.parseAdditiveExpression()
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{Left: left, Operator: op, Right: right}, nil
	}

	switch token.Type {
	case TokenStarts, TokenEnds:
		p.advance()
		if _, err := p.expect(TokenWith); err != nil {
			return nil, err
		}
		right, err := p.parseAdditiveExpression()
		if err != nil {
			return nil, err
		}
		op := "STARTS WITH"
		if token.Type == TokenEnds {
			op = "ENDS WITH"
		}
		return &BinaryExpression{Left: left, Operator: op, Right: right}, nil

	case TokenIs:
		p.advance() // consume IS
		op := "IS NULL"
		if p.peek().Type == TokenNot {
			p.advance()
			op = "IS NOT NULL"
		}
		if _, err := p.expect(TokenNull); err != nil {
			return nil, err
		}
		return &UnaryExpression{Operator: op, Operand: left}, nil

	case TokenNot:
		// NOT IN: expr NOT IN [list]
		if p.peekAhead(1).Type == TokenIn {
			p.advance()
			p.advance()
			right, err := p.parseAdditiveExpression()
			if err != nil {
				return nil, err
			}
			return &UnaryExpression{Operator: "NOT", Operand: &BinaryExpression{Left: left, Operator: "IN", Right: right}}, nil
		}
	}

	return left, nil
}

// parseAdditiveExpression parses + and -
func (p *Parser) parseAdditiveExpression() (Expression, error) {
	left, err := p.parseMultiplicativeExpression()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPlus || p.peek().Type == TokenMinus {
		op := p.advance().Value
		right, err := p.parseMultiplicativeExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

// parseMultiplicativeExpression parses *, / and %
func (p *Parser) parseMultiplicativeExpression() (Expression, error) {
	left, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenStar || p.peek().Type == TokenSlash || p.peek().Type == TokenPercent {
		op := p.advance().Value
		right, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

// parseUnaryExpression parses unary minus
func (p *Parser) parseUnaryExpression() (Expression, error) {
	if p.peek().Type == TokenMinus {
		p.advance()
		operand, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		// fold negative literals so that they print and compare as constants
		if lit, ok := operand.(*LiteralExpression); ok {
			switch v := lit.Value.(type) {
			case int64:
				return &LiteralExpression{Value: -v}, nil
			case float64:
				return &LiteralExpression{Value: -v}, nil
			}
		}
		return &UnaryExpression{Operator: "-", Operand: operand}, nil
	}
	return p.parsePrimaryExpression()
}

// parsePrimaryExpression parses literals, parameters, lists, function
// calls, variables and property access
func (p *Parser) parsePrimaryExpression() (Expression, error) {
	token := p.peek()

	switch token.Type {
	case TokenNumber:
		p.advance()
		if strings.Contains(token.Value, ".") {
			f, err := strconv.ParseFloat(token.Value, 64)
			if err != nil {
				return nil, syntaxErrorAt(token, "invalid number %q", token.Value)
			}
			return &LiteralExpression{Value: f}, nil
		}
		i, err := strconv.ParseInt(token.Value, 10, 64)
		if err != nil {
			return nil, syntaxErrorAt(token, "invalid integer %q", token.Value)
		}
		return &LiteralExpression{Value: i}, nil

	case TokenString:
		p.advance()
		return &LiteralExpression{Value: token.Value}, nil

	case TokenTrue, TokenFalse:
		p.advance()
		return &LiteralExpression{Value: token.Type == TokenTrue}, nil

	case TokenNull:
		p.advance()
		return &LiteralExpression{Value: nil}, nil

	case TokenParameter:
		p.advance()
		return &ParameterExpression{Name: token.Value}, nil

	case TokenLeftBracket:
		return p.parseList()

	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenIdentifier:
		p.advance()
		if p.peek().Type == TokenLeftParen {
			return p.parseFunctionCall(token.Value)
		}
		if p.peek().Type == TokenDot {
			p.advance()
			prop, err := p.expectName()
			if err != nil {
				return nil, err
			}
			return &PropertyExpression{Variable: token.Value, Property: prop}, nil
		}
		return &VariableExpression{Name: token.Value}, nil
	}

	return nil, syntaxErrorAt(token, "unexpected %s %q in expression", token.Type, token.Value)
}

func (p *Parser) parseList() (Expression, error) {
	p.advance() // consume [
	list := &ListExpression{}
	if p.peek().Type == TokenRightBracket {
		p.advance()
		return list, nil
	}
	for {
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, el)
		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRightBracket); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseFunctionCall(name string) (Expression, error) {
	p.advance() // consume (
	call := &FunctionCall{Name: name}

	if p.peek().Type == TokenStar {
		p.advance()
		call.Star = true
	} else {
		if p.peek().Type == TokenDistinct {
			p.advance()
			call.Distinct = true
		}
		for p.peek().Type != TokenRightParen {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.peek().Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if call.Star && !isAggregate(call) {
		return nil, syntaxErrorAt(p.peek(), "%s(*) is not supported", name)
	}
	return call, nil
}
