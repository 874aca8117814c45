package query

// Parse lexes and parses a query string
func Parse(input string) (*Query, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parser builds an AST from tokens
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the tokens into a Query AST. Clauses must appear as
// MATCH [WHERE] ... CREATE ... RETURN.
func (p *Parser) Parse() (*Query, error) {
	query := &Query{}

	for !p.isAtEnd() {
		token := p.peek()

		switch token.Type {
		case TokenMatch:
			if query.Create != nil || query.Return != nil {
				return nil, syntaxErrorAt(token, "MATCH must come before CREATE and RETURN")
			}
			if err := p.parseMatch(query); err != nil {
				return nil, err
			}

		case TokenCreate:
			if query.Return != nil {
				return nil, syntaxErrorAt(token, "CREATE must come before RETURN")
			}
			if err := p.parseCreate(query); err != nil {
				return nil, err
			}

		case TokenReturn:
			if query.Return != nil {
				return nil, syntaxErrorAt(token, "duplicate RETURN")
			}
			returnClause, err := p.parseReturn()
			if err != nil {
				return nil, err
			}
			query.Return = returnClause

		case TokenSemicolon:
			p.advance()
			if !p.isAtEnd() {
				return nil, syntaxErrorAt(p.peek(), "only one statement is allowed")
			}

		default:
			return nil, syntaxErrorAt(token, "unexpected %s %q", token.Type, token.Value)
		}
	}

	if query.Match == nil && query.Create == nil && query.Return == nil {
		return nil, syntaxErrorAt(p.peek(), "empty query")
	}
	return query, nil
}

// parseMatch parses a MATCH clause and its optional WHERE
func (p *Parser) parseMatch(query *Query) error {
	p.advance() // consume MATCH

	patterns, err := p.parsePatternList()
	if err != nil {
		return err
	}
	if query.Match == nil {
		query.Match = &MatchClause{}
	}
	query.Match.Patterns = append(query.Match.Patterns, patterns...)

	if p.peek().Type != TokenWhere {
		return nil
	}
	p.advance() // consume WHERE

	expr, err := p.parseExpression()
	if err != nil {
		return err
	}
	if query.Where == nil {
		query.Where = &WhereClause{Expression: expr}
	} else {
		query.Where.Expression = &BinaryExpression{Left: query.Where.Expression, Operator: "AND", Right: expr}
	}
	return nil
}

// parseCreate parses a CREATE clause
func (p *Parser) parseCreate(query *Query) error {
	p.advance() // consume CREATE

	patterns, err := p.parsePatternList()
	if err != nil {
		return err
	}
	if query.Create == nil {
		query.Create = &CreateClause{}
	}
	query.Create.Patterns = append(query.Create.Patterns, patterns...)
	return nil
}

func (p *Parser) parsePatternList() ([]*Pattern, error) {
	var patterns []*Pattern
	for {
		pattern, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern)

		if p.peek().Type != TokenComma {
			return patterns, nil
		}
		p.advance() // consume comma
	}
}

// parseReturn parses a RETURN clause with ORDER BY, SKIP and LIMIT
func (p *Parser) parseReturn() (*ReturnClause, error) {
	p.advance() // consume RETURN

	returnClause := &ReturnClause{}

	// DISTINCT (optional)
	if p.peek().Type == TokenDistinct {
		p.advance()
		returnClause.Distinct = true
	}

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		item := &ReturnItem{Expression: expr}

		// AS alias (optional)
		if p.peek().Type == TokenAs {
			p.advance()
			alias, err := p.expectName()
			if err != nil {
				return nil, err
			}
			item.Alias = alias
		}
		returnClause.Items = append(returnClause.Items, item)

		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}

	if p.peek().Type == TokenOrder {
		p.advance()
		if _, err := p.expect(TokenBy); err != nil {
			return nil, err
		}
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			item := &OrderByItem{Expression: expr}
			switch p.peek().Type {
			case TokenDesc:
				p.advance()
				item.Descending = true
			case TokenAsc:
				p.advance()
			}
			returnClause.OrderBy = append(returnClause.OrderBy, item)

			if p.peek().Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if p.peek().Type == TokenSkip {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		returnClause.Skip = expr
	}

	if p.peek().Type == TokenLimit {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		returnClause.Limit = expr
	}

	return returnClause, nil
}

// Helper functions

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(n int) Token {
	pos := p.pos + n
	if pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() Token {
	token := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return token
}

func (p *Parser) expect(tokenType TokenType) (Token, error) {
	token := p.peek()
	if token.Type != tokenType {
		return Token{}, syntaxErrorAt(token, "expected %s, got %s %q", tokenType, token.Type, token.Value)
	}
	return p.advance(), nil
}

// expectName accepts an identifier or a keyword used as a name, as in
// n.order or {type: 1}.
func (p *Parser) expectName() (string, error) {
	token := p.peek()
	if token.Type == TokenIdentifier || (token.Type != TokenParameter && token.Value != "" && isIdentStart(token.Value[0]) && isKeyword(token.Type)) {
		p.advance()
		return token.Value, nil
	}
	return "", syntaxErrorAt(token, "expected name, got %s %q", token.Type, token.Value)
}

func isKeyword(t TokenType) bool {
	return t >= TokenMatch && t <= TokenWith || t == TokenTrue || t == TokenFalse || t == TokenNull
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == TokenEOF
}
