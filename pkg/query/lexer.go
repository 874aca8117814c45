package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes a query string
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
	tokens []Token
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
		tokens: make([]Token, 0),
	}
}

// Tokenize converts the input string into tokens
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.input) {
		// Skip whitespace
		if unicode.IsSpace(rune(l.input[l.pos])) {
			l.skipWhitespace()
			continue
		}

		// Skip comments
		if l.peek() == '/' && l.peekAhead(1) == '/' {
			l.skipLineComment()
			continue
		}

		token, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, token)
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Column: l.column})
	return l.tokens, nil
}

// nextToken reads the next token
func (l *Lexer) nextToken() (Token, error) {
	start := l.mark()
	ch := l.peek()

	// Operators and delimiters
	switch ch {
	case '(':
		return l.single(start, TokenLeftParen), nil
	case ')':
		return l.single(start, TokenRightParen), nil
	case '[':
		return l.single(start, TokenLeftBracket), nil
	case ']':
		return l.single(start, TokenRightBracket), nil
	case '{':
		return l.single(start, TokenLeftBrace), nil
	case '}':
		return l.single(start, TokenRightBrace), nil
	case ',':
		return l.single(start, TokenComma), nil
	case ';':
		return l.single(start, TokenSemicolon), nil
	case '.':
		return l.single(start, TokenDot), nil
	case ':':
		return l.single(start, TokenColon), nil
	case '+':
		return l.single(start, TokenPlus), nil
	case '*':
		return l.single(start, TokenStar), nil
	case '/':
		return l.single(start, TokenSlash), nil
	case '%':
		return l.single(start, TokenPercent), nil
	case '=':
		return l.single(start, TokenEquals), nil
	case '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return start.token(TokenNotEquals, "!="), nil
		}
		return Token{}, syntaxErrorAt(start.token(TokenEOF, "!"), "unexpected character '!'")
	case '<':
		l.advance()
		switch l.peek() {
		case '=':
			l.advance()
			return start.token(TokenLessEquals, "<="), nil
		case '>':
			l.advance()
			return start.token(TokenNotEquals, "<>"), nil
		case '-':
			l.advance()
			return start.token(TokenArrowLeft, "<-"), nil
		}
		return start.token(TokenLessThan, "<"), nil
	case '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return start.token(TokenGreaterEquals, ">="), nil
		}
		return start.token(TokenGreaterThan, ">"), nil
	case '-':
		l.advance()
		if l.peek() == '>' {
			l.advance()
			return start.token(TokenArrowRight, "->"), nil
		}
		return start.token(TokenMinus, "-"), nil
	case '\'', '"':
		return l.readString(start)
	case '`':
		return l.readQuotedIdentifier(start)
	case '$':
		l.advance()
		if !isIdentStart(l.peek()) {
			return Token{}, syntaxErrorAt(start.token(TokenEOF, "$"), "expected parameter name after '$'")
		}
		tok := l.readIdentifier(l.mark())
		tok.Type = TokenParameter
		tok.Pos, tok.Line, tok.Column = start.pos, start.line, start.column
		return tok, nil
	}

	if ch >= '0' && ch <= '9' {
		return l.readNumber(start), nil
	}
	if isIdentStart(ch) {
		return l.readIdentifier(start), nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, syntaxErrorAt(start.token(TokenEOF, ""), "unexpected character %q", r)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier(start position) Token {
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.advance()
	}
	value := l.input[start.pos:l.pos]
	if tokenType, ok := keywords[strings.ToUpper(value)]; ok {
		return start.token(tokenType, value)
	}
	return start.token(TokenIdentifier, value)
}

// readQuotedIdentifier reads a `backtick quoted` identifier
func (l *Lexer) readQuotedIdentifier(start position) (Token, error) {
	l.advance() // opening backtick
	begin := l.pos
	for l.pos < len(l.input) && l.peek() != '`' {
		l.advance()
	}
	if l.pos >= len(l.input) {
		return Token{}, syntaxErrorAt(start.token(TokenEOF, ""), "unterminated quoted identifier")
	}
	value := l.input[begin:l.pos]
	l.advance() // closing backtick
	return start.token(TokenIdentifier, value), nil
}

// readNumber reads an integer or decimal literal. A dot only belongs to the
// number when a digit follows it.
func (l *Lexer) readNumber(start position) Token {
	for l.pos < len(l.input) && l.peek() >= '0' && l.peek() <= '9' {
		l.advance()
	}
	if l.peek() == '.' && l.peekAhead(1) >= '0' && l.peekAhead(1) <= '9' {
		l.advance()
		for l.pos < len(l.input) && l.peek() >= '0' && l.peek() <= '9' {
			l.advance()
		}
	}
	return start.token(TokenNumber, l.input[start.pos:l.pos])
}

// readString reads a string literal
func (l *Lexer) readString(start position) (Token, error) {
	quote := l.advance()

	var sb strings.Builder
	for l.pos < len(l.input) && l.peek() != quote {
		if l.peek() == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				break
			}
			switch esc := l.advance(); esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(l.advance())
	}

	if l.pos >= len(l.input) {
		return Token{}, syntaxErrorAt(start.token(TokenEOF, ""), "unterminated string")
	}
	l.advance() // Closing quote

	return start.token(TokenString, sb.String()), nil
}

type position struct {
	pos, line, column int
}

func (p position) token(tokenType TokenType, value string) Token {
	return Token{Type: tokenType, Value: value, Pos: p.pos, Line: p.line, Column: p.column}
}

func (l *Lexer) mark() position {
	return position{pos: l.pos, line: l.line, column: l.column}
}

func (l *Lexer) single(start position, tokenType TokenType) Token {
	return start.token(tokenType, string(l.advance()))
}

// Helper functions

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAhead(n int) byte {
	pos := l.pos + n
	if pos >= len(l.input) {
		return 0
	}
	return l.input[pos]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	l.column++
	if ch == '\n' {
		l.line++
		l.column = 1
	}
	return ch
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.advance()
	}
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}
