package query

import (
	"errors"
	"testing"
)

func TestLexerKeywordsAreCaseInsensitive(t *testing.T) {
	tokens, err := NewLexer("match Where RETURN create ORDER by limit").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	expected := []TokenType{
		TokenMatch, TokenWhere, TokenReturn, TokenCreate,
		TokenOrder, TokenBy, TokenLimit, TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, token := range tokens {
		if token.Type != expected[i] {
			t.Errorf("Token %d: expected %v, got %v", i, expected[i], token.Type)
		}
	}
}

func TestLexerPatternTokens(t *testing.T) {
	tokens, err := NewLexer("(a:Source {key: $key})-[r:Interacts]->(b)<-[:Authored]-(c)").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	expected := []TokenType{
		TokenLeftParen, TokenIdentifier, TokenColon, TokenIdentifier,
		TokenLeftBrace, TokenIdentifier, TokenColon, TokenParameter, TokenRightBrace,
		TokenRightParen, TokenMinus, TokenLeftBracket, TokenIdentifier, TokenColon,
		TokenIdentifier, TokenRightBracket, TokenArrowRight,
		TokenLeftParen, TokenIdentifier, TokenRightParen,
		TokenArrowLeft, TokenLeftBracket, TokenColon, TokenIdentifier, TokenRightBracket,
		TokenMinus, TokenLeftParen, TokenIdentifier, TokenRightParen, TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, token := range tokens {
		if token.Type != expected[i] {
			t.Errorf("Token %d (%q): expected %v, got %v", i, token.Value, expected[i], token.Type)
		}
	}
	if tokens[7].Value != "key" {
		t.Errorf("parameter value = %q, want %q", tokens[7].Value, "key")
	}
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		value string
	}{
		{"'Nike'", TokenString, "Nike"},
		{`"it's"`, TokenString, "it's"},
		{`'line\nbreak'`, TokenString, "line\nbreak"},
		{"42", TokenNumber, "42"},
		{"3.14", TokenNumber, "3.14"},
		{"`odd name`", TokenIdentifier, "odd name"},
		{"true", TokenTrue, "true"},
		{"NULL", TokenNull, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize failed: %v", err)
			}
			if tokens[0].Type != tt.typ {
				t.Errorf("type = %v, want %v", tokens[0].Type, tt.typ)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("value = %q, want %q", tokens[0].Value, tt.value)
			}
		})
	}
}

func TestLexerPropertyAccessIsNotDecimal(t *testing.T) {
	tokens, err := NewLexer("n.key").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	expected := []TokenType{TokenIdentifier, TokenDot, TokenIdentifier, TokenEOF}
	for i, token := range tokens {
		if token.Type != expected[i] {
			t.Errorf("Token %d: expected %v, got %v", i, expected[i], token.Type)
		}
	}
}

func TestLexerSkipsComments(t *testing.T) {
	tokens, err := NewLexer("MATCH (n) // everything\nRETURN n").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if tokens[4].Type != TokenReturn {
		t.Errorf("expected RETURN after comment, got %v", tokens[4].Type)
	}
	if tokens[4].Line != 2 {
		t.Errorf("RETURN line = %d, want 2", tokens[4].Line)
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{"'unterminated", "MATCH (n) RETURN n ^", "$", "`open"} {
		t.Run(input, func(t *testing.T) {
			_, err := NewLexer(input).Tokenize()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("error %v should match ErrSyntax", err)
			}
		})
	}
}
