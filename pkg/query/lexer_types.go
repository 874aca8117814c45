package query

import "fmt"

// Token represents a lexical token
type Token struct {
	Type   TokenType
	Value  string
	Pos    int
	Line   int
	Column int
}

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Keywords
	TokenMatch
	TokenWhere
	TokenReturn
	TokenCreate
	TokenLimit
	TokenSkip
	TokenOrder
	TokenBy
	TokenAsc
	TokenDesc
	TokenDistinct
	TokenAs
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenIs
	TokenContains
	TokenStarts
	TokenEnds
	TokenWith

	// Identifiers and literals
	TokenIdentifier
	TokenParameter
	TokenString
	TokenNumber
	TokenTrue
	TokenFalse
	TokenNull

	// Operators
	TokenEquals        // =
	TokenNotEquals     // !=, <>
	TokenLessThan      // <
	TokenGreaterThan   // >
	TokenLessEquals    // <=
	TokenGreaterEquals // >=
	TokenPlus          // +
	TokenMinus         // -
	TokenStar          // *
	TokenSlash         // /
	TokenPercent       // %
	TokenDot           // .
	TokenColon         // :
	TokenComma         // ,
	TokenSemicolon     // ;

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLeftBrace    // {
	TokenRightBrace   // }

	// Relationship arrows
	TokenArrowLeft  // <-
	TokenArrowRight // ->
)

var keywords = map[string]TokenType{
	"MATCH":      TokenMatch,
	"WHERE":      TokenWhere,
	"RETURN":     TokenReturn,
	"CREATE":     TokenCreate,
	"LIMIT":      TokenLimit,
	"SKIP":       TokenSkip,
	"ORDER":      TokenOrder,
	"BY":         TokenBy,
	"ASC":        TokenAsc,
	"ASCENDING":  TokenAsc,
	"DESC":       TokenDesc,
	"DESCENDING": TokenDesc,
	"DISTINCT":   TokenDistinct,
	"AS":         TokenAs,
	"AND":        TokenAnd,
	"OR":         TokenOr,
	"NOT":        TokenNot,
	"IN":         TokenIn,
	"IS":         TokenIs,
	"CONTAINS":   TokenContains,
	"STARTS":     TokenStarts,
	"ENDS":       TokenEnds,
	"WITH":       TokenWith,
	"TRUE":       TokenTrue,
	"FALSE":      TokenFalse,
	"NULL":       TokenNull,
}

var tokenNames = map[TokenType]string{
	TokenEOF:           "EOF",
	TokenIdentifier:    "IDENTIFIER",
	TokenParameter:     "PARAMETER",
	TokenString:        "STRING",
	TokenNumber:        "NUMBER",
	TokenEquals:        "'='",
	TokenNotEquals:     "'<>'",
	TokenLessThan:      "'<'",
	TokenGreaterThan:   "'>'",
	TokenLessEquals:    "'<='",
	TokenGreaterEquals: "'>='",
	TokenPlus:          "'+'",
	TokenMinus:         "'-'",
	TokenStar:          "'*'",
	TokenSlash:         "'/'",
	TokenPercent:       "'%'",
	TokenDot:           "'.'",
	TokenColon:         "':'",
	TokenComma:         "','",
	TokenSemicolon:     "';'",
	TokenLeftParen:     "'('",
	TokenRightParen:    "')'",
	TokenLeftBracket:   "'['",
	TokenRightBracket:  "']'",
	TokenLeftBrace:     "'{'",
	TokenRightBrace:    "'}'",
	TokenArrowLeft:     "'<-'",
	TokenArrowRight:    "'->'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for word, typ := range keywords {
		if typ == t && word != "ASCENDING" && word != "DESCENDING" {
			return word
		}
	}
	return fmt.Sprintf("Token(%d)", int(t))
}
