package tq

import (
	"fmt"
	"strings"
)

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenQuotedIdent
	TokenString
	TokenNumber
	TokenComma
	TokenLParen
	TokenRParen
	TokenStar
	TokenOperator

	// Keywords
	TokenSelect
	TokenWhere
	TokenGroup
	TokenOrder
	TokenBy
	TokenAsc
	TokenDesc
	TokenLimit
	TokenOffset
	TokenAnd
	TokenOr
	TokenIn
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "end of query",
	TokenIdent:       "identifier",
	TokenQuotedIdent: "quoted identifier",
	TokenString:      "string",
	TokenNumber:      "number",
	TokenComma:       "','",
	TokenLParen:      "'('",
	TokenRParen:      "')'",
	TokenStar:        "'*'",
	TokenOperator:    "operator",
	TokenSelect:      "SELECT",
	TokenWhere:       "WHERE",
	TokenGroup:       "GROUP",
	TokenOrder:       "ORDER",
	TokenBy:          "BY",
	TokenAsc:         "ASC",
	TokenDesc:        "DESC",
	TokenLimit:       "LIMIT",
	TokenOffset:      "OFFSET",
	TokenAnd:         "AND",
	TokenOr:          "OR",
	TokenIn:          "IN",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// keywords maps lower-cased words to keyword token types.
var keywords = map[string]TokenType{
	"select": TokenSelect,
	"where":  TokenWhere,
	"group":  TokenGroup,
	"order":  TokenOrder,
	"by":     TokenBy,
	"asc":    TokenAsc,
	"desc":   TokenDesc,
	"limit":  TokenLimit,
	"offset": TokenOffset,
	"and":    TokenAnd,
	"or":     TokenOr,
	"in":     TokenIn,
}

// IsKeyword reports whether word (in any case) is reserved by the grammar.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToLower(word)]
	return ok
}

// Token is a single lexical unit. Value holds the decoded text: quotes and
// escapes are already removed from strings and quoted identifiers.
type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset of the first character
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return t.Type.String()
	case TokenString:
		return fmt.Sprintf("string '%s'", t.Value)
	case TokenQuotedIdent:
		return fmt.Sprintf("identifier `%s`", t.Value)
	default:
		return fmt.Sprintf("%q", t.Value)
	}
}
