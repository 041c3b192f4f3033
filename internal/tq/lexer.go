package tq

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes query text.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// peek returns the rune at the current position without consuming it.
func (l *Lexer) peek() (rune, int) {
	if l.pos >= len(l.input) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.input[l.pos:])
}

// peekAt returns the byte at pos+offset, or 0 past the end.
func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) skipWhitespace() {
	for {
		r, size := l.peek()
		if size == 0 || !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// Next returns the next token. At the end of input it keeps returning
// TokenEOF.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	start := l.pos
	r, size := l.peek()
	if size == 0 {
		return Token{Type: TokenEOF, Pos: start}, nil
	}

	switch {
	case r == ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}, nil
	case r == '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}, nil
	case r == ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}, nil
	case r == '*':
		l.pos++
		return Token{Type: TokenStar, Value: "*", Pos: start}, nil
	case r == '=' || r == '<' || r == '>' || r == '!':
		return l.readOperator()
	case r == '\'':
		return l.readString()
	case r == '`':
		return l.readQuotedIdent()
	case isDigit(r) || (r == '-' && isDigit(rune(l.peekAt(1)))):
		return l.readNumber(), nil
	case unicode.IsLetter(r) || r == '_':
		return l.readWord(), nil
	default:
		return Token{}, newSyntaxError(start, string(r), "unexpected character")
	}
}

// readOperator reads one of = < > <= >= <> !=.
func (l *Lexer) readOperator() (Token, error) {
	start := l.pos
	first := l.input[l.pos]
	second := l.peekAt(1)

	op := string(first)
	switch {
	case first == '<' && (second == '=' || second == '>'):
		op += string(second)
	case first == '>' && second == '=':
		op += string(second)
	case first == '!':
		if second != '=' {
			return Token{}, newSyntaxError(start, "!", "expected '!='")
		}
		op += string(second)
	}
	l.pos += len(op)
	return Token{Type: TokenOperator, Value: op, Pos: start}, nil
}

// readString reads a single-quoted literal. Only \' and \\ are escapes; any
// other backslash is kept as written.
func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\' && (l.peekAt(1) == '\'' || l.peekAt(1) == '\\'):
			b.WriteByte(l.peekAt(1))
			l.pos += 2
		case c == '\'':
			l.pos++
			return Token{Type: TokenString, Value: b.String(), Pos: start}, nil
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, newSyntaxError(start, l.input[start:], "unterminated string literal")
}

// readQuotedIdent reads a backtick-quoted identifier.
func (l *Lexer) readQuotedIdent() (Token, error) {
	start := l.pos
	end := strings.IndexByte(l.input[start+1:], '`')
	if end < 0 {
		return Token{}, newSyntaxError(start, l.input[start:], "unterminated quoted identifier")
	}
	value := l.input[start+1 : start+1+end]
	if value == "" {
		return Token{}, newSyntaxError(start, "``", "empty quoted identifier")
	}
	l.pos = start + end + 2
	return Token{Type: TokenQuotedIdent, Value: value, Pos: start}, nil
}

// readNumber reads a bare numeric literal. Dashes and colons are accepted
// after the first digit so that unquoted dates and times stay one token.
func (l *Lexer) readNumber() Token {
	start := l.pos
	l.pos++ // first digit or sign
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if !isDigit(rune(c)) && c != '.' && c != '-' && c != ':' {
			break
		}
		l.pos++
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

// readWord reads a bare identifier or keyword.
func (l *Lexer) readWord() Token {
	start := l.pos
	for {
		r, size := l.peek()
		if size == 0 || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.') {
			break
		}
		l.pos += size
	}
	word := l.input[start:l.pos]
	if typ, ok := keywords[strings.ToLower(word)]; ok {
		return Token{Type: typ, Value: word, Pos: start}
	}
	return Token{Type: TokenIdent, Value: word, Pos: start}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens of input, terminated by a TokenEOF token.
func Tokenize(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var tokens []Token
	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}
