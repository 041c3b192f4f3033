package tq

import (
	"fmt"
	"strconv"
)

// Parser is a recursive-descent parser over a token slice.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses query text into a Query.
// It returns a *SyntaxError on malformed input.
func Parse(text string) (*Query, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	return p.parseQuery()
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// accept consumes the current token if it has type typ.
func (p *Parser) accept(typ TokenType) bool {
	if p.current().Type != typ {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, p.errorf(tok, "expected %s, got %s", typ, tok)
	}
	p.advance()
	return tok, nil
}

func (p *Parser) errorf(tok Token, format string, args ...any) *SyntaxError {
	near := tok.Value
	if tok.Type == TokenEOF {
		near = ""
	}
	return newSyntaxError(tok.Pos, near, fmt.Sprintf(format, args...))
}

// parseQuery parses the clauses in grammar order; each is optional.
func (p *Parser) parseQuery() (*Query, error) {
	q := &Query{}
	var err error

	if p.accept(TokenSelect) {
		if q.Select, err = p.parseSelectList(); err != nil {
			return nil, err
		}
	}

	if p.accept(TokenWhere) {
		if q.Where, err = p.parseOr(); err != nil {
			return nil, err
		}
	}

	if p.accept(TokenGroup) {
		if _, err := p.expect(TokenBy); err != nil {
			return nil, err
		}
		if q.GroupBy, err = p.parseIdentList(); err != nil {
			return nil, err
		}
	}

	if p.accept(TokenOrder) {
		if _, err := p.expect(TokenBy); err != nil {
			return nil, err
		}
		if q.OrderBy, err = p.parseOrderList(); err != nil {
			return nil, err
		}
	}

	if p.accept(TokenLimit) {
		if q.Limit, err = p.parseCount("LIMIT"); err != nil {
			return nil, err
		}
	}

	if p.accept(TokenOffset) {
		if q.Offset, err = p.parseCount("OFFSET"); err != nil {
			return nil, err
		}
	}

	if tok := p.current(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
	return q, nil
}

// parseSelectList parses "*" or a comma separated identifier list. The
// wildcard may be mixed with named columns.
func (p *Parser) parseSelectList() ([]Identifier, error) {
	var items []Identifier
	for {
		tok := p.current()
		if tok.Type == TokenStar {
			p.advance()
			items = append(items, Identifier{Name: Wildcard, Pos: tok.Pos})
		} else {
			id, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			items = append(items, id)
		}
		if !p.accept(TokenComma) {
			return items, nil
		}
	}
}

func (p *Parser) parseIdentList() ([]Identifier, error) {
	var items []Identifier
	for {
		id, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		items = append(items, id)
		if !p.accept(TokenComma) {
			return items, nil
		}
	}
}

func (p *Parser) parseIdent() (Identifier, error) {
	tok := p.current()
	switch tok.Type {
	case TokenIdent:
		p.advance()
		return Identifier{Name: tok.Value, Pos: tok.Pos}, nil
	case TokenQuotedIdent:
		p.advance()
		return Identifier{Name: tok.Value, Quoted: true, Pos: tok.Pos}, nil
	default:
		return Identifier{}, p.errorf(tok, "expected column name, got %s", tok)
	}
}

func (p *Parser) parseOrderList() ([]OrderItem, error) {
	var items []OrderItem
	for {
		id, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Column: id}
		if p.accept(TokenDesc) {
			item.Desc = true
		} else {
			p.accept(TokenAsc)
		}
		items = append(items, item)
		if !p.accept(TokenComma) {
			return items, nil
		}
	}
}

func (p *Parser) parseCount(clause string) (*int, error) {
	tok := p.current()
	if tok.Type != TokenNumber {
		return nil, p.errorf(tok, "%s expects a non-negative integer, got %s", clause, tok)
	}
	n, err := strconv.Atoi(tok.Value)
	if err != nil || n < 0 {
		return nil, p.errorf(tok, "%s expects a non-negative integer", clause)
	}
	p.advance()
	return &n, nil
}

// parseOr parses OR chains (lowest precedence).
func (p *Parser) parseOr() (Predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(TokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Compound{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

// parseAnd parses AND chains.
func (p *Parser) parseAnd() (Predicate, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.accept(TokenAnd) {
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Compound{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

// parsePrimary parses a parenthesized predicate, a comparison or an in list.
func (p *Parser) parsePrimary() (Predicate, error) {
	if p.accept(TokenLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if p.accept(TokenIn) {
		values, err := p.parseValueList()
		if err != nil {
			return nil, err
		}
		return &InList{Left: left, Values: values}, nil
	}

	tok := p.current()
	if tok.Type != TokenOperator {
		return nil, p.errorf(tok, "expected comparison operator, got %s", tok)
	}
	p.advance()

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Comparison{Op: tok.Value, Left: left, Right: right}, nil
}

func (p *Parser) parseValueList() ([]Operand, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var values []Operand
	for {
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return values, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	tok := p.current()
	switch tok.Type {
	case TokenIdent:
		p.advance()
		return Operand{Kind: OperandIdent, Text: tok.Value, Pos: tok.Pos}, nil
	case TokenQuotedIdent:
		p.advance()
		return Operand{Kind: OperandIdent, Text: tok.Value, Quoted: true, Pos: tok.Pos}, nil
	case TokenString:
		p.advance()
		return Operand{Kind: OperandString, Text: tok.Value, Pos: tok.Pos}, nil
	case TokenNumber:
		p.advance()
		return Operand{Kind: OperandNumber, Text: tok.Value, Pos: tok.Pos}, nil
	default:
		return Operand{}, p.errorf(tok, "expected column or literal, got %s", tok)
	}
}
