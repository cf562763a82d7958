package expr

import (
	"fmt"
)

// Parser is a recursive-descent parser over the conventional C-family
// precedence spec.md §4.3 specifies: ternary, ||, &&, |, ^, &,
// equality, relational, shift, additive, multiplicative, unary, primary.
type Parser struct {
	toks []Token
	pos  int
}

// Parse preprocesses and parses one expression into an AST.
func Parse(src string) (*Node, error) {
	pp := Preprocess(src)
	lx := NewLexer(pp)
	var toks []Token
	for {
		t, err := lx.Next()
		if err != nil {
			return nil, fmt.Errorf("expression syntax: %w", err)
		}
		toks = append(toks, t)
		if t.Type == TokEOF {
			break
		}
	}
	p := &Parser{toks: toks}
	n, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != TokEOF {
		return nil, fmt.Errorf("expression syntax: unexpected trailing token %q at offset %d", p.cur().Lit, p.cur().Pos)
	}
	return n, nil
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.cur().Type != tt {
		return Token{}, fmt.Errorf("expression syntax: expected %s, got %q at offset %d", tt, p.cur().Lit, p.cur().Pos)
	}
	return p.advance(), nil
}

func (p *Parser) parseTernary() (*Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.cur().Type == TokQuestion {
		p.advance()
		then, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		els, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KTernary, Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

// precedence levels, lowest first: || ; && ; | ; ^ ; & ; == != ; < <= > >= ; << >> ; + - ; * / %
var precLevels = [][]TokenType{
	{TokOrOr},
	{TokAndAnd},
	{TokPipe},
	{TokCaret},
	{TokAmp},
	{TokEq, TokNeq},
	{TokLt, TokLe, TokGt, TokGe},
	{TokShl, TokShr},
	{TokPlus, TokMinus},
	{TokStar, TokSlash, TokPercent},
}

func (p *Parser) parseBinary(level int) (*Node, error) {
	if level >= len(precLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for containsTok(precLevels[level], p.cur().Type) {
		op := p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KBinary, Op: op.Type, X: left, Y: right}
	}
	return left, nil
}

func containsTok(list []TokenType, t TokenType) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() (*Node, error) {
	switch p.cur().Type {
	case TokMinus, TokNot, TokTilde:
		op := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KUnary, Op: op.Type, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*Node, error) {
	tok := p.cur()
	switch tok.Type {
	case TokNumber:
		p.advance()
		return &Node{Kind: KNumber, NumLit: tok.Lit}, nil
	case TokString:
		p.advance()
		return &Node{Kind: KString, StrLit: tok.Lit}, nil
	case TokLParen:
		p.advance()
		n, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case TokIdent:
		p.advance()
		name := tok.Lit
		if p.cur().Type == TokLParen {
			p.advance()
			var args []*Node
			if p.cur().Type != TokRParen {
				for {
					a, err := p.parseTernary()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.cur().Type != TokComma {
						break
					}
					p.advance()
				}
			}
			if _, err := p.expect(TokRParen); err != nil {
				return nil, err
			}
			return &Node{Kind: KCall, Func: name, Args: args}, nil
		}
		return &Node{Kind: KIdent, StrLit: name}, nil
	}
	return nil, fmt.Errorf("expression syntax: unexpected token %q at offset %d", tok.Lit, tok.Pos)
}
