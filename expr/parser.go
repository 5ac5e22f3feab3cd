package expr

import "fmt"

// Parser is a recursive-descent parser for the codadef expression DSL.
type Parser struct {
	toks []token
	pos  int
}

// Parse tokenizes and parses a complete expression, returning its AST.
func Parse(src string) (Node, error) {
	lx := newLexer(src)
	var toks []token
	for {
		t, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}
	p := &Parser{toks: toks}
	n, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("expr: unexpected trailing input at token %d", p.pos)
	}
	return n, nil
}

// MustParse parses src and panics on error; for use with trusted
// compile-time-constant expressions inside this module's own code, never
// with data read from a codadef file.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *Parser) cur() token  { return p.toks[p.pos] }
func (p *Parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) parseAssign() (Node, error) {
	if p.cur().kind == tokIdent {
		name := p.cur().text
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "=" {
			p.advance()
			p.advance()
			rhs, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			return &Assign{Name: name, Rhs: rhs}, nil
		}
	}
	return p.parseOr()
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "||" {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "&&" {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "==" || p.cur().text == "!=") {
		op := p.advance().text
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && isCompareOp(p.cur().text) {
		op := p.advance().text
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func isCompareOp(s string) bool {
	switch s {
	case "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *Parser) parseAdd() (Node, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMul() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for (p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "/" || p.cur().text == "%")) || p.cur().kind == tokSlash {
		op := p.advance().text
		if op == "" {
			op = "/"
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	if p.cur().kind == tokOp && (p.cur().text == "!" || p.cur().text == "-") {
		op := p.advance().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		return &Literal{Value: IntValue(t.ival)}, nil
	case tokFloat:
		p.advance()
		return &Literal{Value: FloatValue(t.fval)}, nil
	case tokString:
		p.advance()
		return &Literal{Value: StringValue([]byte(t.text))}, nil
	case tokLParen:
		p.advance()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, fmt.Errorf("expr: expected ')' at token %d", p.pos)
		}
		p.advance()
		return n, nil
	case tokSlash, tokDot, tokDotDot, tokAt:
		return p.parsePath()
	case tokIdent:
		switch t.text {
		case "true":
			p.advance()
			return &Literal{Value: BoolValue(true)}, nil
		case "false":
			p.advance()
			return &Literal{Value: BoolValue(false)}, nil
		}
		p.advance()
		if p.cur().kind == tokLParen {
			return p.parseCallArgs(t.text)
		}
		return &Identifier{Name: t.text}, nil
	default:
		return nil, fmt.Errorf("expr: unexpected token at position %d", p.pos)
	}
}

func (p *Parser) parseCallArgs(name string) (Node, error) {
	p.advance() // consume '('
	var args []Node
	if p.cur().kind != tokRParen {
		for {
			a, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.cur().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().kind != tokRParen {
		return nil, fmt.Errorf("expr: expected ')' closing call to %s", name)
	}
	p.advance()
	return &Call{Name: name, Args: args}, nil
}

// parsePath parses a navigation expression: an optional leading marker
// ('/' for root, './' for explicit-relative, '..' for parent, '@' for
// attributes) followed by zero or more '/name', '[expr]', '..', '@name'
// steps.
func (p *Parser) parsePath() (Node, error) {
	var steps []PathStep

	switch p.cur().kind {
	case tokSlash:
		p.advance()
		steps = append(steps, PathStep{Root: true})
		if p.cur().kind == tokIdent {
			steps = append(steps, PathStep{Field: p.advance().text})
		}
	case tokDot:
		p.advance()
		if p.cur().kind != tokSlash {
			return nil, fmt.Errorf("expr: expected '/' after '.' at token %d", p.pos)
		}
		p.advance()
		if p.cur().kind == tokIdent {
			steps = append(steps, PathStep{Field: p.advance().text})
		}
	case tokDotDot:
		p.advance()
		steps = append(steps, PathStep{Parent: true})
	case tokAt:
		p.advance()
		step := PathStep{Attribute: true}
		if p.cur().kind == tokIdent {
			step.Field = p.advance().text
		}
		steps = append(steps, step)
	}

loop:
	for {
		switch p.cur().kind {
		case tokSlash:
			p.advance()
			if p.cur().kind != tokIdent {
				return nil, fmt.Errorf("expr: expected field name after '/' at token %d", p.pos)
			}
			steps = append(steps, PathStep{Field: p.advance().text})
		case tokDotDot:
			p.advance()
			steps = append(steps, PathStep{Parent: true})
		case tokAt:
			p.advance()
			step := PathStep{Attribute: true}
			if p.cur().kind == tokIdent {
				step.Field = p.advance().text
			}
			steps = append(steps, step)
		case tokLBracket:
			p.advance()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if p.cur().kind != tokRBracket {
				return nil, fmt.Errorf("expr: expected ']' at token %d", p.pos)
			}
			p.advance()
			steps = append(steps, PathStep{Index: idx})
		default:
			break loop
		}
	}

	return &Path{Steps: steps}, nil
}

// IsConstantExpression parses and evaluates src as a constant-only
// expression, folding it to a plain Value (coda_expression_is_constant /
// evaluate-at-parse-time). If src is not constant it returns (Void, false,
// nil); an error means src failed to parse or to evaluate.
func IsConstantExpression(src string) (Value, bool, error) {
	n, err := Parse(src)
	if err != nil {
		return Void, false, err
	}
	if !n.IsConstant() {
		return Void, false, nil
	}
	v, err := n.Eval(NewContext())
	return v, true, err
}
