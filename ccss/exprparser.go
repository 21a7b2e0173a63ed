package ccss

import (
	"strconv"
	"strings"
)

// exprParser is a recursive descent parser over the tokens of a single
// expression. Precedence from low to high: list, implicit concatenation,
// additive, multiplicative, unary minus, primary.
type exprParser struct {
	line int
	toks []token
	pos  int
}

// parseExpr parses raw expression text. Trailing list separators are
// ignored.
func parseExpr(line int, src string) (Node, error) {
	src = strings.TrimRight(src, " \t;,")
	toks, err := tokenize(line, src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, syntaxErrorf(line, "expression expected")
	}
	p := &exprParser{line: line, toks: toks}
	n, err := p.list(false)
	if err != nil {
		return nil, err
	}
	if t := p.current(); t.kind != tokEOF {
		return nil, syntaxErrorf(line, "unexpected '%s'", t)
	}
	return n, nil
}

func (p *exprParser) current() token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token{kind: tokEOF}
}

func (p *exprParser) next() {
	if p.pos < len(p.toks) {
		p.pos++
	}
}

func (p *exprParser) expect(op string) error {
	if t := p.current(); !t.isOp(op) {
		return syntaxErrorf(p.line, "expected '%s', got '%s'", op, t)
	}
	p.next()
	return nil
}

// list parses ";" separated items, and "," separated ones unless
// ignoreComma is set (function arguments).
func (p *exprParser) list(ignoreComma bool) (Node, error) {
	first, err := p.concat()
	if err != nil {
		return nil, err
	}
	items := []Node{first}
	for {
		t := p.current()
		if !t.isOp(";") && (ignoreComma || !t.isOp(",")) {
			break
		}
		p.next()
		n, err := p.concat()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	if len(items) == 1 {
		return first, nil
	}
	return &listNode{pos: pos(p.line), items: items}, nil
}

func (p *exprParser) concat() (Node, error) {
	first, err := p.additive()
	if err != nil {
		return nil, err
	}
	items := []Node{first}
	for {
		t := p.current()
		if t.kind == tokEOF || t.isOp(",") || t.isOp(";") || t.isOp(")") {
			break
		}
		n, err := p.additive()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	if len(items) == 1 {
		return first, nil
	}
	return &concatNode{pos: pos(p.line), items: items}, nil
}

func (p *exprParser) additive() (Node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for t := p.current(); t.isOp("+") || t.isOp("-"); t = p.current() {
		p.next()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{pos: pos(p.line), op: t.text[0], left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) multiplicative() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for t := p.current(); t.isOp("*") || t.isOp("/") || t.isOp("%"); t = p.current() {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{pos: pos(p.line), op: t.text[0], left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) unary() (Node, error) {
	if p.current().isOp("-") {
		p.next()
		n, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &negNode{pos: pos(p.line), operand: n}, nil
	}
	return p.primary()
}

func (p *exprParser) primary() (Node, error) {
	var (
		node Node
		at   = pos(p.line)
		t    = p.current()
	)
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, syntaxErrorf(p.line, "invalid number %q", t.text)
		}
		p.next()
		node = &numberNode{pos: at, v: v}
	case tokDimension:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, syntaxErrorf(p.line, "invalid number %q", t.text)
		}
		p.next()
		node = &dimensionNode{pos: at, v: v, unit: t.unit}
	case tokColor:
		c, err := parseColor(p.line, t.text)
		if err != nil {
			return nil, err
		}
		p.next()
		node = &colorNode{pos: at, c: c}
	case tokRGB:
		p.next()
		if !p.current().isOp("(") {
			node = &stringNode{pos: at, s: "rgb"}
			break
		}
		p.next()
		rgb := &rgbNode{pos: at}
		for i := range rgb.args {
			if i > 0 {
				if err := p.expect(","); err != nil {
					return nil, err
				}
			}
			arg, err := p.list(true)
			if err != nil {
				return nil, err
			}
			rgb.args[i] = arg
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		node = rgb
	case tokString:
		p.next()
		node = &stringNode{pos: at, s: t.text}
	case tokURL:
		p.next()
		node = &urlNode{pos: at, s: t.text}
	case tokVar:
		p.next()
		node = &varNode{pos: at, name: t.text}
	case tokCall:
		return nil, syntaxErrorf(p.line, "cannot call standalone method %q, quote it to use as a string", t.text)
	case tokEOF:
		return nil, syntaxErrorf(p.line, "unexpected end of expression")
	case tokOp:
		switch t.text {
		case "(":
			p.next()
			if p.current().isOp(")") {
				return nil, syntaxErrorf(p.line, "empty parentheses are not valid, quote them to use as a string")
			}
			n, err := p.list(false)
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			node = n
		case ")", ",", ";":
			return nil, syntaxErrorf(p.line, "unexpected '%s'", t)
		default:
			// stray operator is taken literally
			p.next()
			node = &stringNode{pos: at, s: t.text}
		}
	}

	for p.current().kind == tokCall {
		method := p.current().text
		p.next()
		var args []Node
		for !p.current().isOp(")") {
			if len(args) > 0 {
				if t := p.current(); !t.isOp(",") {
					return nil, syntaxErrorf(p.line, "expected ')', got '%s'", t)
				}
				p.next()
			}
			arg, err := p.list(true)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		p.next()
		node = &callNode{pos: at, recv: node, method: method, args: args}
	}
	return node, nil
}
