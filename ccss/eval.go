package ccss

// evalContext carries variable definitions and the chain of variables being
// resolved. Contexts are never modified, entering a variable creates a new
// one.
type evalContext struct {
	vars      map[string]Node
	resolving *inflight
}

type inflight struct {
	name string
	next *inflight
}

func (f *inflight) has(name string) bool {
	for ; f != nil; f = f.next {
		if f.name == name {
			return true
		}
	}
	return false
}

func newEvalContext(vars map[string]Node) *evalContext {
	if vars == nil {
		vars = map[string]Node{}
	}
	return &evalContext{vars: vars}
}

func (ctx *evalContext) enter(name string) *evalContext {
	return &evalContext{vars: ctx.vars, resolving: &inflight{name: name, next: ctx.resolving}}
}

func (n *numberNode) eval(*evalContext) (Value, error) {
	return Number(n.v), nil
}

func (n *dimensionNode) eval(*evalContext) (Value, error) {
	return Dimension{Num: n.v, Unit: n.unit}, nil
}

func (n *colorNode) eval(*evalContext) (Value, error) {
	return n.c, nil
}

func (n *stringNode) eval(*evalContext) (Value, error) {
	return String(n.s), nil
}

func (n *urlNode) eval(*evalContext) (Value, error) {
	return URL(n.s), nil
}

func (n *varNode) eval(ctx *evalContext) (Value, error) {
	def, ok := ctx.vars[n.name]
	if !ok {
		return nil, evalErrorf(n.Line(), "variable %s is not defined", n.name)
	}
	if ctx.resolving.has(n.name) {
		return nil, evalErrorf(n.Line(), "circular variable dependencies detected when resolving %s", n.name)
	}
	return def.eval(ctx.enter(n.name))
}

func (n *binaryNode) eval(ctx *evalContext) (Value, error) {
	l, err := n.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(ctx)
	if err != nil {
		return nil, err
	}
	return binaryOp(n.Line(), n.op, l, r)
}

// binaryOp lets the left operand decide first. Undefined addition turns into
// string concatenation, anything else undefined is an error.
func binaryOp(line int, op byte, l, r Value) (Value, error) {
	if o, ok := l.(operand); ok {
		v, err := o.operate(line, op, r)
		if err != nil || v != nil {
			return v, err
		}
	}
	switch op {
	case '+':
		return String(plain(l) + plain(r)), nil
	case '-':
		return nil, evalErrorf(line, "cannot subtract %s from %s", r.Kind(), l.Kind())
	case '*':
		return nil, evalErrorf(line, "cannot multiply %s with %s", l.Kind(), r.Kind())
	case '/':
		return nil, evalErrorf(line, "cannot divide %s by %s", l.Kind(), r.Kind())
	}
	return nil, evalErrorf(line, "cannot use the modulo operator for %s and %s, misplaced unit symbol?", l.Kind(), r.Kind())
}

func (n *negNode) eval(ctx *evalContext) (Value, error) {
	v, err := n.operand.eval(ctx)
	if err != nil {
		return nil, err
	}
	if ng, ok := v.(negater); ok {
		return ng.negate(), nil
	}
	return nil, evalErrorf(n.Line(), "cannot negate %s", v.Kind())
}

func (n *callNode) eval(ctx *evalContext) (Value, error) {
	recv, err := n.recv.eval(ctx)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		if args[i], err = a.eval(ctx); err != nil {
			return nil, err
		}
	}
	return callMethod(ctx, n.Line(), recv, n.method, args)
}

// eval of rgb() accepts numbers and percentages of 255.
func (n *rgbNode) eval(ctx *evalContext) (Value, error) {
	var ch [3]int
	for i, a := range n.args {
		v, err := a.eval(ctx)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case Number:
			ch[i] = int(v)
		case Dimension:
			if v.Unit != "%" {
				return nil, evalErrorf(n.Line(), "colors defined using rgb() only accept numbers and percentages")
			}
			ch[i] = int(v.Num / 100 * 255)
		default:
			return nil, evalErrorf(n.Line(), "colors defined using rgb() only accept numbers and percentages")
		}
		if ch[i] < 0 || ch[i] > 255 {
			return nil, evalErrorf(n.Line(), "rgb components must be in the range 0 to 255")
		}
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

func (n *concatNode) eval(ctx *evalContext) (Value, error) {
	out, err := evalAll(ctx, n.items)
	if err != nil {
		return nil, err
	}
	return Concat(out), nil
}

func (n *listNode) eval(ctx *evalContext) (Value, error) {
	out, err := evalAll(ctx, n.items)
	if err != nil {
		return nil, err
	}
	return List(out), nil
}

func evalAll(ctx *evalContext, nodes []Node) ([]Value, error) {
	out := make([]Value, len(nodes))
	for i, n := range nodes {
		v, err := n.eval(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
