// Package ccss compiles indentation structured stylesheets with variables,
// nested selectors and expressions into plain CSS.
package ccss

import (
	"cmp"
	"slices"

	"go.uber.org/zap"
)

// Compiler turns source text into stylesheets. It holds no per-compilation
// state and may be shared.
type Compiler struct {
	log *zap.Logger
}

// NewCompiler creates a new compiler.
func NewCompiler(log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{log: log.Named("ccss")}
}

type declaration struct {
	line int
	key  string
	expr Node
}

type sheetBlock struct {
	selectors []string
	decls     []declaration
}

// Sheet is a parsed and flattened source, ready to be evaluated any number of
// times.
type Sheet struct {
	Root *Rule
	Vars map[string]Variable

	blocks []sheetBlock
	exprs  map[string]Node
	log    *zap.Logger
}

// Parse runs the structural and expression parsers over the source.
func (c *Compiler) Parse(src string) (*Sheet, error) {
	root, vars, err := parseRules(src)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Root: root, Vars: vars, exprs: make(map[string]Node, len(vars)), log: c.log}

	// keep error reporting stable, first broken definition wins
	defs := make([]Variable, 0, len(vars))
	for _, v := range vars {
		defs = append(defs, v)
	}
	slices.SortFunc(defs, func(a, b Variable) int { return cmp.Compare(a.Line, b.Line) })
	for _, v := range defs {
		n, err := parseExpr(v.Line, v.Expr)
		if err != nil {
			return nil, err
		}
		sheet.exprs[v.Name] = n
	}

	for _, fb := range flatten(root) {
		b := sheetBlock{selectors: fb.selectors, decls: make([]declaration, 0, len(fb.props))}
		for _, p := range fb.props {
			n, err := parseExpr(p.Line, p.Value)
			if err != nil {
				return nil, err
			}
			b.decls = append(b.decls, declaration{line: p.Line, key: p.Key, expr: n})
		}
		sheet.blocks = append(sheet.blocks, b)
	}

	c.log.Debug("Source parsed", zap.Int("blocks", len(sheet.blocks)), zap.Int("variables", len(sheet.exprs)))
	return sheet, nil
}

// Evaluate computes every declaration. Overrides are raw expressions
// pre-seeding variables, definitions from the source take precedence.
func (s *Sheet) Evaluate(overrides map[string]string) (*Stylesheet, error) {
	ctx, err := s.context(overrides)
	if err != nil {
		return nil, err
	}

	out := &Stylesheet{Blocks: make([]Block, 0, len(s.blocks))}
	for _, b := range s.blocks {
		block := Block{Selectors: b.selectors, Declarations: make([]Declaration, 0, len(b.decls))}
		for _, d := range b.decls {
			v, err := d.expr.eval(ctx)
			if err != nil {
				return nil, err
			}
			block.Declarations = append(block.Declarations, Declaration{Key: d.key, Value: v.String()})
		}
		out.Blocks = append(out.Blocks, block)
	}
	return out, nil
}

// Variable evaluates a single source variable.
func (s *Sheet) Variable(name string, overrides map[string]string) (Value, error) {
	n, ok := s.exprs[name]
	if !ok {
		return nil, evalErrorf(0, "variable %s is not defined", name)
	}
	ctx, err := s.context(overrides)
	if err != nil {
		return nil, err
	}
	return (&varNode{pos: pos(n.Line()), name: name}).eval(ctx)
}

func (s *Sheet) context(overrides map[string]string) (*evalContext, error) {
	vars := make(map[string]Node, len(overrides)+len(s.exprs))
	for name, raw := range overrides {
		n, err := parseExpr(0, raw)
		if err != nil {
			return nil, err
		}
		vars[name] = n
	}
	for name, n := range s.exprs {
		if _, seeded := vars[name]; seeded {
			s.log.Debug("Variable override ignored, defined in source", zap.String("name", name))
		}
		vars[name] = n
	}
	return newEvalContext(vars), nil
}

// Compile converts source text into stylesheet text.
func (c *Compiler) Compile(src string, overrides map[string]string) (string, error) {
	sheet, err := c.Parse(src)
	if err != nil {
		return "", err
	}
	out, err := sheet.Evaluate(overrides)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// CompileExpression evaluates a standalone expression without variables.
func (c *Compiler) CompileExpression(src string) (Value, error) {
	n, err := parseExpr(1, src)
	if err != nil {
		return nil, err
	}
	return n.eval(newEvalContext(nil))
}

// Convert compiles source text with default settings.
func Convert(src string) (string, error) {
	return NewCompiler(nil).Compile(src, nil)
}
