package ccss

import (
	"regexp"
	"strings"
)

var (
	varDefRe  = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*(.+)`)
	propDefRe = regexp.MustCompile(`^([a-zA-Z-]+)\s*:\s*(.+)`)
)

// Property is a single "key: value" definition, value kept as raw
// expression text.
type Property struct {
	Line  int
	Key   string
	Value string
}

// Rule is a selector block with its own properties and nested blocks. The
// root rule has an empty selector.
type Rule struct {
	Line       int
	Selector   string
	Properties []Property
	Children   []*Rule
}

// Variable is a root level "name = expression" definition.
type Variable struct {
	Line int
	Name string
	Expr string
}

type frameKind int

const (
	frameRoot frameKind = iota
	frameRule
	frameGroup
)

// frame is one open block. Group frames collect their definitions and hand
// them over to the owning rule when closed.
type frame struct {
	kind   frameKind
	indent int
	rule   *Rule
	prefix string
	props  []Property
}

func (f *frame) close() {
	if f.kind != frameGroup {
		return
	}
	for _, p := range f.props {
		f.rule.Properties = append(f.rule.Properties, Property{Line: p.Line, Key: f.prefix + "-" + p.Key, Value: p.Value})
	}
	f.props = nil
}

// parseRules builds the rule tree and the variable table from source text.
func parseRules(src string) (*Rule, map[string]Variable, error) {
	root := &Rule{}
	vars := make(map[string]Variable)

	stack := []*frame{{kind: frameRoot, rule: root}}
	var pending *frame

	sc := newLineScanner(src)
	for {
		ln, ok, err := sc.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}

		raw := expandTabs(ln.Text)
		text := strings.TrimLeft(raw, " ")
		indent := len(raw) - len(text)

		top := stack[len(stack)-1]
		switch {
		case indent > top.indent:
			if pending == nil {
				return nil, nil, syntaxErrorf(ln.No, "unexpected indent")
			}
			pending.indent = indent
			stack = append(stack, pending)
			pending = nil
		case pending != nil:
			return nil, nil, syntaxErrorf(ln.No, "expected definitions, found nothing")
		case indent < top.indent:
			level := -1
			for i, f := range stack {
				if f.indent == indent {
					level = i
					break
				}
			}
			if level < 0 {
				return nil, nil, syntaxErrorf(ln.No, "invalid dedent")
			}
			for len(stack)-1 > level {
				stack[len(stack)-1].close()
				stack = stack[:len(stack)-1]
			}
		}

		if text == endMarker {
			break
		}

		top = stack[len(stack)-1]
		switch top.kind {
		case frameRoot, frameRule:
			switch {
			case strings.HasSuffix(text, ":"):
				sel := strings.TrimSpace(text[:len(text)-1])
				if len(sel) == 0 {
					return nil, nil, syntaxErrorf(ln.No, "empty rule")
				}
				for _, part := range strings.Split(sel, ",") {
					if len(strings.TrimSpace(part)) == 0 {
						return nil, nil, syntaxErrorf(ln.No, "empty selector in rule %q", sel)
					}
				}
				rule := &Rule{Line: ln.No, Selector: sel}
				top.rule.Children = append(top.rule.Children, rule)
				pending = &frame{kind: frameRule, rule: rule}

			case top.kind == frameRoot:
				// only variables live at the root level
				if !strings.Contains(text, "=") {
					return nil, nil, syntaxErrorf(ln.No, "style definitions or group blocks are only allowed inside a rule or group block")
				}
				m := varDefRe.FindStringSubmatch(text)
				if m == nil {
					return nil, nil, syntaxErrorf(ln.No, "invalid syntax")
				}
				if _, exists := vars[m[1]]; exists {
					return nil, nil, syntaxErrorf(ln.No, "variable %q defined twice", m[1])
				}
				vars[m[1]] = Variable{Line: ln.No, Name: m[1], Expr: m[2]}

			case strings.HasSuffix(text, "->"):
				prefix := strings.TrimSpace(text[:len(text)-2])
				if len(prefix) == 0 {
					return nil, nil, syntaxErrorf(ln.No, "no group prefix defined")
				}
				pending = &frame{kind: frameGroup, rule: top.rule, prefix: prefix}

			default:
				p, err := parseDefinition(ln.No, text)
				if err != nil {
					return nil, nil, err
				}
				top.rule.Properties = append(top.rule.Properties, p)
			}

		case frameGroup:
			p, err := parseDefinition(ln.No, text)
			if err != nil {
				return nil, nil, err
			}
			top.props = append(top.props, p)
		}
	}

	// early end marker may leave blocks open
	for i := len(stack) - 1; i > 0; i-- {
		stack[i].close()
	}
	return root, vars, nil
}

func parseDefinition(line int, text string) (Property, error) {
	m := propDefRe.FindStringSubmatch(text)
	if m == nil {
		return Property{}, syntaxErrorf(line, "invalid syntax for style definition")
	}
	return Property{Line: line, Key: m[1], Value: m[2]}, nil
}
