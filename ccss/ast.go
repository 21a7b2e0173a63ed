package ccss

import (
	"strconv"
	"strings"
)

// Node is a parsed expression ready for evaluation.
type Node interface {
	Line() int
	eval(ctx *evalContext) (Value, error)
}

type pos int

func (p pos) Line() int { return int(p) }

type (
	numberNode struct {
		pos
		v float64
	}
	dimensionNode struct {
		pos
		v    float64
		unit string
	}
	colorNode struct {
		pos
		c Color
	}
	stringNode struct {
		pos
		s string
	}
	urlNode struct {
		pos
		s string
	}
	varNode struct {
		pos
		name string
	}
	binaryNode struct {
		pos
		op          byte
		left, right Node
	}
	negNode struct {
		pos
		operand Node
	}
	callNode struct {
		pos
		recv   Node
		method string
		args   []Node
	}
	rgbNode struct {
		pos
		args [3]Node
	}
	concatNode struct {
		pos
		items []Node
	}
	listNode struct {
		pos
		items []Node
	}
)

// parseColor accepts "#rgb", "#rrggbb" and color keywords.
func parseColor(line int, text string) (Color, error) {
	if !strings.HasPrefix(text, "#") {
		code, ok := colorNames[text]
		if !ok {
			return Color{}, syntaxErrorf(line, "unknown color name %q", text)
		}
		c, err := parseColor(line, code)
		if err != nil {
			return Color{}, err
		}
		c.Name = text
		return c, nil
	}

	hex := text[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, syntaxErrorf(line, "invalid color value %q", text)
	}
	var ch [3]int
	for i := range ch {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, syntaxErrorf(line, "invalid color value %q", text)
		}
		ch[i] = int(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}
