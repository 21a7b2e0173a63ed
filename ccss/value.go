package ccss

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is an evaluated expression. Values are immutable, every operation
// produces a new one.
type Value interface {
	// Kind names the variant in error messages and for the type() method.
	Kind() string
	// String renders the value as it should appear in a stylesheet.
	String() string
}

// operand is implemented by values with their own arithmetic. A nil value
// without an error means the operation is not defined for the pair and the
// generic fallback applies.
type operand interface {
	operate(line int, op byte, r Value) (Value, error)
}

type negater interface {
	negate() Value
}

type (
	// Number is a plain unitless number.
	Number float64

	// Dimension is a number with a unit, "10px" or "50%".
	Dimension struct {
		Num  float64
		Unit string
	}

	// Color keeps 8 bit channels. Name is set when the color was given as a
	// keyword and has not been modified since.
	Color struct {
		R, G, B int
		Name    string
	}

	String string
	URL    string

	// List is rendered comma separated.
	List []Value

	// Concat holds juxtaposed values and is rendered space separated.
	Concat []Value
)

func (Number) Kind() string    { return "number" }
func (Dimension) Kind() string { return "dimension" }
func (Color) Kind() string     { return "color" }
func (String) Kind() string    { return "string" }
func (URL) Kind() string       { return "url" }
func (List) Kind() string      { return "list" }
func (Concat) Kind() string    { return "concatenated" }

func (n Number) String() string { return numberRepr(float64(n)) }

func (d Dimension) String() string { return numberRepr(d.Num) + d.Unit }

func (c Color) String() string {
	if len(c.Name) > 0 {
		return c.Name
	}
	return c.Hex()
}

// Hex returns "#rrggbb" form of the color.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (s String) String() string { return quote(string(s)) }

func (u URL) String() string {
	s := string(u)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		// given quoted, keep as is
		return "url(" + s + ")"
	}
	return "url(" + quote(s) + ")"
}

func (l List) String() string { return joinValues(l, ", ") }

func (c Concat) String() string { return joinValues(c, " ") }

func joinValues(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// numberRepr renders up to 12 significant digits dropping fraction of whole
// numbers.
func numberRepr(f float64) string {
	if f == 0 {
		// no "-0"
		f = 0
	}
	return strconv.FormatFloat(f, 'g', 12, 64)
}

// quote returns s as is unless it holds more than one word, in which case it
// is single quoted with escapes.
func quote(s string) string {
	if len(strings.Fields(s)) < 2 {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// plain is the text of a value used for concatenation, strings are taken
// without quoting.
func plain(v Value) string {
	switch v := v.(type) {
	case String:
		return string(v)
	case URL:
		return string(v)
	}
	return v.String()
}

// arith applies op to plain floats. Modulo follows the sign of the divisor.
func arith(line int, op byte, a, b float64) (float64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, evalErrorf(line, "cannot divide by zero")
		}
		return a / b, nil
	case '%':
		if b == 0 {
			return 0, evalErrorf(line, "cannot divide by zero")
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m, nil
	}
	return 0, evalErrorf(line, "unknown operator %q", op)
}

func (n Number) operate(line int, op byte, r Value) (Value, error) {
	switch r := r.(type) {
	case Number:
		v, err := arith(line, op, float64(n), float64(r))
		if err != nil {
			return nil, err
		}
		return Number(v), nil
	case Dimension:
		v, err := arith(line, op, float64(n), r.Num)
		if err != nil {
			return nil, err
		}
		return Dimension{Num: v, Unit: r.Unit}, nil
	}
	return nil, nil
}

func (n Number) negate() Value { return -n }

func (d Dimension) operate(line int, op byte, r Value) (Value, error) {
	switch r := r.(type) {
	case Number:
		v, err := arith(line, op, d.Num, float64(r))
		if err != nil {
			return nil, err
		}
		return Dimension{Num: v, Unit: d.Unit}, nil
	case Dimension:
		switch op {
		case '+', '-':
			return d.combine(line, op, r)
		case '/', '%':
			if r.Num == 0 {
				return nil, evalErrorf(line, "cannot divide by zero")
			}
		}
	}
	return nil, nil
}

// combine adds or subtracts two dimensions. Different units are converted
// when they belong to the same family and the result takes the unit with the
// larger factor.
func (d Dimension) combine(line int, op byte, r Dimension) (Value, error) {
	if d.Unit == r.Unit {
		v, err := arith(line, op, d.Num, r.Num)
		if err != nil {
			return nil, err
		}
		return Dimension{Num: v, Unit: d.Unit}, nil
	}

	fl, fr, ok := conversion(d.Unit, r.Unit)
	if !ok {
		if op == '+' {
			return nil, evalErrorf(line, "cannot add %s and %s because the two units are not compatible", d.Unit, r.Unit)
		}
		return nil, evalErrorf(line, "cannot subtract %s from %s because the two units are not compatible", r.Unit, d.Unit)
	}

	unit, factor := d.Unit, fl
	if fr > fl {
		unit, factor = r.Unit, fr
	}
	v, err := arith(line, op, d.Num*fl/factor, r.Num*fr/factor)
	if err != nil {
		return nil, err
	}
	return Dimension{Num: v, Unit: unit}, nil
}

func (d Dimension) negate() Value { return Dimension{Num: -d.Num, Unit: d.Unit} }

func (c Color) operate(line int, op byte, r Value) (Value, error) {
	var other [3]int
	switch r := r.(type) {
	case Color:
		other = [3]int{r.R, r.G, r.B}
	case Number:
		n := int(r)
		other = [3]int{n, n, n}
	default:
		return nil, nil
	}

	var ch [3]int
	for i, v := range [3]int{c.R, c.G, c.B} {
		switch op {
		case '+':
			v += other[i]
		case '-':
			v -= other[i]
		case '*':
			v *= other[i]
		case '/':
			if other[i] == 0 {
				return nil, evalErrorf(line, "cannot divide by zero")
			}
			v /= other[i]
		default:
			return nil, nil
		}
		ch[i] = min(max(v, 0), 255)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

func (s String) operate(_ int, op byte, r Value) (Value, error) {
	if n, ok := r.(Number); ok && op == '*' {
		return String(strings.Repeat(string(s), max(int(n), 0))), nil
	}
	return nil, nil
}

func (u URL) operate(_ int, op byte, r Value) (Value, error) {
	switch op {
	case '+':
		return URL(string(u) + plain(r)), nil
	case '*':
		if n, ok := r.(Number); ok {
			return URL(strings.Repeat(string(u), max(int(n), 0))), nil
		}
	}
	return nil, nil
}

func (l List) operate(_ int, op byte, r Value) (Value, error) {
	if op != '+' {
		return nil, nil
	}
	out := make(List, 0, len(l)+1)
	out = append(out, l...)
	if other, ok := r.(List); ok {
		return append(out, other...), nil
	}
	return append(out, r), nil
}
