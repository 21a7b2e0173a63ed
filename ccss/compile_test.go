package ccss_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"slate/ccss"
)

func TestCompileExpression(t *testing.T) {
	c := ccss.NewCompiler(zaptest.NewLogger(t))

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", "1 + 2 * 3", "7"},
		{"parentheses", "(1 + 2) * 3", "9"},
		{"left associative", "10 - 2 - 3", "5"},
		{"fraction", "10 / 4", "2.5"},
		{"significant digits", "1 / 3", "0.333333333333"},
		{"float noise", "0.1 + 0.2", "0.3"},
		{"floored modulo", "-7 % 3", "2"},
		{"negation", "-(2 + 3)", "-5"},
		{"double negation", "1 - -2", "3"},
		{"negative dimension", "-5px", "-5px"},
		{"number and dimension", "2 * 3px", "6px"},
		{"dimension and number", "10px / 4", "2.5px"},
		{"same units", "1px + 2px", "3px"},
		{"convertible units", "1cm + 5mm", "1.5cm"},
		{"larger unit wins", "5mm + 1cm", "1.5cm"},
		{"time", "1s - 500ms", "0.5s"},
		{"frequency", "1kHz + 500Hz", "1.5kHz"},
		{"string concatenation", "'a' + 1", "a1"},
		{"number concatenation", "1 + foo", "1foo"},
		{"string repeat", "'ab' * 3", "ababab"},
		{"implicit concatenation", "2px 3px", "2px 3px"},
		{"list", "Verdana, Arial, sans-serif", "Verdana, Arial, sans-serif"},
		{"semicolon list", "a; b", "a, b"},
		{"quoted string with spaces", "'Times New Roman', serif", "'Times New Roman', serif"},
		{"escaped quote", `"it's here"`, `'it\'s here'`},
		{"color keyword", "red", "red"},
		{"short hex", "#ccc", "#cccccc"},
		{"color addition", "#ff0000 + #00ff00", "#ffff00"},
		{"color clamped", "#ffffff + 1", "#ffffff"},
		{"color clamped low", "#000000 - 10", "#000000"},
		{"color keyword modified", "red + 0", "#ff0000"},
		{"rgb", "rgb(255, 0, 0)", "#ff0000"},
		{"rgb percentages", "rgb(100%, 0%, 50%)", "#ff007f"},
		{"rgb expressions", "rgb(100 + 155, 0, 0)", "#ff0000"},
		{"rgb as string", "rgb", "rgb"},
		{"brighten black", "#000000.brighten(100%)", "#ffffff"},
		{"darken white", "#ffffff.darken(100%)", "#000000"},
		{"brighten zero", "#336699.brighten(0%)", "#336699"},
		{"darken default", "#808080.darken()", "#737373"},
		{"brighten absolute", "#000000.brighten(100)", "#ffffff"},
		{"hex", "red.hex()", "#ff0000"},
		{"url", "url(a.png)", "url(a.png)"},
		{"quoted url", "url('a b.png')", "url('a b.png')"},
		{"url append", "url(a) + '.png'", "url(a.png)"},
		{"number abs", "(-3).abs()", "3"},
		{"dimension abs", "(-3px).abs()", "3px"},
		{"round", "3.7.round()", "4"},
		{"round places", "3.14159.round(2)", "3.14"},
		{"round half away from zero", "2.5.round()", "3"},
		{"list length", "(1, 2, 3).length()", "3"},
		{"list join", "(a, b, c).join('-')", "a-b-c"},
		{"list join default", "(a, b).join()", "'a b'"},
		{"string length", "'hello'.length()", "5"},
		{"upper", "'hello'.upper()", "HELLO"},
		{"lower", "'HeLLo'.lower()", "hello"},
		{"strip", "'  x '.strip()", "x"},
		{"split", "'a b c'.split()", "a, b, c"},
		{"split delimiter", "'a-b'.split('-').join('+')", "a+b"},
		{"eval", "'(1 + 2) * 3px'.eval()", "9px"},
		{"concat to list", "(1 2 3).list()", "1, 2, 3"},
		{"type", "1px.type()", "dimension"},
		{"string", "1px.string() + 'x'", "1pxx"},
		{"trailing separators", "1px, 2px;", "1px, 2px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.CompileExpression(tt.src)
			if err != nil {
				t.Fatalf("CompileExpression(%q) error = %v", tt.src, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("CompileExpression(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestCompileExpression_Kinds(t *testing.T) {
	c := ccss.NewCompiler(nil)

	v, err := c.CompileExpression("'a' + 1")
	if err != nil {
		t.Fatalf("CompileExpression() error = %v", err)
	}
	if _, ok := v.(ccss.String); !ok {
		t.Errorf("string + number = %T, want ccss.String", v)
	}

	red, err := c.CompileExpression("rgb(255,0,0)")
	if err != nil {
		t.Fatalf("CompileExpression() error = %v", err)
	}
	lit, err := c.CompileExpression("#ff0000")
	if err != nil {
		t.Fatalf("CompileExpression() error = %v", err)
	}
	if red != lit {
		t.Errorf("rgb(255,0,0) = %#v, #ff0000 = %#v", red, lit)
	}
}

func TestCompileExpression_RoundTrip(t *testing.T) {
	c := ccss.NewCompiler(nil)

	// family reference units: mm, ms, Hz
	factors := map[string]float64{
		"mm": 1, "cm": 10, "in": 25.4, "pt": 25.4 / 72, "pc": 25.4 / 6,
		"ms": 1, "s": 1000, "Hz": 1, "kHz": 1000, "px": 1, "em": 1,
	}

	// result of mixed units is reported in the larger one, so going back
	// keeps the unit of a only when a is the larger unit
	pairs := []struct{ a, b, unit string }{
		{"1cm", "5mm", "cm"},
		{"3in", "2pt", "in"},
		{"2pc", "7pt", "pc"},
		{"1.5s", "250ms", "s"},
		{"2kHz", "300Hz", "kHz"},
		{"12px", "5px", "px"},
		{"3.3em", "0.7em", "em"},
		{"5mm", "1cm", "cm"},
		{"1mm", "1cm", "cm"},
		{"2pt", "3in", "in"},
		{"7pt", "2pc", "pc"},
		{"250ms", "1.5s", "s"},
		{"300Hz", "2kHz", "kHz"},
	}
	for _, p := range pairs {
		t.Run(p.a+"+"+p.b, func(t *testing.T) {
			want, err := c.CompileExpression(p.a)
			if err != nil {
				t.Fatalf("CompileExpression() error = %v", err)
			}
			v, err := c.CompileExpression("(" + p.a + " + " + p.b + ") - " + p.b)
			if err != nil {
				t.Fatalf("CompileExpression() error = %v", err)
			}
			got, ok := v.(ccss.Dimension)
			if !ok {
				t.Fatalf("result = %T, want ccss.Dimension", v)
			}
			w := want.(ccss.Dimension)
			if got.Unit != p.unit {
				t.Errorf("unit = %q, want %q", got.Unit, p.unit)
			}
			if g, e := got.Num*factors[got.Unit], w.Num*factors[w.Unit]; math.Abs(g-e) > 1e-9 {
				t.Errorf("value = %v, want %v", v, want)
			}
		})
	}
}

func TestCompileExpression_Errors(t *testing.T) {
	c := ccss.NewCompiler(nil)

	tests := []struct {
		name   string
		src    string
		syntax bool
		msg    string
	}{
		{"divide by zero", "10px / 0", false, "cannot divide by zero"},
		{"modulo by zero", "10 % 0", false, "cannot divide by zero"},
		{"number by zero dimension", "1 / 0px", false, "cannot divide by zero"},
		{"dimension by zero dimension", "10px / 0px", false, "cannot divide by zero"},
		{"dimension modulo zero dimension", "10px % 0mm", false, "cannot divide by zero"},
		{"dimension by dimension", "10px / 2px", false, "cannot divide dimension by dimension"},
		{"incompatible units", "1px + 1em", false, "cannot add px and em because the two units are not compatible"},
		{"percent and length", "10% - 5px", false, "not compatible"},
		{"px is not convertible", "1px + 1mm", false, "not compatible"},
		{"dimension product", "1px * 2px", false, "cannot multiply dimension with dimension"},
		{"string subtraction", "'a' - 1", false, "cannot subtract number from string"},
		{"color modulo", "red % 2", false, "modulo"},
		{"negate string", "-'a'", false, "cannot negate string"},
		{"unknown method", "'x'.foo()", false, `string objects don't have a method called "foo"`},
		{"too many arguments", "1.abs(2)", false, "takes at most 0"},
		{"rgb range", "rgb(256, 0, 0)", false, "rgb components must be in the range 0 to 255"},
		{"rgb unit", "rgb(1px, 0, 0)", false, "only accept numbers and percentages"},
		{"color unit", "red.darken(1px)", false, "invalid unit px"},
		{"undefined variable", "$nope", false, "variable nope is not defined"},
		{"empty parentheses", "()", true, "empty parentheses"},
		{"missing parenthesis", "(1 + 2", true, "expected ')', got 'end of expression'"},
		{"unclosed call", "'x'.upper(", true, "unexpected end of expression"},
		{"standalone call", ".foo()", true, "standalone method"},
		{"stray parenthesis", "1 )", true, "unexpected ')'"},
		{"rgb arguments", "rgb(1, 2)", true, "expected ','"},
		{"bad color", "#abcd", true, "invalid color value"},
		{"empty", "", true, "expression expected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CompileExpression(tt.src)
			if err == nil {
				t.Fatalf("CompileExpression(%q) expected error", tt.src)
			}
			var (
				se *ccss.SyntaxError
				ee *ccss.EvalError
			)
			if tt.syntax && !errors.As(err, &se) {
				t.Errorf("expected SyntaxError, got %T: %v", err, err)
			}
			if !tt.syntax && !errors.As(err, &ee) {
				t.Errorf("expected EvalError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.msg)
			}
		})
	}
}
