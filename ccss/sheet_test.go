package ccss_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"slate/ccss"
)

func TestCompile(t *testing.T) {
	c := ccss.NewCompiler(zaptest.NewLogger(t))

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "nesting",
			src:  "a:\n  b:\n    color: red\n",
			want: "a b {\n  color: red;\n}",
		},
		{
			name: "parent reference",
			src:  "a:\n  &:hover:\n    color: red\n",
			want: "a:hover {\n  color: red;\n}",
		},
		{
			name: "group block",
			src:  "a:\n  padding->\n    top: 1px\n",
			want: "a {\n  padding-top: 1px;\n}",
		},
		{
			name: "selector fan out",
			src:  "a, b:\n  color: red\n",
			want: "a,\nb {\n  color: red;\n}",
		},
		{
			name: "variables",
			src:  "x = 10px\ny = $x * 2\na:\n  width: $y\n  height: ${x}\n",
			want: "a {\n  width: 20px;\n  height: 10px;\n}",
		},
		{
			name: "variables defined after use",
			src:  "a:\n  width: $w\nw = 3em\n",
			want: "a {\n  width: 3em;\n}",
		},
		{
			name: "blocks separated",
			src:  "a:\n  x: 1\n  y: 2\nb:\n  z: 3\n",
			want: "a {\n  x: 1;\n  y: 2;\n}\n\nb {\n  z: 3;\n}",
		},
		{
			name: "nothing to emit",
			src:  "x = 1\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Compile(tt.src, nil)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compile() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestCompile_Document(t *testing.T) {
	src := `// page colors
background_color = #ccc
text_color = #111
link_color = #ff0000

body:
  font-family: serif
  background-color: $background_color
  color: $text_color

/* links
   and their states */
a:
  color: $link_color
  &:hover:
    color: $link_color.darken(100%)
  text->
    decoration: none
`
	want := `body {
  font-family: serif;
  background-color: #cccccc;
  color: #111111;
}

a {
  color: #ff0000;
  text-decoration: none;
}

a:hover {
  color: #000000;
}`

	got, err := ccss.Convert(src)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != want {
		t.Errorf("Convert() =\n%s\nwant\n%s", got, want)
	}
}

func TestCompile_Variables(t *testing.T) {
	c := ccss.NewCompiler(zaptest.NewLogger(t))

	t.Run("circular", func(t *testing.T) {
		for _, src := range []string{
			"a = $a\nx:\n  w: $a\n",
			"a = $b\nb = $a\nx:\n  w: $a\n",
			"a = $b + 1\nb = $c * 2\nc = ($a)\nx:\n  w: $a\n",
		} {
			_, err := c.Compile(src, nil)
			var ee *ccss.EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("Compile(%q) expected EvalError, got %v", src, err)
			}
			if ee.Msg != "circular variable dependencies detected when resolving a" {
				t.Errorf("Msg = %q", ee.Msg)
			}
		}
	})

	t.Run("undefined", func(t *testing.T) {
		_, err := c.Compile("x:\n  w: 1px\n  h: $nope\n", nil)
		var ee *ccss.EvalError
		if !errors.As(err, &ee) {
			t.Fatalf("expected EvalError, got %v", err)
		}
		if ee.Line != 3 || ee.Msg != "variable nope is not defined" {
			t.Errorf("error = %v", ee)
		}
	})

	t.Run("shared definition is not circular", func(t *testing.T) {
		got, err := c.Compile("a = 1px\nb = $a + $a\nx:\n  w: $b $a\n", nil)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if want := "x {\n  w: 2px 1px;\n}"; got != want {
			t.Errorf("Compile() = %q, want %q", got, want)
		}
	})
}

func TestCompile_Overrides(t *testing.T) {
	c := ccss.NewCompiler(zaptest.NewLogger(t))

	tests := []struct {
		name      string
		src       string
		overrides map[string]string
		want      string
	}{
		{"pre-seeded", "x:\n  w: $c\n", map[string]string{"c": "1px + 1px"}, "x {\n  w: 2px;\n}"},
		{"source wins", "c = 5px\nx:\n  w: $c\n", map[string]string{"c": "1px"}, "x {\n  w: 5px;\n}"},
		{"override uses source", "c = 5px\nx:\n  w: $d\n", map[string]string{"d": "$c * 2"}, "x {\n  w: 10px;\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Compile(tt.src, tt.overrides)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compile() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := c.Compile("x:\n  w: 1\n", map[string]string{"bad": "()"}); err == nil {
		t.Error("expected error for malformed override")
	}
}

func TestCompile_ErrorLines(t *testing.T) {
	c := ccss.NewCompiler(nil)

	tests := []struct {
		name   string
		src    string
		line   int
		syntax bool
	}{
		{"evaluation", "a:\n  x: 1\n  w: 1px + 1em\n", 3, false},
		{"expression syntax", "a:\n  w: (1\n", 2, true},
		{"variable syntax", "v = 1 )\na:\n  w: $v\n", 1, true},
		{"structure", "a:\n  w: 1\n    z: 2\n", 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.src, nil)
			var (
				se *ccss.SyntaxError
				ee *ccss.EvalError
				ln int
			)
			switch {
			case errors.As(err, &se):
				if !tt.syntax {
					t.Errorf("unexpected SyntaxError %v", se)
				}
				ln = se.Line
			case errors.As(err, &ee):
				if tt.syntax {
					t.Errorf("unexpected EvalError %v", ee)
				}
				ln = ee.Line
			default:
				t.Fatalf("unexpected error %v", err)
			}
			if ln != tt.line {
				t.Errorf("line = %d, want %d", ln, tt.line)
			}
			if !strings.HasSuffix(err.Error(), ")") || !strings.Contains(err.Error(), "(line ") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestSheet(t *testing.T) {
	c := ccss.NewCompiler(zaptest.NewLogger(t))
	sheet, err := c.Parse("b2 = 2\nb10 = 10\nw = $b2 * $b10\na:\n  x: $w\n  &.y:\n    z: 1\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	v, err := sheet.Variable("w", nil)
	if err != nil {
		t.Fatalf("Variable() error = %v", err)
	}
	if v.String() != "20" {
		t.Errorf("Variable(w) = %s, want 20", v)
	}
	if _, err := sheet.Variable("nope", nil); err == nil {
		t.Error("expected error for unknown variable")
	}

	// evaluation does not consume the sheet
	for range 2 {
		out, err := sheet.Evaluate(nil)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if len(out.Blocks) != 2 || out.Blocks[1].Selectors[0] != "a.y" {
			t.Errorf("Evaluate() = %+v", out.Blocks)
		}
	}

	dump := sheet.String()
	for _, want := range []string{"Variables: 3", "Rule[\"a\"] line[4]", "Rule[\"&.y\"] line[6]", "Blocks: 2"} {
		if !strings.Contains(dump, want) {
			t.Errorf("String() missing %q:\n%s", want, dump)
		}
	}
	if strings.Index(dump, "b2 ") > strings.Index(dump, "b10 ") {
		t.Errorf("variables are not in natural order:\n%s", dump)
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	ss := &ccss.Stylesheet{Blocks: []ccss.Block{
		{Selectors: []string{"a", "b"}, Declarations: []ccss.Declaration{{Key: "color", Value: "red"}}},
		{Selectors: []string{"c"}},
	}}
	var sb strings.Builder
	n, err := ss.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	want := "a,\nb {\n  color: red;\n}\n\nc {\n}"
	if sb.String() != want {
		t.Errorf("WriteTo() = %q, want %q", sb.String(), want)
	}
	if n != int64(len(want)) {
		t.Errorf("WriteTo() = %d bytes, want %d", n, len(want))
	}
}

func TestColorNames(t *testing.T) {
	names := ccss.ColorNames()
	if len(names) < 140 {
		t.Errorf("ColorNames() = %d names", len(names))
	}
	if code, ok := ccss.LookupColor("rebeccapurple"); ok {
		t.Errorf("unexpected color %s", code)
	}
	if code, ok := ccss.LookupColor("teal"); !ok || code != "#008080" {
		t.Errorf("LookupColor(teal) = %s, %v", code, ok)
	}
}

func TestSheet_WriteTo(t *testing.T) {
	sheet, err := ccss.NewCompiler(nil).Parse("w = 1px\nnav:\n  ul, ol:\n    width: $w\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var sb strings.Builder
	n, err := sheet.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if sb.String() != sheet.String() || n != int64(sb.Len()) {
		t.Errorf("WriteTo() wrote %d bytes:\n%s\nString():\n%s", n, sb.String(), sheet.String())
	}
	if !strings.Contains(sb.String(), "selectors: [nav ul] [nav ol]") {
		t.Errorf("selectors are missing:\n%s", sb.String())
	}
}
