package ccss

import (
	"errors"
	"testing"
)

func collectLines(t *testing.T, src string) ([]Line, error) {
	t.Helper()
	sc := newLineScanner(src)
	var out []Line
	for {
		ln, ok, err := sc.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, ln)
	}
}

func TestLineScanner(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Line
	}{
		{
			name: "blank lines and comments",
			src:  "foo\nbar\n\n/* foo */bar",
			want: []Line{{1, "foo"}, {2, "bar"}, {4, "bar"}, {4, endMarker}},
		},
		{
			name: "multiline comment",
			src:  "a\n/* start\nmiddle\nend */ b\nc",
			want: []Line{{1, "a"}, {2, " b"}, {5, "c"}, {5, endMarker}},
		},
		{
			name: "comment only lines",
			src:  "a\n// nothing\n/* nothing */\nb",
			want: []Line{{1, "a"}, {4, "b"}, {4, endMarker}},
		},
		{
			name: "several block comments on a line",
			src:  "a /* x */ b /* y */ c",
			want: []Line{{1, "a  b  c"}, {1, endMarker}},
		},
		{
			name: "line comment",
			src:  "  color: red // comment",
			want: []Line{{1, "  color: red"}, {1, endMarker}},
		},
		{
			name: "scheme is not a comment",
			src:  "background: url(http://example.com/a.png)",
			want: []Line{{1, "background: url(http://example.com/a.png)"}, {1, endMarker}},
		},
		{
			name: "quoted slashes are not a comment",
			src:  "content: '//x' // real",
			want: []Line{{1, "content: '//x'"}, {1, endMarker}},
		},
		{
			name: "windows line endings",
			src:  "a\r\nb\r\n",
			want: []Line{{1, "a"}, {2, "b"}, {2, endMarker}},
		},
		{
			name: "empty input",
			src:  "",
			want: []Line{{0, endMarker}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collectLines(t, tt.src)
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %v, want %d lines %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLineScanner_UnterminatedComment(t *testing.T) {
	_, err := collectLines(t, "a\n/* oops\nb\n")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if se.Line != 2 {
		t.Errorf("Line = %d, want 2", se.Line)
	}
	if se.Msg != "missing end of multiline comment" {
		t.Errorf("Msg = %q", se.Msg)
	}
}

func TestLineScanner_EndMarkerOnce(t *testing.T) {
	sc := newLineScanner("a")
	for range 2 {
		if _, ok, _ := sc.Next(); !ok {
			t.Fatal("expected line")
		}
	}
	for range 2 {
		if _, ok, err := sc.Next(); ok || err != nil {
			t.Fatalf("expected exhausted scanner, got ok=%v err=%v", ok, err)
		}
	}
}

func TestExpandTabs(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"\tx", "        x"},
		{"ab\tx", "ab      x"},
		{"no tabs", "no tabs"},
		{"  \tx", "        x"},
	}
	for _, tt := range tests {
		if got := expandTabs(tt.in); got != tt.want {
			t.Errorf("expandTabs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
