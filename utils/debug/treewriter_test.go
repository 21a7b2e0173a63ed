package debug

import (
	"bytes"
	"errors"
	"testing"
)

func TestTreeWriter(t *testing.T) {
	tw := NewTreeWriter(nil)
	if tw.String() != "" {
		t.Error("Expected empty string from new TreeWriter")
	}

	tw.Line(0, "Blocks: %d", 2)
	tw.Line(1, "Block[%d]", 0)
	tw.Text(2, "color", "red")
	tw.Text(2, "empty", "")
	tw.Text(2, "spaced", " a\tb ")
	tw.List(1, "selectors", []string{"nav ul", "nav ol"})
	tw.List(1, "none", nil)
	tw.Line(-1, "negative depth")

	want := "Blocks: 2\n" +
		"  Block[0]\n" +
		"    color: \"red\"\n" +
		"    empty: \n" +
		"    spaced: \" a\\tb \"\n" +
		"  selectors: [nav ul] [nav ol]\n" +
		"  none: -\n" +
		"negative depth\n"
	if got := tw.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
	if tw.Written() != int64(len(want)) {
		t.Errorf("Written() = %d, want %d", tw.Written(), len(want))
	}
	if tw.Err() != nil {
		t.Errorf("Err() = %v", tw.Err())
	}
}

func TestTreeWriter_External(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTreeWriter(&buf)
	tw.Line(1, "x")
	if buf.String() != "  x\n" {
		t.Errorf("written %q", buf.String())
	}
	if tw.String() != "" {
		t.Errorf("String() = %q, want empty for external writer", tw.String())
	}
}

type failingWriter struct{ calls int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("disk full")
}

func TestTreeWriter_StickyError(t *testing.T) {
	fw := &failingWriter{}
	tw := NewTreeWriter(fw)
	tw.Line(0, "a")
	tw.Line(0, "b")
	tw.List(0, "c", []string{"d"})
	if tw.Err() == nil || tw.Err().Error() != "disk full" {
		t.Errorf("Err() = %v", tw.Err())
	}
	if fw.calls != 1 {
		t.Errorf("writer called %d times after failure", fw.calls)
	}
}
