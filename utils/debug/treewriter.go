// Package debug produces indented human readable dumps of internal
// structures.
package debug

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TreeWriter writes one item per line indented by depth. First write error
// sticks and everything after it is dropped.
type TreeWriter struct {
	w      io.Writer
	indent string
	n      int64
	err    error
}

// NewTreeWriter writes to w, or collects output for String when w is nil.
func NewTreeWriter(w io.Writer) *TreeWriter {
	if w == nil {
		w = &strings.Builder{}
	}
	return &TreeWriter{w: w, indent: "  "}
}

// String returns collected output, it is empty when writing to external
// writer.
func (tw *TreeWriter) String() string {
	if sb, ok := tw.w.(*strings.Builder); ok {
		return sb.String()
	}
	return ""
}

// Written returns number of bytes written so far.
func (tw *TreeWriter) Written() int64 {
	return tw.n
}

func (tw *TreeWriter) Err() error {
	return tw.err
}

func (tw *TreeWriter) write(depth int, s string) {
	if tw.err != nil {
		return
	}
	n, err := io.WriteString(tw.w, strings.Repeat(tw.indent, max(depth, 0))+s+"\n")
	tw.n += int64(n)
	tw.err = err
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.write(depth, fmt.Sprintf(format, args...))
}

// Text writes "label: value" with value quoted, so whitespace is visible.
func (tw *TreeWriter) Text(depth int, label, value string) {
	tw.write(depth, label+": "+encodeText(value))
}

// List writes "label: [a] [b]", empty list is written as "label: -".
func (tw *TreeWriter) List(depth int, label string, items []string) {
	if len(items) == 0 {
		tw.write(depth, label+": -")
		return
	}
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('[')
		sb.WriteString(it)
		sb.WriteByte(']')
	}
	tw.write(depth, label+": "+sb.String())
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
