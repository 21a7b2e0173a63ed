package ccss

import (
	"io"
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"slate/utils/debug"
)

// String returns a readable tree of the parsed source: variables, nested
// rules and flattened blocks. It exists for manual inspection.
func (s *Sheet) String() string {
	if s == nil {
		return "<nil Sheet>"
	}
	tw := debug.NewTreeWriter(nil)
	s.dump(tw)
	return tw.String()
}

// WriteTo writes the same tree as String.
func (s *Sheet) WriteTo(w io.Writer) (int64, error) {
	tw := debug.NewTreeWriter(w)
	if s == nil {
		tw.Line(0, "<nil Sheet>")
	} else {
		s.dump(tw)
	}
	return tw.Written(), tw.Err()
}

func (s *Sheet) dump(tw *debug.TreeWriter) {
	tw.Line(0, "Variables: %d", len(s.Vars))
	names := slices.Collect(maps.Keys(s.Vars))
	sort.Sort(natural.StringSlice(names))
	for _, name := range names {
		v := s.Vars[name]
		tw.Line(1, "%s line[%d]", name, v.Line)
		tw.Text(2, "expr", v.Expr)
	}

	tw.Line(0, "Rules:")
	dumpRule(tw, 1, s.Root)

	tw.Line(0, "Blocks: %d", len(s.blocks))
	for i, b := range s.blocks {
		tw.Line(1, "Block[%d]", i)
		tw.List(2, "selectors", b.selectors)
		for _, d := range b.decls {
			tw.Line(2, "%s line[%d]", d.key, d.line)
		}
	}
}

func dumpRule(tw *debug.TreeWriter, depth int, r *Rule) {
	for _, p := range r.Properties {
		tw.Text(depth, p.Key, p.Value)
	}
	for _, child := range r.Children {
		tw.Line(depth, "Rule[%q] line[%d]", child.Selector, child.Line)
		dumpRule(tw, depth+1, child)
	}
}
