package ccss

import "strings"

// flatBlock is a rule with its nesting resolved into complete selectors.
type flatBlock struct {
	selectors []string
	props     []Property
}

// flattener walks the rule tree keeping one selector level per nesting
// depth. Parent references ("&") replace the enclosing level for the
// duration of the reference branch.
type flattener struct {
	levels [][]string
	out    []flatBlock
}

func flatten(root *Rule) []flatBlock {
	f := &flattener{}
	for _, r := range root.Children {
		f.handle(r)
	}
	return f.out
}

func (f *flattener) handle(r *Rule) {
	var local, refs []string
	for _, part := range strings.Split(r.Selector, ",") {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "&") {
			refs = append(refs, part)
		} else {
			local = append(local, part)
		}
	}

	if len(local) > 0 {
		f.push(local)
		f.emit(r)
		f.pop()
	}

	if len(refs) > 0 {
		parents, restore := []string{"*"}, false
		if len(f.levels) > 0 {
			parents, restore = f.pop(), true
		}
		virtual := make([]string, 0, len(parents)*len(refs))
		for _, parent := range parents {
			for _, tmpl := range refs {
				virtual = append(virtual, strings.ReplaceAll(tmpl, "&", parent))
			}
		}
		f.push(virtual)
		f.emit(r)
		f.pop()
		if restore {
			f.push(parents)
		}
	}
}

func (f *flattener) emit(r *Rule) {
	if len(r.Properties) > 0 {
		f.out = append(f.out, flatBlock{selectors: f.selectors(), props: r.Properties})
	}
	for _, child := range r.Children {
		f.handle(child)
	}
}

func (f *flattener) push(level []string) {
	f.levels = append(f.levels, level)
}

func (f *flattener) pop() []string {
	last := f.levels[len(f.levels)-1]
	f.levels = f.levels[:len(f.levels)-1]
	return last
}

// selectors builds the cross product of all active levels.
func (f *flattener) selectors() []string {
	branches := [][]string{nil}
	for _, level := range f.levels {
		next := make([][]string, 0, len(branches)*len(level))
		for _, sel := range level {
			for _, b := range branches {
				branch := make([]string, len(b), len(b)+1)
				copy(branch, b)
				next = append(next, append(branch, sel))
			}
		}
		branches = next
	}
	out := make([]string, len(branches))
	for i, b := range branches {
		out[i] = strings.Join(b, " ")
	}
	return out
}
