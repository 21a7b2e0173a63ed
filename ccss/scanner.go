package ccss

import "strings"

// endMarker terminates the logical line stream. A source line consisting of
// the marker alone stops parsing early.
const endMarker = "__END__"

const tabWidth = 8

// Line is a logical source line: comments removed, trailing blanks trimmed,
// numbered after the physical line it started on.
type Line struct {
	No   int
	Text string
}

// lineScanner produces logical lines lazily. It is not restartable.
type lineScanner struct {
	lines   []string
	pos     int
	lineno  int
	endSent bool
}

func newLineScanner(src string) *lineScanner {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	src = strings.TrimSuffix(src, "\n")
	var lines []string
	if len(src) > 0 {
		lines = strings.Split(src, "\n")
	}
	return &lineScanner{lines: lines}
}

// readLine returns the next physical line which is not blank after removing
// line comments.
func (s *lineScanner) readLine() (string, bool) {
	for s.pos < len(s.lines) {
		text := strings.TrimRight(stripLineComment(s.lines[s.pos]), " \t\f\v")
		s.pos++
		s.lineno++
		if strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}

// Next returns the next logical line. After the input is exhausted the end
// marker is returned once, then ok is false.
func (s *lineScanner) Next() (Line, bool, error) {
	for {
		text, ok := s.readLine()
		if !ok {
			if s.endSent {
				return Line{}, false, nil
			}
			s.endSent = true
			return Line{No: s.lineno, Text: endMarker}, true, nil
		}

		start := s.lineno
		var out strings.Builder
		for {
			i := strings.Index(text, "/*")
			if i < 0 {
				out.WriteString(text)
				break
			}
			out.WriteString(text[:i])
			text = text[i+2:]
			for {
				if j := strings.Index(text, "*/"); j >= 0 {
					text = text[j+2:]
					break
				}
				if text, ok = s.readLine(); !ok {
					return Line{}, false, syntaxErrorf(start, "missing end of multiline comment")
				}
			}
		}

		result := strings.TrimRight(out.String(), " \t\f\v")
		if strings.TrimSpace(result) == "" {
			// line held nothing but a comment
			continue
		}
		return Line{No: start, Text: result}, true, nil
	}
}

// stripLineComment cuts "//" comments unless they are quoted or follow a
// colon (as in "http://").
func stripLineComment(s string) string {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			if i > 0 && s[i-1] == ':' {
				i++
				continue
			}
			return s[:i]
		}
	}
	return s
}

// expandTabs replaces tabs with spaces up to the next tab stop.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
