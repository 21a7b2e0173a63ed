package css

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is a single property declaration with its value text
// normalized to single spaces.
type Declaration struct {
	Property string
	Value    string
}

// Rule is a ruleset: grouped selectors and their declarations in source
// order.
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// Stylesheet is the result of reading plain CSS back.
type Stylesheet struct {
	Rules []Rule
	// Warnings collects everything which was skipped or could not be parsed.
	Warnings []string
}

func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(r.Selectors, ", "))
	sb.WriteString(" {")
	for i, d := range r.Declarations {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, " %s: %s", d.Property, d.Value)
	}
	sb.WriteString(" }")
	return sb.String()
}

// WriteTo writes one rule per line followed by warnings, intended for
// debugging.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, r := range s.Rules {
		n, err := fmt.Fprintln(w, r.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	for _, msg := range s.Warnings {
		n, err := fmt.Fprintf(w, "warning: %s\n", msg)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Normalize brings selector or value text to the form parser returns it in:
// whitespace runs collapsed into single spaces and no whitespace around
// commas and combinators. Quoted strings are kept as is.
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	var (
		sb    strings.Builder
		quote byte
	)
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				sb.WriteByte(c)
				i++
				c = s[i]
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ':
			if i+1 < len(s) && isPacked(s[i+1]) {
				continue
			}
			if i > 0 && isPacked(s[i-1]) {
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isPacked(c byte) bool {
	return c == ',' || c == '>' || c == '+' || c == '~'
}
