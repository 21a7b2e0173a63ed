package ccss

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is an evaluated "key: value" pair.
type Declaration struct {
	Key   string
	Value string
}

// Block is a group of selectors sharing declarations.
type Block struct {
	Selectors    []string
	Declarations []Declaration
}

// Stylesheet is the evaluated result, blocks in source order.
type Stylesheet struct {
	Blocks []Block
}

// WriteTo writes blocks separated by an empty line, implementing
// io.WriterTo. Nothing is reordered or merged.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, b := range s.Blocks {
		if i > 0 {
			n, err := fmt.Fprint(w, "\n\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err := writeBlock(w, b)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeBlock(w io.Writer, b Block) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s {\n", strings.Join(b.Selectors, ",\n"))
	total += n
	if err != nil {
		return total, err
	}
	for _, d := range b.Declarations {
		n, err = fmt.Fprintf(w, "  %s: %s;\n", d.Key, d.Value)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, "}")
	total += n
	return total, err
}
