package ccss

import (
	"regexp"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOp
	tokCall
	tokDimension
	tokColor
	tokNumber
	tokURL
	tokString
	tokRGB
	tokVar
)

type token struct {
	kind tokenKind
	text string
	unit string
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokCall:
		return "." + t.text + "("
	case tokDimension:
		return t.text + t.unit
	case tokVar:
		return "$" + t.text
	case tokRGB:
		return "rgb"
	}
	return t.text
}

func (t token) isOp(op string) bool {
	return t.kind == tokOp && t.text == op
}

const operators = "+-*/%();,"

var (
	callRe   = regexp.MustCompile(`^\.([a-zA-Z_][a-zA-Z0-9_]*)\(`)
	dimRe    = regexp.MustCompile(`^(\d+(?:\.\d+)?)([a-zA-Z]+|%)`)
	colorRe  = regexp.MustCompile(`^#[0-9a-fA-F]+`)
	numberRe = regexp.MustCompile(`^\d+(?:\.\d+)?`)
	urlRe    = regexp.MustCompile(`^url\(\s*('(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"|.*?)\s*\)`)
	quotedRe = regexp.MustCompile(`^(?:'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*")`)
	varRe    = regexp.MustCompile(`^\$(?:([a-zA-Z_][a-zA-Z0-9_]*)|\{([a-zA-Z_][a-zA-Z0-9_]*)\})`)
	spaceRe  = regexp.MustCompile(`^\s+`)
)

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// wordFollows reports whether s continues with a word character at i.
func wordFollows(s string, i int) bool {
	return i < len(s) && isWordByte(s[i])
}

// tokenize splits a single expression into tokens. Patterns are tried in
// order at the current position and the first match wins.
func tokenize(line int, s string) ([]token, error) {
	var toks []token
	pos := 0
	for pos < len(s) {
		rest := s[pos:]

		if strings.IndexByte(operators, rest[0]) >= 0 {
			toks = append(toks, token{kind: tokOp, text: rest[:1]})
			pos++
			continue
		}
		if m := callRe.FindStringSubmatch(rest); m != nil {
			toks = append(toks, token{kind: tokCall, text: m[1]})
			pos += len(m[0])
			continue
		}
		if m := dimRe.FindStringSubmatch(rest); m != nil && isUnit(m[2]) && !wordFollows(rest, len(m[0])) {
			toks = append(toks, token{kind: tokDimension, text: m[1], unit: m[2]})
			pos += len(m[0])
			continue
		}
		if m := colorRe.FindString(rest); m != "" {
			if n := len(m) - 1; n != 3 && n != 6 {
				return nil, syntaxErrorf(line, "invalid color value %q", m)
			}
			toks = append(toks, token{kind: tokColor, text: strings.ToLower(m)})
			pos += len(m)
			continue
		}
		if m := numberRe.FindString(rest); m != "" && !wordFollows(rest, len(m)) {
			toks = append(toks, token{kind: tokNumber, text: m})
			pos += len(m)
			continue
		}
		if m := urlRe.FindStringSubmatch(rest); m != nil {
			toks = append(toks, token{kind: tokURL, text: m[1]})
			pos += len(m[0])
			continue
		}
		if m := quotedRe.FindString(rest); m != "" {
			text, err := unescape(m[1 : len(m)-1])
			if err != nil {
				return nil, syntaxErrorf(line, "invalid string escape in %s", m)
			}
			toks = append(toks, token{kind: tokString, text: text})
			pos += len(m)
			continue
		}
		if n := bareStringLen(rest); n > 0 {
			text := rest[:n]
			switch {
			case text == "rgb":
				toks = append(toks, token{kind: tokRGB, text: text})
			case colorNames[text] != "":
				toks = append(toks, token{kind: tokColor, text: text})
			default:
				toks = append(toks, token{kind: tokString, text: text})
			}
			pos += n
			continue
		}
		if m := varRe.FindStringSubmatch(rest); m != nil {
			name := m[1]
			if len(name) == 0 {
				name = m[2]
			}
			toks = append(toks, token{kind: tokVar, text: name})
			pos += len(m[0])
			continue
		}
		if m := spaceRe.FindString(rest); m != "" {
			pos += len(m)
			continue
		}
		return nil, syntaxErrorf(line, "syntax error near %q", rest)
	}
	return toks, nil
}

// bareStringLen returns the length of an unquoted string run at the start of
// s. A dot is part of the run unless it starts a method call.
func bareStringLen(s string) int {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '.':
			if callRe.MatchString(s[i:]) {
				return i
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			return i
		case strings.IndexByte("*/();,+$", c) >= 0:
			return i
		}
		i++
	}
	return i
}

// unescape decodes backslash escapes of a quoted string. Unknown escapes
// are kept verbatim.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch c = s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\\', '\'', '"':
			b.WriteByte(c)
		case '\n':
			// escaped line break is dropped
		case 'x':
			if len(s)-i-1 < 2 {
				return "", strconv.ErrSyntax
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", err
			}
			b.WriteByte(byte(v))
			i += 2
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && '0' <= s[j] && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 16)
			b.WriteByte(byte(v))
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
