package ccss

import "fmt"

// SyntaxError is reported for malformed input: bad indentation, unterminated
// comments, unparsable definitions and expressions.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Msg, e.Line)
}

// EvalError is reported for well formed input which cannot be evaluated:
// undefined or circular variables, incompatible units, division by zero,
// unknown methods.
type EvalError struct {
	Line int
	Msg  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Msg, e.Line)
}

func syntaxErrorf(line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

func evalErrorf(line int, format string, args ...any) *EvalError {
	return &EvalError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
