package ccss

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type method struct {
	minArgs, maxArgs int
	fn               func(ctx *evalContext, line int, recv Value, args []Value) (Value, error)
}

var (
	numericMethods = map[string]method{
		"abs":   {0, 0, absValue},
		"round": {0, 1, roundValue},
	}
	colorMethods = map[string]method{
		"brighten": {0, 1, func(_ *evalContext, line int, recv Value, args []Value) (Value, error) {
			return recv.(Color).adjustLightness(line, argOr(args, 0, Dimension{Num: defaultLightnessStep, Unit: "%"}), true)
		}},
		"darken": {0, 1, func(_ *evalContext, line int, recv Value, args []Value) (Value, error) {
			return recv.(Color).adjustLightness(line, argOr(args, 0, Dimension{Num: defaultLightnessStep, Unit: "%"}), false)
		}},
		"hex": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			c := recv.(Color)
			c.Name = ""
			return c, nil
		}},
	}
	stringMethods = map[string]method{
		"length": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			return Number(utf8.RuneCountInString(string(recv.(String)))), nil
		}},
		"upper": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			return String(cases.Upper(language.Und).String(string(recv.(String)))), nil
		}},
		"lower": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			return String(cases.Lower(language.Und).String(string(recv.(String)))), nil
		}},
		"strip": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			return String(strings.TrimSpace(string(recv.(String)))), nil
		}},
		"split": {0, 1, splitString},
		"eval":  {0, 0, evalString},
	}
	urlMethods = map[string]method{
		"length": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			return Number(utf8.RuneCountInString(string(recv.(URL)))), nil
		}},
	}
	listMethods = map[string]method{
		"length": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			return Number(len(recv.(List))), nil
		}},
		"join": {0, 1, func(_ *evalContext, _ int, recv Value, args []Value) (Value, error) {
			l := recv.(List)
			parts := make([]string, len(l))
			for i, v := range l {
				parts[i] = v.String()
			}
			return String(strings.Join(parts, plain(argOr(args, 0, String(" "))))), nil
		}},
	}
	concatMethods = map[string]method{
		"list": {0, 0, func(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
			return List(recv.(Concat)), nil
		}},
	}
)

func methodsOf(v Value) map[string]method {
	switch v.(type) {
	case Number, Dimension:
		return numericMethods
	case Color:
		return colorMethods
	case String:
		return stringMethods
	case URL:
		return urlMethods
	case List:
		return listMethods
	case Concat:
		return concatMethods
	}
	return nil
}

// callMethod dispatches a method call. string() and type() are available on
// every value.
func callMethod(ctx *evalContext, line int, recv Value, name string, args []Value) (Value, error) {
	switch name {
	case "string":
		if len(args) != 0 {
			return nil, evalErrorf(line, "method %q takes no arguments", name)
		}
		if s, ok := recv.(String); ok {
			return s, nil
		}
		return String(recv.String()), nil
	case "type":
		if len(args) != 0 {
			return nil, evalErrorf(line, "method %q takes no arguments", name)
		}
		return String(recv.Kind()), nil
	}

	m, ok := methodsOf(recv)[name]
	if !ok {
		return nil, evalErrorf(line, "%s objects don't have a method called %q, quote it to use as a string", recv.Kind(), name)
	}
	if len(args) < m.minArgs || len(args) > m.maxArgs {
		return nil, evalErrorf(line, "method %q of %s takes at most %d argument(s), got %d", name, recv.Kind(), m.maxArgs, len(args))
	}
	return m.fn(ctx, line, recv, args)
}

func argOr(args []Value, i int, def Value) Value {
	if i < len(args) {
		return args[i]
	}
	return def
}

func absValue(_ *evalContext, _ int, recv Value, _ []Value) (Value, error) {
	switch v := recv.(type) {
	case Number:
		return Number(math.Abs(float64(v))), nil
	case Dimension:
		return Dimension{Num: math.Abs(v.Num), Unit: v.Unit}, nil
	}
	return recv, nil
}

// roundValue rounds half away from zero to the requested number of places.
func roundValue(_ *evalContext, line int, recv Value, args []Value) (Value, error) {
	places := 0
	if len(args) > 0 {
		n, ok := args[0].(Number)
		if !ok {
			return nil, evalErrorf(line, "round() expects a number of places, got %s", args[0].Kind())
		}
		places = int(n)
	}
	round := func(f float64) float64 {
		p := math.Pow(10, float64(places))
		return math.Round(f*p) / p
	}
	switch v := recv.(type) {
	case Number:
		return Number(round(float64(v))), nil
	case Dimension:
		return Dimension{Num: round(v.Num), Unit: v.Unit}, nil
	}
	return recv, nil
}

func splitString(_ *evalContext, _ int, recv Value, args []Value) (Value, error) {
	s := string(recv.(String))
	var parts []string
	if len(args) == 0 {
		parts = strings.Fields(s)
	} else {
		parts = strings.Split(s, plain(args[0]))
	}
	out := make(List, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return out, nil
}

// evalString parses the string as an expression and evaluates it in the
// current context.
func evalString(ctx *evalContext, line int, recv Value, _ []Value) (Value, error) {
	n, err := parseExpr(line, string(recv.(String)))
	if err != nil {
		return nil, err
	}
	return n.eval(ctx)
}
