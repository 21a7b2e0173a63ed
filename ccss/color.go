package ccss

import (
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/maruel/natural"
)

const defaultLightnessStep = 10

// adjustLightness moves lightness of the color in HSL space. Percent amounts
// are relative: brightening by 100% always gives white, darkening by 100%
// gives black. Plain numbers are absolute steps on the 0-100 scale.
func (c Color) adjustLightness(line int, amount Value, brighten bool) (Value, error) {
	h, s, l := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsl()

	switch a := amount.(type) {
	case Dimension:
		if a.Unit != "%" {
			return nil, evalErrorf(line, "invalid unit %s for color calculations", a.Unit)
		}
		if a.Num == 0 {
			return c, nil
		}
		if brighten {
			l += (1 - l) * a.Num / 100
		} else {
			l -= l * a.Num / 100
		}
	case Number:
		if brighten {
			l += float64(a) / 100
		} else {
			l -= float64(a) / 100
		}
	default:
		return nil, evalErrorf(line, "invalid amount of type %s for color calculations", amount.Kind())
	}
	l = min(max(l, 0), 1)

	r, g, b := colorful.Hsl(h, s, l).Clamped().RGB255()
	return Color{R: int(r), G: int(g), B: int(b)}, nil
}

// ColorNames returns all known color keywords in natural order.
func ColorNames() []string {
	names := make([]string, 0, len(colorNames))
	for name := range colorNames {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// LookupColor returns hex code of a color keyword.
func LookupColor(name string) (string, bool) {
	code, ok := colorNames[name]
	return code, ok
}
