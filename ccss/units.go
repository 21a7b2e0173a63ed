package ccss

var units = map[string]bool{
	"em": true, "ex": true, "rem": true, "ch": true,
	"px": true, "cm": true, "mm": true, "in": true, "pt": true, "pc": true,
	"vw": true, "vh": true, "vmin": true, "vmax": true, "fr": true,
	"deg": true, "rad": true, "grad": true, "turn": true,
	"ms": true, "s": true,
	"Hz": true, "kHz": true,
	"dpi": true, "dpcm": true, "dppx": true,
	"%": true,
}

func isUnit(u string) bool {
	return units[u]
}

// unitFamily groups units which can be converted into each other. Factors
// express the unit in the family reference unit (mm, ms, Hz).
type unitFamily map[string]float64

var families = []unitFamily{
	// length
	{
		"mm": 1,
		"cm": 10,
		"in": 25.4,
		"pt": 25.4 / 72,
		"pc": 25.4 / 6,
	},
	// time
	{
		"ms": 1,
		"s":  1000,
	},
	// frequency
	{
		"Hz":  1,
		"kHz": 1000,
	},
}

// conversion returns factors of both units when they belong to the same
// family.
func conversion(from, to string) (float64, float64, bool) {
	for _, f := range families {
		a, okA := f[from]
		b, okB := f[to]
		if okA && okB {
			return a, b, true
		}
	}
	return 0, 0, false
}
