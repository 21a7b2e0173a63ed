package convert

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"slate/ccss"
	"slate/css"
)

// verifyOutput reads produced text back with real CSS parser and makes sure
// it has exactly the rules compiler meant to write.
func verifyOutput(expected *ccss.Stylesheet, text []byte, name string, log *zap.Logger) (err error) {
	got := css.NewParser(log).Parse(text, name)

	for _, w := range got.Warnings {
		err = multierr.Append(err, fmt.Errorf("css: %s", w))
	}
	if len(got.Rules) != len(expected.Blocks) {
		return multierr.Append(err, fmt.Errorf("css: expected %d rules, parsed %d", len(expected.Blocks), len(got.Rules)))
	}

	for i, b := range expected.Blocks {
		r := got.Rules[i]
		want := normalizeAll(b.Selectors)
		if !slices.Equal(want, r.Selectors) {
			err = multierr.Append(err, fmt.Errorf("css: rule %d selectors %q, parsed %q", i+1, want, r.Selectors))
			continue
		}
		if len(b.Declarations) != len(r.Declarations) {
			err = multierr.Append(err, fmt.Errorf("css: rule %d (%s) expected %d declarations, parsed %d",
				i+1, strings.Join(want, ", "), len(b.Declarations), len(r.Declarations)))
			continue
		}
		for j, d := range b.Declarations {
			p := r.Declarations[j]
			if !strings.EqualFold(d.Key, p.Property) || css.Normalize(d.Value) != p.Value {
				err = multierr.Append(err, fmt.Errorf("css: rule %d (%s) declaration %q: %q, parsed %q: %q",
					i+1, strings.Join(want, ", "), d.Key, d.Value, p.Property, p.Value))
			}
		}
	}
	if err == nil {
		log.Debug("Output verified", zap.String("name", name), zap.Int("rules", len(got.Rules)))
	}
	return err
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, css.Normalize(s))
	}
	return out
}
