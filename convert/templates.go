package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"slate/ccss"
	"slate/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	SourceDir  string
	SourceExt  string
	Ext        string
	Blocks     int
	Selectors  []string
	Variables  map[string]string
}

func buildSelectors(sheet *ccss.Stylesheet) []string {
	if sheet == nil {
		return nil
	}
	result := make([]string, 0, len(sheet.Blocks))
	for _, b := range sheet.Blocks {
		result = append(result, b.Selectors...)
	}
	return result
}

func expandTemplate(sheet *ccss.Stylesheet, src string, name config.TemplateFieldName, field string, cfg *config.CompilerConfig, defines map[string]string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	dir := filepath.ToSlash(filepath.Dir(src))
	if dir == "." {
		dir = ""
	}
	values := Values{
		Context:    string(name),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourceDir:  dir,
		SourceExt:  filepath.Ext(src),
		Ext:        cfg.OutputExt,
		Selectors:  buildSelectors(sheet),
		Variables:  defines,
	}
	if sheet != nil {
		values.Blocks = len(sheet.Blocks)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
