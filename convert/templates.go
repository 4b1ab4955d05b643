package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/google/uuid"

	"inliner/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	Name    string
	Ext     string
	Dir     string
	ID      string
}

func buildValues(name config.TemplateFieldName, src string, id uuid.UUID) Values {
	dir := filepath.ToSlash(filepath.Dir(src))
	if dir == "." {
		dir = ""
	}
	return Values{
		Context: string(name),
		Name:    strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Ext:     strings.TrimPrefix(filepath.Ext(src), "."),
		Dir:     dir,
		ID:      id.String(),
	}
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
