package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	// lines splits comment text so the html body can keep its line breaks.
	"lines": func(s string) []string {
		return strings.Split(strings.TrimRight(s, "\n"), "\n")
	},
}

func NewTemplate() *Template {
	return &Template{parsed: make(map[string]*template.Template)}
}

func (tp *Template) lookup(name string) (*template.Template, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if t, ok := tp.parsed[name]; ok {
		return t, nil
	}

	t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("could not parse template %s: %w", name, err)
	}

	if tp.parsed == nil {
		tp.parsed = make(map[string]*template.Template)
	}
	tp.parsed[name] = t

	return t, nil
}

// ParseTemplate renders the subject, plainBody and htmlBody blocks of the named template.
func (tp *Template) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	t, err := tp.lookup(name)
	if err != nil {
		return nil, nil, nil, err
	}

	var parts [3]*bytes.Buffer
	for i, block := range []string{"subject", "plainBody", "htmlBody"} {
		parts[i] = new(bytes.Buffer)
		if err := t.ExecuteTemplate(parts[i], block, data); err != nil {
			return nil, nil, nil, fmt.Errorf("render %s of %s: %w", block, name, err)
		}
	}

	return parts[0], parts[1], parts[2], nil
}
