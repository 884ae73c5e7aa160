package internal

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/flosch/pongo2/v6"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
)

const (
	EnginePongo2     string = "pongo2"
	EngineGoTemplate string = "gotemplate"
)

// Renderer substitutes variables into a template string. name identifies
// the template in error messages.
type Renderer interface {
	Render(name string, text string, vars map[string]interface{}) (string, error)
}

// NewRenderer returns the renderer for engine. An empty engine selects pongo2.
func NewRenderer(engine string) (Renderer, error) {
	switch engine {
	case "", EnginePongo2:
		return NewPongo2Renderer(), nil
	case EngineGoTemplate:
		return GoTemplateRenderer{}, nil
	default:
		return nil, errors.Newf(errors.ErrConfigMalformed, "unknown template engine %q", engine).
			WithDetail("supported", []string{EnginePongo2, EngineGoTemplate})
	}
}

// Pongo2Renderer renders Django/Jinja style templates: `{{ name }}`,
// `{% if %}`, filters. Output is not HTML escaped. Reading a variable that is
// not in the context is an error unless it goes through a default filter.
type Pongo2Renderer struct {
	set *pongo2.TemplateSet
}

func NewPongo2Renderer() Pongo2Renderer {
	pongo2.SetAutoescape(false)
	return Pongo2Renderer{set: pongo2.DefaultSet}
}

func (r Pongo2Renderer) Render(name string, text string, vars map[string]interface{}) (string, error) {
	tpl, err := r.set.FromString(text)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrRender, "cannot parse template").WithDetail("path", name)
	}
	if undefined := undefinedReferences(text, vars); len(undefined) > 0 {
		return "", errors.Newf(errors.ErrRender, "undefined variable %s", strings.Join(undefined, ", ")).
			WithDetail("path", name)
	}
	out, err := tpl.Execute(pongo2.Context(vars))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrRender, "cannot replace variables in template").WithDetail("path", name)
	}
	return out, nil
}

// GoTemplateRenderer renders text/template templates with the sprig
// function map. Referencing an unknown variable is an error.
type GoTemplateRenderer struct{}

func (GoTemplateRenderer) Render(name string, text string, vars map[string]interface{}) (string, error) {
	tpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrRender, "cannot parse template").WithDetail("path", name)
	}
	var output bytes.Buffer
	if err := tpl.Execute(&output, vars); err != nil {
		return "", errors.Wrap(err, errors.ErrRender, "cannot replace variables in template").WithDetail("path", name)
	}
	return output.String(), nil
}
