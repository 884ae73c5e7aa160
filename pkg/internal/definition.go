package internal

import (
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
	"github.com/AidanDelaney/generator/pkg/internal/logging"
)

// VariableDef declares a variable a template expects.
type VariableDef struct {
	Name    string
	Default *string
	// Prompt is an optional human readable label used when asking for a value.
	Prompt string
}

// TemplateDefinition is the parsed form of a template's template.yml.
type TemplateDefinition struct {
	rules     []Rule
	variables []VariableDef
	engine    string
}

// Rules returns explicit rules followed by the fallback rules.
func (d *TemplateDefinition) Rules() []Rule {
	return append([]Rule(nil), d.rules...)
}

func (d *TemplateDefinition) Variables() []VariableDef {
	return append([]VariableDef(nil), d.variables...)
}

// Engine names the rendering engine requested by the template, or "" for the default.
func (d *TemplateDefinition) Engine() string {
	return d.engine
}

// FindForStr returns the first rule with a pattern matching path.
func (d *TemplateDefinition) FindForStr(path string) (Rule, bool) {
	for _, r := range d.rules {
		if r.Matches(path) {
			return r, true
		}
	}
	return Rule{}, false
}

// LoadDefinition reads and parses template.yml from the root of bfs.
func LoadDefinition(bfs billy.Filesystem) (*TemplateDefinition, error) {
	f, err := bfs.Open(DefinitionFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigMalformed, "template definition not found").
			WithDetail("path", bfs.Join(bfs.Root(), DefinitionFile))
	}
	defer f.Close()

	def, err := ParseDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DefinitionFile, err)
	}
	return def, nil
}

// ParseDefinition parses a template definition. Entries of `files` and
// `variables` are either a bare string or a mapping; anything else is
// rejected with the offending node's position.
func ParseDefinition(r io.Reader) (*TemplateDefinition, error) {
	logger := logging.GetLogger("definition")

	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrConfigMalformed, "invalid yaml in template definition")
	}
	root := resolve(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrConfigMalformed, "expected template definition to be a mapping at top level")
	}

	def := &TemplateDefinition{}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, resolve(root.Content[i+1])
		switch key {
		case "files":
			rules, err := parseFiles(value)
			if err != nil {
				return nil, err
			}
			def.rules = rules
		case "variables":
			vars, err := parseVariables(value)
			if err != nil {
				return nil, err
			}
			def.variables = vars
		case "engine":
			if !isString(value) {
				return nil, errors.New(errors.ErrConfigMalformed, "expected `engine` to be a string").
					WithDetail("at", position(value))
			}
			def.engine = value.Value
		default:
			logger.Debug().Str("key", key).Msg("Ignoring unknown key in template definition")
		}
	}

	def.rules = append(def.rules, fallbackRules()...)
	logger.Debug().
		Int("rules", len(def.rules)).
		Int("variables", len(def.variables)).
		Msg("Parsed template definition")
	return def, nil
}

func parseFiles(n *yaml.Node) ([]Rule, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errors.New(errors.ErrConfigMalformed, "expected `files` to be a sequence").
			WithDetail("at", position(n))
	}
	rules := make([]Rule, 0, len(n.Content))
	for _, item := range n.Content {
		item = resolve(item)
		var (
			rule Rule
			err  error
		)
		switch {
		case isString(item):
			rule, err = NewRule([]string{item.Value}, true, true, nil)
		case item.Kind == yaml.MappingNode:
			rule, err = parseFileMapping(item)
		default:
			err = unexpected(item, "string or mapping")
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseFileMapping(n *yaml.Node) (Rule, error) {
	var (
		sources  []string
		template = true
		include  = true
		rename   *string
	)

	src := lookup(n, "sources")
	switch {
	case src == nil:
		return Rule{}, errors.New(errors.ErrConfigMalformed, "expected `sources` in file rule").
			WithDetail("at", position(n))
	case isString(src):
		sources = []string{src.Value}
	case src.Kind == yaml.SequenceNode:
		for _, s := range src.Content {
			s = resolve(s)
			if !isString(s) {
				return Rule{}, unexpected(s, "string")
			}
			sources = append(sources, s.Value)
		}
	default:
		return Rule{}, unexpected(src, "string or sequence of strings")
	}

	for _, flag := range []struct {
		name   string
		target *bool
	}{{"template", &template}, {"include", &include}} {
		v := lookup(n, flag.name)
		if v == nil {
			continue
		}
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!bool" {
			return Rule{}, errors.Newf(errors.ErrConfigMalformed, "expected `%s` to be a boolean", flag.name).
				WithDetail("at", position(v))
		}
		if err := v.Decode(flag.target); err != nil {
			return Rule{}, errors.Wrapf(err, errors.ErrConfigMalformed, "expected `%s` to be a boolean", flag.name)
		}
	}

	if v := lookup(n, "rename"); v != nil {
		if !isString(v) {
			return Rule{}, errors.New(errors.ErrConfigMalformed, "expected `rename` to be a string").
				WithDetail("at", position(v))
		}
		s := v.Value
		rename = &s
	}

	return NewRule(sources, template, include, rename)
}

func parseVariables(n *yaml.Node) ([]VariableDef, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errors.New(errors.ErrConfigMalformed, "expected `variables` to be a sequence").
			WithDetail("at", position(n))
	}
	vars := make([]VariableDef, 0, len(n.Content))
	for _, item := range n.Content {
		item = resolve(item)
		switch {
		case isString(item):
			vars = append(vars, VariableDef{Name: item.Value})
		case item.Kind == yaml.MappingNode:
			v, err := parseVariableMapping(item)
			if err != nil {
				return nil, err
			}
			vars = append(vars, v)
		default:
			return nil, unexpected(item, "string or mapping")
		}
	}
	return vars, nil
}

func parseVariableMapping(n *yaml.Node) (VariableDef, error) {
	name := lookup(n, "name")
	if name == nil {
		return VariableDef{}, errors.New(errors.ErrConfigMalformed, "expected name for variable").
			WithDetail("at", position(n))
	}
	if !isString(name) {
		return VariableDef{}, errors.New(errors.ErrConfigMalformed, "expected variable name to be a string").
			WithDetail("at", position(name))
	}
	v := VariableDef{Name: name.Value}

	// Any scalar is accepted as a default and kept as its literal text,
	// so `default: 8080` yields "8080".
	if d := lookup(n, "default"); d != nil {
		if d.Kind != yaml.ScalarNode || d.ShortTag() == "!!null" {
			return VariableDef{}, errors.Newf(errors.ErrConfigMalformed, "expected default of variable %q to be a string", v.Name).
				WithDetail("at", position(d))
		}
		s := d.Value
		v.Default = &s
	}
	if p := lookup(n, "prompt"); p != nil {
		if !isString(p) {
			return VariableDef{}, errors.Newf(errors.ErrConfigMalformed, "expected prompt of variable %q to be a string", v.Name).
				WithDetail("at", position(p))
		}
		v.Prompt = p.Value
	}
	return v, nil
}

// resolve unwraps document and alias nodes.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

func isString(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func position(n *yaml.Node) string {
	return fmt.Sprintf("line %d, column %d", n.Line, n.Column)
}

func unexpected(n *yaml.Node, expected string) error {
	return errors.Newf(errors.ErrUnexpectedValue, "unexpected value %s, expected %s", describe(n), expected).
		WithDetail("at", position(n))
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return fmt.Sprintf("%s %q", n.ShortTag(), n.Value)
	default:
		return fmt.Sprintf("node kind %d", n.Kind)
	}
}
