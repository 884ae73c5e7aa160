package internal

import (
	"regexp"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
)

const (
	DefinitionFile string = "template.yml"
)

// Rule classifies the template paths matched by any of its patterns.
// A Rule is immutable once built; accessors return copies.
type Rule struct {
	sources  []*regexp.Regexp
	template bool
	include  bool
	rename   *string
}

// NewRule compiles patterns into a Rule. Any pattern that fails to compile
// yields an ErrInvalidPattern error naming it.
func NewRule(patterns []string, template bool, include bool, rename *string) (Rule, error) {
	sources := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return Rule{}, errors.Wrap(err, errors.ErrInvalidPattern, "expected a valid regular expression").
				WithDetail("pattern", p)
		}
		sources = append(sources, re)
	}
	var r *string
	if rename != nil {
		s := *rename
		r = &s
	}
	return Rule{sources: sources, template: template, include: include, rename: r}, nil
}

func mustRule(patterns []string, template bool, include bool) Rule {
	r, err := NewRule(patterns, template, include, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// fallbackRules are appended after the explicit rules of every definition,
// in this order. The last one matches every path.
func fallbackRules() []Rule {
	return []Rule{
		mustRule([]string{`^template\.yml$`}, true, false),
		mustRule([]string{`^\.git/`, `^\.git$`}, true, false),
		mustRule([]string{`.*`}, true, true),
	}
}

// Matches reports whether any pattern matches path.
func (r Rule) Matches(path string) bool {
	for _, re := range r.sources {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (r Rule) Patterns() []string {
	out := make([]string, 0, len(r.sources))
	for _, re := range r.sources {
		out = append(out, re.String())
	}
	return out
}

func (r Rule) Template() bool { return r.template }

func (r Rule) Include() bool { return r.include }

// Rename returns the rename template and whether one was declared.
func (r Rule) Rename() (string, bool) {
	if r.rename == nil {
		return "", false
	}
	return *r.rename, true
}
