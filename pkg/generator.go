// Package generator creates new projects from project templates. Templates
// are local directories or git repositories; a template.yml at the template
// root decides which files are copied, rendered and renamed.
package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/mattn/go-isatty"
	cp "github.com/otiai10/copy"

	"github.com/AidanDelaney/generator/pkg/internal"
	"github.com/AidanDelaney/generator/pkg/internal/errors"
	"github.com/AidanDelaney/generator/pkg/internal/logging"
	"github.com/AidanDelaney/generator/pkg/internal/source"
	"github.com/AidanDelaney/generator/pkg/internal/util"
)

type (
	// Prompter supplies values for variables nothing else binds, and picks
	// a template out of a collection.
	Prompter = internal.Prompter
	// VariableDef is a variable declared by a template.
	VariableDef = internal.VariableDef
	// Renderer substitutes variables into file bodies and rename strings.
	Renderer = internal.Renderer
	// Reporter is told about every file written.
	Reporter = internal.Reporter
)

// SourceResolver turns a template argument into a local directory.
type SourceResolver interface {
	Resolve(ctx context.Context, templateArg string) (string, error)
}

// Generator holds everything a generation run needs besides its arguments.
// Overrides are bound before the default variables file and are never prompted for.
type Generator struct {
	Config    Config
	Overrides map[string]string
	Prompter  Prompter
	Source    SourceResolver
	Renderer  Renderer
	Reporter  Reporter
}

type Option func(*Generator)

func WithConfig(cfg Config) Option {
	return func(g *Generator) {
		g.Config = cfg
	}
}

func WithOverrides(overrides map[string]string) Option {
	return func(g *Generator) {
		g.Overrides = overrides
	}
}

func WithPrompter(p Prompter) Option {
	return func(g *Generator) {
		g.Prompter = p
	}
}

func WithSourceResolver(s SourceResolver) Option {
	return func(g *Generator) {
		g.Source = s
	}
}

// WithRenderer forces a renderer instead of the one named by template.yml.
func WithRenderer(r Renderer) Option {
	return func(g *Generator) {
		g.Renderer = r
	}
}

func WithReporter(r Reporter) Option {
	return func(g *Generator) {
		g.Reporter = r
	}
}

// New creates a Generator with the given options. Unset collaborators are
// derived from the configuration and the process's standard streams.
func New(opts ...Option) Generator {
	g := Generator{
		Config:    DefaultConfig(),
		Overrides: map[string]string{},
	}

	for _, opt := range opts {
		opt(&g)
	}

	if g.Prompter == nil {
		g.Prompter = DefaultPrompter(os.Stdin, os.Stdout, os.Stderr)
	}
	return g
}

// DefaultPrompter uses interactive survey prompts on a terminal and plain
// line-based prompts otherwise.
func DefaultPrompter(in *os.File, out *os.File, errOut *os.File) Prompter {
	fd := in.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return internal.SurveyPrompter{Stdio: terminal.Stdio{In: in, Out: out, Err: errOut}}
	}
	return internal.NewLinePrompter(in, out)
}

// NewLinePrompter prompts on out and reads answers, one line each, from in.
func NewLinePrompter(in io.Reader, out io.Writer) Prompter {
	return internal.NewLinePrompter(in, out)
}

func (g Generator) sourceResolver() (SourceResolver, error) {
	if g.Source != nil {
		return g.Source, nil
	}
	vcs, err := source.NewVCS(g.Config.GitBackend)
	if err != nil {
		return nil, err
	}
	return source.NewProvider(g.Config.CacheRoot, vcs), nil
}

// Generate creates destination from the template named by templateArg.
// destination must not exist. A failure part way through leaves whatever
// was already written in place.
func (g Generator) Generate(ctx context.Context, templateArg string, destination string) error {
	logger := logging.GetLogger("generator")

	if _, err := os.Lstat(destination); err == nil {
		return errors.New(errors.ErrDestinationExists, "destination path exists").WithDetail("path", destination)
	}

	resolver, err := g.sourceResolver()
	if err != nil {
		return err
	}
	templateDir, err := resolver.Resolve(ctx, templateArg)
	if err != nil {
		return err
	}

	if internal.IsCollection(templateDir) {
		logger.Debug().Str("path", templateDir).Msg("Template is a collection")
		if templateDir, err = internal.ChooseFromCollection(templateDir, g.Prompter); err != nil {
			return err
		}
	}

	if inside(destination, templateDir) {
		snapshot, err := os.MkdirTemp("", AppName)
		if err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, "failed to snapshot template")
		}
		defer os.RemoveAll(snapshot)
		if err := cp.Copy(templateDir, snapshot); err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, "failed to snapshot template").WithDetail("path", templateDir)
		}
		logger.Debug().Str("path", templateDir).Str("snapshot", snapshot).Msg("Destination is inside the template, using a snapshot")
		templateDir = snapshot
	}

	src := osfs.New(templateDir)
	def, err := internal.LoadDefinition(src)
	if err != nil {
		return err
	}

	defaults, err := internal.LoadDefaults(g.Config.ConfigRoot)
	if err != nil {
		return err
	}
	base := util.ToVariables(g.Overrides)
	for k, v := range defaults {
		if _, exists := base[k]; !exists {
			base[k] = v
		}
	}

	vars, err := internal.ResolveVariables(base, filepath.Base(filepath.Clean(destination)), def.Variables(), g.Prompter)
	if err != nil {
		return err
	}

	renderer := g.Renderer
	if renderer == nil {
		if renderer, err = internal.NewRenderer(def.Engine()); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(destination, 0755); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "could not create destination").WithDetail("path", destination)
	}

	var opts []internal.ApplyOption
	if g.Reporter != nil {
		opts = append(opts, internal.WithReporter(g.Reporter))
	}
	if err := internal.Apply(src, osfs.New(destination), def, vars, renderer, opts...); err != nil {
		return fmt.Errorf("failed to generate %s: %w", destination, err)
	}

	logger.Info().Str("template", templateArg).Str("destination", destination).Msg("Generated project")
	return nil
}

// inside reports whether p is dir or lies below it.
func inside(p string, dir string) bool {
	absP, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absP)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
