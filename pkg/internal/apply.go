package internal

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
	"github.com/AidanDelaney/generator/pkg/internal/logging"
)

// Reporter is told about every file written to the destination.
type Reporter func(action string, path string)

type applyConfig struct {
	reporter Reporter
}

type ApplyOption func(*applyConfig)

func WithReporter(r Reporter) ApplyOption {
	return func(c *applyConfig) {
		c.reporter = r
	}
}

// Apply materializes the template in src into dst. Every entry of src is
// classified by def: excluded directories are pruned with their whole
// subtree, included entries are renamed and rendered as their rule says.
// Nothing is rolled back on failure.
func Apply(src billy.Filesystem, dst billy.Filesystem, def *TemplateDefinition, vars map[string]interface{}, renderer Renderer, opts ...ApplyOption) error {
	cfg := applyConfig{reporter: func(string, string) {}}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := logging.GetLogger("apply")
	done := logging.LogOperationStart(logger, "apply")
	defer done()

	return Walk(src, "", func(p string, info os.FileInfo) error {
		rel := filepath.ToSlash(p)
		rule, ok := def.FindForStr(rel)
		if !ok {
			return errors.New(errors.ErrNoRuleMatched, "could not find a rule for file").WithDetail("path", rel)
		}

		if !rule.Include() {
			if info.IsDir() {
				logger.Debug().Str("path", rel).Msg("Pruning excluded directory")
				return filepath.SkipDir
			}
			logger.Debug().Str("path", rel).Msg("Skipping excluded file")
			return nil
		}

		ctx := WithFile(vars, rel)
		target := rel
		if rename, ok := rule.Rename(); ok {
			rendered, err := renderer.Render(rel, rename, ctx)
			if err != nil {
				return err
			}
			if target, err = cleanTarget(rendered, rel); err != nil {
				return err
			}
			logger.Debug().Str("path", rel).Str("target", target).Msg("Renamed entry")
		}

		if info.IsDir() {
			if err := dst.MkdirAll(filepath.FromSlash(target), 0755); err != nil {
				return errors.Wrap(err, errors.ErrFileAccess, "could not create dir").WithDetail("path", target)
			}
			return nil
		}

		if err := writeEntry(src, dst, p, rel, target, info, rule, ctx, renderer); err != nil {
			return err
		}
		cfg.reporter("create", target)
		return nil
	})
}

func writeEntry(src billy.Filesystem, dst billy.Filesystem, p string, rel string, target string, info os.FileInfo, rule Rule, ctx map[string]interface{}, renderer Renderer) error {
	data, err := readFile(src, p)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to read file").WithDetail("path", rel)
	}

	if rule.Template() {
		if !utf8.Valid(data) {
			return errors.New(errors.ErrInvalidUtf8, "invalid UTF-8 in templated file").
				WithDetail("path", rel).
				WithDetail("detected", mimetype.Detect(data).String())
		}
		rendered, err := renderer.Render(rel, string(data), ctx)
		if err != nil {
			return err
		}
		data = []byte(rendered)
	}

	out := filepath.FromSlash(target)
	if _, err := dst.Lstat(out); err == nil {
		return errors.New(errors.ErrDestinationFileExists, "destination file already exists").WithDetail("path", target)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := dst.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, "could not create dir").WithDetail("path", dir)
		}
	}

	f, err := dst.OpenFile(out, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrap(err, errors.ErrDestinationFileExists, "destination file already exists").WithDetail("path", target)
		}
		return errors.Wrap(err, errors.ErrFileAccess, "failed to create file").WithDetail("path", target)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrFileAccess, "failed to write data to file").WithDetail("path", target)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to write data to file").WithDetail("path", target)
	}
	return nil
}

// cleanTarget normalizes a rendered rename and refuses anything that would
// leave the destination.
func cleanTarget(rendered string, rel string) (string, error) {
	t := path.Clean(filepath.ToSlash(rendered))
	if rendered == "" || t == "." || t == ".." || strings.HasPrefix(t, "../") || path.IsAbs(t) || filepath.IsAbs(rendered) {
		return "", errors.Newf(errors.ErrUnsafePath, "rename of %s yields a path outside the destination", rel).
			WithDetail("target", rendered)
	}
	return t, nil
}

func readFile(bfs billy.Filesystem, name string) ([]byte, error) {
	file, err := bfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
