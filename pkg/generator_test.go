package generator_test

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cp "github.com/otiai10/copy"
	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	generator "github.com/AidanDelaney/generator/pkg"
	"github.com/AidanDelaney/generator/pkg/internal"
	"github.com/AidanDelaney/generator/pkg/internal/errors"
)

func TestGenerator(t *testing.T) {
	spec.Run(t, "Generator", testGenerator, spec.Report(report.Terminal{}))
}

// readTree returns every regular file below root with its content.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	require.NoError(t, filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	}))
	return files
}

func writeFile(t *testing.T, p string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

type fakeResolver struct {
	dirs  map[string]string
	asked []string
}

func (f *fakeResolver) Resolve(_ context.Context, arg string) (string, error) {
	f.asked = append(f.asked, arg)
	dir, ok := f.dirs[arg]
	if !ok {
		return "", errors.Newf(errors.ErrCloneFailed, "failed to clone repo %s", arg)
	}
	return dir, nil
}

func testGenerator(t *testing.T, when spec.G, it spec.S) {
	var (
		ctx         = context.Background()
		tmp         string
		templateDir string
		configDir   string
		cacheDir    string
		dest        string
		promptOut   bytes.Buffer
	)

	newGenerator := func(input string, opts ...generator.Option) generator.Generator {
		base := []generator.Option{
			generator.WithConfig(generator.Config{CacheRoot: cacheDir, ConfigRoot: configDir}),
			generator.WithPrompter(generator.NewLinePrompter(strings.NewReader(input), &promptOut)),
		}
		return generator.New(append(base, opts...)...)
	}

	it.Before(func() {
		tmp = t.TempDir()
		promptOut.Reset()
		templateDir = filepath.Join(tmp, "template")
		require.NoError(t, cp.Copy(filepath.Join("testdata", "basic"), templateDir))
		writeFile(t, filepath.Join(templateDir, ".git", "config"), "[core]\n")
		configDir = filepath.Join(tmp, "config")
		cacheDir = filepath.Join(tmp, "cache")
		dest = filepath.Join(tmp, "demo-project")
	})

	when("#Generate", func() {
		it("materializes the template", func() {
			require.NoError(t, newGenerator("demo\n").Generate(ctx, templateDir, dest))

			assert.Equal(t, map[string]string{
				"README.md":                "# demo\n\nLicensed under MIT.\n",
				"a.txt":                    "plain demo\n",
				"input.txt.out":            "Hello demo, this is input.txt\n",
				"data.bin":                 "{{ raw }}\n",
				"cmd/demo-project/main.go": "package main\n\n// demo-project\nfunc main() {}\n",
			}, readTree(t, dest))
			assert.NoDirExists(t, filepath.Join(dest, "docs"))
			assert.NoDirExists(t, filepath.Join(dest, ".git"))
		})

		it("prompts exactly once for a variable without value or default", func() {
			require.NoError(t, newGenerator("demo\n").Generate(ctx, templateDir, dest))
			assert.Equal(t, "Variable name missing - value? ", promptOut.String())
		})

		it("fails without touching an existing destination", func() {
			writeFile(t, filepath.Join(dest, "keep.txt"), "mine")

			err := newGenerator("demo\n").Generate(ctx, templateDir, dest)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrDestinationExists))
			assert.Equal(t, map[string]string{"keep.txt": "mine"}, readTree(t, dest))
			assert.Empty(t, promptOut.String())
		})

		it("binds overrides before defaults and declared defaults", func() {
			writeFile(t, filepath.Join(configDir, "defaults.yml"), "name: from-defaults\nlicense: Apache-2.0\n")

			g := newGenerator("", generator.WithOverrides(map[string]string{"name": "override"}))
			require.NoError(t, g.Generate(ctx, templateDir, dest))

			assert.Equal(t, "# override\n\nLicensed under Apache-2.0.\n", readTree(t, dest)["README.md"])
			assert.Empty(t, promptOut.String())
		})

		it("reports every created file", func() {
			var created []string
			g := newGenerator("demo\n", generator.WithReporter(func(action, p string) {
				created = append(created, fmt.Sprintf("%s %s", action, p))
			}))
			require.NoError(t, g.Generate(ctx, templateDir, dest))
			assert.Equal(t, []string{
				"create README.md",
				"create a.txt",
				"create data.bin",
				"create input.txt.out",
				"create cmd/demo-project/main.go",
			}, created)
		})

		it("fails when the template has no definition", func() {
			require.NoError(t, os.Remove(filepath.Join(templateDir, internal.DefinitionFile)))

			err := newGenerator("demo\n").Generate(ctx, templateDir, dest)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrConfigMalformed))
			assert.NoDirExists(t, dest)
		})

		it("uses the engine named by the template", func() {
			goTemplate := filepath.Join(tmp, "gotemplate")
			writeFile(t, filepath.Join(goTemplate, "template.yml"), "engine: gotemplate\nvariables: [name]\n")
			writeFile(t, filepath.Join(goTemplate, "NAME"), "{{ .name | upper }} in {{ .file }}")

			require.NoError(t, newGenerator("demo\n").Generate(ctx, goTemplate, dest))
			assert.Equal(t, map[string]string{"NAME": "DEMO in NAME"}, readTree(t, dest))
		})

		it("lets the user pick a template out of a collection", func() {
			collection := filepath.Join(tmp, "collection")
			writeFile(t, filepath.Join(collection, "go", "template.yml"), "{}")
			writeFile(t, filepath.Join(collection, "go", "main.go"), "package main")
			writeFile(t, filepath.Join(collection, "rust", "template.yml"), "{}")
			writeFile(t, filepath.Join(collection, "rust", "main.rs"), "fn main() {}")

			g := newGenerator("", generator.WithPrompter(&internal.ScriptedPrompter{Choice: "rust"}))
			require.NoError(t, g.Generate(ctx, collection, dest))
			assert.Equal(t, map[string]string{"main.rs": "fn main() {}"}, readTree(t, dest))
		})

		it("does not copy its own output when the destination is inside the template", func() {
			inner := filepath.Join(templateDir, "out")

			require.NoError(t, newGenerator("demo\n").Generate(ctx, templateDir, inner))
			files := readTree(t, inner)
			assert.Equal(t, "# demo\n\nLicensed under MIT.\n", files["README.md"])
			for name := range files {
				assert.False(t, strings.HasPrefix(name, "out/"), name)
			}
			assert.Equal(t, "plain {{ name }}\n", readTree(t, templateDir)["a.txt"])
		})

		when("a source resolver is given", func() {
			it("generates from the resolved directory", func() {
				resolver := &fakeResolver{dirs: map[string]string{"example.com/tpl": templateDir}}
				g := newGenerator("demo\n", generator.WithSourceResolver(resolver))

				require.NoError(t, g.Generate(ctx, "example.com/tpl", dest))
				assert.Equal(t, []string{"example.com/tpl"}, resolver.asked)
				assert.FileExists(t, filepath.Join(dest, "README.md"))
			})

			it("surfaces resolution failures before creating the destination", func() {
				g := newGenerator("demo\n", generator.WithSourceResolver(&fakeResolver{}))

				err := g.Generate(ctx, "example.com/missing", dest)
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCloneFailed))
				assert.NoDirExists(t, dest)
			})
		})
	})

	when("cache helpers", func() {
		it("maps identifiers below the cache root", func() {
			p, err := newGenerator("").CachePath("https://github.com/acme/templates.git")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(cacheDir, "github.com", "acme", "templates"), p)
		})

		it("lists cached repositories", func() {
			writeFile(t, filepath.Join(cacheDir, "github.com", "acme", "go", ".git", "HEAD"), "ref")
			writeFile(t, filepath.Join(cacheDir, "example.com", "rust", ".git", "HEAD"), "ref")
			writeFile(t, filepath.Join(cacheDir, "stray", "file.txt"), "")

			keys, err := newGenerator("").ListCache()
			require.NoError(t, err)
			assert.Equal(t, []string{"example.com/rust", "github.com/acme/go"}, keys)
		})

		it("lists nothing without a cache", func() {
			keys, err := newGenerator("").ListCache()
			require.NoError(t, err)
			assert.Empty(t, keys)
		})

		it("removes a cached repository", func() {
			writeFile(t, filepath.Join(cacheDir, "github.com", "acme", "go", ".git", "HEAD"), "ref")

			g := newGenerator("")
			require.NoError(t, g.CleanCache("git@github.com:acme/go.git"))
			assert.NoDirExists(t, filepath.Join(cacheDir, "github.com", "acme", "go"))
			assert.DirExists(t, filepath.Join(cacheDir, "github.com", "acme"))
		})
	})
}
