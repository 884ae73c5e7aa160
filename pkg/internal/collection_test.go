package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
)

func TestCollection(t *testing.T) {
	spec.Run(t, "Collection", testCollection, spec.Report(report.Terminal{}))
}

func testCollection(t *testing.T, when spec.G, it spec.S) {
	var dir string

	touch := func(parts ...string) {
		p := filepath.Join(append([]string{dir}, parts...)...)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0644))
	}

	it.Before(func() {
		dir = t.TempDir()
	})

	when("#IsCollection", func() {
		it("is false for a single template", func() {
			touch(DefinitionFile)
			touch("go", DefinitionFile)
			assert.False(t, IsCollection(dir))
		})

		it("is true when only subdirectories hold templates", func() {
			touch("go", DefinitionFile)
			touch("README.md")
			assert.True(t, IsCollection(dir))
		})

		it("ignores git metadata", func() {
			touch(".git", DefinitionFile)
			assert.False(t, IsCollection(dir))
		})

		it("is false for an empty directory", func() {
			assert.False(t, IsCollection(dir))
		})
	})

	when("#ChooseFromCollection", func() {
		it("returns the chosen template directory", func() {
			touch("rust", DefinitionFile)
			touch("go", DefinitionFile)
			touch("docs", "index.md")

			chosen, err := ChooseFromCollection(dir, &ScriptedPrompter{Choice: "rust"})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "rust"), chosen)
		})

		it("fails when the choice is not a template", func() {
			touch("go", DefinitionFile)
			touch("docs", "index.md")

			_, err := ChooseFromCollection(dir, &ScriptedPrompter{Choice: "docs"})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrPrompt))
		})

		it("fails without any template", func() {
			_, err := ChooseFromCollection(dir, &ScriptedPrompter{})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrConfigMalformed))
		})
	})
}
