package internal

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
)

const CollectionPrompt string = "Choose a project template"

// IsCollection reports whether dir holds several templates rather than
// being one: it has no template.yml of its own but at least one immediate
// subdirectory does.
func IsCollection(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, DefinitionFile)); err == nil {
		return false
	}
	return len(collectionEntries(dir)) > 0
}

func collectionEntries(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var choices []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == ".git" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, entry.Name(), DefinitionFile)); err == nil {
			choices = append(choices, entry.Name())
		}
	}
	sort.Strings(choices)
	return choices
}

// ChooseFromCollection asks prompter to pick one template of the collection
// at dir and returns that template's directory.
func ChooseFromCollection(dir string, prompter Prompter) (string, error) {
	choices := collectionEntries(dir)
	if len(choices) == 0 {
		return "", errors.New(errors.ErrConfigMalformed, "template definition not found").
			WithDetail("path", filepath.Join(dir, DefinitionFile))
	}
	choice, err := prompter.Choose(CollectionPrompt, choices)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrPrompt, "can not process the chosen element of collection")
	}
	return filepath.Join(dir, choice), nil
}
