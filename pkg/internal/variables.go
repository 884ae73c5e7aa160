package internal

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
	"github.com/AidanDelaney/generator/pkg/internal/logging"
)

const (
	DefaultsFile     string = "defaults.yml"
	DefaultsTomlFile string = "defaults.toml"

	BasenameVariable string = "basename"
	FileVariable     string = "file"
)

// ResolveVariables builds the variable mapping for a generation run. Sources
// are consulted in order: base, then basename, then each declared variable's
// default or prompted value. A key, once set, is never overwritten.
func ResolveVariables(base map[string]interface{}, basename string, defs []VariableDef, prompter Prompter) (map[string]interface{}, error) {
	logger := logging.GetLogger("variables")

	vars := make(map[string]interface{}, len(base)+len(defs)+1)
	for k, v := range base {
		vars[k] = v
	}

	if _, exists := vars[BasenameVariable]; !exists && basename != "" {
		vars[BasenameVariable] = basename
	}

	for _, def := range defs {
		if _, exists := vars[def.Name]; exists {
			logger.Debug().Str("variable", def.Name).Msg("Variable already bound")
			continue
		}
		if def.Default != nil {
			vars[def.Name] = *def.Default
			continue
		}
		value, err := prompter.Ask(def)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPrompt, "failed to read value for variable %s", def.Name)
		}
		vars[def.Name] = value
	}

	return vars, nil
}

// LoadDefaults reads the process-wide default variables from configRoot.
// defaults.yml takes precedence over defaults.toml; with neither present
// the defaults are empty.
func LoadDefaults(configRoot string) (map[string]interface{}, error) {
	logger := logging.GetLogger("variables")

	yamlPath := filepath.Join(configRoot, DefaultsFile)
	if data, err := os.ReadFile(yamlPath); err == nil {
		logger.Debug().Str("path", yamlPath).Msg("Loading default variables")
		return parseYAMLDefaults(data, yamlPath)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to read default variables").
			WithDetail("path", yamlPath)
	}

	tomlPath := filepath.Join(configRoot, DefaultsTomlFile)
	if data, err := os.ReadFile(tomlPath); err == nil {
		logger.Debug().Str("path", tomlPath).Msg("Loading default variables")
		defaults := map[string]interface{}{}
		if _, err := toml.Decode(string(data), &defaults); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigMalformed, "while parsing default variables").
				WithDetail("path", tomlPath)
		}
		return defaults, nil
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to read default variables").
			WithDetail("path", tomlPath)
	}

	logger.Debug().Str("dir", configRoot).Msg("No default variables file")
	return map[string]interface{}{}, nil
}

func parseYAMLDefaults(data []byte, path string) (map[string]interface{}, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigMalformed, "while parsing default variables").
			WithDetail("path", path)
	}
	switch v := raw.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	default:
		return nil, errors.New(errors.ErrConfigMalformed, "expected default variables to be a mapping").
			WithDetail("path", path)
	}
}

// WithFile returns a copy of vars with the file variable bound to path.
func WithFile(vars map[string]interface{}, path string) map[string]interface{} {
	ctx := make(map[string]interface{}, len(vars)+1)
	for k, v := range vars {
		ctx[k] = v
	}
	ctx[FileVariable] = path
	return ctx
}
