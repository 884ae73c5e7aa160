package generator

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/AidanDelaney/generator/pkg/internal/logging"
	"github.com/AidanDelaney/generator/pkg/internal/source"
)

const (
	AppName   = "generator"
	EnvPrefix = "GENERATOR"

	KeyCacheDir   = "cache-dir"
	KeyConfigDir  = "config-dir"
	KeyGitBackend = "git-backend"
)

// Config holds the process-wide locations used by a Generator.
type Config struct {
	// CacheRoot holds one clone per remote template.
	CacheRoot string
	// ConfigRoot holds the default variables file.
	ConfigRoot string
	// GitBackend selects how repositories are cloned and pulled: "gogit" or "git".
	GitBackend string
}

// DefaultConfig places the cache and configuration under the XDG base
// directories.
func DefaultConfig() Config {
	return Config{
		CacheRoot:  filepath.Join(xdg.CacheHome, AppName),
		ConfigRoot: filepath.Join(xdg.ConfigHome, AppName),
		GitBackend: source.BackendGoGit,
	}
}

// LoadConfig reads settings from v, falling back to DefaultConfig.
// Environment variables GENERATOR_CACHE_DIR, GENERATOR_CONFIG_DIR and
// GENERATOR_GIT_BACKEND are honoured, as are any flags bound to v.
func LoadConfig(v *viper.Viper) Config {
	defaults := DefaultConfig()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyCacheDir, defaults.CacheRoot)
	v.SetDefault(KeyConfigDir, defaults.ConfigRoot)
	v.SetDefault(KeyGitBackend, defaults.GitBackend)

	return Config{
		CacheRoot:  v.GetString(KeyCacheDir),
		ConfigRoot: v.GetString(KeyConfigDir),
		GitBackend: v.GetString(KeyGitBackend),
	}
}

// SetupLogging configures process-wide logging. 0 logs warnings and errors
// only, each additional level of verbosity logs more.
func SetupLogging(verbosity int) {
	logging.SetupLogger(verbosity)
}
