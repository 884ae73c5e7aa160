// Package source resolves a template argument to a local directory,
// cloning or refreshing remote templates in a cache.
package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
	"github.com/AidanDelaney/generator/pkg/internal/logging"
	"github.com/AidanDelaney/generator/pkg/internal/util"
)

// Provider resolves template arguments. Remote templates live under
// CacheRoot, one directory per repository.
type Provider struct {
	CacheRoot string
	VCS       VCS
}

func NewProvider(cacheRoot string, vcs VCS) Provider {
	return Provider{CacheRoot: cacheRoot, VCS: vcs}
}

// CachePath returns where the repository identified by templateArg is cached.
func (p Provider) CachePath(templateArg string) (string, error) {
	key, err := util.CacheKey(templateArg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCloneFailed, "cannot cache repository").
			WithDetail("identifier", templateArg)
	}
	return filepath.Join(p.CacheRoot, filepath.FromSlash(key)), nil
}

// Resolve returns a local directory holding the template. An existing local
// path is used as is. Anything else is a repository: cloned into the cache on
// first use, pulled on later uses.
func (p Provider) Resolve(ctx context.Context, templateArg string) (string, error) {
	logger := logging.GetLogger("source")

	if _, err := os.Stat(templateArg); err == nil {
		logger.Debug().Str("path", templateArg).Msg("Using local template")
		return templateArg, nil
	}

	cached, err := p.CachePath(templateArg)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(cached); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(cached), 0755); err != nil {
			return "", errors.Wrapf(err, errors.ErrCloneFailed, "failed to create cache directory for %s", templateArg).
				WithDetail("path", cached)
		}
		logger.Info().Str("repo", templateArg).Str("path", cached).Msg("Cloning template")
		if err := p.VCS.Clone(ctx, templateArg, cached); err != nil {
			return "", err
		}
		return cached, nil
	}

	logger.Info().Str("repo", templateArg).Str("path", cached).Msg("Updating cached template")
	if err := p.VCS.Open(ctx, cached); err != nil {
		return "", err
	}
	if err := p.VCS.Pull(ctx, cached); err != nil {
		return "", err
	}
	return cached, nil
}
