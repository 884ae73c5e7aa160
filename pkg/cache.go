package generator

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	billyutil "github.com/go-git/go-billy/v5/util"

	"github.com/AidanDelaney/generator/pkg/internal"
	"github.com/AidanDelaney/generator/pkg/internal/errors"
	"github.com/AidanDelaney/generator/pkg/internal/source"
)

// CachePath returns where the template repository identified by id is, or
// would be, cached.
func (g Generator) CachePath(id string) (string, error) {
	return source.NewProvider(g.Config.CacheRoot, nil).CachePath(id)
}

// ListCache returns the cache keys of every cached repository, in order.
func (g Generator) ListCache() ([]string, error) {
	if _, err := os.Stat(g.Config.CacheRoot); os.IsNotExist(err) {
		return nil, nil
	}

	cache := osfs.New(g.Config.CacheRoot)
	var keys []string
	err := internal.Walk(cache, "", func(p string, info os.FileInfo) error {
		if !info.IsDir() {
			return nil
		}
		if _, err := cache.Stat(cache.Join(p, ".git")); err == nil {
			keys = append(keys, filepath.ToSlash(p))
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to list cache").WithDetail("path", g.Config.CacheRoot)
	}
	return keys, nil
}

// CleanCache removes the cached clone of id, if any.
func (g Generator) CleanCache(id string) error {
	p, err := g.CachePath(id)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(g.Config.CacheRoot, p)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to clean cache").WithDetail("path", p)
	}
	if err := billyutil.RemoveAll(osfs.New(g.Config.CacheRoot), rel); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to clean cache").WithDetail("path", p)
	}
	return nil
}
