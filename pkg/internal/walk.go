package internal

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
)

// WalkFunc is called for every entry visited by Walk. Returning
// filepath.SkipDir for a directory skips its contents.
type WalkFunc func(path string, info os.FileInfo) error

// Walk visits every entry below root in pre-order, siblings sorted by name.
// The root itself is not visited. Use "" to walk the whole filesystem.
// Symbolic links are followed: fn sees the info of the link target.
func Walk(bfs billy.Filesystem, root string, fn WalkFunc) error {
	entries, err := bfs.ReadDir(root)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, info := range entries {
		path := info.Name()
		if root != "" {
			path = bfs.Join(root, info.Name())
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if info, err = bfs.Stat(path); err != nil {
				return err
			}
		}

		err := fn(path, info)
		if err == filepath.SkipDir {
			continue
		}
		if err != nil {
			return err
		}

		if info.IsDir() {
			if err := Walk(bfs, path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
