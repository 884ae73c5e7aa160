package util

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ToVariables converts string overrides into a variable mapping.
func ToVariables(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var scpLike = regexp.MustCompile(`^(?:[A-Za-z0-9._-]+@)?([A-Za-z0-9.-]+):(.+)$`)

// CacheKey maps a repository identifier to a relative cache directory.
// Schemes, credentials and a trailing .git are dropped, so
// "https://github.com/a/b.git" and "git@github.com:a/b" share "github.com/a/b".
func CacheKey(identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", fmt.Errorf("empty repository identifier")
	}

	var key string
	switch {
	case strings.Contains(id, "://"):
		u, err := url.Parse(id)
		if err != nil {
			return "", fmt.Errorf("invalid repository identifier %q: %w", identifier, err)
		}
		key = u.Host + "/" + u.Path
	case scpLike.MatchString(id) && !strings.HasPrefix(id, "/"):
		m := scpLike.FindStringSubmatch(id)
		key = m[1] + "/" + m[2]
	default:
		key = id
	}

	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.ReplaceAll(key, ":", "_")
	key = strings.TrimSuffix(strings.TrimRight(key, "/"), ".git")
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("repository identifier %q escapes the cache", identifier)
		}
	}
	key = path.Clean("/" + key)[1:]
	if key == "" {
		return "", fmt.Errorf("repository identifier %q yields an empty cache path", identifier)
	}
	return key, nil
}
