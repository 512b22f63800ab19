package sessionstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

const globMeta = `*?[{`

// Resolve turns a session-store argument into a concrete file path.
//
// A leading "~" is expanded to the user's home directory. Plain paths are
// returned as given, even if they do not exist yet. Glob patterns such as
//
//	~/.mozilla/firefox/*.default*/sessionstore-backups/recovery.jsonlz4
//
// are matched against the filesystem and the most recently modified regular
// file wins, which picks the profile the browser is actually writing to.
func Resolve(pattern string) (string, error) {
	expanded, err := expandHome(pattern)
	if err != nil {
		return "", err
	}

	if !strings.ContainsAny(expanded, globMeta) {
		return expanded, nil
	}

	clean := path.Clean(filepath.ToSlash(expanded))
	g, err := glob.Compile(clean, '/')
	if err != nil {
		return "", fmt.Errorf("invalid session store pattern %q: %w", pattern, err)
	}

	root := staticRoot(clean)
	maxSeps := -1
	if !strings.Contains(clean, "**") {
		maxSeps = strings.Count(clean, "/")
	}

	var (
		best     string
		bestTime time.Time
	)
	walkErr := filepath.WalkDir(filepath.FromSlash(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == filepath.FromSlash(root) {
				return err
			}
			// Unreadable profile directories are not fatal.
			return nil
		}

		slashed := filepath.ToSlash(p)
		if d.IsDir() {
			if maxSeps >= 0 && strings.Count(slashed, "/") >= maxSeps && slashed != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !g.Match(slashed) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = p
			bestTime = info.ModTime()
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, fs.ErrNotExist) {
		return "", fmt.Errorf("search for session store %q: %w", pattern, walkErr)
	}

	if best == "" {
		return "", fmt.Errorf("no session store matches %q", pattern)
	}
	return best, nil
}

// staticRoot returns the directory prefix of a slash-separated pattern that
// contains no glob metacharacters.
func staticRoot(pattern string) string {
	meta := strings.IndexAny(pattern, globMeta)
	if meta < 0 {
		return path.Dir(pattern)
	}

	slash := strings.LastIndex(pattern[:meta], "/")
	switch {
	case slash < 0:
		return "."
	case slash == 0:
		return "/"
	default:
		return pattern[:slash]
	}
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
