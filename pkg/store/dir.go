package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// DirStore serves modules from one or more directories of markdown files.
// Directories earlier in the list take precedence; lookup tries the bare
// identifier and the identifier with a .md extension.
type DirStore struct {
	dirs []string
}

// DirOption configures a DirStore.
type DirOption func(*DirStore) error

// WithDirs sets the module directories, replacing any defaults.
func WithDirs(dirs ...string) DirOption {
	return func(ds *DirStore) error {
		if len(dirs) == 0 {
			return errors.New("at least one module directory must be specified")
		}
		ds.dirs = dirs
		return nil
	}
}

// WithDefaultDirs resets to the default module directories: the repo-local
// .knol/modules first, then the user-global one.
func WithDefaultDirs() DirOption {
	return func(ds *DirStore) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		ds.dirs = []string{
			filepath.Join(".", ".knol", "modules"),
			filepath.Join(homeDir, ".knol", "modules"),
		}
		return nil
	}
}

// NewDirStore creates a directory-backed store. With no options the default
// directories are used.
func NewDirStore(opts ...DirOption) (*DirStore, error) {
	ds := &DirStore{}

	if len(opts) == 0 {
		if err := WithDefaultDirs()(ds); err != nil {
			return nil, err
		}
		return ds, nil
	}

	for _, opt := range opts {
		if err := opt(ds); err != nil {
			return nil, errors.Wrap(err, "failed to apply dir store option")
		}
	}
	if len(ds.dirs) == 0 {
		if err := WithDefaultDirs()(ds); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// findFile returns the path of the first file matching the identifier across
// the configured directories.
func (ds *DirStore) findFile(identifier string) (string, bool) {
	candidates := []string{
		identifier + ".md",
		identifier,
	}

	for _, dir := range ds.dirs {
		for _, name := range candidates {
			fullPath := filepath.Join(dir, name)
			if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
				return fullPath, true
			}
		}
	}

	return "", false
}

// Exists reports whether a module file for the identifier is present.
func (ds *DirStore) Exists(_ context.Context, identifier string) bool {
	_, ok := ds.findFile(identifier)
	return ok
}

// Read returns the raw text of the module file for the identifier.
func (ds *DirStore) Read(_ context.Context, identifier string) (string, error) {
	path, ok := ds.findFile(identifier)
	if !ok {
		return "", NotFoundError{Identifier: identifier}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read module file %q", path)
	}
	return string(content), nil
}

// List enumerates every module across the configured directories, first
// directory winning on name collisions, sorted by identifier.
func (ds *DirStore) List(_ context.Context) ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	for _, dir := range ds.dirs {
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			// Directory might not exist, continue
			continue
		}

		for _, de := range dirEntries {
			if de.IsDir() {
				continue
			}

			name := strings.TrimSuffix(de.Name(), ".md")
			if seen[name] {
				continue
			}
			seen[name] = true

			entry := Entry{Identifier: name}
			if content, err := os.ReadFile(filepath.Join(dir, de.Name())); err == nil {
				m, _ := ParseFrontmatter(string(content))
				entry.Title = m.Title
				entry.Description = m.Description
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identifier < entries[j].Identifier
	})

	return entries, nil
}

// FilterByPattern keeps only entries whose identifier matches the glob
// pattern. An empty pattern keeps everything.
func FilterByPattern(entries []Entry, pattern string) ([]Entry, error) {
	if pattern == "" {
		return entries, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}

	var filtered []Entry
	for _, e := range entries {
		if g.Match(e.Identifier) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
