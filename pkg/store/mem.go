package store

import (
	"context"
	"sort"
)

// MemStore is an in-memory module store used in tests and by embedding
// applications that already hold module text.
type MemStore struct {
	modules map[string]string
}

// NewMemStore creates an in-memory store seeded with the given modules,
// keyed by identifier.
func NewMemStore(modules map[string]string) *MemStore {
	m := make(map[string]string, len(modules))
	for id, content := range modules {
		m[id] = content
	}
	return &MemStore{modules: m}
}

// Exists reports whether the identifier is present.
func (ms *MemStore) Exists(_ context.Context, identifier string) bool {
	_, ok := ms.modules[identifier]
	return ok
}

// Read returns the stored text for the identifier.
func (ms *MemStore) Read(_ context.Context, identifier string) (string, error) {
	content, ok := ms.modules[identifier]
	if !ok {
		return "", NotFoundError{Identifier: identifier}
	}
	return content, nil
}

// List enumerates the stored modules sorted by identifier.
func (ms *MemStore) List(_ context.Context) ([]Entry, error) {
	entries := make([]Entry, 0, len(ms.modules))
	for id, content := range ms.modules {
		m, _ := ParseFrontmatter(content)
		entries = append(entries, Entry{
			Identifier:  id,
			Title:       m.Title,
			Description: m.Description,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identifier < entries[j].Identifier
	})

	return entries, nil
}
