// Package store resolves module references against a backing module store.
// The store itself is an external collaborator behind a small read-only
// interface; this package ships a directory-backed implementation, a
// SQLite-backed implementation, and an in-memory one for tests.
package store

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/knolhq/knol/pkg/invocation"
	"github.com/knolhq/knol/pkg/logger"
)

// Store is the read-only contract a module store must satisfy. Any backing
// store (filesystem, database, remote fetch) is valid.
type Store interface {
	Exists(ctx context.Context, identifier string) bool
	Read(ctx context.Context, identifier string) (string, error)
}

// Entry describes one stored module for listing purposes.
type Entry struct {
	Identifier  string
	Title       string
	Description string
}

// Lister is an optional store capability for enumerating modules.
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

// Module is a knowledge module retrieved from a store. RawContent is the
// document body with any YAML frontmatter stripped.
type Module struct {
	Identifier string
	RawContent string
	Meta       Metadata
}

// Metadata is the optional YAML frontmatter of a module.
type Metadata struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// NotFoundError reports a reference to a module the store does not hold.
// It is recoverable: the composer records the module as skipped instead of
// aborting the invocation.
type NotFoundError struct {
	Identifier string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("module %q not found", e.Identifier)
}

// Accessor resolves reference tokens to modules using a backing store.
type Accessor struct {
	store  Store
	marker string
}

// NewAccessor creates an accessor over the given store. The marker must match
// the scanner's reference marker so token normalization strips it.
func NewAccessor(s Store, marker string) *Accessor {
	if marker == "" {
		marker = invocation.DefaultMarker
	}
	return &Accessor{store: s, marker: marker}
}

// Identifier normalizes a reference token into a store identifier: the
// marker prefix, any enclosing path decoration, and a trailing .md extension
// are stripped.
func (a *Accessor) Identifier(token invocation.ReferenceToken) string {
	id := strings.TrimPrefix(token.Raw, a.marker)
	id = strings.Trim(id, "/")
	if id != "" {
		id = path.Base(path.Clean(id))
	}
	id = strings.TrimSuffix(id, ".md")
	return id
}

// Resolve looks the token's identifier up in the store and retrieves the
// module. A store miss returns NotFoundError; read failures (including
// abandoned reads under a cancelled context) also surface as NotFoundError.
func (a *Accessor) Resolve(ctx context.Context, token invocation.ReferenceToken) (*Module, error) {
	id := a.Identifier(token)

	log := logger.G(ctx).WithField("module", id)
	if id == "" || !a.store.Exists(ctx, id) {
		log.Debug("module not found in store")
		return nil, NotFoundError{Identifier: id}
	}

	content, err := a.store.Read(ctx, id)
	if err != nil {
		log.WithError(err).Warn("failed to read module from store")
		return nil, NotFoundError{Identifier: id}
	}

	meta, body := ParseFrontmatter(content)

	return &Module{
		Identifier: id,
		RawContent: body,
		Meta:       meta,
	}, nil
}
