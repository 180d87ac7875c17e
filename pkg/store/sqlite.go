package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/knolhq/knol/pkg/db"
)

// SQLiteStore serves modules from a SQLite database. Reads satisfy the Store
// contract; Put and Remove exist for the import/export tooling and are not
// used during composition.
type SQLiteStore struct {
	db *sqlx.DB
}

var migrations = []db.Migration{
	{
		Version:     20250611090000,
		Description: "create modules table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS modules (
					identifier  TEXT PRIMARY KEY,
					content     TEXT NOT NULL,
					title       TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					updated_at  DATETIME NOT NULL
				)
			`)
			return err
		},
	},
}

// OpenSQLiteStore opens (creating if needed) the module database at dbPath
// and applies pending migrations. An empty dbPath uses the default location.
func OpenSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		var err error
		dbPath, err = db.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	runner := db.NewMigrationRunner(sqlDB)
	if err := runner.Run(ctx, migrations); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to run module store migrations")
	}

	return &SQLiteStore{db: sqlDB}, nil
}

// Close releases the underlying database handle.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}

// Exists reports whether a module row for the identifier is present.
func (ss *SQLiteStore) Exists(ctx context.Context, identifier string) bool {
	var count int
	err := ss.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM modules WHERE identifier = ?", identifier)
	return err == nil && count > 0
}

// Read returns the stored text for the identifier.
func (ss *SQLiteStore) Read(ctx context.Context, identifier string) (string, error) {
	var content string
	err := ss.db.GetContext(ctx, &content,
		"SELECT content FROM modules WHERE identifier = ?", identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", NotFoundError{Identifier: identifier}
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read module %q", identifier)
	}
	return content, nil
}

// List enumerates stored modules sorted by identifier.
func (ss *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	var rows []struct {
		Identifier  string `db:"identifier"`
		Title       string `db:"title"`
		Description string `db:"description"`
	}
	err := ss.db.SelectContext(ctx, &rows,
		"SELECT identifier, title, description FROM modules ORDER BY identifier")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list modules")
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{
			Identifier:  r.Identifier,
			Title:       r.Title,
			Description: r.Description,
		})
	}
	return entries, nil
}

// Put inserts or replaces a module. Frontmatter metadata is extracted so
// List can report it without re-parsing content.
func (ss *SQLiteStore) Put(ctx context.Context, identifier, content string) error {
	meta, _ := ParseFrontmatter(content)

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO modules (identifier, content, title, description, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			content = excluded.content,
			title = excluded.title,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, identifier, content, meta.Title, meta.Description, time.Now())
	return errors.Wrapf(err, "failed to store module %q", identifier)
}

// Remove deletes a module row.
func (ss *SQLiteStore) Remove(ctx context.Context, identifier string) error {
	res, err := ss.db.ExecContext(ctx, "DELETE FROM modules WHERE identifier = ?", identifier)
	if err != nil {
		return errors.Wrapf(err, "failed to remove module %q", identifier)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Identifier: identifier}
	}
	return nil
}
