package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      []string
}

// migrations is the ordered list of all database migrations.
// Statements are kept portable between SQLite and PostgreSQL.
var migrations = []migration{
	{
		version: 1,
		name:    "create_posts_table",
		up: []string{
			`CREATE TABLE IF NOT EXISTS posts (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				cover_image_url TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)`,
		},
	},
	{
		version: 2,
		name:    "create_categories_table",
		up: []string{
			`CREATE TABLE IF NOT EXISTS categories (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(name)`,
		},
	},
	{
		version: 3,
		name:    "create_post_categories_table",
		up: []string{
			`CREATE TABLE IF NOT EXISTS post_categories (
				post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
				PRIMARY KEY (post_id, category_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_post_categories_category_id ON post_categories(category_id)`,
		},
	},
	{
		version: 4,
		name:    "create_images_table",
		up: []string{
			`CREATE TABLE IF NOT EXISTS images (
				path TEXT PRIMARY KEY,
				hash TEXT NOT NULL,
				content_type TEXT NOT NULL,
				size BIGINT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_images_hash ON images(hash)`,
		},
	},
}

// LatestVersion is the schema version after all migrations are applied
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate executes all pending migrations
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.GetContext(ctx, &currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		err := RunInTransaction(ctx, db, func(txCtx context.Context) error {
			executor := GetExecutor(txCtx, db)
			for _, stmt := range m.up {
				if _, err := executor.ExecContext(txCtx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
				}
			}

			_, err := executor.ExecContext(txCtx,
				executor.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"),
				m.version,
				m.name,
			)
			if err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
