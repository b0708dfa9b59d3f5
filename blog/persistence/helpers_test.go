package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/dfryer1193/pressroom/shared/db/sqlite"
	"github.com/jmoiron/sqlx"
)

// setupTestDB creates a migrated in-memory SQLite database for testing
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(":memory:"))
	if err := database.Connect(); err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database.DB()
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedCategory(t *testing.T, repo *SQLCategoryRepository, id, name string) *domain.Category {
	t.Helper()

	c := &domain.Category{ID: id, Name: name, CreatedAt: baseTime, UpdatedAt: baseTime}
	if err := repo.InsertCategory(context.Background(), c); err != nil {
		t.Fatalf("InsertCategory(%s) failed: %v", id, err)
	}
	return c
}

func seedPost(t *testing.T, repo *SQLPostRepository, id string, createdAt time.Time, categoryIDs ...string) *domain.Post {
	t.Helper()

	p := &domain.Post{
		ID:        id,
		Title:     "Post " + id,
		Content:   "# Post " + id,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	ctx := context.Background()
	if err := repo.InsertPost(ctx, p); err != nil {
		t.Fatalf("InsertPost(%s) failed: %v", id, err)
	}
	if err := repo.ReplaceCategories(ctx, id, categoryIDs); err != nil {
		t.Fatalf("ReplaceCategories(%s) failed: %v", id, err)
	}
	return p
}
