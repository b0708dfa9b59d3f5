package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/dfryer1193/pressroom/shared/db"
	"github.com/jmoiron/sqlx"
)

var _ domain.CategoryRepository = (*SQLCategoryRepository)(nil)

// SQLCategoryRepository implements domain.CategoryRepository
type SQLCategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *SQLCategoryRepository {
	return &SQLCategoryRepository{
		db: db,
	}
}

const listCategoriesQuery = `
	SELECT id, name, created_at, updated_at
	FROM categories
	ORDER BY name ASC, id ASC
`

func (r *SQLCategoryRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	executor := db.GetExecutor(ctx, r.db)

	var rows []categoryRow
	if err := executor.SelectContext(ctx, &rows, listCategoriesQuery); err != nil {
		return nil, domain.NewStoreError("list categories", err)
	}

	categories := make([]*domain.Category, 0, len(rows))
	for i := range rows {
		categories = append(categories, rows[i].toDomain())
	}

	return categories, nil
}

const getCategoryQuery = `
	SELECT id, name, created_at, updated_at
	FROM categories
	WHERE id = ?
`

func (r *SQLCategoryRepository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, missingID("category")
	}

	executor := db.GetExecutor(ctx, r.db)

	var row categoryRow
	err := executor.GetContext(ctx, &row, executor.Rebind(getCategoryQuery), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewStoreError("get category", err)
	}

	return row.toDomain(), nil
}

const insertCategoryQuery = `
	INSERT INTO categories (id, name, created_at, updated_at)
	VALUES (?, ?, ?, ?)
`

func (r *SQLCategoryRepository) InsertCategory(ctx context.Context, c *domain.Category) error {
	if c == nil {
		return fmt.Errorf("category cannot be nil")
	}

	if c.ID == "" {
		return domain.NewValidationError("id", "is required")
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, executor.Rebind(insertCategoryQuery),
		c.ID,
		c.Name,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return domain.NewStoreError("insert category", err)
	}

	return nil
}

const updateCategoryQuery = `
	UPDATE categories SET name = ?, updated_at = ? WHERE id = ?
`

func (r *SQLCategoryRepository) UpdateCategory(ctx context.Context, c *domain.Category) error {
	if c == nil {
		return fmt.Errorf("category cannot be nil")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, executor.Rebind(updateCategoryQuery), c.Name, c.UpdatedAt, c.ID)
	if err != nil {
		return domain.NewStoreError("update category", err)
	}

	return requireAffected(res, "category", c.ID)
}

const deleteCategoryQuery = `
	DELETE FROM categories WHERE id = ?
`

// DeleteCategory removes the category row. A category still referenced by a post
// is refused by the RESTRICT foreign key and reported as domain.ErrReferentialConflict.
func (r *SQLCategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if id == "" {
		return missingID("category")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, executor.Rebind(deleteCategoryQuery), id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("category %s is still referenced: %w", id, domain.ErrReferentialConflict)
	}
	if err != nil {
		return domain.NewStoreError("delete category", err)
	}

	return requireAffected(res, "category", id)
}

const existingCategoryIDsQuery = `
	SELECT id FROM categories WHERE id IN (?)
`

func (r *SQLCategoryRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	query, args, err := sqlx.In(existingCategoryIDsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to expand category id query: %w", err)
	}

	executor := db.GetExecutor(ctx, r.db)

	existing := make([]string, 0, len(ids))
	if err := executor.SelectContext(ctx, &existing, executor.Rebind(query), args...); err != nil {
		return nil, domain.NewStoreError("look up category ids", err)
	}

	return existing, nil
}

const countCategoryReferencesQuery = `
	SELECT COUNT(*) FROM post_categories WHERE category_id = ?
`

func (r *SQLCategoryRepository) CountReferences(ctx context.Context, id string) (int, error) {
	executor := db.GetExecutor(ctx, r.db)

	var count int
	if err := executor.GetContext(ctx, &count, executor.Rebind(countCategoryReferencesQuery), id); err != nil {
		return 0, domain.NewStoreError("count category references", err)
	}

	return count, nil
}

type categoryRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (cr *categoryRow) toDomain() *domain.Category {
	return &domain.Category{
		ID:        cr.ID,
		Name:      cr.Name,
		CreatedAt: cr.CreatedAt.UTC(),
		UpdatedAt: cr.UpdatedAt.UTC(),
	}
}
