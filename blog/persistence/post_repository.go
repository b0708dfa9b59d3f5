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

var _ domain.PostRepository = (*SQLPostRepository)(nil)

// SQLPostRepository implements domain.PostRepository on any sqlx-supported driver.
// Queries are written with ? placeholders and rebound for the active driver.
type SQLPostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new SQLPostRepository
func NewPostRepository(db *sqlx.DB) *SQLPostRepository {
	return &SQLPostRepository{
		db: db,
	}
}

const listPostsQuery = `
	SELECT id, title, content, cover_image_url, created_at, updated_at
	FROM posts
	ORDER BY created_at DESC, id DESC
`

const listPostsByCategoryQuery = `
	SELECT p.id AS id, p.title AS title, p.content AS content, p.cover_image_url AS cover_image_url,
		p.created_at AS created_at, p.updated_at AS updated_at
	FROM posts p
	JOIN post_categories pc ON pc.post_id = p.id
	WHERE pc.category_id = ?
	ORDER BY p.created_at DESC, p.id DESC
`

// ListPosts retrieves posts newest first, each with its resolved categories
func (r *SQLPostRepository) ListPosts(ctx context.Context, categoryID string) ([]*domain.Post, error) {
	executor := db.GetExecutor(ctx, r.db)

	var rows []postRow
	var err error
	if categoryID == "" {
		err = executor.SelectContext(ctx, &rows, listPostsQuery)
	} else {
		err = executor.SelectContext(ctx, &rows, executor.Rebind(listPostsByCategoryQuery), categoryID)
	}
	if err != nil {
		return nil, domain.NewStoreError("list posts", err)
	}

	posts := make([]*domain.Post, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].toDomain())
		ids = append(ids, rows[i].ID)
	}

	categories, err := r.categoriesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		if cs, ok := categories[p.ID]; ok {
			p.Categories = cs
		}
	}

	return posts, nil
}

const getPostQuery = `
	SELECT id, title, content, cover_image_url, created_at, updated_at
	FROM posts
	WHERE id = ?
`

// GetPost retrieves a single post by ID with its categories
func (r *SQLPostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, missingID("post")
	}

	executor := db.GetExecutor(ctx, r.db)

	var row postRow
	err := executor.GetContext(ctx, &row, executor.Rebind(getPostQuery), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewStoreError("get post", err)
	}

	categories, err := r.categoriesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	post := row.toDomain()
	if cs, ok := categories[id]; ok {
		post.Categories = cs
	}
	return post, nil
}

const insertPostQuery = `
	INSERT INTO posts (id, title, content, cover_image_url, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

// InsertPost inserts the post row. Associations are written by ReplaceCategories.
func (r *SQLPostRepository) InsertPost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	if p.ID == "" {
		return domain.NewValidationError("id", "is required")
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, executor.Rebind(insertPostQuery),
		p.ID,
		p.Title,
		p.Content,
		p.CoverImageURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return domain.NewStoreError("insert post", err)
	}

	return nil
}

const updatePostQuery = `
	UPDATE posts
	SET title = ?, content = ?, cover_image_url = ?, updated_at = ?
	WHERE id = ?
`

// UpdatePost overwrites the scalar fields of an existing post. created_at is never changed.
func (r *SQLPostRepository) UpdatePost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, executor.Rebind(updatePostQuery),
		p.Title,
		p.Content,
		p.CoverImageURL,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return domain.NewStoreError("update post", err)
	}

	return requireAffected(res, "post", p.ID)
}

const deletePostQuery = `
	DELETE FROM posts WHERE id = ?
`

const deletePostCategoriesQuery = `
	DELETE FROM post_categories WHERE post_id = ?
`

// DeletePost removes the post and its associations
func (r *SQLPostRepository) DeletePost(ctx context.Context, id string) error {
	if id == "" {
		return missingID("post")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		// The cascade would cover this, but not every SQLite connection has foreign keys on.
		if _, err := executor.ExecContext(txCtx, executor.Rebind(deletePostCategoriesQuery), id); err != nil {
			return domain.NewStoreError("delete post categories", err)
		}

		res, err := executor.ExecContext(txCtx, executor.Rebind(deletePostQuery), id)
		if err != nil {
			return domain.NewStoreError("delete post", err)
		}

		return requireAffected(res, "post", id)
	})
}

const insertPostCategoryQuery = `
	INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)
`

// ReplaceCategories rewrites the association set of a post within a transaction
func (r *SQLPostRepository) ReplaceCategories(ctx context.Context, postID string, categoryIDs []string) error {
	if postID == "" {
		return missingID("post")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		if _, err := executor.ExecContext(txCtx, executor.Rebind(deletePostCategoriesQuery), postID); err != nil {
			return domain.NewStoreError("clear post categories", err)
		}

		insert := executor.Rebind(insertPostCategoryQuery)
		for _, categoryID := range categoryIDs {
			if _, err := executor.ExecContext(txCtx, insert, postID, categoryID); err != nil {
				if isForeignKeyViolation(err) {
					return domain.NewValidationError("categoryIds", "unknown category "+categoryID)
				}
				return domain.NewStoreError("insert post category", err)
			}
		}

		return nil
	})
}

const categoriesForPostsQuery = `
	SELECT pc.post_id AS post_id, c.id AS id, c.name AS name, c.created_at AS created_at, c.updated_at AS updated_at
	FROM post_categories pc
	JOIN categories c ON c.id = pc.category_id
	WHERE pc.post_id IN (?)
	ORDER BY c.name ASC, c.id ASC
`

// categoriesFor resolves the categories of each post id, keyed by post id
func (r *SQLPostRepository) categoriesFor(ctx context.Context, postIDs []string) (map[string][]domain.Category, error) {
	result := make(map[string][]domain.Category, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(categoriesForPostsQuery, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to expand category query: %w", err)
	}

	executor := db.GetExecutor(ctx, r.db)

	var rows []postCategoryRow
	if err := executor.SelectContext(ctx, &rows, executor.Rebind(query), args...); err != nil {
		return nil, domain.NewStoreError("load post categories", err)
	}

	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], row.toDomain())
	}

	return result, nil
}

// requireAffected maps a zero-row write to domain.ErrNotFound
func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStoreError("read affected rows", err)
	}

	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	return nil
}

// postRow is a private struct used to scan database rows
type postRow struct {
	ID            string    `db:"id"`
	Title         string    `db:"title"`
	Content       string    `db:"content"`
	CoverImageURL string    `db:"cover_image_url"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (pr *postRow) toDomain() *domain.Post {
	return &domain.Post{
		ID:            pr.ID,
		Title:         pr.Title,
		Content:       pr.Content,
		CoverImageURL: pr.CoverImageURL,
		Categories:    []domain.Category{},
		CreatedAt:     pr.CreatedAt.UTC(),
		UpdatedAt:     pr.UpdatedAt.UTC(),
	}
}

type postCategoryRow struct {
	PostID    string    `db:"post_id"`
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *postCategoryRow) toDomain() domain.Category {
	return domain.Category{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}
