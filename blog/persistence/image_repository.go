package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/dfryer1193/pressroom/shared/db"
	"github.com/jmoiron/sqlx"
)

var _ domain.ImageRepository = (*SQLImageRepository)(nil)

// SQLImageRepository keeps image bytes under dir and their metadata in the images table
type SQLImageRepository struct {
	db  *sqlx.DB
	dir string
}

// NewImageRepository creates a new SQLImageRepository writing files to dir
func NewImageRepository(db *sqlx.DB, dir string) *SQLImageRepository {
	return &SQLImageRepository{
		db:  db,
		dir: dir,
	}
}

const insertImageQuery = `
	INSERT INTO images (path, hash, content_type, size, created_at)
	VALUES (?, ?, ?, ?, ?)
`

// SaveImage records the image and writes its bytes under dir as one unit. The file is
// removed again if the transaction does not commit.
func (r *SQLImageRepository) SaveImage(ctx context.Context, img *domain.Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	if img.Path == "" {
		return domain.NewValidationError("path", "is required")
	}

	target := r.localPath(img.Path)
	written := false

	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, executor.Rebind(insertImageQuery),
			img.Path,
			img.Hash,
			img.ContentType,
			img.Size,
			img.CreatedAt,
		)
		if err != nil {
			return domain.NewStoreError("insert image record", err)
		}

		if err := os.MkdirAll(r.dir, 0755); err != nil {
			return fmt.Errorf("failed to create image directory: %w", err)
		}

		if err := os.WriteFile(target, img.Content, 0644); err != nil {
			return fmt.Errorf("failed to write image file: %w", err)
		}
		written = true

		return nil
	})
	if err != nil && written {
		if rmErr := os.Remove(target); rmErr != nil && !os.IsNotExist(rmErr) {
			return errors.Join(err, fmt.Errorf("failed to remove image file: %w", rmErr))
		}
	}

	return err
}

const getImageQuery = `
	SELECT path, hash, content_type, size, created_at
	FROM images
	WHERE path = ?
`

// GetImage retrieves a single image record by path. Content is not loaded.
func (r *SQLImageRepository) GetImage(ctx context.Context, path string) (*domain.Image, error) {
	if path == "" {
		return nil, missingID("image")
	}

	executor := db.GetExecutor(ctx, r.db)

	var row imageRow
	err := executor.GetContext(ctx, &row, executor.Rebind(getImageQuery), path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewStoreError("get image", err)
	}

	return row.toDomain(), nil
}

const deleteImageQuery = `
	DELETE FROM images WHERE path = ?
`

// DeleteImage removes an image from both filesystem and database within a transaction
func (r *SQLImageRepository) DeleteImage(ctx context.Context, path string) error {
	if path == "" {
		return missingID("image")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		res, err := executor.ExecContext(txCtx, executor.Rebind(deleteImageQuery), path)
		if err != nil {
			return domain.NewStoreError("delete image record", err)
		}

		if err := requireAffected(res, "image", path); err != nil {
			return err
		}

		if err := os.Remove(r.localPath(path)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove image file: %w", err)
		}

		return nil
	})
}

// localPath confines the stored name to the upload directory
func (r *SQLImageRepository) localPath(path string) string {
	return filepath.Join(r.dir, filepath.Base(path))
}

// imageRow is a private struct used to scan database rows
type imageRow struct {
	Path        string    `db:"path"`
	Hash        string    `db:"hash"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	CreatedAt   time.Time `db:"created_at"`
}

func (ir *imageRow) toDomain() *domain.Image {
	return &domain.Image{
		Path:        ir.Path,
		Hash:        ir.Hash,
		ContentType: ir.ContentType,
		Size:        ir.Size,
		CreatedAt:   ir.CreatedAt.UTC(),
	}
}
