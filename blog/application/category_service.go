package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/dfryer1193/pressroom/shared/db"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type CategoryService struct {
	db         *sqlx.DB
	categories domain.CategoryRepository
	now        Clock
}

func NewCategoryService(conn *sqlx.DB, categories domain.CategoryRepository) *CategoryService {
	return &CategoryService{
		db:         conn,
		categories: categories,
		now:        systemClock,
	}
}

// WithClock replaces the service clock
func (s *CategoryService) WithClock(now Clock) *CategoryService {
	s.now = now
	return s
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.ListCategories(ctx)
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.GetCategory(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &domain.Category{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.categories.InsertCategory(ctx, c); err != nil {
		return nil, err
	}

	log.Info().Str("categoryID", id).Str("name", name).Msg("Created category")
	return c, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id, name string) (*domain.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	var updated *domain.Category
	err = db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		existing, err := s.categories.GetCategory(txCtx, id)
		if err != nil {
			return err
		}

		existing.Name = name
		existing.UpdatedAt = s.now()
		if err := s.categories.UpdateCategory(txCtx, existing); err != nil {
			return err
		}

		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCategory refuses to remove a category that any post still references
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	err := db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		if _, err := s.categories.GetCategory(txCtx, id); err != nil {
			return err
		}

		refs, err := s.categories.CountReferences(txCtx, id)
		if err != nil {
			return err
		}

		if refs > 0 {
			return fmt.Errorf("category %s is used by %d posts: %w", id, refs, domain.ErrReferentialConflict)
		}

		return s.categories.DeleteCategory(txCtx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Str("categoryID", id).Msg("Deleted category")
	return nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "is required")
	}
	return name, nil
}
