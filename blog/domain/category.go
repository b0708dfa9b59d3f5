package domain

import (
	"context"
	"time"
)

// Category groups posts. Names are not required to be unique.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	InsertCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error

	// ExistingIDs returns the subset of ids that have a category row
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)

	// CountReferences returns how many posts are associated with the category
	CountReferences(ctx context.Context, id string) (int, error)
}
