package domain

import (
	"context"
	"time"
)

// Post represents a blog post authored in markdown.
// Categories is resolved from the post_categories association and is ordered by name.
type Post struct {
	ID            string
	Title         string
	Content       string
	CoverImageURL string
	Categories    []Category
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CategoryIDs returns the ids of the post's resolved categories
func (p *Post) CategoryIDs() []string {
	ids := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// PostInput carries the writable fields of a post.
// CategoryIDs is the complete desired association set; an empty slice clears it.
type PostInput struct {
	Title         string
	Content       string
	CoverImageURL string
	CategoryIDs   []string
}

type PostRepository interface {
	// ListPosts returns posts newest first. An empty categoryID lists every post.
	ListPosts(ctx context.Context, categoryID string) ([]*Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	InsertPost(ctx context.Context, p *Post) error
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id string) error

	// ReplaceCategories deletes every association of the post and inserts categoryIDs
	ReplaceCategories(ctx context.Context, postID string, categoryIDs []string) error
}
