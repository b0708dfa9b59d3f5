package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/dfryer1193/pressroom/shared/db"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

type PostService struct {
	db         *sqlx.DB
	posts      domain.PostRepository
	categories domain.CategoryRepository
	now        Clock
}

func NewPostService(conn *sqlx.DB, posts domain.PostRepository, categories domain.CategoryRepository) *PostService {
	return &PostService{
		db:         conn,
		posts:      posts,
		categories: categories,
		now:        systemClock,
	}
}

// WithClock replaces the service clock
func (s *PostService) WithClock(now Clock) *PostService {
	s.now = now
	return s
}

// ListPosts returns posts newest first. A nil categoryID lists every post.
func (s *PostService) ListPosts(ctx context.Context, categoryID *string) ([]*domain.Post, error) {
	filter := ""
	if categoryID != nil {
		filter = strings.TrimSpace(*categoryID)
	}

	return s.posts.ListPosts(ctx, filter)
}

func (s *PostService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.GetPost(ctx, id)
}

// CreatePost validates the input, checks every category exists and writes the post
// and its associations in one transaction.
func (s *PostService) CreatePost(ctx context.Context, in domain.PostInput) (*domain.Post, error) {
	in, err := normalizePostInput(in)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	var created *domain.Post
	err = db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.requireCategories(txCtx, in.CategoryIDs); err != nil {
			return err
		}

		now := s.now()
		post := &domain.Post{
			ID:            id,
			Title:         in.Title,
			Content:       in.Content,
			CoverImageURL: in.CoverImageURL,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := s.posts.InsertPost(txCtx, post); err != nil {
			return err
		}

		if err := s.posts.ReplaceCategories(txCtx, id, in.CategoryIDs); err != nil {
			return err
		}

		loaded, err := s.posts.GetPost(txCtx, id)
		created = loaded
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("postID", created.ID).Int("categories", len(created.Categories)).Msg("Created post")
	return created, nil
}

// UpdatePost replaces the post's fields and its complete category set
func (s *PostService) UpdatePost(ctx context.Context, id string, in domain.PostInput) (*domain.Post, error) {
	in, err := normalizePostInput(in)
	if err != nil {
		return nil, err
	}

	var updated *domain.Post
	err = db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		existing, err := s.posts.GetPost(txCtx, id)
		if err != nil {
			return err
		}

		if err := s.requireCategories(txCtx, in.CategoryIDs); err != nil {
			return err
		}

		existing.Title = in.Title
		existing.Content = in.Content
		existing.CoverImageURL = in.CoverImageURL
		existing.UpdatedAt = s.now()

		if err := s.posts.UpdatePost(txCtx, existing); err != nil {
			return err
		}

		if err := s.posts.ReplaceCategories(txCtx, id, in.CategoryIDs); err != nil {
			return err
		}

		updated, err = s.posts.GetPost(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("postID", id).Msg("Updated post")
	return updated, nil
}

func (s *PostService) DeletePost(ctx context.Context, id string) error {
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return err
	}

	log.Info().Str("postID", id).Msg("Deleted post")
	return nil
}

// requireCategories fails with a validation error naming every unknown id
func (s *PostService) requireCategories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	existing, err := s.categories.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}

	var missing []string
	for _, id := range ids {
		if !slices.Contains(existing, id) {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return domain.NewValidationError("categoryIds", "unknown category ids: "+strings.Join(missing, ", "))
	}

	return nil
}

// normalizePostInput trims the title, checks required fields and dedupes category ids
func normalizePostInput(in domain.PostInput) (domain.PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.CoverImageURL = strings.TrimSpace(in.CoverImageURL)

	if in.Title == "" {
		return in, domain.NewValidationError("title", "is required")
	}

	if strings.TrimSpace(in.Content) == "" {
		return in, domain.NewValidationError("content", "is required")
	}

	ids := make([]string, 0, len(in.CategoryIDs))
	for _, id := range in.CategoryIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return in, domain.NewValidationError("categoryIds", "must not contain empty ids")
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	in.CategoryIDs = ids

	return in, nil
}
