package rest

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/dfryer1193/pressroom/auth"
	"github.com/dfryer1193/pressroom/blog/application"
	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/dfryer1193/pressroom/internal/middleware"
	"github.com/gin-gonic/gin"
)

type PostService interface {
	ListPosts(ctx context.Context, categoryID *string) ([]*domain.Post, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, in domain.PostInput) (*domain.Post, error)
	UpdatePost(ctx context.Context, id string, in domain.PostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type ImageService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	Get(ctx context.Context, name string) (*domain.Image, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

type Gate interface {
	middleware.Authorizer
	Login(id, secret string) (*auth.Credential, error)
	SetCookie(w http.ResponseWriter, c *auth.Credential)
	Logout(w http.ResponseWriter)
}

type Options struct {
	// LoginPath is where unauthenticated admin requests are sent
	LoginPath string
	// UploadRoute and UploadDir serve stored images when UploadRoute is a local path
	UploadRoute    string
	UploadDir      string
	MaxUploadBytes int64
}

type Handlers struct {
	posts      PostService
	categories CategoryService
	images     ImageService
	renderer   application.MarkdownRenderer
	gate       Gate
	opts       Options
}

func NewHandlers(
	posts PostService,
	categories CategoryService,
	images ImageService,
	renderer application.MarkdownRenderer,
	gate Gate,
	opts Options,
) *Handlers {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}

	return &Handlers{
		posts:      posts,
		categories: categories,
		images:     images,
		renderer:   renderer,
		gate:       gate,
		opts:       opts,
	}
}

// AdminPrefix is the path prefix covered by the admin gate
const AdminPrefix = "/admin"

// NewApi registers every route on router. The admin gate is installed on the engine
// so it also covers admin paths that match no route.
func NewApi(router *gin.Engine, h *Handlers) {
	router.Use(middleware.RequireAdmin(h.gate, AdminPrefix, h.opts.LoginPath))

	router.GET("/health", h.Health)

	if strings.HasPrefix(h.opts.UploadRoute, "/") && h.opts.UploadDir != "" {
		router.Static(h.opts.UploadRoute, h.opts.UploadDir)
	}

	if strings.HasPrefix(h.opts.LoginPath, "/") {
		router.GET(h.opts.LoginPath, h.LoginPage)
	}

	posts := router.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.GET("/:id", h.GetPost)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
	}

	admin := router.Group(AdminPrefix)
	{
		admin.GET("", h.AdminHome)

		admin.POST("/posts", h.CreatePost)
		admin.PUT("/posts/:id", h.UpdatePost)
		admin.DELETE("/posts/:id", h.DeletePost)

		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.POST("/images", h.UploadImage)
		admin.GET("/images/:name", h.GetImage)
		admin.DELETE("/images/:name", h.DeleteImage)
	}
}
