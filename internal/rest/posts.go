package rest

import (
	"net/http"

	"github.com/dfryer1193/pressroom/api"
	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/gin-gonic/gin"
)

// ListPosts serves GET /posts, optionally filtered by ?categoryId=
func (h *Handlers) ListPosts(c *gin.Context) {
	var filter *string
	if categoryID, ok := c.GetQuery("categoryId"); ok && categoryID != "" {
		filter = &categoryID
	}

	posts, err := h.posts.ListPosts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]api.PostSummary, 0, len(posts))
	for _, p := range posts {
		summary, err := h.toSummary(p)
		if err != nil {
			respondError(c, err)
			return
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.writeDetail(c, http.StatusOK, post)
}

func (h *Handlers) CreatePost(c *gin.Context) {
	var req api.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), toPostInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	h.writeDetail(c, http.StatusCreated, post)
}

func (h *Handlers) UpdatePost(c *gin.Context) {
	var req api.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), c.Param("id"), toPostInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	h.writeDetail(c, http.StatusOK, post)
}

func (h *Handlers) DeletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "post deleted"})
}

func (h *Handlers) writeDetail(c *gin.Context, status int, p *domain.Post) {
	html, err := h.renderer.Render(p.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, api.PostDetail{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		HTML:          html,
		CoverImageURL: p.CoverImageURL,
		Categories:    toCategoryList(p.Categories),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
}

func (h *Handlers) toSummary(p *domain.Post) (api.PostSummary, error) {
	summaryHTML, err := h.renderer.RenderSummary(p.Content)
	if err != nil {
		return api.PostSummary{}, err
	}

	return api.PostSummary{
		ID:            p.ID,
		Title:         p.Title,
		CoverImageURL: p.CoverImageURL,
		SummaryHTML:   summaryHTML,
		Snippet:       h.renderer.Snippet(p.Content),
		Categories:    toCategoryList(p.Categories),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

func toPostInput(req api.PostRequest) domain.PostInput {
	ids := req.CategoryIDs
	if ids == nil {
		ids = []string{}
	}

	return domain.PostInput{
		Title:         req.Title,
		Content:       req.Content,
		CoverImageURL: req.CoverImageURL,
		CategoryIDs:   ids,
	}
}
