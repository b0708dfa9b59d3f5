package rest

import (
	"net/http"

	"github.com/dfryer1193/pressroom/api"
	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]api.Category, 0, len(categories))
	for _, cat := range categories {
		out = append(out, toCategory(*cat))
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handlers) GetCategory(c *gin.Context) {
	category, err := h.categories.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCategory(*category))
}

func (h *Handlers) CreateCategory(c *gin.Context) {
	var req api.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCategory(*category))
}

func (h *Handlers) UpdateCategory(c *gin.Context) {
	var req api.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.categories.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCategory(*category))
}

func (h *Handlers) DeleteCategory(c *gin.Context) {
	if err := h.categories.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "category deleted"})
}

func toCategory(c domain.Category) api.Category {
	return api.Category{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCategoryList(categories []domain.Category) []api.Category {
	out := make([]api.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategory(c))
	}
	return out
}
