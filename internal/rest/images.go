package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/pressroom/api"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for headers and boundaries around the file part
const multipartOverhead = 1 << 20

// UploadImage stores the multipart field "image" and returns its public URL
func (h *Handlers) UploadImage(c *gin.Context) {
	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "upload too large", Field: "image"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: "no image uploaded", Field: "image"})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	url, err := h.images.Upload(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.UploadResponse{URL: url})
}

// GetImage returns the stored record of an uploaded image
func (h *Handlers) GetImage(c *gin.Context) {
	img, err := h.images.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.ImageResponse{
		Name:        img.Path,
		URL:         h.images.URL(img.Path),
		ContentType: img.ContentType,
		Size:        img.Size,
		Hash:        img.Hash,
		CreatedAt:   img.CreatedAt,
	})
}

func (h *Handlers) DeleteImage(c *gin.Context) {
	if err := h.images.Delete(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "image deleted"})
}
