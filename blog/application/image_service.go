package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

const defaultMaxUploadBytes = 10 << 20

// uploadTypes lists the raster formats accepted for upload. SVG is left out since
// browsers run scripts embedded in it when served from our origin.
var uploadTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// ImageService stores uploaded images and hands back the URL they are served from
type ImageService struct {
	images   domain.ImageRepository
	baseURL  string
	maxBytes int64
	now      Clock
}

func NewImageService(images domain.ImageRepository, baseURL string, maxBytes int64) *ImageService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	if baseURL == "" {
		baseURL = defaultUploadURL
	}

	return &ImageService{
		images:   images,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
		now:      systemClock,
	}
}

// WithClock replaces the service clock
func (s *ImageService) WithClock(now Clock) *ImageService {
	s.now = now
	return s
}

// Upload reads an image from r and stores it under a fresh name that keeps a
// readable form of filename. The returned string is the public URL.
func (s *ImageService) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	content, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	if len(content) == 0 {
		return "", domain.NewValidationError("image", "is empty")
	}

	if int64(len(content)) > s.maxBytes {
		return "", domain.NewValidationError("image", fmt.Sprintf("exceeds %d bytes", s.maxBytes))
	}

	mtype := mimetype.Detect(content)
	if !mimetype.EqualsAny(mtype.String(), uploadTypes...) {
		return "", domain.NewValidationError("image", "unsupported content type "+mtype.String())
	}

	name, err := storedName(filename, mtype.Extension())
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(content)
	img := &domain.Image{
		Path:        name,
		Hash:        hex.EncodeToString(sum[:]),
		ContentType: mtype.String(),
		Size:        int64(len(content)),
		Content:     content,
		CreatedAt:   s.now(),
	}

	if err := s.images.SaveImage(ctx, img); err != nil {
		return "", err
	}

	log.Info().Str("path", name).Str("contentType", img.ContentType).Int64("size", img.Size).Msg("Stored image")
	return s.URL(name), nil
}

// Get returns the stored record for the image named name. Content is not loaded.
func (s *ImageService) Get(ctx context.Context, name string) (*domain.Image, error) {
	return s.images.GetImage(ctx, name)
}

// Delete removes the image named name and its file
func (s *ImageService) Delete(ctx context.Context, name string) error {
	if err := s.images.DeleteImage(ctx, name); err != nil {
		return err
	}

	log.Info().Str("path", name).Msg("Deleted image")
	return nil
}

// URL is the public address of the stored image name
func (s *ImageService) URL(name string) string {
	return s.baseURL + "/" + name
}

// storedName builds "<slug>-<uuid><ext>", or "<uuid><ext>" when nothing of the
// original name survives slugging. ext comes from the sniffed content type.
func storedName(filename, ext string) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	prefix := slug.Make(base)
	if prefix == "" {
		return id + ext, nil
	}

	return prefix + "-" + id + ext, nil
}
