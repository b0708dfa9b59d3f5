package domain

import (
	"context"
	"time"
)

// Image is an uploaded file kept under the upload directory.
// Path is the stored file name, unique per upload.
type Image struct {
	Path        string
	Hash        string
	ContentType string
	Size        int64
	Content     []byte
	CreatedAt   time.Time
}

type ImageRepository interface {
	// SaveImage writes the bytes to disk and records the image in the database
	SaveImage(ctx context.Context, img *Image) error

	// GetImage retrieves an image record from the database
	GetImage(ctx context.Context, path string) (*Image, error)

	// DeleteImage removes an image from both filesystem and database
	DeleteImage(ctx context.Context, path string) error
}
