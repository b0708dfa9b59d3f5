package application

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/dfryer1193/pressroom/blog/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent png
var tinyPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func newImageService(t *testing.T, maxBytes int64) (*ImageService, string, *fixture) {
	t.Helper()

	f := newFixture(t)
	dir := t.TempDir()
	svc := NewImageService(persistence.NewImageRepository(f.conn, dir), "/uploads/", maxBytes).WithClock(f.clock.tick)
	return svc, dir, f
}

func TestImageService_Upload(t *testing.T) {
	svc, dir, f := newImageService(t, 0)
	ctx := context.Background()

	url, err := svc.Upload(ctx, "My Holiday Photo.PNG", bytes.NewReader(tinyPNG))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^/uploads/my-holiday-photo-[0-9a-f-]{36}\.png$`), url)

	name := strings.TrimPrefix(url, "/uploads/")
	stored, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, tinyPNG, stored)

	var contentType string
	require.NoError(t, f.conn.Get(&contentType, "SELECT content_type FROM images WHERE path = ?", name))
	assert.Equal(t, "image/png", contentType)
}

func TestImageService_UploadUsesSniffedExtension(t *testing.T) {
	svc, _, _ := newImageService(t, 0)

	url, err := svc.Upload(context.Background(), "../../etc/passwd.jpg", bytes.NewReader(tinyPNG))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(url, ".png"), url)
	assert.NotContains(t, url, "..")
}

func TestImageService_UploadRejects(t *testing.T) {
	svc, dir, _ := newImageService(t, 32)

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty", content: nil},
		{name: "not an image", content: []byte("just some text")},
		{name: "too large", content: append(append([]byte{}, tinyPNG...), make([]byte, 64)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), "x.png", bytes.NewReader(tt.content))
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestStoredName(t *testing.T) {
	name, err := storedName("???.gif", ".gif")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.gif$`), name)

	a, err := storedName("same.png", ".png")
	require.NoError(t, err)
	b, err := storedName("same.png", ".png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestImageService_UploadRejectsScriptableTypes(t *testing.T) {
	svc, dir, f := newImageService(t, 0)

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{
			name:     "svg with script",
			filename: "evil.svg",
			content:  `<svg xmlns="http://www.w3.org/2000/svg"><script>fetch('/admin/posts',{method:'POST'})</script></svg>`,
		},
		{
			name:     "html named as png",
			filename: "evil.png",
			content:  `<html><body><script>alert(1)</script></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := svc.Upload(context.Background(), tt.filename, strings.NewReader(tt.content))
			assert.Empty(t, url)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "image", verr.Field)
			assert.Contains(t, verr.Message, "unsupported content type")
		})
	}

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	var count int
	require.NoError(t, f.conn.Get(&count, "SELECT COUNT(*) FROM images"))
	assert.Zero(t, count)
}

func TestImageService_GetAndDelete(t *testing.T) {
	svc, dir, _ := newImageService(t, 0)
	ctx := context.Background()

	url, err := svc.Upload(ctx, "cover.png", bytes.NewReader(tinyPNG))
	require.NoError(t, err)
	name := strings.TrimPrefix(url, "/uploads/")

	img, err := svc.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(len(tinyPNG)), img.Size)
	assert.Len(t, img.Hash, 64)
	assert.Equal(t, url, svc.URL(img.Path))

	require.NoError(t, svc.Delete(ctx, name))

	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	_, err = svc.Get(ctx, name)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, name), domain.ErrNotFound)
}
