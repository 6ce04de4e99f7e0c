package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/wichananm65/shop-backend/internal/apperr"
)

// ImageStore keeps uploaded image bytes and returns the URL they are
// served from. storage.Disk and storage.S3 implement it.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// WithImages enables AddImage.
func (s *Service) WithImages(store ImageStore) *Service {
	s.images = store
	return s
}

// ListImages returns the images of an active product in display order.
func (s *Service) ListImages(ctx context.Context, productID int) ([]Image, error) {
	if _, err := s.GetActive(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListImages(ctx, productID)
}

// AddImage stores body as the next image of productID. The content type is
// sniffed from the bytes, not taken from the client.
func (s *Service) AddImage(ctx context.Context, productID int, body io.ReadSeeker) (Image, error) {
	if s.images == nil {
		return Image{}, errors.New("image storage is not configured")
	}
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return Image{}, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Image{}, fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return Image{}, apperr.Validation("file is empty")
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageExt[contentType]
	if !ok {
		return Image{}, apperr.Validation("file must be a JPEG, PNG, GIF or WebP image, got %s", contentType)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return Image{}, fmt.Errorf("rewind upload: %w", err)
	}

	key := fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), ext)
	path, err := s.images.Put(ctx, key, contentType, body)
	if err != nil {
		return Image{}, err
	}
	img, err := s.repo.AddImage(ctx, Image{ProductID: productID, Path: path, CreatedAt: s.now().UTC()})
	if err != nil {
		// the row is the source of truth; drop the orphaned object
		_ = s.images.Delete(ctx, key)
		return Image{}, err
	}
	return img, nil
}
