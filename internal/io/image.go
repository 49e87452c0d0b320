package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ImageService turns downloaded poster art into a bounded JPEG.
//
// Example usage:
//
//	svc := NewImageService()
//	poster, err := svc.Poster(ctx, ogImageBytes, 1000)
//	os.WriteFile(filepath.Join(drama.Dir, "poster.jpg"), poster, 0644)
type ImageService struct {
	quality int
}

// NewImageService creates a new ImageService encoding at JPEG quality 90.
func NewImageService() *ImageService {
	return &ImageService{quality: 90}
}

// Poster decodes data (JPEG, PNG, GIF or WebP), scales it down to fit within
// maxSize x maxSize preserving the aspect ratio, and encodes it as JPEG.
// Images already within bounds are only re-encoded.
//
// The Catmull-Rom kernel is used for scaling.
func (s *ImageService) Poster(ctx context.Context, data []byte, maxSize int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid poster size %d", maxSize)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode poster: %w", err)
	}

	width, height := FitWithin(img.Bounds().Dx(), img.Bounds().Dy(), maxSize, maxSize)
	if width != img.Bounds().Dx() || height != img.Bounds().Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FitWithin returns the largest dimensions not exceeding maxWidth x maxHeight
// that keep the width:height ratio. Dimensions already inside the box are
// returned unchanged.
//
// Example:
//
//	FitWithin(1500, 1000, 1000, 1000) // 1000, 666
//	FitWithin(800, 600, 1000, 1000)   // 800, 600
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}
	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		return max(1, int(float64(maxHeight)*ratio)), maxHeight
	}
	return maxWidth, max(1, int(float64(maxWidth)/ratio))
}
