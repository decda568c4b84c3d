// Package thumbnail turns arbitrary images into fixed-size square JPEG
// thumbnails and moves them in and out of data URIs.
package thumbnail

import (
	"bytes"
	"fmt"
	"goods-manager/core"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultSize is the edge length of stored product images.
	DefaultSize = 320
	// FileQuality is used for images picked from disk.
	FileQuality = 80
	// CaptureQuality is used for camera captures.
	CaptureQuality = 90
)

// Normalize decodes raw, center-crops it to a square and scales it to
// size x size, returning the JPEG encoding at FileQuality.
func Normalize(raw []byte, size int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidImage, err)
	}
	return NormalizeImage(src, size)
}

// NormalizeImage is Normalize for an already decoded image.
func NormalizeImage(src image.Image, size int) ([]byte, error) {
	dst, err := squareScale(src, size, false)
	if err != nil {
		return nil, err
	}
	return encode(dst, FileQuality)
}

// Capture normalizes a camera frame at CaptureQuality. Front-facing cameras
// deliver a mirrored preview, so mirror flips the result horizontally.
func Capture(frame image.Image, size int, mirror bool) ([]byte, error) {
	dst, err := squareScale(frame, size, mirror)
	if err != nil {
		return nil, err
	}
	return encode(dst, CaptureQuality)
}

// Dimensions decodes only the header of raw.
func Dimensions(raw []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", core.ErrInvalidImage, err)
	}
	return cfg.Width, cfg.Height, nil
}

// CropRect returns the centered square of b. Offsets use floor division, so
// an odd remainder leaves the extra pixel on the right or bottom.
func CropRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	side := min(w, h)
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}

func squareScale(src image.Image, size int, mirror bool) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: target size %d", core.ErrInvalidImage, size)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no image", core.ErrInvalidImage)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero dimension %dx%d", core.ErrInvalidImage, b.Dx(), b.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, CropRect(b), draw.Src, nil)
	if mirror {
		flipHorizontal(dst)
	}
	return dst, nil
}

func flipHorizontal(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for l, r := 0, len(row)-4; l < r; l, r = l+4, r-4 {
			for k := 0; k < 4; k++ {
				row[l+k], row[r+k] = row[r+k], row[l+k]
			}
		}
	}
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
