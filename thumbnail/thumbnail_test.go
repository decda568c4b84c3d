package thumbnail

import (
	"bytes"
	"errors"
	"goods-manager/core"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/draw"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func near(t *testing.T, got color.Color, want color.RGBA, x, y int) {
	t.Helper()
	r, g, b, _ := got.RGBA()
	diff := func(a uint32, b uint8) int {
		d := int(a>>8) - int(b)
		if d < 0 {
			d = -d
		}
		return d
	}
	if diff(r, want.R) > 16 || diff(g, want.G) > 16 || diff(b, want.B) > 16 {
		t.Errorf("pixel (%d,%d) = (%d,%d,%d), want about (%d,%d,%d)", x, y, r>>8, g>>8, b>>8, want.R, want.G, want.B)
	}
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.Decode() failed: %v", err)
	}
	return img
}

func TestNormalizeImage_CentersLandscapeSource(t *testing.T) {
	// 4000x3000 with 500px blue bars left and right; the centered 3000x3000
	// square is solid red.
	src := image.NewRGBA(image.Rect(0, 0, 4000, 3000))
	fill(src, src.Bounds(), blue)
	fill(src, image.Rect(500, 0, 3500, 3000), red)

	out, err := NormalizeImage(src, 320)
	if err != nil {
		t.Fatalf("NormalizeImage() failed: %v", err)
	}

	img := decodeJPEG(t, out)
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 320 {
		t.Fatalf("output size = %dx%d, want 320x320", b.Dx(), b.Dy())
	}
	for _, p := range []image.Point{{2, 2}, {160, 160}, {317, 2}, {2, 317}, {317, 317}, {0, 160}, {319, 160}} {
		near(t, img.At(p.X, p.Y), red, p.X, p.Y)
	}
}

func TestNormalize_PortraitPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 30, 50))
	fill(src, src.Bounds(), blue)
	fill(src, image.Rect(0, 10, 30, 40), red)

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}

	out, err := Normalize(buf.Bytes(), 64)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	w, h, err := Dimensions(out)
	if err != nil {
		t.Fatalf("Dimensions() failed: %v", err)
	}
	if w != 64 || h != 64 {
		t.Errorf("output size = %dx%d, want 64x64", w, h)
	}
	img := decodeJPEG(t, out)
	near(t, img.At(32, 32), red, 32, 32)
	near(t, img.At(32, 3), red, 32, 3)
}

func TestNormalize_Deterministic(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 25))
	for x := 0; x < 40; x++ {
		for y := 0; y < 25; y++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 10), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}

	first, err := Normalize(buf.Bytes(), 32)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	second, err := Normalize(buf.Bytes(), 32)
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Normalize() produced different output for identical input")
	}
}

func TestNormalize_InvalidInput(t *testing.T) {
	if _, err := Normalize([]byte("definitely not an image"), 320); !errors.Is(err, core.ErrInvalidImage) {
		t.Errorf("Normalize(garbage) error = %v, want ErrInvalidImage", err)
	}
	if _, err := Normalize(nil, 320); !errors.Is(err, core.ErrInvalidImage) {
		t.Errorf("Normalize(nil) error = %v, want ErrInvalidImage", err)
	}
}

func TestNormalizeImage_ZeroDimension(t *testing.T) {
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 0, 10),
		image.Rect(0, 0, 10, 0),
		image.Rect(0, 0, 0, 0),
	} {
		if _, err := NormalizeImage(image.NewRGBA(r), 320); !errors.Is(err, core.ErrInvalidImage) {
			t.Errorf("NormalizeImage(%v) error = %v, want ErrInvalidImage", r, err)
		}
	}
}

func TestNormalizeImage_InvalidTargetSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := NormalizeImage(src, 0); !errors.Is(err, core.ErrInvalidImage) {
		t.Errorf("NormalizeImage(size 0) error = %v, want ErrInvalidImage", err)
	}
}

func TestCropRect(t *testing.T) {
	tests := []struct {
		in   image.Rectangle
		want image.Rectangle
	}{
		{image.Rect(0, 0, 4000, 3000), image.Rect(500, 0, 3500, 3000)},
		{image.Rect(0, 0, 3000, 4000), image.Rect(0, 500, 3000, 3500)},
		{image.Rect(0, 0, 5, 2), image.Rect(1, 0, 3, 2)},
		{image.Rect(0, 0, 7, 7), image.Rect(0, 0, 7, 7)},
		{image.Rect(10, 20, 15, 22), image.Rect(11, 20, 13, 22)},
	}
	for _, tt := range tests {
		if got := CropRect(tt.in); got != tt.want {
			t.Errorf("CropRect(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCapture_Mirror(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(frame, frame.Bounds(), blue)
	fill(frame, image.Rect(50, 0, 100, 100), red) // left half of the centered square

	plain, err := Capture(frame, 100, false)
	if err != nil {
		t.Fatalf("Capture() failed: %v", err)
	}
	img := decodeJPEG(t, plain)
	near(t, img.At(10, 50), red, 10, 50)
	near(t, img.At(90, 50), blue, 90, 50)

	mirrored, err := Capture(frame, 100, true)
	if err != nil {
		t.Fatalf("Capture(mirror) failed: %v", err)
	}
	img = decodeJPEG(t, mirrored)
	near(t, img.At(10, 50), blue, 10, 50)
	near(t, img.At(90, 50), red, 90, 50)
}

func TestDataURI_RoundTrip(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0x00, 0x01, 0x02}
	uri := EncodeDataURI(payload)

	data, mediaType, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() failed: %v", err)
	}
	if mediaType != "image/jpeg" {
		t.Errorf("media type = %q, want image/jpeg", mediaType)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload mismatch: got %v, want %v", data, payload)
	}
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	for _, uri := range []string{
		"",
		"http://example.com/a.jpg",
		"data:image/png;base64",
		"data:image/png,rawtext",
		"data:image/png;base64,***",
	} {
		if _, _, err := DecodeDataURI(uri); !errors.Is(err, core.ErrInvalidImage) {
			t.Errorf("DecodeDataURI(%q) error = %v, want ErrInvalidImage", uri, err)
		}
	}
}
