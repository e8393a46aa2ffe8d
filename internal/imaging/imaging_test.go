package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 30, 30, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding test jpeg: %v", err)
	}
	return buf.Bytes()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeJPEG(t *testing.T) {
	out, err := Normalize(testJPEG(t, 100, 80))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty output")
	}
}

func TestNormalizePNGBecomesJPEG(t *testing.T) {
	out, err := Normalize(testPNG(t, 64, 64))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	_, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
}

func TestNormalizeDownscalesLargeImage(t *testing.T) {
	out, err := Normalize(testJPEG(t, 2000, 1500))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		t.Errorf("expected max %d on either side, got %dx%d", MaxDimension, b.Dx(), b.Dy())
	}
	if b.Dx() != MaxDimension {
		t.Errorf("expected longest side %d, got %d", MaxDimension, b.Dx())
	}
}

func TestNormalizeKeepsSmallImageSize(t *testing.T) {
	out, err := Normalize(testJPEG(t, 320, 200))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("expected 320x200 (no upscale), got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeRejectsNonImage(t *testing.T) {
	if _, err := Normalize([]byte("definitely not an image payload")); err == nil {
		t.Fatal("expected error for non-image input")
	}
}
