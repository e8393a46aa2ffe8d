package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for image.Decode
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height for uploaded images.
const MaxDimension = 1280

// JPEGQuality is the compression quality for re-encoded output.
const JPEGQuality = 82

// allowedMIME lists the accepted input MIME types, checked against sniffed
// bytes rather than client-supplied headers.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Normalize validates the image bytes, downscales anything larger than
// MaxDimension and re-encodes as JPEG before the media host sees it.
func Normalize(data []byte) ([]byte, error) {
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	if b := img.Bounds(); b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = scaleDown(img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleDown resizes img so its longest side equals MaxDimension, preserving
// aspect ratio.
func scaleDown(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	scale := float64(MaxDimension) / float64(w)
	if h > w {
		scale = float64(MaxDimension) / float64(h)
	}

	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
