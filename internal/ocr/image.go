package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// toRGBA decodes img and redraws it into an 8-bit RGBA canvas, whatever the source
// color model (paletted, gray, CMYK, YCbCr, 16-bit). Returns the PNG encoding and the
// source format name.
func toRGBA(img []byte) ([]byte, string, error) {
	if len(img) == 0 {
		return nil, "", fmt.Errorf("empty image")
	}
	src, format, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, format, fmt.Errorf("image has no pixels")
	}

	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, rgba); err != nil {
		return nil, format, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), format, nil
}
