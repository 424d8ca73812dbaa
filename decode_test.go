package spritegrid

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

func TestDecodeImage(t *testing.T) {
	src := filledImage(3, 2, red)

	encoders := map[string]func(*bytes.Buffer, image.Image) error{
		"png": func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) },
		"bmp": func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) },
	}

	for format, encode := range encoders {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := encode(&buf, src); err != nil {
				t.Fatal(err)
			}

			img, got, err := DecodeImage(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if got != format {
				t.Errorf("format = %q, want %q", got, format)
			}
			if img.Bounds() != src.Bounds() {
				t.Errorf("bounds = %v, want %v", img.Bounds(), src.Bounds())
			}
		})
	}
}

func TestDecodeImageInvalid(t *testing.T) {
	_, _, err := DecodeImage(strings.NewReader("definitely not an image"))
	if !errors.Is(err, image.ErrFormat) {
		t.Errorf("error = %v, want image.ErrFormat", err)
	}
}
