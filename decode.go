package spritegrid

import (
	"fmt"
	"image"
	"io"

	// Formats accepted by DecodeImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a PNG, JPEG, GIF, BMP or WebP image.
func DecodeImage(rd io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(rd)
	if err != nil {
		return nil, "", fmt.Errorf("spritegrid: DecodeImage: %w", err)
	}
	return img, format, nil
}
