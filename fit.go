package spritegrid

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
)

// toNRGBA copies any image into a fresh NRGBA buffer with its origin at 0,0.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ContentBounds returns the tight bounding box of pixels with non-zero alpha,
// and false when there are none.
func ContentBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] == 0 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if maxX < minX {
		return b, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// CropToBounds crops the image to the bounding box of its non-transparent
// pixels. When every pixel is transparent the original image is returned
// unchanged along with its full bounds.
func CropToBounds(img *image.NRGBA) (*image.NRGBA, image.Rectangle) {
	box, ok := ContentBounds(img)
	if !ok || box == img.Bounds() {
		return img, box
	}

	g := gift.New(gift.Crop(box))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst, box
}

// FitRect returns the rectangle, inside a w by h canvas, that an image of
// the given source size occupies after an aspect preserving fit. The scaled
// size is rounded to the nearest pixel, at least one, and centered with
// floored offsets.
func FitRect(srcW, srcH, w, h int) image.Rectangle {
	scale := math.Min(float64(w)/float64(srcW), float64(h)/float64(srcH))
	sw := max(1, min(w, int(math.Round(float64(srcW)*scale))))
	sh := max(1, min(h, int(math.Round(float64(srcH)*scale))))
	offX := (w - sw) / 2
	offY := (h - sh) / 2
	return image.Rect(offX, offY, offX+sw, offY+sh)
}

// ResampleIntoTarget scales img to fit inside a w by h transparent canvas,
// preserving aspect ratio, using nearest neighbor sampling.
func ResampleIntoTarget(img *image.NRGBA, w, h int) (*image.NRGBA, error) {
	sb := img.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return nil, fmt.Errorf("spritegrid: ResampleIntoTarget: source is %dx%d: %w",
			sb.Dx(), sb.Dy(), ErrEmptySourceRegion)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("spritegrid: ResampleIntoTarget: target is %dx%d: %w",
			w, h, ErrEmptySourceRegion)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, FitRect(sb.Dx(), sb.Dy(), w, h), img, sb, draw.Src, nil)
	return dst, nil
}
