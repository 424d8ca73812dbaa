// Package suggest derives a starting palette from an image, for users who
// import a picture without a palette of their own.
package suggest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"strings"

	"github.com/disintegration/gift"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tmpim/spritegrid"
)

// Method selects the color extraction algorithm.
type Method int

// Available extraction methods.
const (
	MethodDominant Method = iota
	MethodKMeans
	MethodImagequant
)

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	case MethodImagequant:
		return "imagequant"
	default:
		return "dominant"
	}
}

// ParseMethod parses the names returned by Method.String.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dominant", "dominantcolor":
		return MethodDominant, nil
	case "kmeans":
		return MethodKMeans, nil
	case "imagequant", "libimagequant":
		return MethodImagequant, nil
	}
	return 0, fmt.Errorf("suggest: unknown method %q", s)
}

// Options controls palette suggestion.
type Options struct {
	// Colors is the number of opaque colors wanted, 1 to 16.
	Colors int
	Method Method
	// Speed is the libimagequant speed, 1 (slowest) to 10 (fastest).
	Speed int
	// MaxSide bounds the longer image side before extraction. Larger
	// images are scaled down first.
	MaxSide int
}

// DefaultOptions returns balanced defaults.
func DefaultOptions() Options {
	return Options{
		Colors:  8,
		Method:  MethodDominant,
		Speed:   5,
		MaxSide: 256,
	}
}

func (o *Options) validate() error {
	if o.Colors < 1 {
		return errors.New("suggest: colors must be at least 1")
	}
	if o.Colors > spritegrid.MaxPaletteColors {
		return fmt.Errorf("suggest: colors must be no greater than %d", spritegrid.MaxPaletteColors)
	}
	if o.Speed < 1 || o.Speed > 10 {
		return errors.New("suggest: speed must be between 1 and 10")
	}
	return nil
}

// Palette extracts up to opts.Colors colors from img and returns them as a
// palette with the transparent sentinel, sorted dark to light.
func Palette(img image.Image, id string, opts Options) (*spritegrid.Palette, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("suggest: %w", spritegrid.ErrEmptySourceRegion)
	}

	img = shrink(img, opts.MaxSide)

	var cols []colorful.Color
	var err error
	switch opts.Method {
	case MethodKMeans:
		cols, err = kmeansColors(img, opts.Colors)
	case MethodImagequant:
		cols, err = imagequantColors(img, opts.Colors, opts.Speed)
	default:
		cols = dominantColors(img, opts.Colors)
	}
	if err != nil {
		return nil, err
	}

	cols = dedupe(cols)
	if len(cols) == 0 {
		return nil, fmt.Errorf("suggest: %s found no colors: %w", opts.Method, spritegrid.ErrEmptyPalette)
	}
	if len(cols) > opts.Colors {
		cols = cols[:opts.Colors]
	}
	SortByBrightness(cols)

	entries := make([]spritegrid.Entry, 0, len(cols)+1)
	for i, c := range cols {
		r, g, b := c.Clamped().RGB255()
		entries = append(entries, spritegrid.Entry{
			Name:  spritegrid.PaletteColor(fmt.Sprintf("COLOR_%02d", i+1)),
			Color: color.NRGBA{R: r, G: g, B: b, A: 255},
		})
	}
	entries = append(entries, spritegrid.Entry{Name: spritegrid.Transparent})

	return spritegrid.NewPalette(id, entries...)
}

// shrink scales img down so its longer side is at most maxSide.
func shrink(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}

	var g *gift.GIFT
	if b.Dx() >= b.Dy() {
		g = gift.New(gift.Resize(maxSide, 0, gift.BoxResampling))
	} else {
		g = gift.New(gift.Resize(0, maxSide, gift.BoxResampling))
	}

	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, img)
	return dst
}

// SortByBrightness orders colors from darkest to brightest by relative
// luminance.
func SortByBrightness(cols []colorful.Color) {
	slices.SortStableFunc(cols, func(a, b colorful.Color) int {
		ya, yb := luminance(a), luminance(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// dedupe drops colors that render to the same 8-bit value as an earlier one.
func dedupe(cols []colorful.Color) []colorful.Color {
	seen := make(map[string]bool, len(cols))
	out := cols[:0]
	for _, c := range cols {
		key := c.Clamped().Hex()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c.Clamped())
	}
	return out
}
