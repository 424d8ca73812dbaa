package spritegrid

import (
	"errors"
	"fmt"
	"image"
)

// MaxGridSize is the largest accepted target width or height.
const MaxGridSize = 512

// Options controls a single conversion.
type Options struct {
	// RemoveBackground erases the border-connected background before
	// cropping.
	RemoveBackground bool
	// CropToContent crops to the bounding box of non-transparent pixels
	// before resampling.
	CropToContent bool
	// Tolerance is the per-channel background match tolerance, 0 to 100.
	Tolerance int
	// AlphaThreshold is the alpha below which a pixel becomes Transparent.
	AlphaThreshold uint8
}

// DefaultOptions returns the options used by the sprite editor import.
func DefaultOptions() Options {
	return Options{
		RemoveBackground: true,
		CropToContent:    true,
		Tolerance:        10,
		AlphaThreshold:   DefaultAlphaThreshold,
	}
}

func (o *Options) validate() error {
	if o.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must be no smaller than 0", ErrInvalidOptions)
	}
	if o.Tolerance > MaxTolerance {
		return fmt.Errorf("%w: tolerance must be no greater than %d", ErrInvalidOptions, MaxTolerance)
	}
	return nil
}

func validateSize(w, h int) error {
	if w < 1 || h < 1 {
		return fmt.Errorf("%w: grid size %dx%d must be at least 1x1", ErrInvalidOptions, w, h)
	}
	if w > MaxGridSize || h > MaxGridSize {
		return fmt.Errorf("%w: grid size %dx%d must be no greater than %dx%d",
			ErrInvalidOptions, w, h, MaxGridSize, MaxGridSize)
	}
	return nil
}

// Quantizer converts images into palette grids. It owns a zone map cache and
// is safe for concurrent use.
type Quantizer struct {
	cache *ZoneCache
}

// NewQuantizer returns a quantizer backed by cache. A nil cache gets a fresh
// one with default partition options.
func NewQuantizer(cache *ZoneCache) *Quantizer {
	if cache == nil {
		cache = NewZoneCache(DefaultPartitionOptions())
	}
	return &Quantizer{cache: cache}
}

// Cache returns the quantizer's zone map cache.
func (q *Quantizer) Cache() *ZoneCache {
	return q.cache
}

// Classifier returns a single color classifier for the palette.
func (q *Quantizer) Classifier(p *Palette, alphaThreshold uint8) (*Classifier, error) {
	zm, err := q.cache.Get(p)
	if err != nil {
		return nil, err
	}
	return NewClassifier(zm, alphaThreshold), nil
}

// Quantize converts img into a w by h grid of tokens from p.
//
// The image is copied into an RGBA buffer, optionally stripped of its
// border background and cropped to its content, then fitted into the target
// size and classified pixel by pixel. The source image is not modified.
func (q *Quantizer) Quantize(img image.Image, p *Palette, w, h int, opts Options) (PixelGrid, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := validateSize(w, h); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("spritegrid: Quantize: %w", ErrEmptySourceRegion)
	}

	cl, err := q.Classifier(p, opts.AlphaThreshold)
	if err != nil {
		return nil, fmt.Errorf("spritegrid: Quantize: %w", err)
	}

	buf := toNRGBA(img)

	if opts.RemoveBackground {
		n := RemoveBackground(buf, opts.Tolerance)
		Logger().Debug("spritegrid: background removed", "pixels", n)
	}

	if opts.CropToContent {
		var box image.Rectangle
		buf, box = CropToBounds(buf)
		Logger().Debug("spritegrid: cropped to content", "box", box)
	}

	fitted, err := ResampleIntoTarget(buf, w, h)
	if err != nil {
		return nil, err
	}

	grid := NewPixelGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := fitted.NRGBAAt(x, y)
			c, err := cl.ClassifyRGBA(px.R, px.G, px.B, px.A)
			if err != nil {
				return nil, fmt.Errorf("spritegrid: Quantize: pixel (%d,%d) %s: %w",
					x, y, RGBAToHex(px), err)
			}
			grid[y][x] = c
		}
	}

	return grid, nil
}

var defaultQuantizer = NewQuantizer(nil)

// DefaultCache returns the zone map cache shared by the package level
// Quantize and Classify functions.
func DefaultCache() *ZoneCache {
	return defaultQuantizer.Cache()
}

// Quantize converts img with the package level quantizer.
func Quantize(img image.Image, p *Palette, w, h int, opts Options) (PixelGrid, error) {
	return defaultQuantizer.Quantize(img, p, w, h, opts)
}

// ClassifyHex classifies a single hex color against p with the package level
// cache, for brush colors and other one-off lookups.
func ClassifyHex(p *Palette, hex string) (PaletteColor, error) {
	cl, err := defaultQuantizer.Classifier(p, DefaultAlphaThreshold)
	if err != nil {
		return "", err
	}
	return cl.ClassifyHex(hex)
}

// IsDefect reports whether err signals a zone partition defect rather than
// bad input.
func IsDefect(err error) bool {
	return errors.Is(err, ErrZoneNotFound)
}
