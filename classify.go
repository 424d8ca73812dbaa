package spritegrid

import (
	"fmt"
	"image/color"
)

// DefaultAlphaThreshold is the alpha, on the 0-255 scale, below which a pixel
// classifies as Transparent. It is the 0.5 point of the alpha range.
const DefaultAlphaThreshold uint8 = 128

// Classifier maps colors to palette tokens using a zone map. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	zones          *ZoneMap
	alphaThreshold uint8
}

// NewClassifier returns a classifier for the zone map. Pixels with alpha
// below alphaThreshold classify as Transparent.
func NewClassifier(zm *ZoneMap, alphaThreshold uint8) *Classifier {
	return &Classifier{
		zones:          zm,
		alphaThreshold: alphaThreshold,
	}
}

// AlphaThreshold returns the transparency cut-off.
func (c *Classifier) AlphaThreshold() uint8 {
	return c.alphaThreshold
}

// ClassifyHSL returns the palette color for a hue (degrees) and lightness
// (percent). Saturation does not take part in classification.
func (c *Classifier) ClassifyHSL(h, l float64) (PaletteColor, error) {
	return c.zones.lookup(roundHue(h), roundLuminance(l))
}

// ClassifyRGB converts to HSL and classifies.
func (c *Classifier) ClassifyRGB(r, g, b uint8) (PaletteColor, error) {
	hsl := RGBToHSL(r, g, b)
	return c.ClassifyHSL(hsl.H, hsl.L)
}

// ClassifyRGBA returns Transparent when a is below the alpha threshold and
// classifies the RGB part otherwise.
func (c *Classifier) ClassifyRGBA(r, g, b, a uint8) (PaletteColor, error) {
	if a < c.alphaThreshold {
		return Transparent, nil
	}
	return c.ClassifyRGB(r, g, b)
}

// ClassifyColor classifies any color.Color through its non-premultiplied
// RGBA value.
func (c *Classifier) ClassifyColor(col color.Color) (PaletteColor, error) {
	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	return c.ClassifyRGBA(n.R, n.G, n.B, n.A)
}

// ClassifyHex parses a hex color and classifies it. An alpha component, when
// present, is subject to the alpha threshold.
func (c *Classifier) ClassifyHex(hex string) (PaletteColor, error) {
	col, err := HexToRGB(hex)
	if err != nil {
		return "", fmt.Errorf("spritegrid: ClassifyHex: %w", err)
	}
	return c.ClassifyRGBA(col.R, col.G, col.B, col.A)
}
