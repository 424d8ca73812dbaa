package spritegrid

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// HSL is a color in hue/saturation/lightness form. H is in degrees [0,360),
// S and L are percentages [0,100].
type HSL struct {
	H, S, L float64
}

// RGBToHSL converts 8-bit RGB to HSL.
func RGBToHSL(r, g, b uint8) HSL {
	h, s, l := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}.Hsl()

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	return HSL{H: h, S: s * 100, L: l * 100}
}

// HSLToRGB converts HSL back to 8-bit RGB. Out of range input is clamped.
func HSLToRGB(c HSL) (r, g, b uint8) {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	s := math.Max(0, math.Min(100, c.S)) / 100
	l := math.Max(0, math.Min(100, c.L)) / 100

	return colorful.Hsl(h, s, l).Clamped().RGB255()
}

// HexToRGB parses #rgb, #rrggbb and #rrggbbaa color strings. The leading #
// is optional and case is ignored. The special value "transparent" parses to
// the zero color.
func HexToRGB(s string) (color.NRGBA, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "transparent" {
		return color.NRGBA{}, nil
	}
	raw = strings.TrimPrefix(raw, "#")

	switch len(raw) {
	case 3, 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
	}

	for _, ch := range raw {
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f') {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
		}
	}

	alpha := uint8(255)
	if len(raw) == 8 {
		a, err := strconv.ParseUint(raw[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
		}
		alpha = uint8(a)
		raw = raw[:6]
	}

	col, err := colorful.Hex("#" + raw)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %s", ErrInvalidColorFormat, s, err.Error())
	}

	r, g, b := col.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// HexToRGBOr is HexToRGB with a fallback for call sites that accept a
// default color instead of an error.
func HexToRGBOr(s string, def color.NRGBA) color.NRGBA {
	c, err := HexToRGB(s)
	if err != nil {
		return def
	}
	return c
}

// RGBAToHex formats a color as #rrggbb, or #rrggbbaa when not fully opaque.
func RGBAToHex(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
