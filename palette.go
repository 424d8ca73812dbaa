package spritegrid

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image/color"
	"io"
	"sort"
	"strings"
)

// PaletteColor is the token naming one palette entry, such as "RED".
type PaletteColor string

// Transparent is the sentinel token for fully transparent cells. It is valid
// for every palette, whether or not the palette lists it.
const Transparent PaletteColor = "TRANSPARENT"

// MaxPaletteColors is the maximum number of opaque entries in a palette.
const MaxPaletteColors = 16

// Entry is a single opaque palette color.
type Entry struct {
	Name  PaletteColor
	Color color.NRGBA
}

// Palette is an immutable, ordered set of opaque colors plus the transparent
// sentinel.
type Palette struct {
	id          string
	key         string
	entries     []Entry
	transparent bool
}

// NewPalette validates and builds a palette. Names are normalized to upper
// case. An entry named TRANSPARENT, or with a zero alpha color, marks the
// palette as listing the transparent sentinel and does not count toward
// MaxPaletteColors.
func NewPalette(id string, entries ...Entry) (*Palette, error) {
	p := &Palette{id: id}
	seen := make(map[PaletteColor]bool)

	for _, e := range entries {
		name := PaletteColor(strings.ToUpper(strings.TrimSpace(string(e.Name))))
		if name == "" {
			return nil, fmt.Errorf("%w: empty color name", ErrInvalidPalette)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate color %q", ErrInvalidPalette, name)
		}
		seen[name] = true

		if name == Transparent || e.Color.A == 0 {
			if p.transparent {
				return nil, fmt.Errorf("%w: more than one transparent entry", ErrInvalidPalette)
			}
			if name != Transparent {
				return nil, fmt.Errorf("%w: transparent entry must be named %s, got %q",
					ErrInvalidPalette, Transparent, name)
			}
			p.transparent = true
			continue
		}

		c := e.Color
		c.A = 255
		p.entries = append(p.entries, Entry{Name: name, Color: c})
	}

	if len(p.entries) > MaxPaletteColors {
		return nil, fmt.Errorf("%w: %d opaque colors, maximum is %d",
			ErrInvalidPalette, len(p.entries), MaxPaletteColors)
	}

	p.key = p.fingerprint()
	return p, nil
}

// MustPalette is like NewPalette but panics on error. It is meant for
// package level palette definitions.
func MustPalette(id string, entries ...Entry) *Palette {
	p, err := NewPalette(id, entries...)
	if err != nil {
		panic(err)
	}
	return p
}

// PaletteFromHex builds a palette from name/hex pairs, in order.
func PaletteFromHex(id string, pairs ...string) (*Palette, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of name/hex values", ErrInvalidPalette)
	}

	entries := make([]Entry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		c, err := HexToRGB(pairs[i+1])
		if err != nil {
			return nil, fmt.Errorf("spritegrid: PaletteFromHex: color %q: %w", pairs[i], err)
		}
		entries = append(entries, Entry{Name: PaletteColor(pairs[i]), Color: c})
	}

	return NewPalette(id, entries...)
}

func (p *Palette) fingerprint() string {
	h := fnv.New64a()
	for _, e := range p.entries {
		fmt.Fprintf(h, "%s=%s;", e.Name, RGBAToHex(e.Color))
	}
	if p.transparent {
		io.WriteString(h, string(Transparent))
	}
	return fmt.Sprintf("%s@%016x", p.id, h.Sum64())
}

// ID returns the identifier the palette was created with.
func (p *Palette) ID() string { return p.id }

// Key returns a stable identifier for the palette contents, used to cache
// zone maps. Palettes with equal IDs and equal entries share a key.
func (p *Palette) Key() string { return p.key }

// Len returns the number of opaque entries.
func (p *Palette) Len() int { return len(p.entries) }

// ListsTransparent reports whether the palette explicitly listed the
// transparent sentinel.
func (p *Palette) ListsTransparent() bool { return p.transparent }

// Entries returns a copy of the opaque entries in palette order.
func (p *Palette) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Lookup returns the color for a token. Transparent maps to the zero color.
func (p *Palette) Lookup(name PaletteColor) (color.NRGBA, bool) {
	if name == Transparent {
		return color.NRGBA{}, true
	}
	if i := p.Index(name); i >= 0 {
		return p.entries[i].Color, true
	}
	return color.NRGBA{}, false
}

// Index returns the position of a token among the opaque entries, or -1.
func (p *Palette) Index(name PaletteColor) int {
	for i, e := range p.entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Colors returns the opaque entries as a color.Palette.
func (p *Palette) Colors() color.Palette {
	out := make(color.Palette, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Color
	}
	return out
}

type paletteJSON struct {
	ID     string             `json:"id"`
	Colors []paletteColorJSON `json:"colors"`
}

type paletteColorJSON struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// MarshalJSON encodes the palette as {"id": ..., "colors": [{"name", "hex"}]}.
func (p *Palette) MarshalJSON() ([]byte, error) {
	out := paletteJSON{ID: p.id}
	for _, e := range p.entries {
		out.Colors = append(out.Colors, paletteColorJSON{
			Name: string(e.Name),
			Hex:  RGBAToHex(e.Color),
		})
	}
	if p.transparent {
		out.Colors = append(out.Colors, paletteColorJSON{
			Name: string(Transparent),
			Hex:  "transparent",
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (p *Palette) UnmarshalJSON(data []byte) error {
	var in paletteJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	pairs := make([]string, 0, len(in.Colors)*2)
	for _, c := range in.Colors {
		pairs = append(pairs, c.Name, c.Hex)
	}

	parsed, err := PaletteFromHex(in.ID, pairs...)
	if err != nil {
		return err
	}

	*p = *parsed
	return nil
}

// LoadPalette reads a JSON palette.
func LoadPalette(rd io.Reader) (*Palette, error) {
	p := new(Palette)
	if err := json.NewDecoder(rd).Decode(p); err != nil {
		return nil, fmt.Errorf("spritegrid: LoadPalette: %w", err)
	}
	return p, nil
}

// Built-in palettes.
var (
	// PaletteCC is the default ComputerCraft terminal palette.
	PaletteCC = MustPalette("cc",
		Entry{"WHITE", color.NRGBA{0xf0, 0xf0, 0xf0, 0xff}},
		Entry{"ORANGE", color.NRGBA{0xf2, 0xb2, 0x33, 0xff}},
		Entry{"MAGENTA", color.NRGBA{0xe5, 0x7f, 0xd8, 0xff}},
		Entry{"LIGHT_BLUE", color.NRGBA{0x99, 0xb2, 0xf2, 0xff}},
		Entry{"YELLOW", color.NRGBA{0xde, 0xde, 0x6c, 0xff}},
		Entry{"LIME", color.NRGBA{0x7f, 0xcc, 0x19, 0xff}},
		Entry{"PINK", color.NRGBA{0xf2, 0xb2, 0xcc, 0xff}},
		Entry{"GRAY", color.NRGBA{0x4c, 0x4c, 0x4c, 0xff}},
		Entry{"LIGHT_GRAY", color.NRGBA{0x99, 0x99, 0x99, 0xff}},
		Entry{"CYAN", color.NRGBA{0x4c, 0x99, 0xb2, 0xff}},
		Entry{"PURPLE", color.NRGBA{0xb2, 0x66, 0xe5, 0xff}},
		Entry{"BLUE", color.NRGBA{0x33, 0x66, 0xcc, 0xff}},
		Entry{"BROWN", color.NRGBA{0x7f, 0x66, 0x4c, 0xff}},
		Entry{"GREEN", color.NRGBA{0x57, 0xa6, 0x4e, 0xff}},
		Entry{"RED", color.NRGBA{0xcc, 0x4c, 0x4c, 0xff}},
		Entry{"BLACK", color.NRGBA{0x11, 0x11, 0x11, 0xff}},
		Entry{Transparent, color.NRGBA{}},
	)

	// PalettePico8 is the PICO-8 fantasy console palette.
	PalettePico8 = MustPalette("pico8",
		Entry{"BLACK", color.NRGBA{0x00, 0x00, 0x00, 0xff}},
		Entry{"DARK_BLUE", color.NRGBA{0x1d, 0x2b, 0x53, 0xff}},
		Entry{"DARK_PURPLE", color.NRGBA{0x7e, 0x25, 0x53, 0xff}},
		Entry{"DARK_GREEN", color.NRGBA{0x00, 0x87, 0x51, 0xff}},
		Entry{"BROWN", color.NRGBA{0xab, 0x52, 0x36, 0xff}},
		Entry{"DARK_GRAY", color.NRGBA{0x5f, 0x57, 0x4f, 0xff}},
		Entry{"LIGHT_GRAY", color.NRGBA{0xc2, 0xc3, 0xc7, 0xff}},
		Entry{"WHITE", color.NRGBA{0xff, 0xf1, 0xe8, 0xff}},
		Entry{"RED", color.NRGBA{0xff, 0x00, 0x4d, 0xff}},
		Entry{"ORANGE", color.NRGBA{0xff, 0xa3, 0x00, 0xff}},
		Entry{"YELLOW", color.NRGBA{0xff, 0xec, 0x27, 0xff}},
		Entry{"GREEN", color.NRGBA{0x00, 0xe4, 0x36, 0xff}},
		Entry{"BLUE", color.NRGBA{0x29, 0xad, 0xff, 0xff}},
		Entry{"LAVENDER", color.NRGBA{0x83, 0x76, 0x9c, 0xff}},
		Entry{"PINK", color.NRGBA{0xff, 0x77, 0xa8, 0xff}},
		Entry{"PEACH", color.NRGBA{0xff, 0xcc, 0xaa, 0xff}},
		Entry{Transparent, color.NRGBA{}},
	)

	// PaletteGameBoy is the original four shade Game Boy palette.
	PaletteGameBoy = MustPalette("gameboy",
		Entry{"DARKEST", color.NRGBA{0x0f, 0x38, 0x0f, 0xff}},
		Entry{"DARK", color.NRGBA{0x30, 0x62, 0x30, 0xff}},
		Entry{"LIGHT", color.NRGBA{0x8b, 0xac, 0x0f, 0xff}},
		Entry{"LIGHTEST", color.NRGBA{0x9b, 0xbc, 0x0f, 0xff}},
		Entry{Transparent, color.NRGBA{}},
	)

	// PaletteMakeCode is the MakeCode Arcade sprite editor palette.
	PaletteMakeCode = MustPalette("makecode",
		Entry{"WHITE", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		Entry{"RED", color.NRGBA{0xff, 0x21, 0x21, 0xff}},
		Entry{"PINK", color.NRGBA{0xff, 0x93, 0xc4, 0xff}},
		Entry{"ORANGE", color.NRGBA{0xff, 0x81, 0x35, 0xff}},
		Entry{"YELLOW", color.NRGBA{0xff, 0xf6, 0x09, 0xff}},
		Entry{"TEAL", color.NRGBA{0x24, 0x9c, 0xa3, 0xff}},
		Entry{"GREEN", color.NRGBA{0x78, 0xdc, 0x52, 0xff}},
		Entry{"BLUE", color.NRGBA{0x00, 0x3f, 0xad, 0xff}},
		Entry{"LIGHT_BLUE", color.NRGBA{0x87, 0xf2, 0xff, 0xff}},
		Entry{"PURPLE", color.NRGBA{0x8e, 0x2e, 0xc4, 0xff}},
		Entry{"LIGHT_PURPLE", color.NRGBA{0xa4, 0x83, 0x9f, 0xff}},
		Entry{"DARK_PURPLE", color.NRGBA{0x5c, 0x40, 0x6c, 0xff}},
		Entry{"TAN", color.NRGBA{0xe5, 0xcd, 0xc4, 0xff}},
		Entry{"BROWN", color.NRGBA{0x91, 0x46, 0x3d, 0xff}},
		Entry{"BLACK", color.NRGBA{0x00, 0x00, 0x00, 0xff}},
		Entry{Transparent, color.NRGBA{}},
	)

	// PaletteMono is plain black and white.
	PaletteMono = MustPalette("mono",
		Entry{"BLACK", color.NRGBA{0x00, 0x00, 0x00, 0xff}},
		Entry{"WHITE", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		Entry{Transparent, color.NRGBA{}},
	)
)

var builtinPalettes = map[string]*Palette{
	PaletteCC.ID():       PaletteCC,
	PalettePico8.ID():    PalettePico8,
	PaletteGameBoy.ID():  PaletteGameBoy,
	PaletteMakeCode.ID(): PaletteMakeCode,
	PaletteMono.ID():     PaletteMono,
}

// BuiltinPalette returns a built-in palette by ID.
func BuiltinPalette(id string) (*Palette, bool) {
	p, ok := builtinPalettes[strings.ToLower(id)]
	return p, ok
}

// BuiltinPaletteIDs returns the IDs of all built-in palettes, sorted.
func BuiltinPaletteIDs() []string {
	ids := make([]string, 0, len(builtinPalettes))
	for id := range builtinPalettes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
