package spritegrid

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"reflect"
	"strings"
	"testing"
)

func TestNewPalette(t *testing.T) {
	p, err := NewPalette("test",
		Entry{"red", color.NRGBA{255, 0, 0, 128}},
		Entry{" Blue ", color.NRGBA{0, 0, 255, 255}},
		Entry{"transparent", color.NRGBA{}},
	)
	if err != nil {
		t.Fatal(err)
	}

	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if !p.ListsTransparent() {
		t.Error("ListsTransparent() = false")
	}
	if p.Index("RED") != 0 || p.Index("BLUE") != 1 || p.Index("GREEN") != -1 {
		t.Errorf("Index: RED=%d BLUE=%d GREEN=%d", p.Index("RED"), p.Index("BLUE"), p.Index("GREEN"))
	}

	c, ok := p.Lookup("RED")
	if !ok || c != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("Lookup(RED) = %v, %v; entries are stored opaque", c, ok)
	}
	if c, ok := p.Lookup(Transparent); !ok || c != (color.NRGBA{}) {
		t.Errorf("Lookup(Transparent) = %v, %v", c, ok)
	}
	if _, ok := p.Lookup("GREEN"); ok {
		t.Error("Lookup(GREEN) should fail")
	}

	entries := p.Entries()
	entries[0].Name = "CHANGED"
	if p.Entries()[0].Name != "RED" {
		t.Error("Entries() exposed internal state")
	}

	if got := len(p.Colors()); got != 2 {
		t.Errorf("Colors() has %d entries, want 2", got)
	}
}

func TestNewPaletteInvalid(t *testing.T) {
	seventeen := make([]Entry, 17)
	for i := range seventeen {
		seventeen[i] = Entry{PaletteColor(fmt.Sprintf("C%d", i)), color.NRGBA{uint8(i), 0, 0, 255}}
	}

	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty name", []Entry{{"", color.NRGBA{A: 255}}}},
		{"duplicate", []Entry{{"RED", color.NRGBA{R: 255, A: 255}}, {"red", color.NRGBA{R: 200, A: 255}}}},
		{"unnamed transparent", []Entry{{"CLEAR", color.NRGBA{}}}},
		{"too many", seventeen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPalette("bad", tt.entries...); !errors.Is(err, ErrInvalidPalette) {
				t.Errorf("error = %v, want ErrInvalidPalette", err)
			}
		})
	}

	// Sixteen opaque colors plus the transparent sentinel is allowed.
	ok := append(seventeen[:16:16], Entry{Transparent, color.NRGBA{}})
	if _, err := NewPalette("full", ok...); err != nil {
		t.Errorf("16 colors + transparent: %v", err)
	}
}

func TestPaletteFromHex(t *testing.T) {
	p, err := PaletteFromHex("hex", "RED", "#f00", "GREEN", "00ff00")
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := p.Lookup("GREEN"); c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("GREEN = %v", c)
	}

	if _, err := PaletteFromHex("odd", "RED"); !errors.Is(err, ErrInvalidPalette) {
		t.Errorf("odd pairs error = %v, want ErrInvalidPalette", err)
	}
	if _, err := PaletteFromHex("bad", "RED", "#nothex"); !errors.Is(err, ErrInvalidColorFormat) {
		t.Errorf("bad hex error = %v, want ErrInvalidColorFormat", err)
	}
}

func TestPaletteKey(t *testing.T) {
	a := mustPaletteHex(t, "k", "RED", "#ff0000")
	b := mustPaletteHex(t, "k", "red", "#FF0000")
	c := mustPaletteHex(t, "k", "RED", "#fe0000")
	d := mustPaletteHex(t, "other", "RED", "#ff0000")

	if a.Key() != b.Key() {
		t.Errorf("equal palettes have keys %q and %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Error("different colors share a key")
	}
	if a.Key() == d.Key() {
		t.Error("different IDs share a key")
	}
	if !strings.HasPrefix(a.Key(), "k@") {
		t.Errorf("Key() = %q, want the ID as prefix", a.Key())
	}
}

func TestPaletteJSON(t *testing.T) {
	for _, id := range BuiltinPaletteIDs() {
		p, _ := BuiltinPalette(id)
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("%s: Marshal: %v", id, err)
		}

		var back Palette
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("%s: Unmarshal: %v", id, err)
		}
		if back.Key() != p.Key() {
			t.Errorf("%s: key changed across JSON: %q != %q", id, back.Key(), p.Key())
		}
		if !reflect.DeepEqual(back.Entries(), p.Entries()) {
			t.Errorf("%s: entries changed across JSON", id)
		}
	}
}

func TestLoadPalette(t *testing.T) {
	src := `{"id": "duo", "colors": [
		{"name": "ink", "hex": "#1b1b3a"},
		{"name": "paper", "hex": "#f4f1de"},
		{"name": "TRANSPARENT", "hex": "transparent"}
	]}`

	p, err := LoadPalette(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if p.ID() != "duo" || p.Len() != 2 || !p.ListsTransparent() {
		t.Errorf("LoadPalette = id %q, %d colors, transparent %v", p.ID(), p.Len(), p.ListsTransparent())
	}
	if p.Index("INK") != 0 {
		t.Errorf("INK index = %d", p.Index("INK"))
	}

	bad := []string{
		`not json`,
		`{"id": "x", "colors": [{"name": "A", "hex": "#12"}]}`,
		`{"id": "x", "colors": [{"name": "A", "hex": "#000"}, {"name": "a", "hex": "#fff"}]}`,
	}
	for _, in := range bad {
		if _, err := LoadPalette(strings.NewReader(in)); err == nil {
			t.Errorf("LoadPalette(%q) succeeded", in)
		}
	}
}

func TestBuiltinPalettes(t *testing.T) {
	want := []string{"cc", "gameboy", "makecode", "mono", "pico8"}
	if got := BuiltinPaletteIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("BuiltinPaletteIDs() = %v, want %v", got, want)
	}

	p, ok := BuiltinPalette("CC")
	if !ok || p != PaletteCC {
		t.Error("BuiltinPalette should ignore case")
	}
	if _, ok := BuiltinPalette("nes"); ok {
		t.Error("BuiltinPalette(nes) should not exist")
	}

	if PaletteCC.Len() != 16 {
		t.Errorf("cc palette has %d colors, want 16", PaletteCC.Len())
	}
	for _, id := range want {
		p, _ := BuiltinPalette(id)
		if !p.ListsTransparent() {
			t.Errorf("%s does not list TRANSPARENT", id)
		}
	}
}
