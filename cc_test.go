package spritegrid

import (
	"errors"
	"image/color"
	"testing"
)

func TestChunkToBlit(t *testing.T) {
	tests := []struct {
		chunk     []byte
		char      byte
		textColor byte
		bgColor   byte
		ok        bool
	}{
		{[]byte{0, 0, 0, 0, 0, 0}, 128, 0, 0, true},
		{[]byte{1, 0, 0, 0, 0, 0}, 129, 1, 0, true},
		{[]byte{0, 1, 0, 0, 0, 0}, 130, 1, 0, true},
		{[]byte{1, 1, 1, 1, 1, 0}, 159, 1, 0, true},
		{[]byte{0, 0, 0, 0, 0, 3}, 159, 0, 3, true},
		{[]byte{4, 4, 2, 2, 4, 2}, 128 + 1 + 2 + 16, 4, 2, true},
		{[]byte{1, 2, 0, 0, 0, 0}, 0, 0, 0, false},
	}

	for _, tt := range tests {
		char, textColor, bgColor, ok := chunkToBlit(tt.chunk)
		if ok != tt.ok {
			t.Errorf("chunkToBlit(%v) ok = %v, want %v", tt.chunk, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if char != tt.char || textColor != tt.textColor || bgColor != tt.bgColor {
			t.Errorf("chunkToBlit(%v) = %d,%d,%d want %d,%d,%d", tt.chunk,
				char, textColor, bgColor, tt.char, tt.textColor, tt.bgColor)
		}
	}
}

func TestEncodeFrame(t *testing.T) {
	g := PixelGrid{
		{"BLACK", "WHITE", "WHITE", "WHITE"},
		{"BLACK", "BLACK", "WHITE", "WHITE"},
		{"BLACK", "BLACK", "WHITE", "WHITE"},
	}

	frame, err := EncodeFrame(g, PaletteMono, "BLACK")
	if err != nil {
		t.Fatal(err)
	}
	if frame.Width != 2 || frame.Height != 1 || len(frame.Rows) != 1 {
		t.Fatalf("frame is %dx%d with %d rows", frame.Width, frame.Height, len(frame.Rows))
	}

	row := frame.Rows[0]
	if row.Text[0] != 130 || row.TextColor[0] != '1' || row.BgColor[0] != '0' {
		t.Errorf("cell 0 = %d %c %c, want 130 1 0", row.Text[0], row.TextColor[0], row.BgColor[0])
	}
	if row.Text[1] != 128 || row.BgColor[1] != '1' {
		t.Errorf("cell 1 = %d %c %c, want 128 on 1", row.Text[1], row.TextColor[1], row.BgColor[1])
	}

	if frame.Palette[0] != (color.RGBA{0, 0, 0, 255}) || frame.Palette[1] != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("palette = %v", frame.Palette[:2])
	}
}

func TestEncodeFrameTransparentBackground(t *testing.T) {
	g := NewPixelGrid(2, 3)
	g[0][0] = "BLACK"

	frame, err := EncodeFrame(g, PaletteMono, "WHITE")
	if err != nil {
		t.Fatal(err)
	}
	row := frame.Rows[0]
	if row.Text[0] != 129 || row.TextColor[0] != '0' || row.BgColor[0] != '1' {
		t.Errorf("cell = %d %c %c, want 129 0 1", row.Text[0], row.TextColor[0], row.BgColor[0])
	}
}

func TestEncodeFrameErrors(t *testing.T) {
	if _, err := EncodeFrame(NewPixelGrid(2, 3), PaletteMono, "PURPLE"); !errors.Is(err, ErrInvalidPalette) {
		t.Errorf("unknown background error = %v, want ErrInvalidPalette", err)
	}

	if _, err := EncodeFrame(NewPixelGrid(3, 3), PaletteMono, "BLACK"); !errors.Is(err, errChunkSize) {
		t.Errorf("odd width error = %v, want errChunkSize", err)
	}

	g := PixelGrid{
		{"RED", "BLUE"},
		{"GREEN", "GREEN"},
		{"GREEN", "GREEN"},
	}
	if _, err := EncodeFrame(g, PaletteCC, "BLACK"); err == nil {
		t.Error("three color block encoded without error")
	}

	chunked, err := ChunkGrid(g, PaletteCC)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := EncodeFrame(chunked, PaletteCC, "BLACK"); err != nil {
		t.Errorf("chunked grid failed to encode: %v", err)
	}
}
