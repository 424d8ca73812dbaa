package spritegrid

import (
	"fmt"
	"image/color"
)

var colorAlphabet = []byte("0123456789abcdef")

// EncodeFrame converts a grid into a ComputerCraft blit frame. Every 2x3
// block must hold at most two tokens (see ChunkGrid). Transparent cells are
// drawn with the background token, which must belong to the palette.
func EncodeFrame(g PixelGrid, p *Palette, background PaletteColor) (*FrameChunk, error) {
	if err := checkChunkSize(g); err != nil {
		return nil, err
	}

	bgIndex := p.Index(background)
	if bgIndex < 0 {
		return nil, fmt.Errorf("spritegrid: EncodeFrame: background %q not in palette: %w",
			background, ErrInvalidPalette)
	}

	indices := g.Indices(p)

	frame := &FrameChunk{
		Width:  g.Width() / ChunkWidth,
		Height: g.Height() / ChunkHeight,
		Rows:   make([]FrameRow, g.Height()/ChunkHeight),
	}

	for i, e := range p.entries {
		frame.Palette[i] = color.RGBA{R: e.Color.R, G: e.Color.G, B: e.Color.B, A: 255}
	}

	for y := 0; y < g.Height(); y += ChunkHeight {
		row := &frame.Rows[y/ChunkHeight]
		row.Text = make([]byte, frame.Width)
		row.TextColor = make([]byte, frame.Width)
		row.BgColor = make([]byte, frame.Width)

		for x := 0; x < g.Width(); x += ChunkWidth {
			chunk := make([]byte, 0, ChunkWidth*ChunkHeight)
			for dy := 0; dy < ChunkHeight; dy++ {
				for dx := 0; dx < ChunkWidth; dx++ {
					idx := indices[y+dy][x+dx]
					if idx < 0 {
						idx = bgIndex
					}
					chunk = append(chunk, byte(idx))
				}
			}

			text, textColor, bgColor, ok := chunkToBlit(chunk)
			if !ok {
				return nil, fmt.Errorf("spritegrid: EncodeFrame: block at (%d,%d) has more than two colors",
					x, y)
			}

			col := x / ChunkWidth
			row.Text[col] = text
			row.TextColor[col] = colorAlphabet[textColor]
			row.BgColor[col] = colorAlphabet[bgColor]
		}
	}

	return frame, nil
}

// chunkToBlit turns six palette indices into a teletext character and its
// colors. The bottom right pixel is always the background, so only five bits
// are needed.
func chunkToBlit(chunk []byte) (char byte, textColor byte, bgColor byte, ok bool) {
	bgColor = chunk[5]
	textColor = bgColor

	var b byte
	hasText := false
	for i := byte(0); i < 6; i++ {
		if chunk[i] == bgColor {
			continue
		}
		if hasText && chunk[i] != textColor {
			return 0, 0, 0, false
		}
		hasText = true
		textColor = chunk[i]
		b |= 1 << i
	}

	return b + 128, textColor, bgColor, true
}
