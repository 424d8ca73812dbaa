package spritegrid

import (
	"image"
	"image/color"
)

// PixelGrid is a row-major grid of palette tokens, indexed [y][x] with the
// origin at the top left.
type PixelGrid [][]PaletteColor

// NewPixelGrid returns a w by h grid filled with Transparent.
func NewPixelGrid(w, h int) PixelGrid {
	cells := make([]PaletteColor, w*h)
	for i := range cells {
		cells[i] = Transparent
	}

	grid := make(PixelGrid, h)
	for y := range grid {
		grid[y] = cells[y*w : (y+1)*w : (y+1)*w]
	}
	return grid
}

// Width returns the number of columns.
func (g PixelGrid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height returns the number of rows.
func (g PixelGrid) Height() int {
	return len(g)
}

// Counts returns how many cells hold each token.
func (g PixelGrid) Counts() map[PaletteColor]int {
	counts := make(map[PaletteColor]int)
	for _, row := range g {
		for _, c := range row {
			counts[c]++
		}
	}
	return counts
}

// Indices maps every cell to its position in the palette. Transparent cells
// and tokens missing from the palette map to -1.
func (g PixelGrid) Indices(p *Palette) [][]int {
	lookup := make(map[PaletteColor]int, p.Len())
	for i, e := range p.entries {
		lookup[e.Name] = i
	}

	out := make([][]int, len(g))
	for y, row := range g {
		out[y] = make([]int, len(row))
		for x, c := range row {
			i, ok := lookup[c]
			if !ok {
				i = -1
			}
			out[y][x] = i
		}
	}
	return out
}

// Image renders the grid with the palette's colors, one pixel per cell.
// Transparent cells, and tokens the palette does not know, are left fully
// transparent.
func (g PixelGrid) Image(p *Palette) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width(), g.Height()))
	for y, row := range g {
		for x, c := range row {
			if col, ok := p.Lookup(c); ok {
				img.SetNRGBA(x, y, col)
			}
		}
	}
	return img
}

// ScaledImage renders the grid with every cell drawn as a scale by scale
// block, for previews.
func (g PixelGrid) ScaledImage(p *Palette, scale int) *image.NRGBA {
	scale = max(1, scale)
	img := image.NewNRGBA(image.Rect(0, 0, g.Width()*scale, g.Height()*scale))
	for y, row := range g {
		for x, c := range row {
			col, ok := p.Lookup(c)
			if !ok || col == (color.NRGBA{}) {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetNRGBA(x*scale+dx, y*scale+dy, col)
				}
			}
		}
	}
	return img
}
