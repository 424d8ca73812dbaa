package spritegrid

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
)

// ComputerCraft text cells cover 2x3 pixels.
const (
	ChunkWidth  = 2
	ChunkHeight = 3
)

var errChunkSize = errors.New("spritegrid: grid width must be a multiple of 2 and height a multiple of 3")

func checkChunkSize(g PixelGrid) error {
	if g.Width()%ChunkWidth != 0 || g.Height()%ChunkHeight != 0 || g.Width() == 0 {
		return errChunkSize
	}
	return nil
}

func edgeScore(edges *image.NRGBA, x, y int) float64 {
	c := edges.NRGBAAt(x, y)
	return math.Log((float64(c.R)+float64(c.G)+float64(c.B))/3.0+7.0)*0.65 + 0.45
}

// ChunkGrid reduces every 2x3 block of the grid to at most two tokens, the
// ComputerCraft limit for one text cell. Tokens are ranked by how many cells
// they hold, with cells on edges counting more; the rest are remapped to the
// closer of the two winners. The input grid is not modified.
func ChunkGrid(g PixelGrid, p *Palette) (PixelGrid, error) {
	if err := checkChunkSize(g); err != nil {
		return nil, err
	}

	rendered := g.Image(p)
	edges := image.NewNRGBA(rendered.Bounds())
	gift.New(gift.Sobel()).Draw(edges, rendered)

	out := NewPixelGrid(g.Width(), g.Height())

	for y := 0; y < g.Height(); y += ChunkHeight {
		for x := 0; x < g.Width(); x += ChunkWidth {
			var order []PaletteColor
			score := make(map[PaletteColor]float64)

			for dy := 0; dy < ChunkHeight; dy++ {
				for dx := 0; dx < ChunkWidth; dx++ {
					tok := g[y+dy][x+dx]
					if _, ok := score[tok]; !ok {
						order = append(order, tok)
					}
					score[tok] += edgeScore(edges, x+dx, y+dy)
				}
			}

			if len(order) <= 2 {
				for dy := 0; dy < ChunkHeight; dy++ {
					copy(out[y+dy][x:x+ChunkWidth], g[y+dy][x:x+ChunkWidth])
				}
				continue
			}

			first, second := order[0], order[1]
			if score[second] > score[first] {
				first, second = second, first
			}
			for _, tok := range order[2:] {
				switch {
				case score[tok] > score[first]:
					first, second = tok, first
				case score[tok] > score[second]:
					second = tok
				}
			}

			winners := [2]PaletteColor{first, second}
			reduced := color.Palette{tokenColor(p, first), tokenColor(p, second)}

			for dy := 0; dy < ChunkHeight; dy++ {
				for dx := 0; dx < ChunkWidth; dx++ {
					tok := g[y+dy][x+dx]
					if tok != first && tok != second {
						tok = winners[reduced.Index(tokenColor(p, tok))]
					}
					out[y+dy][x+dx] = tok
				}
			}
		}
	}

	return out, nil
}

func tokenColor(p *Palette, tok PaletteColor) color.NRGBA {
	c, _ := p.Lookup(tok)
	return c
}
