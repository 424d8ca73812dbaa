package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/tmpim/spritegrid"
)

// viewGrid draws the grid with two cells per terminal character using upper
// half blocks, and waits for a key press.
func viewGrid(name string, grid spritegrid.PixelGrid, palette *spritegrid.Palette) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	checker := [2]tcell.Color{tcell.NewRGBColor(40, 40, 40), tcell.NewRGBColor(60, 60, 60)}
	cellColor := func(x, y int) tcell.Color {
		if y >= grid.Height() {
			return tcell.ColorReset
		}
		c, ok := palette.Lookup(grid[y][x])
		if !ok || c.A == 0 {
			return checker[(x+y/2)%2]
		}
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}

	draw := func() {
		screen.Clear()
		for y := 0; y < grid.Height(); y += 2 {
			for x := 0; x < grid.Width(); x++ {
				style := tcell.StyleDefault.
					Foreground(cellColor(x, y)).
					Background(cellColor(x, y+1))
				screen.SetContent(x, y/2, '▀', nil, style)
			}
		}

		status := fmt.Sprintf(" %s  %dx%d  palette %s  (any key to continue)",
			name, grid.Width(), grid.Height(), palette.ID())
		for i, r := range status {
			screen.SetContent(i, (grid.Height()+1)/2+1, r, nil, tcell.StyleDefault)
		}
		screen.Show()
	}

	draw()
	for {
		switch screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
			draw()
		case *tcell.EventKey, nil:
			return nil
		}
	}
}
