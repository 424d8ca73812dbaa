package spritegrid

import (
	"image"
	"image/color"
)

// MaxTolerance is the largest per-channel tolerance accepted by
// RemoveBackground.
const MaxTolerance = 100

// Similar reports whether every channel of a and b, alpha included, differs
// by at most tolerance.
func Similar(a, b color.NRGBA, tolerance int) bool {
	return absDiff(a.R, b.R) <= tolerance &&
		absDiff(a.G, b.G) <= tolerance &&
		absDiff(a.B, b.B) <= tolerance &&
		absDiff(a.A, b.A) <= tolerance
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// borderPoints returns every pixel on the image edge exactly once, clockwise
// from the top left corner.
func borderPoints(r image.Rectangle) []image.Point {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}

	points := make([]image.Point, 0, 2*(w+h))
	for x := r.Min.X; x < r.Max.X; x++ {
		points = append(points, image.Pt(x, r.Min.Y))
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		points = append(points, image.Pt(r.Max.X-1, y))
	}
	if h > 1 {
		for x := r.Max.X - 2; x >= r.Min.X; x-- {
			points = append(points, image.Pt(x, r.Max.Y-1))
		}
	}
	if w > 1 {
		for y := r.Max.Y - 2; y > r.Min.Y; y-- {
			points = append(points, image.Pt(r.Min.X, y))
		}
	}

	return points
}

// BorderColor returns the most frequent color along the image edge. Ties go
// to the color seen first. Fully transparent pixels all vote as the zero
// color, whatever their RGB bytes. An empty image yields the zero color.
func BorderColor(img *image.NRGBA) color.NRGBA {
	type colorCount struct {
		color color.NRGBA
		count int
	}

	index := make(map[color.NRGBA]int)
	var counts []colorCount

	for _, pt := range borderPoints(img.Bounds()) {
		col := img.NRGBAAt(pt.X, pt.Y)
		if col.A == 0 {
			col = color.NRGBA{}
		}
		i, ok := index[col]
		if !ok {
			i = len(counts)
			index[col] = i
			counts = append(counts, colorCount{color: col})
		}
		counts[i].count++
	}

	var best colorCount
	for _, c := range counts {
		if c.count > best.count {
			best = c
		}
	}

	return best.color
}

// RemoveBackground clears the alpha of every pixel connected to the image
// border whose color is within tolerance of the dominant border color. The
// image is modified in place and the number of pixels that became
// transparent is returned. Pixels not reached keep their exact bytes. When
// the dominant border color is already transparent there is no background
// left to remove and the image is not touched.
func RemoveBackground(img *image.NRGBA, tolerance int) int {
	tolerance = max(0, min(MaxTolerance, tolerance))

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	bg := BorderColor(img)
	if bg.A == 0 {
		return 0
	}
	visited := make([]bool, w*h)
	stack := make([]image.Point, 0, 2*(w+h))

	for _, pt := range borderPoints(bounds) {
		if Similar(img.NRGBAAt(pt.X, pt.Y), bg, tolerance) {
			stack = append(stack, pt)
		}
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !p.In(bounds) {
			continue
		}
		idx := (p.Y-bounds.Min.Y)*w + (p.X - bounds.Min.X)
		if visited[idx] {
			continue
		}
		if !Similar(img.NRGBAAt(p.X, p.Y), bg, tolerance) {
			continue
		}
		visited[idx] = true

		stack = append(stack,
			image.Pt(p.X+1, p.Y),
			image.Pt(p.X-1, p.Y),
			image.Pt(p.X, p.Y+1),
			image.Pt(p.X, p.Y-1),
		)
	}

	removed := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !visited[y*w+x] {
				continue
			}
			off := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y) + 3
			if img.Pix[off] != 0 {
				img.Pix[off] = 0
				removed++
			}
		}
	}

	return removed
}
