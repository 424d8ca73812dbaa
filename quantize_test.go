package spritegrid

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
)

func gridEqual(a, b PixelGrid) bool {
	if len(a) != len(b) {
		return false
	}
	for y := range a {
		if len(a[y]) != len(b[y]) {
			return false
		}
		for x := range a[y] {
			if a[y][x] != b[y][x] {
				return false
			}
		}
	}
	return true
}

func TestQuantizeUniformBackground(t *testing.T) {
	img := filledImage(4, 4, white)
	p := mustPaletteHex(t, "bw", "WHITE", "#ffffff", "BLACK", "#000000")

	grid, err := Quantize(img, p, 4, 4, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if grid.Width() != 4 || grid.Height() != 4 {
		t.Fatalf("grid is %dx%d, want 4x4", grid.Width(), grid.Height())
	}
	if n := grid.Counts()[Transparent]; n != 16 {
		t.Errorf("got %d transparent cells, want 16: %v", n, grid)
	}
}

func TestQuantizeKeepsColors(t *testing.T) {
	img := filledImage(2, 1, red)
	p := mustPaletteHex(t, "red-white", "RED", "#ff0000", "WHITE", "#ffffff")

	opts := DefaultOptions()
	opts.RemoveBackground = false

	grid, err := Quantize(img, p, 2, 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := PixelGrid{{"RED", "RED"}}
	if !gridEqual(grid, want) {
		t.Errorf("grid = %v, want %v", grid, want)
	}
}

func TestQuantizeSpriteOnBackground(t *testing.T) {
	img := filledImage(8, 8, white)
	fillRect(img, image.Rect(2, 2, 6, 6), color.NRGBA{0x33, 0x66, 0xcc, 0xff})

	grid, err := Quantize(img, PaletteCC, 4, 4, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for y, row := range grid {
		for x, c := range row {
			if c != "BLUE" {
				t.Errorf("cell (%d,%d) = %s, want BLUE", x, y, c)
			}
		}
	}
}

func TestQuantizeWithoutCrop(t *testing.T) {
	img := filledImage(8, 8, white)
	fillRect(img, image.Rect(4, 4, 8, 8), black)
	p := mustPaletteHex(t, "bw", "WHITE", "#ffffff", "BLACK", "#000000")

	opts := DefaultOptions()
	opts.CropToContent = false

	grid, err := Quantize(img, p, 2, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := PixelGrid{
		{Transparent, Transparent},
		{Transparent, "BLACK"},
	}
	if !gridEqual(grid, want) {
		t.Errorf("grid = %v, want %v", grid, want)
	}
}

func TestQuantizeAspectPadding(t *testing.T) {
	img := filledImage(10, 20, red)
	p := mustPaletteHex(t, "red-white", "RED", "#ff0000", "WHITE", "#ffffff")

	opts := DefaultOptions()
	opts.RemoveBackground = false

	grid, err := Quantize(img, p, 5, 5, opts)
	if err != nil {
		t.Fatal(err)
	}
	for y, row := range grid {
		for x, c := range row {
			want := PaletteColor("RED")
			if x == 0 || x == 4 {
				want = Transparent
			}
			if c != want {
				t.Errorf("cell (%d,%d) = %s, want %s", x, y, c, want)
			}
		}
	}
}

func TestQuantizeAlphaThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 100})
	p := mustPaletteHex(t, "red-white", "RED", "#ff0000", "WHITE", "#ffffff")

	opts := DefaultOptions()
	opts.RemoveBackground = false

	grid, err := Quantize(img, p, 1, 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	if grid[0][0] != Transparent {
		t.Errorf("alpha 100 with threshold 128 = %s, want %s", grid[0][0], Transparent)
	}

	opts.AlphaThreshold = 50
	grid, err = Quantize(img, p, 1, 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	if grid[0][0] != "RED" {
		t.Errorf("alpha 100 with threshold 50 = %s, want RED", grid[0][0])
	}
}

func TestQuantizeDoesNotMutateSource(t *testing.T) {
	img := filledImage(6, 6, white)
	fillRect(img, image.Rect(1, 1, 5, 5), red)
	before := make([]byte, len(img.Pix))
	copy(before, img.Pix)

	if _, err := Quantize(img, PaletteCC, 3, 3, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, img.Pix) {
		t.Error("Quantize modified the source image")
	}
}

func TestQuantizeAcceptsAnyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 14, 14))
	for y := 10; y < 14; y++ {
		for x := 10; x < 14; x++ {
			img.Set(x, y, color.RGBA{0x33, 0x66, 0xcc, 0xff})
		}
	}

	opts := DefaultOptions()
	opts.RemoveBackground = false

	grid, err := Quantize(img, PaletteCC, 2, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if n := grid.Counts()["BLUE"]; n != 4 {
		t.Errorf("got %d BLUE cells, want 4: %v", n, grid)
	}
}

func TestQuantizeInvalid(t *testing.T) {
	img := filledImage(4, 4, red)

	badTolerance := DefaultOptions()
	badTolerance.Tolerance = 101
	negTolerance := DefaultOptions()
	negTolerance.Tolerance = -1

	tests := []struct {
		name string
		img  image.Image
		p    *Palette
		w, h int
		opts Options
		want error
	}{
		{"zero width", img, PaletteCC, 0, 4, DefaultOptions(), ErrInvalidOptions},
		{"negative height", img, PaletteCC, 4, -1, DefaultOptions(), ErrInvalidOptions},
		{"too large", img, PaletteCC, MaxGridSize + 1, 4, DefaultOptions(), ErrInvalidOptions},
		{"tolerance high", img, PaletteCC, 4, 4, badTolerance, ErrInvalidOptions},
		{"tolerance low", img, PaletteCC, 4, 4, negTolerance, ErrInvalidOptions},
		{"nil palette", img, nil, 4, 4, DefaultOptions(), ErrEmptyPalette},
		{"nil image", nil, PaletteCC, 4, 4, DefaultOptions(), ErrEmptySourceRegion},
		{"empty image", image.NewNRGBA(image.Rect(0, 0, 0, 0)), PaletteCC, 4, 4, DefaultOptions(), ErrEmptySourceRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Quantize(tt.img, tt.p, tt.w, tt.h, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestQuantizerConcurrent(t *testing.T) {
	q := NewQuantizer(nil)
	img := filledImage(32, 32, white)
	fillRect(img, image.Rect(4, 4, 28, 28), color.NRGBA{0xcc, 0x4c, 0x4c, 0xff})
	fillRect(img, image.Rect(12, 12, 20, 20), color.NRGBA{0x57, 0xa6, 0x4e, 0xff})

	want, err := q.Quantize(img, PaletteCC, 8, 8, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := q.Quantize(img, PaletteCC, 8, 8, DefaultOptions())
			if err != nil {
				errs <- err
				return
			}
			if !gridEqual(got, want) {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if n := q.Cache().Len(); n != 1 {
		t.Errorf("cache holds %d zone maps, want 1", n)
	}
}

func BenchmarkQuantize(b *testing.B) {
	img := filledImage(256, 256, white)
	fillRect(img, image.Rect(32, 32, 224, 224), color.NRGBA{0xcc, 0x4c, 0x4c, 0xff})
	q := NewQuantizer(nil)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := q.Quantize(img, PaletteCC, 32, 32, DefaultOptions()); err != nil {
			b.Fatal(err)
		}
	}
}
