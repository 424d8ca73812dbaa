package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmpim/spritegrid"
	"github.com/tmpim/spritegrid/suggest"
	"golang.org/x/sync/errgroup"
)

var (
	width        = flag.Int("w", 16, "set the grid width in cells (1-512)")
	height       = flag.Int("h", 16, "set the grid height in cells (1-512)")
	paletteFlag  = flag.String("palette", "cc", "built-in palette ID or path to a JSON palette")
	suggestFlag  = flag.String("suggest", "", "derive the palette from each image instead (dominant, kmeans, imagequant)")
	colors       = flag.Int("colors", 8, "number of colors for -suggest")
	removeBg     = flag.Bool("bg", true, "remove the border-connected background")
	crop         = flag.Bool("crop", true, "crop to content before fitting")
	tolerance    = flag.Int("t", 10, "set the background tolerance per channel (0-100)")
	outDir       = flag.String("out", ".", "set the output directory")
	writeJSON    = flag.Bool("json", true, "write <name>.json with the grid")
	writePreview = flag.Bool("preview", true, "write <name>.png preview")
	previewScale = flag.Int("scale", 8, "set the preview pixels per cell")
	frameFormat  = flag.String("frame", "", "write a ComputerCraft frame: ccf or ccf.zst")
	frameBg      = flag.String("frame-bg", "BLACK", "palette color drawn for transparent cells in frames")
	animate      = flag.Bool("anim", false, "convert every frame of animated GIFs")
	view         = flag.Bool("view", false, "show each grid in the terminal")
	workers      = flag.Int("j", 4, "set the number of images converted at once")
	verbose      = flag.Bool("v", false, "log pipeline diagnostics")
)

type result struct {
	name    string
	grid    spritegrid.PixelGrid
	palette *spritegrid.Palette
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	if flag.NArg() == 0 {
		log.Println("Usage: spritegrid [options] image...")
		log.Println("")
		log.Println("spritegrid converts images (PNG, JPEG, GIF, BMP or WebP) into small grids")
		log.Println("of palette colors for sprite editors and ComputerCraft terminals.")
		log.Println("")
		log.Println("Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *verbose {
		spritegrid.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if *tolerance < 0 || *tolerance > spritegrid.MaxTolerance {
		log.Println("Tolerance must be between 0 and 100.")
		os.Exit(1)
	}

	if *frameFormat != "" && *frameFormat != "ccf" && *frameFormat != "ccf.zst" {
		log.Println("Frame format must be ccf or ccf.zst.")
		os.Exit(1)
	}

	if *frameFormat != "" && (*width%spritegrid.ChunkWidth != 0 || *height%spritegrid.ChunkHeight != 0) {
		log.Println("Frames need a width that is a multiple of 2 and a height that is a multiple of 3.")
		os.Exit(1)
	}

	var method suggest.Method
	var palette *spritegrid.Palette
	if *suggestFlag != "" {
		var err error
		method, err = suggest.ParseMethod(*suggestFlag)
		if err != nil {
			log.Println(err)
			os.Exit(1)
		}
	} else {
		var err error
		palette, err = loadPalette(*paletteFlag)
		if err != nil {
			log.Println("Failed to load palette:", err)
			os.Exit(1)
		}
		if err := spritegrid.DefaultCache().Warm(palette); err != nil {
			log.Println("Failed to partition palette:", err)
			os.Exit(1)
		}
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Println("Failed to create output directory:", err)
		os.Exit(1)
	}

	opts := spritegrid.DefaultOptions()
	opts.RemoveBackground = *removeBg
	opts.CropToContent = *crop
	opts.Tolerance = *tolerance

	start := time.Now()
	results := make([]result, flag.NArg())

	var g errgroup.Group
	g.SetLimit(max(1, *workers))
	for i, path := range flag.Args() {
		g.Go(func() error {
			res, err := convert(path, palette, method, opts)
			if err != nil {
				log.Printf("%s: %s", path, err)
				return err
			}
			results[i] = res
			return nil
		})
	}

	failed := g.Wait() != nil

	log.Printf("Done! Converted %d image(s) in %s.", flag.NArg(), time.Since(start))

	if *view {
		for _, res := range results {
			if res.grid == nil {
				continue
			}
			if err := viewGrid(res.name, res.grid, res.palette); err != nil {
				log.Println("Failed to show grid:", err)
				break
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

func loadPalette(arg string) (*spritegrid.Palette, error) {
	if p, ok := spritegrid.BuiltinPalette(arg); ok {
		return p, nil
	}

	f, err := os.Open(arg)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return spritegrid.LoadPalette(f)
}

func convert(path string, palette *spritegrid.Palette, method suggest.Method,
	opts spritegrid.Options) (result, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if *animate && strings.EqualFold(filepath.Ext(path), ".gif") {
		if palette == nil {
			return result{}, fmt.Errorf("-anim needs a fixed palette, not -suggest")
		}
		return convertAnimation(path, name, palette, opts)
	}

	input, err := os.Open(path)
	if err != nil {
		return result{}, err
	}
	img, _, err := spritegrid.DecodeImage(input)
	input.Close()
	if err != nil {
		return result{}, err
	}

	if palette == nil {
		sopts := suggest.DefaultOptions()
		sopts.Method = method
		sopts.Colors = *colors
		palette, err = suggest.Palette(img, name, sopts)
		if err != nil {
			return result{}, err
		}
	}

	grid, err := spritegrid.Quantize(img, palette, *width, *height, opts)
	if err != nil {
		return result{}, err
	}

	if *writeJSON {
		if err := writeGridJSON(filepath.Join(*outDir, name+".json"), grid, palette); err != nil {
			return result{}, err
		}
	}

	if *writePreview {
		if err := writePNG(filepath.Join(*outDir, name+".png"), grid, palette); err != nil {
			log.Println("Warning: Failed to write preview image:", err)
		}
	}

	if *frameFormat != "" {
		if err := writeFrame(filepath.Join(*outDir, name+"."+*frameFormat), grid, palette); err != nil {
			return result{}, err
		}
	}

	return result{name: name, grid: grid, palette: palette}, nil
}

// convertAnimation converts every GIF frame. The JSON output lists the
// frames with their delays, previews are numbered per frame and the frame
// file holds all frames back to back.
func convertAnimation(path, name string, palette *spritegrid.Palette,
	opts spritegrid.Options) (result, error) {
	input, err := os.Open(path)
	if err != nil {
		return result{}, err
	}
	defer input.Close()

	output := make(chan spritegrid.AnimationFrame, 10)
	errc := make(chan error, 1)
	go func() {
		errc <- spritegrid.NewQuantizer(spritegrid.DefaultCache()).EncodeAnimation(input, palette, output,
			spritegrid.AnimationOptions{
				Context: context.Background(),
				Width:   *width,
				Height:  *height,
				Workers: max(1, *workers),
				Options: opts,
			})
	}()

	var frames []spritegrid.AnimationFrame
	for frame := range output {
		frames = append(frames, frame)
	}
	if err := <-errc; err != nil {
		return result{}, err
	}

	if *writeJSON {
		if err := writeAnimationJSON(filepath.Join(*outDir, name+".json"), frames, palette); err != nil {
			return result{}, err
		}
	}

	if *writePreview {
		for _, frame := range frames {
			out := filepath.Join(*outDir, fmt.Sprintf("%s_%03d.png", name, frame.Index))
			if err := writePNG(out, frame.Grid, palette); err != nil {
				log.Println("Warning: Failed to write preview image:", err)
				break
			}
		}
	}

	if *frameFormat != "" {
		chunks := make([]*spritegrid.FrameChunk, 0, len(frames))
		for _, frame := range frames {
			chunk, err := encodeFrame(frame.Grid, palette)
			if err != nil {
				return result{}, fmt.Errorf("frame %d: %w", frame.Index, err)
			}
			chunks = append(chunks, chunk)
		}

		f, err := os.Create(filepath.Join(*outDir, name+"."+*frameFormat))
		if err != nil {
			return result{}, err
		}
		defer f.Close()

		if err := spritegrid.WriteFrames(f, chunks, strings.HasSuffix(*frameFormat, ".zst")); err != nil {
			return result{}, err
		}
	}

	log.Printf("%s: %d frame(s)", path, len(frames))

	if len(frames) == 0 {
		return result{}, nil
	}
	return result{name: name, grid: frames[0].Grid, palette: palette}, nil
}

func writeAnimationJSON(path string, frames []spritegrid.AnimationFrame, palette *spritegrid.Palette) error {
	type frameJSON struct {
		DelayMS int64                `json:"delayMs"`
		Grid    spritegrid.PixelGrid `json:"grid"`
	}

	out := make([]frameJSON, len(frames))
	for i, frame := range frames {
		out[i] = frameJSON{DelayMS: frame.Delay.Milliseconds(), Grid: frame.Grid}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(struct {
		Width   int                 `json:"width"`
		Height  int                 `json:"height"`
		Palette *spritegrid.Palette `json:"palette"`
		Frames  []frameJSON         `json:"frames"`
	}{*width, *height, palette, out})
}

func writeGridJSON(path string, grid spritegrid.PixelGrid, palette *spritegrid.Palette) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	return enc.Encode(struct {
		Width   int                  `json:"width"`
		Height  int                  `json:"height"`
		Palette *spritegrid.Palette  `json:"palette"`
		Grid    spritegrid.PixelGrid `json:"grid"`
	}{grid.Width(), grid.Height(), palette, grid})
}

func writePNG(path string, grid spritegrid.PixelGrid, palette *spritegrid.Palette) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, grid.ScaledImage(palette, *previewScale))
}

func encodeFrame(grid spritegrid.PixelGrid, palette *spritegrid.Palette) (*spritegrid.FrameChunk, error) {
	chunked, err := spritegrid.ChunkGrid(grid, palette)
	if err != nil {
		return nil, err
	}

	return spritegrid.EncodeFrame(chunked, palette,
		spritegrid.PaletteColor(strings.ToUpper(*frameBg)))
}

func writeFrame(path string, grid spritegrid.PixelGrid, palette *spritegrid.Palette) error {
	frame, err := encodeFrame(grid, palette)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.HasSuffix(path, ".zst") {
		return frame.WriteCompressed(f)
	}
	_, err = frame.WriteTo(f)
	return err
}
