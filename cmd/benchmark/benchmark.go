package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tmpim/spritegrid"
)

var (
	workers    = flag.Int("workers", 8, "set the number of concurrent converters")
	iterations = flag.Int("n", 100, "set the conversions per worker")
	size       = flag.Int("size", 32, "set the grid width and height")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		panic("must have path to image")
	}
	if *size%2 != 0 || *size < 4 {
		panic("size must be even and at least 4")
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		panic(err)
	}

	img, _, err := spritegrid.DecodeImage(f)
	f.Close()
	if err != nil {
		panic(err)
	}

	quant := spritegrid.NewQuantizer(nil)
	opts := spritegrid.DefaultOptions()

	wg := new(sync.WaitGroup)
	start := time.Now()

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < *iterations; i++ {
				grid, err := quant.Quantize(img, spritegrid.PaletteCC, *size, *size, opts)
				if err != nil {
					panic(err)
				}

				chunked, err := spritegrid.ChunkGrid(grid[:*size/3*3], spritegrid.PaletteCC)
				if err != nil {
					panic(err)
				}

				if _, err := spritegrid.EncodeFrame(chunked, spritegrid.PaletteCC, "BLACK"); err != nil {
					panic(err)
				}
			}
		}()
	}

	wg.Wait()
	total := *workers * *iterations
	fmt.Println("took:", time.Since(start), "conversions:", total,
		"per conversion:", time.Since(start)/time.Duration(total),
		"cached palettes:", quant.Cache().Len())
}
