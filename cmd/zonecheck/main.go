package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/tmpim/spritegrid"
)

var (
	profile   = flag.String("cpuprofile", "", "write a CPU profile to this file")
	mergeSpan = flag.Int("merge", spritegrid.DefaultMergeSpan, "set the hue merge span in degrees")
	maxPasses = flag.Int("passes", spritegrid.DefaultMaxPasses, "set the expansion pass cap")
	step      = flag.Float64("step", 0.5, "set the hue and luminance sweep step")
)

// zonecheck builds the zone map of each palette, validates it and sweeps the
// whole hue/luminance plane through the classifier. Arguments are built-in
// palette IDs or paths to JSON palettes. With no arguments every built-in
// palette is checked.
func main() {
	flag.Parse()
	log.SetFlags(0)

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) == 0 {
		args = spritegrid.BuiltinPaletteIDs()
	}

	failed := 0
	for _, arg := range args {
		if !check(arg) {
			failed++
		}
	}

	log.Printf("Checked %d palette(s), %d failed.", len(args), failed)
	if failed > 0 {
		pprof.StopCPUProfile()
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

func check(arg string) bool {
	start := time.Now()

	p, err := loadPalette(arg)
	if err != nil {
		log.Println(arg+": failed to load palette:", err)
		return false
	}

	log.Println(arg+": load:", time.Since(start))

	zm, err := spritegrid.BuildZoneMap(p, spritegrid.PartitionOptions{
		MergeSpan: *mergeSpan,
		MaxPasses: *maxPasses,
	})
	if err != nil {
		log.Println(arg+": failed to build zone map:", err)
		return false
	}

	log.Println(arg+": build:", time.Since(start))

	ok := true
	if err := zm.Validate(); err != nil {
		log.Println(arg+": invalid zone map:", err)
		ok = false
	}

	c := spritegrid.NewClassifier(zm, spritegrid.DefaultAlphaThreshold)

	// Entries classify as themselves unless an earlier entry rounds to the
	// same hue and luminance.
	for _, e := range p.Entries() {
		got, err := c.ClassifyRGB(e.Color.R, e.Color.G, e.Color.B)
		switch {
		case err != nil:
			log.Printf("%s: %s: %v", arg, e.Name, err)
			ok = false
		case got != e.Name:
			log.Printf("%s: %s (%s) classifies as %s", arg, e.Name, spritegrid.RGBAToHex(e.Color), got)
		}
	}

	misses := 0
	for h := 0.0; h < 360; h += *step {
		for l := 0.0; l <= 100; l += *step {
			if _, err := c.ClassifyHSL(h, l); err != nil {
				if misses == 0 {
					log.Printf("%s: hsl(%.2f, %.2f): %v", arg, h, l, err)
				}
				misses++
			}
		}
	}
	if misses > 0 {
		log.Printf("%s: %d sweep point(s) unclassified", arg, misses)
		ok = false
	}

	log.Println(arg+": [complete] sweep:", time.Since(start))

	fmt.Printf("%-12s zones=%-3d hue_passes=%-3d luminance_passes=%-3d converged=%t ok=%t\n",
		p.ID(), len(zm.Zones), zm.HuePasses, zm.LuminancePasses, zm.Converged, ok)
	return ok
}
