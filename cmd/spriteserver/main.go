package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/tmpim/spritegrid"
	"github.com/tmpim/spritegrid/api"
)

var (
	addr    = flag.String("addr", ":9999", "set the listen address")
	debug   = flag.Bool("debug", false, "log pipeline diagnostics")
	prewarm = flag.Bool("prewarm", true, "partition the built-in palettes at startup")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	spritegrid.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	quant := spritegrid.NewQuantizer(nil)

	if *prewarm {
		for _, id := range spritegrid.BuiltinPaletteIDs() {
			p, _ := spritegrid.BuiltinPalette(id)
			if err := quant.Cache().Warm(p); err != nil {
				log.Fatal("spritegrid server: failed to partition palette ", id, ": ", err)
			}
		}
		log.Println("spritegrid server: palettes ready:", quant.Cache().Len())
	}

	e := api.NewServer(quant).Echo()
	log.Fatal(e.Start(*addr))
}
