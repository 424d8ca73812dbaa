package suggest

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/1lann/imagequant"
	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

func dominantColors(img image.Image, k int) []colorful.Color {
	found := dominantcolor.FindWeight(img, k)
	out := make([]colorful.Color, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, col)
	}
	return out
}

const maxKMeansSamples = 12000

func kmeansColors(img image.Image, k int) ([]colorful.Color, error) {
	b := img.Bounds()

	step := 1
	if b.Dx()*b.Dy() > maxKMeansSamples {
		step = int(math.Sqrt(float64(b.Dx()*b.Dy())/maxKMeansSamples)) + 1
	}

	var dataset clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < 128 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255,
				float64(c.G) / 255,
				float64(c.B) / 255,
			})
		}
	}
	if len(dataset) == 0 {
		return nil, nil
	}

	k = min(k, len(dataset))
	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return nil, fmt.Errorf("suggest: kmeans: %s", err.Error())
	}

	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	out := make([]colorful.Color, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		out = append(out, colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]})
	}
	return out, nil
}

func imagequantColors(img image.Image, k int, speed int) ([]colorful.Color, error) {
	attr, err := imagequant.NewAttributes()
	if err != nil {
		return nil, fmt.Errorf("suggest: NewAttributes: %s", err.Error())
	}
	defer attr.Release()

	if err := attr.SetSpeed(speed); err != nil {
		return nil, fmt.Errorf("suggest: SetSpeed: %s", err.Error())
	}
	if err := attr.SetMaxColors(k); err != nil {
		return nil, fmt.Errorf("suggest: SetMaxColors: %s", err.Error())
	}

	quant, err := imagequant.NewImage(attr, imagequant.GoImageToRgba32(img),
		img.Bounds().Dx(), img.Bounds().Dy(), 0)
	if err != nil {
		return nil, fmt.Errorf("suggest: NewImage: %s", err.Error())
	}
	defer quant.Release()

	res, err := quant.Quantize(attr)
	if err != nil {
		return nil, fmt.Errorf("suggest: Quantize: %s", err.Error())
	}
	defer res.Release()

	var out []colorful.Color
	for _, c := range res.GetPalette() {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		if n.A < 128 {
			continue
		}
		col, _ := colorful.MakeColor(color.NRGBA{R: n.R, G: n.G, B: n.B, A: 255})
		out = append(out, col)
	}
	return out, nil
}
