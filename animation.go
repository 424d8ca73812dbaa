package spritegrid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"time"

	"golang.org/x/image/draw"
)

// AnimationFrame is one converted frame of an animation.
type AnimationFrame struct {
	Index int
	Delay time.Duration
	Grid  PixelGrid
}

// AnimationOptions controls EncodeAnimation.
type AnimationOptions struct {
	Context context.Context
	Width   int
	Height  int
	Workers int
	Options Options
}

func (a *AnimationOptions) validate() error {
	if a.Context == nil {
		return errors.New("spritegrid: EncodeAnimation: context must be specified")
	}
	if a.Workers < 1 {
		return errors.New("spritegrid: EncodeAnimation: workers must be at least 1")
	}
	if err := validateSize(a.Width, a.Height); err != nil {
		return err
	}
	return a.Options.validate()
}

// EncodeAnimation decodes an animated GIF from rd and converts every frame
// with p, sending the results to output in frame order. Frames are composited
// onto a full canvas first, honoring GIF disposal methods, and converted by
// opts.Workers goroutines. output is closed when EncodeAnimation returns.
func (q *Quantizer) EncodeAnimation(rd io.Reader, p *Palette, output chan<- AnimationFrame,
	opts AnimationOptions) error {
	defer close(output)

	if err := opts.validate(); err != nil {
		return err
	}

	anim, err := gif.DecodeAll(rd)
	if err != nil {
		return fmt.Errorf("spritegrid: EncodeAnimation: %w", err)
	}
	if len(anim.Image) == 0 {
		return fmt.Errorf("spritegrid: EncodeAnimation: %w", ErrEmptySourceRegion)
	}

	// Build the zone map up front so a bad palette fails before any work
	// is queued.
	if _, err := q.cache.Get(p); err != nil {
		return fmt.Errorf("spritegrid: EncodeAnimation: %w", err)
	}

	ctx, cancel := context.WithCancel(opts.Context)
	defer cancel()

	inbox := make(chan frameJob, opts.Workers*2)
	for i := 0; i < opts.Workers; i++ {
		go q.animationWorker(inbox, p, opts)
	}

	outputChan := make(chan chan frameOrError, opts.Workers*2)
	go composeToWorkerPump(ctx, anim, inbox, outputChan)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frameOutput, more := <-outputChan:
			if !more {
				return ctx.Err()
			}

			var frame frameOrError
			select {
			case frame = <-frameOutput:
			case <-ctx.Done():
				return ctx.Err()
			}
			if frame.err != nil {
				return fmt.Errorf("spritegrid: EncodeAnimation: frame %d: %w",
					frame.frame.Index, frame.err)
			}

			select {
			case output <- frame.frame:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// composeToWorkerPump renders every frame onto the canvas in order and hands
// a snapshot to the workers. The result channel of each job is queued on
// outputChan first, which keeps the output in frame order.
func composeToWorkerPump(ctx context.Context, anim *gif.GIF, inbox chan<- frameJob,
	outputChan chan<- chan frameOrError) {
	defer close(inbox)
	defer close(outputChan)

	canvas := newGIFCanvas(anim)
	for i := range anim.Image {
		img := canvas.next(i)

		frameOutput := make(chan frameOrError, 1)
		select {
		case outputChan <- frameOutput:
		case <-ctx.Done():
			return
		}

		job := frameJob{
			index:  i,
			delay:  time.Duration(delayAt(anim, i)) * 10 * time.Millisecond,
			img:    img,
			output: frameOutput,
		}
		select {
		case inbox <- job:
		case <-ctx.Done():
			return
		}
	}
}

type frameOrError struct {
	frame AnimationFrame
	err   error
}

type frameJob struct {
	index  int
	delay  time.Duration
	img    image.Image
	output chan<- frameOrError
}

func (q *Quantizer) animationWorker(inbox <-chan frameJob, p *Palette, opts AnimationOptions) {
	for job := range inbox {
		grid, err := q.Quantize(job.img, p, opts.Width, opts.Height, opts.Options)
		job.output <- frameOrError{
			frame: AnimationFrame{Index: job.index, Delay: job.delay, Grid: grid},
			err:   err,
		}
	}
}

func delayAt(anim *gif.GIF, i int) int {
	if i < len(anim.Delay) {
		return anim.Delay[i]
	}
	return 0
}

// gifCanvas replays GIF frames onto a logical screen.
type gifCanvas struct {
	anim     *gif.GIF
	screen   *image.NRGBA
	previous *image.NRGBA
	pending  byte
	lastRect image.Rectangle
}

func newGIFCanvas(anim *gif.GIF) *gifCanvas {
	bounds := image.Rect(0, 0, anim.Config.Width, anim.Config.Height)
	if bounds.Empty() {
		bounds = anim.Image[0].Bounds()
		for _, frame := range anim.Image[1:] {
			bounds = bounds.Union(frame.Bounds())
		}
	}
	return &gifCanvas{
		anim:   anim,
		screen: image.NewNRGBA(bounds),
	}
}

// next applies the disposal of the previous frame, draws frame i and returns
// a copy of the screen.
func (c *gifCanvas) next(i int) *image.NRGBA {
	switch c.pending {
	case gif.DisposalBackground:
		draw.Draw(c.screen, c.lastRect, image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		if c.previous != nil {
			copy(c.screen.Pix, c.previous.Pix)
		}
	}

	frame := c.anim.Image[i]
	c.pending = 0
	if i < len(c.anim.Disposal) {
		c.pending = c.anim.Disposal[i]
	}
	if c.pending == gif.DisposalPrevious {
		c.previous = cloneNRGBA(c.screen)
	}
	c.lastRect = frame.Bounds()

	draw.Draw(c.screen, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	return cloneNRGBA(c.screen)
}

func cloneNRGBA(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}
