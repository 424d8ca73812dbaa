package spritegrid

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/klauspost/compress/zstd"
)

// FrameRow is one row of text cells in a blit frame.
type FrameRow struct {
	Text      []byte
	TextColor []byte
	BgColor   []byte
}

// WriteTo writes the row as text, then text colors, then background colors.
func (f *FrameRow) WriteTo(wr io.Writer) (int64, error) {
	var total int64
	for _, part := range [][]byte{f.Text, f.TextColor, f.BgColor} {
		n, err := wr.Write(part)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// FrameChunk is a ComputerCraft blit frame: a grid of text cells plus the
// palette they index.
type FrameChunk struct {
	Width  int
	Height int

	Rows []FrameRow

	Palette [16]color.RGBA
}

// WriteTo writes the frame as big endian uint16 width and height, the rows,
// and 16 RGB palette triples.
func (f *FrameChunk) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	wr := bufio.NewWriter(cw)

	binary.Write(wr, binary.BigEndian, uint16(f.Width))
	binary.Write(wr, binary.BigEndian, uint16(f.Height))

	for i := range f.Rows {
		f.Rows[i].WriteTo(wr)
	}

	for _, col := range f.Palette {
		wr.Write([]byte{col.R, col.G, col.B})
	}

	err := wr.Flush()
	return cw.n, err
}

// ReadFrameChunk reads a frame written by WriteTo.
func ReadFrameChunk(rd io.Reader) (*FrameChunk, error) {
	var size [2]uint16
	if err := binary.Read(rd, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("spritegrid: ReadFrameChunk: header: %w", err)
	}

	f := &FrameChunk{
		Width:  int(size[0]),
		Height: int(size[1]),
		Rows:   make([]FrameRow, size[1]),
	}

	for i := range f.Rows {
		buf := make([]byte, 3*f.Width)
		if _, err := io.ReadFull(rd, buf); err != nil {
			return nil, fmt.Errorf("spritegrid: ReadFrameChunk: row %d: %w", i, unexpectedEOF(err))
		}
		f.Rows[i] = FrameRow{
			Text:      buf[:f.Width],
			TextColor: buf[f.Width : 2*f.Width],
			BgColor:   buf[2*f.Width:],
		}
	}

	var pal [48]byte
	if _, err := io.ReadFull(rd, pal[:]); err != nil {
		return nil, fmt.Errorf("spritegrid: ReadFrameChunk: palette: %w", unexpectedEOF(err))
	}
	for i := range f.Palette {
		f.Palette[i] = color.RGBA{R: pal[i*3], G: pal[i*3+1], B: pal[i*3+2], A: 255}
	}

	return f, nil
}

// unexpectedEOF keeps io.EOF reserved for a stream that ends between frames.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// WriteCompressed writes the frame zstd compressed.
func (f *FrameChunk) WriteCompressed(w io.Writer) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}

	if _, err := f.WriteTo(enc); err != nil {
		enc.Close()
		return err
	}

	return enc.Close()
}

// ReadCompressedFrameChunk reads a frame written by WriteCompressed.
func ReadCompressedFrameChunk(rd io.Reader) (*FrameChunk, error) {
	dec, err := zstd.NewReader(rd)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	f, err := ReadFrameChunk(dec)
	if err != nil {
		return nil, err
	}

	var extra [1]byte
	if n, _ := dec.Read(extra[:]); n != 0 {
		return nil, errors.New("spritegrid: ReadCompressedFrameChunk: trailing data")
	}

	return f, nil
}

// WriteFrames writes frames back to back, as one zstd stream when compress
// is set.
func WriteFrames(w io.Writer, frames []*FrameChunk, compress bool) error {
	if !compress {
		for _, f := range frames {
			if _, err := f.WriteTo(w); err != nil {
				return err
			}
		}
		return nil
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return err
	}
	for _, f := range frames {
		if _, err := f.WriteTo(enc); err != nil {
			enc.Close()
			return err
		}
	}
	return enc.Close()
}

// ReadFrames reads frames written by WriteFrames until the end of the
// stream.
func ReadFrames(rd io.Reader, compressed bool) ([]*FrameChunk, error) {
	if compressed {
		dec, err := zstd.NewReader(rd)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		rd = dec
	}

	var frames []*FrameChunk
	for {
		f, err := ReadFrameChunk(rd)
		if errors.Is(err, io.EOF) {
			return frames, nil
		} else if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
