// Package pixmap encodes accumulated samples as display images.
package pixmap

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"row-major/pathtracer/camera"
	"row-major/pathtracer/sampledb"
)

// WritePPM writes db as a plain-text (P3) portable pixmap.
func WritePPM(w io.Writer, db *sampledb.SampleDB) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", db.ColSize, db.RowSize); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	for r := 0; r < db.RowSize; r++ {
		for c := 0; c < db.ColSize; c++ {
			px := camera.Quantize(db.ReadSample(r, c).Mean())
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", px[0], px[1], px[2]); err != nil {
				return fmt.Errorf("while writing pixel (%d, %d): %w", r, c, err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing output: %w", err)
	}
	return nil
}

// Image converts db to an in-memory image.
func Image(db *sampledb.SampleDB) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, db.ColSize, db.RowSize))
	for r := 0; r < db.RowSize; r++ {
		for c := 0; c < db.ColSize; c++ {
			px := camera.Quantize(db.ReadSample(r, c).Mean())
			img.SetRGBA(c, r, color.RGBA{R: px[0], G: px[1], B: px[2], A: 255})
		}
	}
	return img
}

func WritePNG(w io.Writer, db *sampledb.SampleDB) error {
	if err := png.Encode(w, Image(db)); err != nil {
		return fmt.Errorf("while encoding png: %w", err)
	}
	return nil
}
