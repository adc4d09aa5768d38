package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// Stack places b below a on a white canvas as wide as the wider image
// and returns the result as PNG.
func Stack(a, b []byte) ([]byte, error) {
	top, err := png.Decode(bytes.NewReader(a))
	if err != nil {
		return nil, fmt.Errorf("failed to decode first screenshot: %w", err)
	}
	bottom, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to decode second screenshot: %w", err)
	}

	tb, bb := top.Bounds(), bottom.Bounds()
	width := max(tb.Dx(), bb.Dx())
	canvas := image.NewRGBA(image.Rect(0, 0, width, tb.Dy()+bb.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, tb.Dx(), tb.Dy()), top, tb.Min, draw.Over)
	draw.Draw(canvas, image.Rect(0, tb.Dy(), bb.Dx(), tb.Dy()+bb.Dy()), bottom, bb.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode stacked image: %w", err)
	}
	return buf.Bytes(), nil
}
