// Package gif assembles rotation animations from generated PNG frames.
package gif

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
)

// Build encodes frames (PNG-encoded, in playback order) into a looping GIF.
// delayCS is the per-frame delay in centiseconds.
func Build(frames [][]byte, delayCS int) ([]byte, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames")
	}

	out := &gif.GIF{LoopCount: 0}

	for i, data := range frames {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding frame %d: %w", i, err)
		}

		bounds := img.Bounds()
		paletted := image.NewPaletted(bounds, framePalette(img))
		draw.FloydSteinberg.Draw(paletted, bounds, img, bounds.Min)

		out.Image = append(out.Image, paletted)
		out.Delay = append(out.Delay, delayCS)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("encoding gif: %w", err)
	}
	return buf.Bytes(), nil
}

// framePalette collects up to 256 distinct colors from the frame. Pixel art
// frames carry few colors, so the exact palette usually survives. Frames with
// more colors fall back to the standard Plan 9 palette.
func framePalette(img image.Image) color.Palette {
	seen := make(map[color.RGBA]struct{})
	pal := make(color.Palette, 0, 256)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == 256 {
				return palette.Plan9
			}
			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}
	return pal
}
