package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// typeface holds the parsed font; faces are cut per render since a font.Face is not safe for
// concurrent use.
type typeface struct {
	font *opentype.Font
}

func loadTypeface() (*typeface, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse card font: %w", err)
	}

	return &typeface{font: f}, nil
}

func (t *typeface) face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %.0fpt face: %w", size, err)
	}

	return face, nil
}

func measure(face font.Face, text string) float64 {
	return float64(font.MeasureString(face, text).Ceil())
}

// drawText draws text with its left edge at x, vertically centred on cy.
func drawText(dst draw.Image, face font.Face, text string, x, cy float64, c color.NRGBA) {
	m := face.Metrics()
	baseline := cy + float64(m.Ascent.Ceil()-m.Descent.Ceil())/2

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(int(x+0.5), int(baseline+0.5)),
	}
	d.DrawString(text)
}
