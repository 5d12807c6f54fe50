package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// svgDoc collects shapes in canvas pixel coordinates and rasterises them in one pass.
type svgDoc struct {
	width, height int
	body          strings.Builder
}

func newSVG(width, height int) *svgDoc {
	return &svgDoc{width: width, height: height}
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (d *svgDoc) circle(cx, cy, r float64, fill color.NRGBA) {
	fmt.Fprintf(&d.body, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="%.3f"/>`,
		cx, cy, r, hexColor(fill), float64(fill.A)/0xff)
}

func (d *svgDoc) ring(cx, cy, r, strokeWidth float64, stroke color.NRGBA) {
	fmt.Fprintf(&d.body, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`,
		cx, cy, r, hexColor(stroke), strokeWidth)
}

// pill draws a rounded rectangle whose corner radius is clamped to half its height.
func (d *svgDoc) pill(rect rectF, radius float64, fill color.NRGBA) {
	radius = min(radius, rect.h/2, rect.w/2)
	fmt.Fprintf(&d.body,
		`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" ry="%.2f" fill="%s" fill-opacity="%.3f"/>`,
		rect.x, rect.y, rect.w, rect.h, radius, radius, hexColor(fill), float64(fill.A)/0xff)
}

func (d *svgDoc) path(def string, fill color.NRGBA) {
	fmt.Fprintf(&d.body, `<path d="%s" fill="%s"/>`, def, hexColor(fill))
}

func (d *svgDoc) polyline(points [][2]float64, strokeWidth float64, stroke color.NRGBA) {
	var def strings.Builder
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&def, "%s %.2f %.2f ", cmd, p[0], p[1])
	}
	fmt.Fprintf(&d.body,
		`<path d="%s" fill="none" stroke="%s" stroke-width="%.2f" stroke-linecap="round" stroke-linejoin="round"/>`,
		strings.TrimSpace(def.String()), hexColor(stroke), strokeWidth)
}

func (d *svgDoc) String() string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">%s</svg>`,
		d.width, d.height, d.width, d.height, d.body.String())
}

// drawOnto composites the document over dst, which must cover the document's coordinate space.
func (d *svgDoc) drawOnto(dst draw.Image) error {
	icon, err := oksvg.ReadIconStream(strings.NewReader(d.String()))
	if err != nil {
		return fmt.Errorf("failed to parse card svg: %w", err)
	}

	icon.SetTarget(0, 0, float64(d.width), float64(d.height))

	scanner := rasterx.NewScannerGV(d.width, d.height, dst, dst.Bounds())
	raster := rasterx.NewDasher(d.width, d.height, scanner)
	icon.Draw(raster, 1.0)

	return nil
}

// circleMask returns an anti-aliased disc of the given diameter for clipping.
func circleMask(diameter int) (*image.Alpha, error) {
	mask := image.NewAlpha(image.Rect(0, 0, diameter, diameter))
	doc := newSVG(diameter, diameter)
	r := float64(diameter) / 2
	doc.circle(r, r, r, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	if err := doc.drawOnto(mask); err != nil {
		return nil, err
	}

	return mask, nil
}

// silhouette adds the default profile glyph (head and shoulders) centred at cx, cy with the given size.
func (d *svgDoc) silhouette(cx, cy, size float64, fill color.NRGBA) {
	// glyph is laid out on a 20x20 grid
	s := size / 20
	ox, oy := cx-size/2, cy-size/2

	d.circle(ox+10*s, oy+6*s, 3*s, fill)
	d.path(fmt.Sprintf("M %.2f %.2f A %.2f %.2f 0 1 1 %.2f %.2f Z",
		ox+3*s, oy+18*s, 7*s, 7*s, ox+17*s, oy+18*s), fill)
}

type rectF struct {
	x, y, w, h float64
}

// fillGradient paints a two-stop linear gradient from the top-left to the bottom-right corner.
func fillGradient(dst *image.NRGBA, from, to color.NRGBA) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	denom := w*w + h*h

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := (float64(x-b.Min.X)*w + float64(y-b.Min.Y)*h) / denom
			dst.SetNRGBA(x, y, lerp(from, to, min(max(t, 0), 1)))
		}
	}
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}

	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
