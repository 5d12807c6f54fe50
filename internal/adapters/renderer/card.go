package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"membercard/internal/core/domain"
	"membercard/internal/core/port"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
)

const MIMETypePNG = "image/png"

const (
	DefaultWidth        = 400
	DefaultHeight       = 250
	DefaultImageTimeout = 10 * time.Second
)

const (
	profileDiameter  = 96
	profileMargin    = 12
	profileCenterY   = 0.3
	profileBorder    = 4
	glyphSize        = 48
	pillRight        = 12
	pillBottom       = 24
	pillPaddingX     = 12
	pillGap          = 4
	badgeSize        = 16
	badgeGap         = 6
	shadowOffsetY    = 4
	shadowSigma      = 4
	defaultMemberTag = "Member"
)

var (
	fallbackFill  = color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
	gradientStart = color.NRGBA{R: 0x66, G: 0x7e, B: 0xea, A: 0xff}
	gradientEnd   = color.NRGBA{R: 0x76, G: 0x4b, B: 0xa2, A: 0xff}
	profileBack   = color.NRGBA{R: 0xdb, G: 0xea, B: 0xfe, A: 0xff}
	glyphBlue     = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	birthdayBlue  = color.NRGBA{R: 0x60, G: 0xa5, B: 0xfa, A: 0xff}
	contactBlue   = color.NRGBA{R: 0x1e, G: 0x40, B: 0xaf, A: 0xff}
	white         = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black         = color.NRGBA{A: 0xff}
	shadow        = color.NRGBA{A: 0x40}
)

type Config struct {
	Width  int
	Height int
	// ImageTimeout bounds each background or profile image load.
	ImageTimeout time.Duration
}

// CardRenderer draws the downloadable membership card.
type CardRenderer struct {
	loader   port.ImageLoader
	config   Config
	typeface *typeface
}

func NewCardRenderer(loader port.ImageLoader, config Config) (*CardRenderer, error) {
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = DefaultWidth, DefaultHeight
	}
	if config.ImageTimeout <= 0 {
		config.ImageTimeout = DefaultImageTimeout
	}

	tf, err := loadTypeface()
	if err != nil {
		return nil, err
	}

	return &CardRenderer{loader: loader, config: config, typeface: tf}, nil
}

type pillStyle struct {
	size       float64
	height     float64
	background color.NRGBA
	foreground color.NRGBA
	badge      bool
}

var (
	nameStyle     = pillStyle{size: 12, height: 20, background: white, foreground: black, badge: true}
	birthdayStyle = pillStyle{size: 10, height: 16, background: birthdayBlue, foreground: white}
	contactStyle  = pillStyle{size: 12, height: 18, background: white, foreground: contactBlue}
)

type pill struct {
	text      string
	textWidth float64
	style     pillStyle
	face      font.Face
	rect      rectF
}

// Render composites background, profile photo and info pills, later layers covering earlier ones, and
// encodes the result as PNG. Images that fail to load are replaced by a gradient or a silhouette.
func (r *CardRenderer) Render(ctx context.Context, spec domain.CardRenderSpec) (*domain.RenderedCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := r.config.Width, r.config.Height
	l := log.With().Str("name", spec.DisplayName).Int("width", w).Int("height", h).Logger()

	canvas := imaging.New(w, h, fallbackFill)

	if bg := r.load(ctx, spec.BackgroundImage, "background"); bg != nil {
		canvas = imaging.Overlay(canvas, imaging.Fill(bg, w, h, imaging.Center, imaging.Lanczos), image.Pt(0, 0), 1)
	} else {
		fillGradient(canvas, gradientStart, gradientEnd)
	}

	profile := r.load(ctx, spec.ProfileImage, "profile")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pills, closeFaces, err := r.layoutPills(spec)
	if err != nil {
		return nil, &domain.RenderError{Err: err}
	}
	defer closeFaces()

	d := float64(profileDiameter)
	px := float64(w - profileDiameter - profileMargin)
	py := float64(h)*profileCenterY - d/2
	cx, cy, radius := px+d/2, py+d/2, d/2

	shadows := newSVG(w, h)
	shadows.circle(cx, cy+shadowOffsetY, radius, shadow)
	for _, p := range pills {
		shadows.pill(rectF{x: p.rect.x, y: p.rect.y + shadowOffsetY/2, w: p.rect.w, h: p.rect.h}, p.rect.h/2, shadow)
	}
	layer := image.NewNRGBA(canvas.Bounds())
	if err := shadows.drawOnto(layer); err != nil {
		return nil, &domain.RenderError{Err: err}
	}
	canvas = imaging.Overlay(canvas, imaging.Blur(layer, shadowSigma), image.Pt(0, 0), 1)

	backing := newSVG(w, h)
	backing.circle(cx, cy, radius, profileBack)
	if profile == nil {
		backing.silhouette(cx, cy, glyphSize, glyphBlue)
	}
	if err := backing.drawOnto(canvas); err != nil {
		return nil, &domain.RenderError{Err: err}
	}

	if profile != nil {
		if err := clipCircle(canvas, profile, int(px), int(py), profileDiameter); err != nil {
			return nil, &domain.RenderError{Err: err}
		}
	}

	fg := newSVG(w, h)
	fg.ring(cx, cy, radius, profileBorder, white)
	for _, p := range pills {
		fg.pill(p.rect, p.rect.h/2, p.style.background)
		if p.style.badge {
			bx, by := badgeOrigin(p)
			fg.circle(bx+badgeSize/2, by+badgeSize/2, badgeSize/2, glyphBlue)
			fg.polyline([][2]float64{
				{bx + 4.5, by + 8.5},
				{bx + 7, by + 11},
				{bx + 11.5, by + 5.5},
			}, 2, white)
		}
	}
	if err := fg.drawOnto(canvas); err != nil {
		return nil, &domain.RenderError{Err: err}
	}

	for _, p := range pills {
		drawText(canvas, p.face, p.text, p.rect.x+pillPaddingX, p.rect.y+p.rect.h/2, p.style.foreground)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, &domain.RenderError{Err: err}
	}
	if buf.Len() == 0 {
		return nil, &domain.RenderError{Err: errors.New("png encoder produced no output")}
	}

	l.Debug().Int("bytes", buf.Len()).Msg("rendered card")

	return &domain.RenderedCard{Data: buf.Bytes(), MIMEType: MIMETypePNG, Width: w, Height: h}, nil
}

// load returns nil when the reference is empty or cannot be loaded.
func (r *CardRenderer) load(ctx context.Context, ref domain.ImageRef, kind string) image.Image {
	if ref.IsZero() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.ImageTimeout)
	defer cancel()

	img, err := r.loader.Load(ctx, ref)
	if err != nil {
		log.Warn().Err(err).Str("image", kind).Msg("image failed to load, using fallback")
		return nil
	}

	return img
}

// layoutPills sizes each pill to its text and stacks them bottom-up from the bottom-right corner: name,
// birthday, phone, email. Empty optional fields are skipped.
func (r *CardRenderer) layoutPills(spec domain.CardRenderSpec) ([]pill, func(), error) {
	name := spec.DisplayName
	if name == "" {
		name = defaultMemberTag
	}

	pills := []pill{{text: name, style: nameStyle}}
	if spec.Birthday != nil {
		pills = append(pills, pill{text: domain.FormatBirthday(*spec.Birthday), style: birthdayStyle})
	}
	if spec.Phone != "" {
		pills = append(pills, pill{text: domain.FormatPhone(spec.Phone), style: contactStyle})
	}
	if spec.Email != "" {
		pills = append(pills, pill{text: spec.Email, style: contactStyle})
	}

	faces := map[float64]font.Face{}
	closeFaces := func() {
		for _, f := range faces {
			_ = f.Close()
		}
	}

	right := float64(r.config.Width - pillRight)
	bottom := float64(r.config.Height - pillBottom)

	for i := range pills {
		p := &pills[i]

		face, ok := faces[p.style.size]
		if !ok {
			var err error
			face, err = r.typeface.face(p.style.size)
			if err != nil {
				closeFaces()
				return nil, nil, err
			}
			faces[p.style.size] = face
		}
		p.face = face

		p.textWidth = measure(face, p.text)
		width := p.textWidth + 2*pillPaddingX
		if p.style.badge {
			width += badgeGap + badgeSize
		}

		p.rect = rectF{x: right - width, y: bottom - p.style.height, w: width, h: p.style.height}
		bottom = p.rect.y - pillGap
	}

	return pills, closeFaces, nil
}

func badgeOrigin(p pill) (float64, float64) {
	return p.rect.x + pillPaddingX + p.textWidth + badgeGap, p.rect.y + (p.rect.h-badgeSize)/2
}

// clipCircle draws img, cover-scaled, into the circle inscribed in the square at x, y.
func clipCircle(dst draw.Image, img image.Image, x, y, diameter int) error {
	mask, err := circleMask(diameter)
	if err != nil {
		return err
	}

	photo := imaging.Fill(img, diameter, diameter, imaging.Center, imaging.Lanczos)
	draw.DrawMask(dst, image.Rect(x, y, x+diameter, y+diameter), photo, image.Point{}, mask, image.Point{}, draw.Over)

	return nil
}
