package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"membercard/internal/core/domain"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	images map[string]image.Image
	calls  []string
}

func (f *fakeLoader) Load(_ context.Context, ref domain.ImageRef) (image.Image, error) {
	f.calls = append(f.calls, ref.URL)
	img, ok := f.images[ref.URL]
	if !ok {
		return nil, &domain.ImageLoadError{Source: ref.String(), Err: errors.New("blocked by cors")}
	}
	return img, nil
}

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
)

func newTestRenderer(t *testing.T, loader *fakeLoader) *CardRenderer {
	t.Helper()

	r, err := NewCardRenderer(loader, Config{})
	require.NoError(t, err)
	return r
}

func decodePNG(t *testing.T, card *domain.RenderedCard) image.Image {
	t.Helper()

	require.Equal(t, MIMETypePNG, card.MIMEType)
	img, err := png.Decode(bytes.NewReader(card.Data))
	require.NoError(t, err)
	return img
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func assertNear(t *testing.T, want, got color.NRGBA, tolerance int) {
	t.Helper()

	diff := func(a, b uint8) int {
		d := int(a) - int(b)
		if d < 0 {
			return -d
		}
		return d
	}
	assert.LessOrEqual(t, diff(want.R, got.R), tolerance, "red channel of %v vs %v", want, got)
	assert.LessOrEqual(t, diff(want.G, got.G), tolerance, "green channel of %v vs %v", want, got)
	assert.LessOrEqual(t, diff(want.B, got.B), tolerance, "blue channel of %v vs %v", want, got)
}

func birthday() *time.Time {
	b := time.Date(1989, time.September, 13, 0, 0, 0, 0, time.UTC)
	return &b
}

// profile slot centre for the default 400x250 canvas
const profileX, profileY = 340, 75

func TestRenderBackground(t *testing.T) {
	tests := []struct {
		name       string
		background domain.ImageRef
		want       color.NRGBA
	}{
		{
			name:       "loaded background covers canvas",
			background: domain.ImageRef{URL: "https://cdn.example/red.png"},
			want:       red,
		},
		{
			name:       "failed background falls back to gradient",
			background: domain.ImageRef{URL: "https://cdn.example/blocked.png"},
			want:       gradientStart,
		},
		{
			name:       "missing background uses gradient",
			background: domain.ImageRef{},
			want:       gradientStart,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loader := &fakeLoader{images: map[string]image.Image{
				"https://cdn.example/red.png": imaging.New(10, 10, red),
			}}

			card, err := newTestRenderer(t, loader).Render(t.Context(), domain.CardRenderSpec{
				BackgroundImage: tc.background,
				DisplayName:     "Valerie",
			})
			require.NoError(t, err)

			img := decodePNG(t, card)
			assert.Equal(t, DefaultWidth, img.Bounds().Dx())
			assert.Equal(t, DefaultHeight, img.Bounds().Dy())
			assertNear(t, tc.want, pixel(img, 2, 2), 3)
			assert.NotEqual(t, fallbackFill, pixel(img, 2, 2))
		})
	}
}

func TestRenderGradientRunsCornerToCorner(t *testing.T) {
	card, err := newTestRenderer(t, &fakeLoader{}).Render(t.Context(), domain.CardRenderSpec{})
	require.NoError(t, err)

	img := decodePNG(t, card)
	// bottom-left stays clear of the profile slot and the pills
	assertNear(t, lerp(gradientStart, gradientEnd, 0.3), pixel(img, 0, DefaultHeight-1), 6)
}

func TestRenderProfile(t *testing.T) {
	t.Run("loaded photo is clipped into the slot", func(t *testing.T) {
		loader := &fakeLoader{images: map[string]image.Image{"https://cdn.example/me.jpg": imaging.New(50, 80, green)}}

		card, err := newTestRenderer(t, loader).Render(t.Context(), domain.CardRenderSpec{
			ProfileImage: domain.ImageRef{URL: "https://cdn.example/me.jpg"},
		})
		require.NoError(t, err)

		img := decodePNG(t, card)
		assertNear(t, green, pixel(img, profileX, profileY), 2)
		// corners of the bounding square stay outside the circle
		assert.NotEqual(t, green, pixel(img, profileX-46, profileY-46))
	})

	t.Run("failed photo draws the silhouette", func(t *testing.T) {
		loader := &fakeLoader{}

		card, err := newTestRenderer(t, loader).Render(t.Context(), domain.CardRenderSpec{
			ProfileImage: domain.ImageRef{URL: "https://cdn.example/unreachable.jpg"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn.example/unreachable.jpg"}, loader.calls)

		img := decodePNG(t, card)
		// head of the glyph
		assertNear(t, glyphBlue, pixel(img, profileX, 65), 4)
		// gap between head and shoulders shows the light backing
		assertNear(t, profileBack, pixel(img, profileX, profileY), 4)
		// shoulders
		assertNear(t, glyphBlue, pixel(img, profileX, 90), 4)
	})
}

func TestRenderDeterministic(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{
		"bg":      imaging.New(40, 25, red),
		"profile": imaging.New(30, 30, green),
	}}
	r := newTestRenderer(t, loader)

	spec := domain.CardRenderSpec{
		BackgroundImage: domain.ImageRef{URL: "bg"},
		ProfileImage:    domain.ImageRef{URL: "profile"},
		DisplayName:     "Valerie Bahagia",
		Birthday:        birthday(),
		Phone:           "87798320931",
		Email:           "valeriebahagia@gmail.com",
	}

	first, err := r.Render(t.Context(), spec)
	require.NoError(t, err)
	second, err := r.Render(t.Context(), spec)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

func TestRenderCustomSize(t *testing.T) {
	r, err := NewCardRenderer(&fakeLoader{}, Config{Width: 800, Height: 500})
	require.NoError(t, err)

	card, err := r.Render(t.Context(), domain.CardRenderSpec{DisplayName: "Valerie"})
	require.NoError(t, err)

	img := decodePNG(t, card)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
	assert.Equal(t, 800, card.Width)
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := newTestRenderer(t, &fakeLoader{}).Render(ctx, domain.CardRenderSpec{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLayoutPills(t *testing.T) {
	r := newTestRenderer(t, &fakeLoader{})

	t.Run("all fields stack bottom-up", func(t *testing.T) {
		pills, closeFaces, err := r.layoutPills(domain.CardRenderSpec{
			DisplayName: "Valerie",
			Birthday:    birthday(),
			Phone:       "87798320931",
			Email:       "valeriebahagia@gmail.com",
		})
		require.NoError(t, err)
		defer closeFaces()

		require.Len(t, pills, 4)
		assert.Equal(t, "Valerie", pills[0].text)
		assert.Equal(t, "13 SEP 1989", pills[1].text)
		assert.Equal(t, "0877-9832-0931", pills[2].text)
		assert.Equal(t, "valeriebahagia@gmail.com", pills[3].text)

		assert.InDelta(t, float64(DefaultHeight-pillBottom), pills[0].rect.y+pills[0].rect.h, 0.001)
		for i := 1; i < len(pills); i++ {
			assert.InDelta(t, pills[i-1].rect.y-pillGap, pills[i].rect.y+pills[i].rect.h, 0.001)
		}
		for _, p := range pills {
			assert.InDelta(t, float64(DefaultWidth-pillRight), p.rect.x+p.rect.w, 0.001)
		}
	})

	t.Run("optional fields are skipped and name defaults", func(t *testing.T) {
		pills, closeFaces, err := r.layoutPills(domain.CardRenderSpec{})
		require.NoError(t, err)
		defer closeFaces()

		require.Len(t, pills, 1)
		assert.Equal(t, defaultMemberTag, pills[0].text)
	})

	t.Run("pill width follows text width", func(t *testing.T) {
		short, closeShort, err := r.layoutPills(domain.CardRenderSpec{DisplayName: "Al"})
		require.NoError(t, err)
		defer closeShort()
		long, closeLong, err := r.layoutPills(domain.CardRenderSpec{DisplayName: "Alexandra Wijayakusuma"})
		require.NoError(t, err)
		defer closeLong()

		assert.Greater(t, long[0].rect.w, short[0].rect.w)
		assert.InDelta(t, short[0].textWidth+2*pillPaddingX+badgeGap+badgeSize, short[0].rect.w, 0.001)
	})
}
