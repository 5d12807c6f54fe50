package converter

import (
	"bytes"
	"context"
	"errors"
	"math"
	"membercard/internal/core/domain"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const MIMETypeJPEG = "image/jpeg"

// Qualities are handled as whole percent steps so repeated subtraction does not drift.
const qualityScale = 100

type JPEGCompressor struct{}

func NewJPEGCompressor() *JPEGCompressor {
	return &JPEGCompressor{}
}

// Compress decodes source, fits it into target.MaxDimensionPx on its longer side and encodes it as JPEG,
// stepping quality down while the result exceeds target.MaxBytes. Missing the byte budget at MinQuality is
// not an error: the MinQuality encoding is returned with WithinBudget set to false.
func (c *JPEGCompressor) Compress(ctx context.Context, source []byte, target domain.CompressionTarget) (
	*domain.EncodedImage, error) {
	target = normalizeTarget(target)

	img, err := imaging.Decode(bytes.NewReader(source), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &domain.DecodeError{Err: err}
	}

	bounds := img.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy(), target.MaxDimensionPx)
	if width != bounds.Dx() || height != bounds.Dy() {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	l := log.With().
		Int("sourceBytes", len(source)).
		Int("width", width).
		Int("height", height).
		Logger()

	quality := toPercent(target.InitialQuality)
	minQuality := toPercent(target.MinQuality)
	step := max(toPercent(target.QualityStep), 1)

	var buf bytes.Buffer
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		buf.Reset()
		attempts++
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, &domain.EncodeError{Err: err}
		}
		if buf.Len() == 0 {
			return nil, &domain.EncodeError{Err: errors.New("encoder produced no output")}
		}

		l.Debug().Int("quality", quality).Int("bytes", buf.Len()).Msg("encoded jpeg")

		if buf.Len() <= target.MaxBytes || quality <= minQuality {
			break
		}

		quality = max(quality-step, minQuality)
	}

	withinBudget := buf.Len() <= target.MaxBytes
	if !withinBudget {
		l.Warn().Int("bytes", buf.Len()).Int("maxBytes", target.MaxBytes).
			Msg("byte budget not reached at minimum quality, keeping result")
	}

	return &domain.EncodedImage{
		Data:         bytes.Clone(buf.Bytes()),
		MIMEType:     MIMETypeJPEG,
		Width:        width,
		Height:       height,
		Quality:      float64(quality) / qualityScale,
		Attempts:     attempts,
		WithinBudget: withinBudget,
	}, nil
}

// scaledSize returns the dimensions fitted into maxDimension on the longer side. It never upscales and
// treats degenerate sizes as 1px.
func scaledSize(width, height, maxDimension int) (int, int) {
	width = max(width, 1)
	height = max(height, 1)

	scale := math.Min(1, float64(maxDimension)/float64(max(width, height)))
	if scale >= 1 {
		return width, height
	}

	return max(int(math.Round(float64(width)*scale)), 1), max(int(math.Round(float64(height)*scale)), 1)
}

func normalizeTarget(t domain.CompressionTarget) domain.CompressionTarget {
	def := domain.DefaultCompressionTarget()

	if t.MaxDimensionPx <= 0 {
		t.MaxDimensionPx = def.MaxDimensionPx
	}
	if t.MaxBytes <= 0 {
		t.MaxBytes = def.MaxBytes
	}
	if t.InitialQuality <= 0 || t.InitialQuality > 1 {
		t.InitialQuality = def.InitialQuality
	}
	if t.QualityStep <= 0 {
		t.QualityStep = def.QualityStep
	}
	if t.MinQuality <= 0 || t.MinQuality > t.InitialQuality {
		t.MinQuality = math.Min(def.MinQuality, t.InitialQuality)
	}

	return t
}

func toPercent(q float64) int {
	return max(min(int(math.Round(q*qualityScale)), qualityScale), 1)
}
