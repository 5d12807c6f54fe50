package port

import (
	"context"
	"image"
	"membercard/internal/core/domain"
)

type ImageCompressor interface {
	// Compress downscales and re-encodes the source to JPEG, lowering quality until the byte budget of the
	// target is met or its minimum quality is reached.
	Compress(ctx context.Context, source []byte, target domain.CompressionTarget) (*domain.EncodedImage, error)
}

type CardRenderer interface {
	// Render composites the card described by spec and returns it as PNG.
	Render(ctx context.Context, spec domain.CardRenderSpec) (*domain.RenderedCard, error)
}

type ImageLoader interface {
	// Load fetches and decodes the referenced image. Failures are *domain.ImageLoadError.
	Load(ctx context.Context, ref domain.ImageRef) (image.Image, error)
}

type FileDownloader interface {
	// Download returns the raw bytes behind a URL.
	Download(ctx context.Context, url string) ([]byte, error)
}
