package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"membercard/internal/core/domain"
	"net/http"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// MaxDownloadBytes caps a single download; photos from phones stay well below it.
const MaxDownloadBytes = 32 << 20

// Downloader fetches remote files over HTTP.
type Downloader struct {
	client *http.Client
}

func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{}
	}

	return &Downloader{client: client}
}

// Download returns the byte content of a file on a provided URL.
func (d *Downloader) Download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Str("path", redact(path)).Send()
		return nil, err
	}

	res, err := d.client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Str("path", redact(path)).Send()
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Str("path", redact(path)).Send()
		return nil, err
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, MaxDownloadBytes+1))
	if err != nil {
		err = fmt.Errorf("error reading response %w", err)
		log.Error().Err(err).Str("path", redact(path)).Send()
		return nil, err
	}

	if len(buf) > MaxDownloadBytes {
		err = fmt.Errorf("download exceeds %d bytes", MaxDownloadBytes)
		log.Error().Err(err).Str("path", redact(path)).Send()
		return nil, err
	}

	return buf, nil
}

// Loader resolves domain.ImageRef values into decoded images. It understands inline bytes, data: URLs and
// http(s) URLs.
type Loader struct {
	downloader *Downloader
}

func NewLoader(downloader *Downloader) *Loader {
	return &Loader{downloader: downloader}
}

func (l *Loader) Load(ctx context.Context, ref domain.ImageRef) (image.Image, error) {
	data, err := l.read(ctx, ref)
	if err != nil {
		return nil, &domain.ImageLoadError{Source: ref.String(), Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &domain.ImageLoadError{Source: ref.String(), Err: err}
	}

	return img, nil
}

func (l *Loader) read(ctx context.Context, ref domain.ImageRef) ([]byte, error) {
	switch {
	case len(ref.Data) > 0:
		return ref.Data, nil
	case strings.HasPrefix(ref.URL, "data:"):
		return decodeDataURL(ref.URL)
	case ref.URL != "":
		return l.downloader.Download(ctx, ref.URL)
	default:
		return nil, errors.New("empty image reference")
	}
}

func decodeDataURL(u string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}

	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}

	return []byte(s), nil
}

// redact drops query strings and bot tokens in file paths from log output.
func redact(path string) string {
	u, err := url.Parse(path)
	if err != nil {
		return "<invalid url>"
	}

	if strings.HasPrefix(u.Path, "/file/bot") {
		return u.Scheme + "://" + u.Host + "/file/bot<redacted>"
	}

	u.RawQuery = ""
	return u.String()
}
