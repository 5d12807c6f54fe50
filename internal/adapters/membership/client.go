package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"membercard/internal/core/domain"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout = 30 * time.Second

	apiKeyHeader    = "X-BOGAMBC-Key"
	requestIDHeader = "X-Request-ID"
	designsPath     = "/membership-card"
	createPath      = "/membership"
)

// Client provides a wrapper for the remote membership API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type cardDesignResponse struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

type createResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Data    *domain.Membership `json:"data"`
}

func (c *Client) ListCardDesigns(ctx context.Context) ([]domain.CardDesign, error) {
	body, err := c.do(ctx, http.MethodGet, designsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("card design request failed: %w", err)
	}

	var result []cardDesignResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling card designs: %w", err)
	}

	designs := make([]domain.CardDesign, 0, len(result))
	for i, card := range result {
		name := card.Title
		if name == "" {
			name = nameFromURL(card.Image)
		}

		designs = append(designs, domain.CardDesign{
			ID:       i + 1,
			Name:     name,
			ImageURL: card.Image,
			Tier:     "basic",
		})
	}

	log.Debug().Int("count", len(designs)).Msg("loaded card designs")

	return designs, nil
}

func (c *Client) CreateMembership(ctx context.Context, req domain.MembershipRequest) (*domain.Membership, error) {
	if req.Name == "" {
		return nil, domain.ErrMissingName
	}

	payloadBuf := new(bytes.Buffer)
	if err := json.NewEncoder(payloadBuf).Encode(req); err != nil {
		return nil, fmt.Errorf("error encoding membership request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, createPath, payloadBuf)
	if err != nil {
		return nil, fmt.Errorf("membership request failed: %w", err)
	}

	var result createResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling membership response: %w", err)
	}

	if result.Data == nil {
		return nil, fmt.Errorf("membership response without data: %s", result.Message)
	}

	log.Info().Str("serial", result.Data.Serial).Str("tier", result.Data.TierTitle).
		Int("coupons", len(result.Data.Coupons)).Msg("membership created")

	return result.Data, nil
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("error creating membership api request")
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("error generating request id: %w", err)
	}

	req.Header.Add(apiKeyHeader, c.apiKey)
	req.Header.Add(requestIDHeader, id.String())
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Cache-Control", "no-store")
	if payload != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	l := log.With().Str("requestId", id.String()).Str("method", method).Str("path", path).Logger()
	l.Debug().Msg("calling membership api")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing membership api request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading membership api response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		l.Warn().Int("status", res.StatusCode).Str("message", apiErr.Message).Msg("membership api error")

		if apiErr.Message != "" {
			return nil, fmt.Errorf("request failed: %d: %s", res.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("request failed: %d", res.StatusCode)
	}

	if len(body) == 0 {
		return nil, errors.New("empty membership api response")
	}

	return body, nil
}

func nameFromURL(url string) string {
	lower := strings.ToLower(url)

	switch {
	case strings.Contains(lower, "japanese"), strings.Contains(lower, "japan"):
		return "JAPANESE"
	case strings.Contains(lower, "colorful"), strings.Contains(lower, "color"):
		return "COLORFULL"
	case strings.Contains(lower, "natural"), strings.Contains(lower, "nature"):
		return "NATURAL"
	default:
		return "CARD"
	}
}

// DefaultDesigns is the catalogue offered when the remote one cannot be fetched.
func DefaultDesigns() []domain.CardDesign {
	names := []string{"JAPANESE", "COLORFULL", "NATURAL", "MODERN", "CLASSIC"}

	designs := make([]domain.CardDesign, len(names))
	for i, name := range names {
		designs[i] = domain.CardDesign{ID: i + 1, Name: name, Tier: "basic"}
	}

	return designs
}
