package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/UnknownOlympus/hermes/internal/models"
	"golang.org/x/time/rate"
)

// PostcodesBaseURL is the root of the postcodes.io API.
const PostcodesBaseURL = "https://api.postcodes.io"

// PostcodesProvider geocodes by the UK postcode contained in an address.
// Full postcodes resolve to their centroid; unknown ones fall back to the
// centroid of their outward code.
type PostcodesProvider struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
	limiter *rate.Limiter
}

// Common errors for postcodes.io provider.
var (
	ErrPostcodeMissing        = errors.New("address does not contain a UK postcode")
	ErrPostcodeNotFound       = errors.New("postcodes.io does not know the postcode")
	ErrPostcodesInvalidCoords = errors.New("postcodes.io returned no coordinates")
)

type postcodesResponse struct {
	Status int `json:"status"`
	Result *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"result"`
	Error string `json:"error"`
}

// NewPostcodesProvider creates a postcodes.io provider allowing rateLimit requests per second.
func NewPostcodesProvider(rateLimit int, log *slog.Logger) *PostcodesProvider {
	return NewPostcodesProviderWithClient(
		defaultHTTPClient(),
		PostcodesBaseURL,
		rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log,
	)
}

// NewPostcodesProviderWithClient allows injecting a custom HTTP client, endpoint and limiter.
func NewPostcodesProviderWithClient(
	client HTTPClient,
	baseURL string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *PostcodesProvider {
	return &PostcodesProvider{
		client:  client,
		baseURL: baseURL,
		log:     log,
		limiter: limiter,
	}
}

// Geocode extracts the postcode from address and looks it up.
func (pp *PostcodesProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	postcode, outcode, ok := ExtractPostcode(address)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPostcodeMissing, address)
	}

	pp.log.DebugContext(ctx, "Geocoding using postcodes.io", "postcode", postcode)

	coords, err := pp.lookup(ctx, "/postcodes/"+url.PathEscape(postcode))
	if !errors.Is(err, ErrPostcodeNotFound) {
		return coords, err
	}

	// Terminated or mistyped postcodes still carry a usable district.
	pp.log.InfoContext(ctx, "Postcode not found, using outward code", "postcode", postcode, "outcode", outcode)

	return pp.lookup(ctx, "/outcodes/"+url.PathEscape(outcode))
}

func (pp *PostcodesProvider) lookup(ctx context.Context, path string) (*models.Coordinates, error) {
	if err := pp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pp.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := pp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrPostcodeNotFound
	default:
		pp.log.ErrorContext(ctx, "postcodes.io API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("postcodes.io API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result postcodesResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode postcodes.io response: %w", err)
	}

	if result.Result == nil || result.Result.Latitude == nil || result.Result.Longitude == nil {
		return nil, ErrPostcodesInvalidCoords
	}

	return &models.Coordinates{
		Latitude:  *result.Result.Latitude,
		Longitude: *result.Result.Longitude,
	}, nil
}
