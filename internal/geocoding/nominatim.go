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
	"strconv"
	"strings"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// NominatimBaseURL is the public OpenStreetMap search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
// Searches are restricted to Great Britain.
type NominatimProvider struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

type nominatimResponse struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	return NewNominatimProviderWithClient(defaultHTTPClient(), log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:  client,
		baseURL: NominatimBaseURL,
		log:     log,
	}
}

// Geocode converts an address to geographic coordinates using the Nominatim API.
//
// Courier addresses are often incomplete, so progressively coarser queries are
// tried until one matches:
// 1. the full address
// 2. the postcode alone
// 3. the address without its first line
// 4. the town
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	variations := nominatimFallbacks(address)

	for idx, variation := range variations {
		coords, err := np.search(ctx, variation)
		if err == nil {
			if idx > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", address,
					"fallback", variation,
					"fallback_level", idx)
			}
			return coords, nil
		}

		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}

		np.log.DebugContext(ctx, "Address variation returned no results", "variation", variation, "fallback_level", idx)
	}

	np.log.WarnContext(ctx, "All address fallbacks exhausted", "address", address, "variations_tried", len(variations))

	return nil, ErrNominatimEmptyResponse
}

func nominatimFallbacks(address string) []string {
	if strings.TrimSpace(address) == "" {
		return []string{address}
	}

	seen := make(map[string]bool)
	variations := []string{}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	add(address)

	if postcode, _, ok := ExtractPostcode(address); ok {
		add(postcode)
	}

	parts := addressParts(address)
	if len(parts) > 1 {
		add(strings.Join(parts[1:], ", "))
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if !isPostcode(parts[i]) {
			add(parts[i])
			break
		}
	}

	return variations
}

func (np *NominatimProvider) search(ctx context.Context, query string) (*models.Coordinates, error) {
	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "gb")
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Nominatim usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
