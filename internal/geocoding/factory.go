package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypePostcodes represents the postcodes.io lookup.
	ProviderTypePostcodes ProviderType = "postcodes"
)

const defaultPostcodesRateLimit = 5

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key (used by Google provider)
	RateLimit int          // Requests per second (Google and postcodes.io)
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates a geocoding provider based on the provided configuration.
//
// Supported provider types:
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
// - "postcodes": postcodes.io (free, needs a postcode in every address)
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return NewNominatimProvider(config.Logger), nil
	case ProviderTypePostcodes:
		return newPostcodesProvider(config), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

func newPostcodesProvider(config ProviderConfig) Provider {
	if config.RateLimit <= 0 {
		config.RateLimit = defaultPostcodesRateLimit
		config.Logger.Warn("Rate limit for postcodes.io not set, using default", "value", config.RateLimit)
	}

	return NewPostcodesProvider(config.RateLimit, config.Logger)
}
