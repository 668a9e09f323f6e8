package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/hermes/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider geocodes through the Google Maps Geocoding API, biased to the UK.
type GoogleProvider struct {
	client GoogleAPIClient
	log    *slog.Logger
}

// GoogleAPIClient is the subset of *maps.Client used by GoogleProvider.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider wraps an already configured Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// GoogleRequest builds the geocoding request sent for an address.
func GoogleRequest(address string) *maps.GeocodingRequest {
	return &maps.GeocodingRequest{
		Address:    address,
		Region:     "uk",
		Components: map[maps.Component]string{maps.ComponentCountry: "GB"},
	}
}

// Geocode returns the location of the best match for address.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	results, err := gp.client.Geocode(ctx, GoogleRequest(address))
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}
	location := results[0].Geometry.Location

	return &models.Coordinates{Longitude: location.Lng, Latitude: location.Lat}, nil
}
