// Package geocoding resolves UK order addresses into coordinates.
package geocoding

import (
	"context"
	"net/http"
	"time"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context and an address string as input,
// and returns the corresponding coordinates and an error if any occurs.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// userAgent identifies hermes to public APIs that require contact details.
const userAgent = "hermes-route-planner/1.0 (https://github.com/UnknownOlympus/hermes)"

const requestTimeout = 10 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
