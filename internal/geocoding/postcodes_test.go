package geocoding_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnknownOlympus/hermes/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newPostcodesServer(t *testing.T, handler http.HandlerFunc) *geocoding.PostcodesProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return geocoding.NewPostcodesProviderWithClient(
		srv.Client(),
		srv.URL,
		rate.NewLimiter(rate.Inf, 1),
		slog.Default(),
	)
}

func TestPostcodesProvider_Geocode(t *testing.T) {
	t.Parallel()

	t.Run("success - full postcode", func(t *testing.T) {
		t.Parallel()
		provider := newPostcodesServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/postcodes/B5 6DY", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Contains(t, r.Header.Get("User-Agent"), "hermes-route-planner")
			_, _ = w.Write([]byte(`{"status":200,"result":{"latitude":52.4751,"longitude":-1.8833}}`))
		})

		coords, err := provider.Geocode(t.Context(), "Unit 4, Digbeth, b56dy")

		require.NoError(t, err)
		assert.InEpsilon(t, 52.4751, coords.Latitude, 1e-6)
		assert.InEpsilon(t, -1.8833, coords.Longitude, 1e-6)
	})

	t.Run("success - unknown postcode falls back to outcode", func(t *testing.T) {
		t.Parallel()
		var paths []string
		provider := newPostcodesServer(t, func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if r.URL.Path == "/outcodes/EH1" {
				_, _ = w.Write([]byte(`{"status":200,"result":{"latitude":55.9507,"longitude":-3.1872}}`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":404,"error":"Postcode not found"}`))
		})

		coords, err := provider.Geocode(t.Context(), "1 Royal Mile, Edinburgh, EH1 9ZZ")

		require.NoError(t, err)
		assert.InEpsilon(t, 55.9507, coords.Latitude, 1e-6)
		assert.Equal(t, []string{"/postcodes/EH1 9ZZ", "/outcodes/EH1"}, paths)
	})

	t.Run("error - outcode also unknown", func(t *testing.T) {
		t.Parallel()
		provider := newPostcodesServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		coords, err := provider.Geocode(t.Context(), "Somewhere, ZZ9 9ZZ")

		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrPostcodeNotFound)
	})

	t.Run("error - address without postcode", func(t *testing.T) {
		t.Parallel()
		provider := newPostcodesServer(t, func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("no request expected")
		})

		_, err := provider.Geocode(t.Context(), "The Old Barn, Little Snoring")

		require.ErrorIs(t, err, geocoding.ErrPostcodeMissing)
	})

	t.Run("error - server failure", func(t *testing.T) {
		t.Parallel()
		provider := newPostcodesServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`boom`))
		})

		_, err := provider.Geocode(t.Context(), "B1 1BT")

		require.ErrorContains(t, err, "postcodes.io API returned status 500")
	})

	t.Run("error - terminated postcode without coordinates", func(t *testing.T) {
		t.Parallel()
		provider := newPostcodesServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":200,"result":{"latitude":null,"longitude":null}}`))
		})

		_, err := provider.Geocode(t.Context(), "B1 1BT")

		require.ErrorIs(t, err, geocoding.ErrPostcodesInvalidCoords)
	})

	t.Run("error - malformed body", func(t *testing.T) {
		t.Parallel()
		provider := newPostcodesServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{`))
		})

		_, err := provider.Geocode(t.Context(), "B1 1BT")

		require.ErrorContains(t, err, "failed to decode postcodes.io response")
	})

	t.Run("error - rate limiter honours cancelled context", func(t *testing.T) {
		t.Parallel()
		provider := geocoding.NewPostcodesProviderWithClient(
			&mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Error("no request expected")
				return nil, assert.AnError
			}},
			geocoding.PostcodesBaseURL,
			rate.NewLimiter(1, 1),
			slog.Default(),
		)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := provider.Geocode(ctx, "B1 1BT")

		require.ErrorContains(t, err, "rate limit exceeded")
	})
}

func TestNewPostcodesProvider(t *testing.T) {
	require.NotNil(t, geocoding.NewPostcodesProvider(5, slog.Default()))
}
