package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "hermes:geocode:"

// Cache lookup results used as metric labels.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// ErrCacheMiss is returned by CachedProvider.Lookup when the address is not cached.
var ErrCacheMiss = errors.New("address is not cached")

// CachedProvider keeps successful geocoding results in Redis so repeated
// addresses never reach the upstream provider twice within the TTL.
// Redis failures are logged and the upstream provider is used instead.
type CachedProvider struct {
	next    Provider
	rdb     redis.Cmdable
	ttl     time.Duration
	log     *slog.Logger
	lookups *prometheus.CounterVec
}

// NewCachedProvider wraps next with a Redis cache. lookups may be nil.
func NewCachedProvider(
	next Provider,
	rdb redis.Cmdable,
	ttl time.Duration,
	log *slog.Logger,
	lookups *prometheus.CounterVec,
) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl, log: log, lookups: lookups}
}

// CacheKey returns the Redis key for an address. Case and spacing are ignored.
func CacheKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(normalized))

	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Lookup returns the cached coordinates of address or ErrCacheMiss.
func (cp *CachedProvider) Lookup(ctx context.Context, address string) (*models.Coordinates, error) {
	raw, err := cp.rdb.Get(ctx, CacheKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode cache: %w", err)
	}

	var coords models.Coordinates
	if err = json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("failed to decode cached coordinates: %w", err)
	}

	return &coords, nil
}

// Geocode serves address from the cache or from the wrapped provider.
func (cp *CachedProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	coords, err := cp.Lookup(ctx, address)
	switch {
	case err == nil:
		cp.observe(CacheHit)
		cp.log.DebugContext(ctx, "Geocode cache hit", "address", address)
		return coords, nil
	case errors.Is(err, ErrCacheMiss):
		cp.observe(CacheMiss)
	default:
		cp.observe(CacheError)
		cp.log.WarnContext(ctx, "Geocode cache unavailable, calling provider", "error", err)
	}

	coords, err = cp.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode coordinates: %w", err)
	}

	if err = cp.rdb.Set(ctx, CacheKey(address), payload, cp.ttl).Err(); err != nil {
		cp.log.WarnContext(ctx, "Failed to store geocode result", "address", address, "error", err)
	}

	return coords, nil
}

func (cp *CachedProvider) observe(result string) {
	if cp.lookups != nil {
		cp.lookups.WithLabelValues(result).Inc()
	}
}
