package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
	"facility-route-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const DefaultFacilityTTL = 5 * time.Minute

// RedisFacilityCache decorates a FacilitySource with a short-lived Redis
// cache keyed by rounded center, radius and type set.
// Redis failures degrade to the wrapped source and are only logged.
type RedisFacilityCache struct {
	next   ports.FacilitySource
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisFacilityCache(next ports.FacilitySource, client redis.UniversalClient, ttl time.Duration) *RedisFacilityCache {
	if ttl <= 0 {
		ttl = DefaultFacilityTTL
	}
	return &RedisFacilityCache{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: "facilities:",
	}
}

func (c *RedisFacilityCache) key(center domain.Coordinate, radiusMeters float64, types []domain.FacilityType) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	sort.Strings(names)

	raw := fmt.Sprintf("%.4f,%.4f|%.0f|%s", center.Lat, center.Lon, radiusMeters, strings.Join(names, ","))
	sum := sha256.Sum256([]byte(raw))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *RedisFacilityCache) FetchFacilities(
	ctx context.Context,
	center domain.Coordinate,
	radiusMeters float64,
	types []domain.FacilityType,
) ([]domain.Facility, error) {
	if len(types) == 0 {
		types = domain.AllFacilityTypes()
	}
	key := c.key(center, radiusMeters, types)

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []domain.Facility
		if jerr := json.Unmarshal(cached, &out); jerr == nil {
			obs.CacheLookups.WithLabelValues("facility", "hit").Inc()
			return out, nil
		}
		obs.Logger(ctx).Warn().Str("key", key).Msg("facility cache: dropping undecodable entry")
	case errors.Is(err, redis.Nil):
		obs.CacheLookups.WithLabelValues("facility", "miss").Inc()
	default:
		obs.CacheLookups.WithLabelValues("facility", "error").Inc()
		obs.Logger(ctx).Warn().Err(err).Msg("facility cache: get failed")
	}

	facilities, err := c.next.FetchFacilities(ctx, center, radiusMeters, types)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(facilities)
	if err != nil {
		return facilities, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		obs.Logger(ctx).Warn().Err(err).Msg("facility cache: set failed")
	}

	return facilities, nil
}
