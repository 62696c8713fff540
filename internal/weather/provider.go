package weather

import (
	"context"
	"time"
)

// RawResponse is an upstream reply as received: status code and body bytes.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Upstream abstracts the weather provider's HTTP API. Implementations return
// an error only for transport-level failures; any HTTP status, successful or
// not, comes back in the RawResponse.
type Upstream interface {
	FetchCurrentByCity(ctx context.Context, city, apiKey string) (RawResponse, error)
	FetchCurrentByCoordinates(ctx context.Context, lat, lon float64, apiKey string) (RawResponse, error)
	FetchForecastByCity(ctx context.Context, city, apiKey string) (RawResponse, error)
}

// Cache is the contract the Service needs from a cache store.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V, ttl time.Duration)
}
