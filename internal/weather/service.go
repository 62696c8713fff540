package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const (
	// CurrentTTL is how long current conditions stay cached.
	CurrentTTL = 10 * time.Minute
	// ForecastTTL is how long forecasts stay cached.
	ForecastTTL = 30 * time.Minute
)

// outcome is what a failed upstream exchange turns into at the Service boundary.
type outcome int

const (
	outcomeNoData outcome = iota
	outcomeUnavailable
)

// failurePolicy maps each failure source of an upstream exchange to an outcome.
type failurePolicy struct {
	notFound   outcome // HTTP 404
	nonSuccess outcome // any other non-2xx status
	transport  outcome // connection error, timeout, open breaker
	decode     outcome // body does not match the expected schema
}

// The three lookups deliberately disagree on non-success statuses; see
// TestFailureClassificationAsymmetry before changing any of these.
var (
	currentByCityPolicy = failurePolicy{
		notFound:   outcomeNoData,
		nonSuccess: outcomeNoData,
		transport:  outcomeUnavailable,
		decode:     outcomeUnavailable,
	}
	currentByCoordinatesPolicy = failurePolicy{
		notFound:   outcomeUnavailable,
		nonSuccess: outcomeUnavailable,
		transport:  outcomeUnavailable,
		decode:     outcomeUnavailable,
	}
	forecastPolicy = failurePolicy{
		notFound:   outcomeNoData,
		nonSuccess: outcomeNoData,
		transport:  outcomeNoData,
		decode:     outcomeNoData,
	}
)

// Service is the cache-aside retriever in front of the weather upstream.
type Service struct {
	upstream  Upstream
	apiKey    string
	currents  Cache[CurrentWeather]
	forecasts Cache[Forecast]
	log       logrus.FieldLogger

	// Optional behaviour, nil when disabled.
	group   *singleflight.Group
	missing *gocache.Cache

	hits          *atomic.Int64
	misses        *atomic.Int64
	upstreamCalls *atomic.Int64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the Service.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithCoalescing makes concurrent misses on the same key share a single
// upstream call instead of each issuing their own.
func WithCoalescing() Option {
	return func(s *Service) {
		s.group = &singleflight.Group{}
	}
}

// WithNegativeCaching remembers cities the upstream reported as unknown for
// ttl, answering repeated lookups with no data without calling upstream.
// A ttl <= 0 leaves negative caching disabled.
func WithNegativeCaching(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl <= 0 {
			return
		}
		s.missing = gocache.New(ttl, 2*ttl)
	}
}

// NewService creates a new Service. currents and forecasts may be the same
// underlying store type; keys never collide across the two.
func NewService(upstream Upstream, apiKey string, currents Cache[CurrentWeather], forecasts Cache[Forecast], opts ...Option) *Service {
	s := &Service{
		upstream:      upstream,
		apiKey:        apiKey,
		currents:      currents,
		forecasts:     forecasts,
		log:           logrus.StandardLogger(),
		hits:          atomic.NewInt64(0),
		misses:        atomic.NewInt64(0),
		upstreamCalls: atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCurrentByCity returns current conditions for city. A nil result with a
// nil error means the upstream has no data for it.
func (s *Service) GetCurrentByCity(ctx context.Context, city string) (*CurrentWeather, error) {
	l := s.currentByCity(city)
	l.log.Info("fetching current weather")

	w, cached, err := retrieve(ctx, s, l)
	if w == nil || err != nil {
		return nil, err
	}
	w.FromCache = cached
	return w, nil
}

// GetCurrentByCoordinates returns current conditions at lat/lon. Unlike the
// by-city lookup, every upstream failure is reported as ErrUpstreamUnavailable.
func (s *Service) GetCurrentByCoordinates(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	l := s.currentByCoordinates(lat, lon)
	l.log.Info("fetching current weather for coordinates")

	w, cached, err := retrieve(ctx, s, l)
	if w == nil || err != nil {
		return nil, err
	}
	w.FromCache = cached
	return w, nil
}

// GetForecast returns the multi-day forecast for city. Upstream failures of
// any kind are reported as no data.
func (s *Service) GetForecast(ctx context.Context, city string) (*Forecast, error) {
	l := s.forecast(city)
	l.log.Info("fetching forecast")

	f, _, err := retrieve(ctx, s, l)
	if f == nil || err != nil {
		return nil, err
	}
	// The cached value shares its backing array with f.
	f.Items = slices.Clone(f.Items)
	return f, nil
}

// RefreshCurrentByCity fetches current conditions for city from upstream and
// overwrites the cached entry, even if it has not expired yet. Failures follow
// the same policy as GetCurrentByCity.
func (s *Service) RefreshCurrentByCity(ctx context.Context, city string) error {
	l := s.currentByCity(city)
	l.log.Debug("refreshing current weather")
	_, _, err := coalesce(ctx, s, l)
	return err
}

// RefreshForecast is the forecast counterpart of RefreshCurrentByCity.
func (s *Service) RefreshForecast(ctx context.Context, city string) error {
	l := s.forecast(city)
	l.log.Debug("refreshing forecast")
	_, _, err := coalesce(ctx, s, l)
	return err
}

func (s *Service) currentByCity(city string) lookup[CurrentWeather] {
	return lookup[CurrentWeather]{
		op:     "current by city",
		key:    currentCityKey(city),
		ttl:    CurrentTTL,
		cache:  s.currents,
		policy: currentByCityPolicy,
		log:    s.log.WithField("city", city),
		fetch: func(ctx context.Context) (RawResponse, error) {
			return s.upstream.FetchCurrentByCity(ctx, city, s.apiKey)
		},
		decode: decodeCurrent,
	}
}

func (s *Service) currentByCoordinates(lat, lon float64) lookup[CurrentWeather] {
	return lookup[CurrentWeather]{
		op:     "current by coordinates",
		key:    currentCoordinatesKey(lat, lon),
		ttl:    CurrentTTL,
		cache:  s.currents,
		policy: currentByCoordinatesPolicy,
		log:    s.log.WithFields(logrus.Fields{"lat": lat, "lon": lon}),
		fetch: func(ctx context.Context) (RawResponse, error) {
			return s.upstream.FetchCurrentByCoordinates(ctx, lat, lon, s.apiKey)
		},
		decode: decodeCurrent,
	}
}

func (s *Service) forecast(city string) lookup[Forecast] {
	return lookup[Forecast]{
		op:     "forecast",
		key:    forecastKey(city),
		ttl:    ForecastTTL,
		cache:  s.forecasts,
		policy: forecastPolicy,
		log:    s.log.WithField("city", city),
		fetch: func(ctx context.Context) (RawResponse, error) {
			return s.upstream.FetchForecastByCity(ctx, city, s.apiKey)
		},
		decode: decodeForecast,
	}
}

// Stats returns the cumulative cache counters.
func (s *Service) Stats() Stats {
	return Stats{
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		UpstreamCalls: s.upstreamCalls.Load(),
	}
}

func currentCityKey(city string) string {
	return "current:" + strings.ToLower(city)
}

func forecastKey(city string) string {
	return "forecast:" + strings.ToLower(city)
}

// currentCoordinatesKey uses the shortest exact representation of each
// coordinate, so keys collide only for numerically equal pairs.
func currentCoordinatesKey(lat, lon float64) string {
	// -0 == 0 but formats as "-0".
	if lat == 0 {
		lat = 0
	}
	if lon == 0 {
		lon = 0
	}
	return "current:" + strconv.FormatFloat(lat, 'f', -1, 64) + ":" + strconv.FormatFloat(lon, 'f', -1, 64)
}

func decodeCurrent(body []byte) (CurrentWeather, error) {
	var p CurrentPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return CurrentWeather{}, errors.Wrap(err, "decode upstream payload")
	}
	return NormalizeCurrent(p), nil
}

func decodeForecast(body []byte) (Forecast, error) {
	var p ForecastPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Forecast{}, errors.Wrap(err, "decode upstream payload")
	}
	return NormalizeForecast(p), nil
}

// lookup describes one cache-aside retrieval.
type lookup[V any] struct {
	op     string
	key    string
	ttl    time.Duration
	cache  Cache[V]
	policy failurePolicy
	log    logrus.FieldLogger
	fetch  func(ctx context.Context) (RawResponse, error)
	decode func(body []byte) (V, error)
}

// loaded is what travels through the singleflight group.
type loaded[V any] struct {
	value V
	found bool
}

// retrieve serves l from the cache or loads it from upstream. It returns a
// pointer to a copy of the value (nil for no data) and whether it was a hit.
func retrieve[V any](ctx context.Context, s *Service, l lookup[V]) (*V, bool, error) {
	if v, ok := l.cache.Get(l.key); ok {
		s.hits.Inc()
		l.log.WithField("key", l.key).Info("served from cache")
		return &v, true, nil
	}
	s.misses.Inc()

	if s.missing != nil {
		if _, ok := s.missing.Get(l.key); ok {
			l.log.WithField("key", l.key).Info("known missing, skipping upstream")
			return nil, false, nil
		}
	}

	v, found, err := coalesce(ctx, s, l)
	if err != nil || !found {
		return nil, false, err
	}
	return &v, false, nil
}

func coalesce[V any](ctx context.Context, s *Service, l lookup[V]) (V, bool, error) {
	if s.group == nil {
		return load(ctx, s, l)
	}

	// The shared load must outlive any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(l.key, func() (interface{}, error) {
		v, found, err := load(shared, s, l)
		return loaded[V]{value: v, found: found}, err
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, l.fail(l.policy.transport, ctx.Err())
	case res := <-ch:
		if res.Shared {
			l.log.WithField("key", l.key).Debug("joined in-flight upstream fetch")
		}
		r, _ := res.Val.(loaded[V])
		return r.value, r.found, res.Err
	}
}

// load performs one upstream exchange, normalizes the result and stores it.
func load[V any](ctx context.Context, s *Service, l lookup[V]) (V, bool, error) {
	var zero V

	s.upstreamCalls.Inc()
	l.log.WithField("key", l.key).Debug("calling upstream")

	resp, err := l.fetch(ctx)
	if err != nil {
		l.log.WithError(err).Error("upstream request failed")
		return zero, false, l.fail(l.policy.transport, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		l.log.WithField("status", resp.StatusCode).Warn("not found upstream")
		if l.policy.notFound == outcomeNoData && s.missing != nil {
			s.missing.SetDefault(l.key, struct{}{})
		}
		return zero, false, l.fail(l.policy.notFound, errors.Errorf("upstream returned status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		l.log.WithField("status", resp.StatusCode).Warn("upstream returned non-success status")
		return zero, false, l.fail(l.policy.nonSuccess, errors.Errorf("upstream returned status %d", resp.StatusCode))
	}

	v, err := l.decode(resp.Body)
	if err != nil {
		l.log.WithError(err).Error("failed to parse upstream payload")
		return zero, false, l.fail(l.policy.decode, err)
	}

	l.cache.Put(l.key, v, l.ttl)
	l.log.WithField("key", l.key).Info("retrieved from upstream")
	return v, true, nil
}

func (l lookup[V]) fail(o outcome, cause error) error {
	if o == outcomeUnavailable {
		return unavailable(l.op, cause)
	}
	return nil
}
