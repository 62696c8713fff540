package providers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-dashboard-api/internal/weather"
)

// maxBodyBytes caps how much of an upstream body we read.
const maxBodyBytes = 1 << 20

// HTTPClientConfig bundles the HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client *http.Client

	// RatePerMinute limits outbound requests; 0 disables limiting.
	RatePerMinute int

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit; BreakerTimeout is how long it stays open.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

var (
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// resilientGetter performs single-attempt GETs behind a rate limiter and a
// circuit breaker. It never retries.
type resilientGetter struct {
	client  *http.Client
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
}

func newResilientGetter(name string, cfg HTTPClientConfig, log logrus.FieldLogger) *resilientGetter {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	return &resilientGetter{
		client:  cfg.Client,
		limiter: limiter,
		circuit: cb,
		log:     log,
	}
}

// get issues one GET against rawURL. Any HTTP status is returned as a
// RawResponse; only transport failures (including an open circuit and a
// cancelled wait on the limiter) are errors. 5xx replies count against the
// breaker but are still handed back to the caller.
func (g *resilientGetter) get(ctx context.Context, rawURL string) (weather.RawResponse, error) {
	if g.client == nil {
		return weather.RawResponse{}, errNoHTTPClient
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return weather.RawResponse{}, errors.Wrap(err, "rate limiter")
		}
	}

	result, err := g.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, errors.Wrap(err, "read body")
		}

		raw := weather.RawResponse{StatusCode: resp.StatusCode, Body: body}
		if resp.StatusCode >= 500 {
			return raw, errServerError
		}
		return raw, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return weather.RawResponse{}, errors.Wrap(errCircuitOpen, g.circuit.Name())
	}
	if err != nil && !errors.Is(err, errServerError) {
		return weather.RawResponse{}, err
	}

	raw, ok := result.(weather.RawResponse)
	if !ok {
		return weather.RawResponse{}, errors.New("unexpected result type from circuit breaker")
	}
	return raw, nil
}
