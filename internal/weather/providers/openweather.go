package providers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard-api/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5/"

// OpenWeatherClient implements weather.Upstream against OpenWeatherMap.
type OpenWeatherClient struct {
	baseURL string
	getter  *resilientGetter
	log     logrus.FieldLogger
}

var _ weather.Upstream = (*OpenWeatherClient)(nil)

// NewOpenWeatherClient creates a client rooted at baseURL, or at
// DefaultOpenWeatherBaseURL when baseURL is empty.
func NewOpenWeatherClient(baseURL string, cfg HTTPClientConfig, log logrus.FieldLogger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("provider", "openweathermap")

	return &OpenWeatherClient{
		baseURL: baseURL,
		getter:  newResilientGetter("openweather", cfg, log),
		log:     log,
	}
}

// FetchCurrentByCity calls /weather?q=<city>.
func (c *OpenWeatherClient) FetchCurrentByCity(ctx context.Context, city, apiKey string) (weather.RawResponse, error) {
	values := url.Values{}
	values.Set("q", city)
	return c.fetch(ctx, "weather", values, apiKey)
}

// FetchCurrentByCoordinates calls /weather?lat=<lat>&lon=<lon>.
func (c *OpenWeatherClient) FetchCurrentByCoordinates(ctx context.Context, lat, lon float64, apiKey string) (weather.RawResponse, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetch(ctx, "weather", values, apiKey)
}

// FetchForecastByCity calls /forecast?q=<city>.
func (c *OpenWeatherClient) FetchForecastByCity(ctx context.Context, city, apiKey string) (weather.RawResponse, error) {
	values := url.Values{}
	values.Set("q", city)
	return c.fetch(ctx, "forecast", values, apiKey)
}

func (c *OpenWeatherClient) fetch(ctx context.Context, endpoint string, values url.Values, apiKey string) (weather.RawResponse, error) {
	values.Set("units", "metric")
	c.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"query":    values.Encode(),
	}).Debug("openweather request")

	values.Set("appid", apiKey)
	return c.getter.get(ctx, c.baseURL+endpoint+"?"+values.Encode())
}
