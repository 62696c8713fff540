package weather

import (
	"time"
)

// CurrentWeather is the normalized view of current conditions for a location.
type CurrentWeather struct {
	City          string    `json:"city"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feelsLike"`
	TempMin       float64   `json:"tempMin"`
	TempMax       float64   `json:"tempMax"`
	Humidity      int       `json:"humidity"`
	Pressure      int       `json:"pressure"`
	Description   string    `json:"description"`
	MainCondition string    `json:"mainCondition"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection int       `json:"windDirection"`
	Cloudiness    int       `json:"cloudiness"`
	LastUpdated   time.Time `json:"lastUpdated"` // always UTC
	Icon          string    `json:"icon"`

	// FromCache is set by the Service when the value is served from the cache.
	FromCache bool `json:"fromCache"`
}

// Forecast is a normalized multi-day forecast. Items keep the provider's
// order, which is chronological.
type Forecast struct {
	City    string         `json:"city"`
	Country string         `json:"country"`
	Items   []ForecastItem `json:"items"`
}

// ForecastItem is a single forecast slot.
type ForecastItem struct {
	DateTime      time.Time `json:"dateTime"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feelsLike"`
	Description   string    `json:"description"`
	MainCondition string    `json:"mainCondition"`
	WindSpeed     float64   `json:"windSpeed"`
	Humidity      int       `json:"humidity"`
	Icon          string    `json:"icon"`
}

// Stats are cumulative cache counters for a Service.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	UpstreamCalls int64 `json:"upstreamCalls"`
}
