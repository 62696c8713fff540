package weather

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound1(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{21.449999, 21.4},
		{21.25, 21.3}, // exact half rounds away from zero
		{-21.25, -21.3},
		{21.35, 21.4},
		{0.04, 0},
		{-0.06, -0.1},
		{18.0, 18.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, round1(tc.in), "round1(%v)", tc.in)
	}
}

func TestNormalizeCurrent(t *testing.T) {
	var p CurrentPayload
	require.NoError(t, json.Unmarshal([]byte(parisJSON), &p))

	got := NormalizeCurrent(p)

	assert.Equal(t, CurrentWeather{
		City:          "Paris",
		Temperature:   18.3,
		FeelsLike:     17.9,
		TempMin:       16.0,
		TempMax:       19.5,
		Humidity:      62,
		Pressure:      1014,
		Description:   "light rain",
		MainCondition: "Rain",
		WindSpeed:     4.1,
		WindDirection: 240,
		Cloudiness:    75,
		LastUpdated:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Icon:          "10d",
		FromCache:     false,
	}, got)
}

func TestNormalizeCurrent_MissingCondition(t *testing.T) {
	got := NormalizeCurrent(CurrentPayload{Name: "Nowhere", Weather: nil})

	assert.Equal(t, "N/A", got.Description)
	assert.Equal(t, "N/A", got.MainCondition)
	assert.Equal(t, "", got.Icon)
}

func TestNormalizeCurrent_UsesFirstConditionOnly(t *testing.T) {
	got := NormalizeCurrent(CurrentPayload{Weather: []ConditionEntry{
		{Description: "mist", Main: "Mist", Icon: "50n"},
		{Description: "light rain", Main: "Rain", Icon: "10n"},
	}})

	assert.Equal(t, "mist", got.Description)
	assert.Equal(t, "Mist", got.MainCondition)
	assert.Equal(t, "50n", got.Icon)
}

func TestNormalizeCurrent_EpochIsUTC(t *testing.T) {
	got := NormalizeCurrent(CurrentPayload{Dt: 0})

	assert.Equal(t, time.UTC, got.LastUpdated.Location())
	assert.Equal(t, int64(0), got.LastUpdated.Unix())
}

func TestNormalizeForecast_PreservesOrderAndCount(t *testing.T) {
	p := ForecastPayload{
		List: []ForecastEntryPayload{
			{Dt: 300, Main: MainBlock{Temp: 3.04}},
			{Dt: 100, Main: MainBlock{Temp: 1.05}},
			{Dt: 200, Main: MainBlock{Temp: 2.0}},
		},
	}
	p.City.Name = "Oslo"
	p.City.Country = "NO"

	got := NormalizeForecast(p)

	assert.Equal(t, "Oslo", got.City)
	assert.Equal(t, "NO", got.Country)
	require.Len(t, got.Items, 3)
	assert.Equal(t, int64(300), got.Items[0].DateTime.Unix())
	assert.Equal(t, int64(100), got.Items[1].DateTime.Unix())
	assert.Equal(t, int64(200), got.Items[2].DateTime.Unix())
	assert.Equal(t, 3.0, got.Items[0].Temperature)
	assert.Equal(t, "N/A", got.Items[0].Description)
}

func TestNormalizeForecast_FromJSON(t *testing.T) {
	var p ForecastPayload
	require.NoError(t, json.Unmarshal([]byte(forecastJSON), &p))

	got := NormalizeForecast(p)

	require.Len(t, got.Items, 2)
	assert.Equal(t, ForecastItem{
		DateTime:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Temperature:   18.0,
		Description:   "clear sky",
		MainCondition: "Clear",
		WindSpeed:     3.0,
		Humidity:      60,
		Icon:          "01d",
	}, got.Items[0])
	assert.Equal(t, "N/A", got.Items[1].MainCondition)
	assert.Equal(t, "", got.Items[1].Icon)
}

func TestNormalizeForecast_EmptyList(t *testing.T) {
	got := NormalizeForecast(ForecastPayload{})

	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}
