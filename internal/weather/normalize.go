package weather

import (
	"math"
	"time"
)

const notAvailable = "N/A"

// NormalizeCurrent maps a current-conditions payload into a CurrentWeather.
// The result is always fresh; FromCache is left false.
func NormalizeCurrent(p CurrentPayload) CurrentWeather {
	desc, main, icon := firstCondition(p.Weather)

	return CurrentWeather{
		City:          p.Name,
		Temperature:   round1(p.Main.Temp),
		FeelsLike:     round1(p.Main.FeelsLike),
		TempMin:       round1(p.Main.TempMin),
		TempMax:       round1(p.Main.TempMax),
		Humidity:      p.Main.Humidity,
		Pressure:      p.Main.Pressure,
		Description:   desc,
		MainCondition: main,
		WindSpeed:     round1(p.Wind.Speed),
		WindDirection: p.Wind.Deg,
		Cloudiness:    p.Clouds.All,
		LastUpdated:   fromUnix(p.Dt),
		Icon:          icon,
	}
}

// NormalizeForecast maps a forecast payload into a Forecast, one item per
// provider entry and in provider order.
func NormalizeForecast(p ForecastPayload) Forecast {
	items := make([]ForecastItem, 0, len(p.List))
	for _, e := range p.List {
		desc, main, icon := firstCondition(e.Weather)
		items = append(items, ForecastItem{
			DateTime:      fromUnix(e.Dt),
			Temperature:   round1(e.Main.Temp),
			FeelsLike:     round1(e.Main.FeelsLike),
			Description:   desc,
			MainCondition: main,
			WindSpeed:     round1(e.Wind.Speed),
			Humidity:      e.Main.Humidity,
			Icon:          icon,
		})
	}

	return Forecast{
		City:    p.City.Name,
		Country: p.City.Country,
		Items:   items,
	}
}

func firstCondition(items []ConditionEntry) (description, main, icon string) {
	if len(items) == 0 {
		return notAvailable, notAvailable, ""
	}
	return items[0].Description, items[0].Main, items[0].Icon
}

// round1 rounds to one decimal place, halves away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
