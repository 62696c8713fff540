package weather

// Payload types mirror the subset of the OpenWeatherMap 2.5 schema we consume.

// MainBlock holds the temperature family of fields.
type MainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
	Pressure  int     `json:"pressure"`
}

// ConditionEntry is one element of the provider's "weather" list.
type ConditionEntry struct {
	Description string `json:"description"`
	Main        string `json:"main"`
	Icon        string `json:"icon"`
}

// WindBlock is the provider's wind speed and direction.
type WindBlock struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

// CloudsBlock carries cloud cover as a percentage.
type CloudsBlock struct {
	All int `json:"all"`
}

// CurrentPayload is the body of the current-conditions endpoint.
type CurrentPayload struct {
	Main    MainBlock        `json:"main"`
	Weather []ConditionEntry `json:"weather"`
	Wind    WindBlock        `json:"wind"`
	Clouds  CloudsBlock      `json:"clouds"`
	Name    string           `json:"name"`
	Dt      int64            `json:"dt"`
}

// ForecastPayload is the body of the 5 day / 3 hour forecast endpoint.
type ForecastPayload struct {
	List []ForecastEntryPayload `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

// ForecastEntryPayload is one element of ForecastPayload.List.
type ForecastEntryPayload struct {
	Dt      int64            `json:"dt"`
	Main    MainBlock        `json:"main"`
	Weather []ConditionEntry `json:"weather"`
	Wind    WindBlock        `json:"wind"`
	Clouds  CloudsBlock      `json:"clouds"`
	DtTxt   string           `json:"dt_txt"`
}
