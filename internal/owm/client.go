// Package owm wraps the OpenWeatherMap current-weather and air-pollution
// endpoints, mapping their payloads onto flat metric-unit readings.
package owm

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/bdmet/climate-cli/internal/fetcher"
)

const (
	// DefaultWeatherURL is the Current Weather 2.5 endpoint.
	DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	// DefaultAirURL is the Air Pollution 2.5 endpoint.
	DefaultAirURL = "https://api.openweathermap.org/data/2.5/air_pollution"
)

// Weather is one current-conditions reading in metric units.
type Weather struct {
	TempC     float64 // °C
	Humidity  float64 // %
	Pressure  float64 // hPa
	WindSpeed float64 // m/s
	Clouds    float64 // % cover
	Rain      float64 // mm over the last hour, 0 when absent
	Snow      float64 // mm over the last hour, 0 when absent
}

// AirQuality is one air-pollution reading: the 1–5 index plus component
// concentrations in µg/m³.
type AirQuality struct {
	AQI  int
	PM25 float64
	PM10 float64
	O3   float64
	NO2  float64
	SO2  float64
	CO   float64
}

// Client calls OpenWeatherMap through the shared rate-limited fetcher.
type Client struct {
	fetcher    *fetcher.Client
	apiKey     string
	weatherURL string
	airURL     string
}

// NewClient creates a Client. Empty URLs fall back to the public endpoints.
func NewClient(f *fetcher.Client, apiKey, weatherURL, airURL string) *Client {
	if weatherURL == "" {
		weatherURL = DefaultWeatherURL
	}
	if airURL == "" {
		airURL = DefaultAirURL
	}
	return &Client{fetcher: f, apiKey: apiKey, weatherURL: weatherURL, airURL: airURL}
}

type weatherPayload struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Snow struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"snow"`
}

// CurrentWeather fetches current conditions for a coordinate.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (Weather, error) {
	var payload weatherPayload
	req := fetcher.Request{
		Kind:   fetcher.KindWeather,
		URL:    c.weatherURL,
		Params: c.params(lat, lon, true),
	}
	if err := c.fetcher.FetchJSON(ctx, req, &payload); err != nil {
		return Weather{}, err
	}

	return Weather{
		TempC:     payload.Main.Temp,
		Humidity:  payload.Main.Humidity,
		Pressure:  payload.Main.Pressure,
		WindSpeed: payload.Wind.Speed,
		Clouds:    payload.Clouds.All,
		Rain:      accumulation(payload.Rain.OneH, payload.Rain.ThreeH),
		Snow:      accumulation(payload.Snow.OneH, payload.Snow.ThreeH),
	}, nil
}

type airPayload struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
			O3   float64 `json:"o3"`
			NO2  float64 `json:"no2"`
			SO2  float64 `json:"so2"`
			CO   float64 `json:"co"`
		} `json:"components"`
	} `json:"list"`
}

// AirQuality fetches the air-pollution reading for a coordinate.
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (AirQuality, error) {
	var payload airPayload
	req := fetcher.Request{
		Kind:   fetcher.KindAir,
		URL:    c.airURL,
		Params: c.params(lat, lon, false),
	}
	if err := c.fetcher.FetchJSON(ctx, req, &payload); err != nil {
		return AirQuality{}, err
	}
	if len(payload.List) == 0 {
		return AirQuality{}, eris.Errorf("air_quality: empty reading list from %s", c.airURL)
	}

	item := payload.List[0]
	return AirQuality{
		AQI:  item.Main.AQI,
		PM25: item.Components.PM25,
		PM10: item.Components.PM10,
		O3:   item.Components.O3,
		NO2:  item.Components.NO2,
		SO2:  item.Components.SO2,
		CO:   item.Components.CO,
	}, nil
}

func (c *Client) params(lat, lon float64, metric bool) map[string][]string {
	p := map[string][]string{
		"lat":   {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', 6, 64)},
		"appid": {c.apiKey},
	}
	if metric {
		p["units"] = []string{"metric"}
	}
	return p
}

// accumulation prefers the 1h figure, falling back to 3h the way the
// upstream payload degrades under sparse station coverage.
func accumulation(oneH, threeH float64) float64 {
	if oneH != 0 {
		return oneH
	}
	return threeH
}
