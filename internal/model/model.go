// Package model holds the shared domain types for the collection pipeline.
package model

import "github.com/rotisserie/eris"

// ErrEmptyResult signals that an entire pass produced nothing: a geocode
// build that resolved zero districts, or a collection run that yielded zero
// records. It is the only per-run failure that aborts the process.
var ErrEmptyResult = eris.New("no results produced")

// District is one of Bangladesh's 64 second-level administrative units,
// the unit of collection. Immutable once sourced.
type District struct {
	Name     string `json:"name"`
	Division string `json:"division"`
}

// GeoPoint is the resolved coordinate for a district.
type GeoPoint struct {
	District  string  `csv:"district" json:"district"`
	Division  string  `csv:"division" json:"division"`
	Latitude  float64 `csv:"latitude" json:"latitude"`
	Longitude float64 `csv:"longitude" json:"longitude"`
}

// Validate checks that the coordinate is on the globe.
func (p GeoPoint) Validate() error {
	if p.District == "" {
		return eris.New("geopoint: empty district name")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return eris.Errorf("geopoint %s: latitude %f out of range", p.District, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return eris.Errorf("geopoint %s: longitude %f out of range", p.District, p.Longitude)
	}
	return nil
}

// DailyRecord is one district's weather and air-quality reading for one
// collection date. Never mutated after creation; the dataset writer owns
// serialization.
type DailyRecord struct {
	Date      string  `csv:"date"`
	District  string  `csv:"district"`
	Division  string  `csv:"division"`
	Latitude  float64 `csv:"lat"`
	Longitude float64 `csv:"lon"`
	TempC     float64 `csv:"temp_c"`
	Humidity  float64 `csv:"humidity"`
	Pressure  float64 `csv:"pressure"`
	WindSpeed float64 `csv:"wind_speed"`
	Clouds    float64 `csv:"clouds"`
	Rain      float64 `csv:"rain"`
	Snow      float64 `csv:"snow"`
	AQI       int     `csv:"aqi"`
	PM25      float64 `csv:"pm2_5"`
	PM10      float64 `csv:"pm10"`
	O3        float64 `csv:"o3"`
	NO2       float64 `csv:"no2"`
	SO2       float64 `csv:"so2"`
	CO        float64 `csv:"co"`
}
