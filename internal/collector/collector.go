// Package collector runs one collection pass: resolve the target date,
// walk the district list in stable order, fetch weather and air quality
// per district, and assemble the day's records.
package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bdmet/climate-cli/internal/geocode"
	"github.com/bdmet/climate-cli/internal/model"
	"github.com/bdmet/climate-cli/internal/owm"
)

// WeatherSource fetches current conditions for a coordinate.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (owm.Weather, error)
}

// AirSource fetches the air-quality reading for a coordinate.
type AirSource interface {
	AirQuality(ctx context.Context, lat, lon float64) (owm.AirQuality, error)
}

// Orchestrator drives the per-district fetch loop. A failing district is
// logged and skipped; only a run yielding zero records fails.
type Orchestrator struct {
	cache     *geocode.Cache
	districts []model.District
	weather   WeatherSource
	air       AirSource
	limit     int
}

// New creates an Orchestrator over the given district list. limit > 0
// restricts the run to the first limit districts.
func New(cache *geocode.Cache, list []model.District, weather WeatherSource, air AirSource, limit int) *Orchestrator {
	return &Orchestrator{
		cache:     cache,
		districts: list,
		weather:   weather,
		air:       air,
		limit:     limit,
	}
}

// ResolveDate validates an explicit YYYY-MM-DD override, or returns the
// current calendar date in loc.
func ResolveDate(override string, loc *time.Location) (string, error) {
	if override != "" {
		if _, err := time.Parse("2006-01-02", override); err != nil {
			return "", eris.Wrapf(err, "invalid date %q, want YYYY-MM-DD", override)
		}
		return override, nil
	}
	return time.Now().In(loc).Format("2006-01-02"), nil
}

// Run collects one DailyRecord per district for the given date. Districts
// missing from the cache or failing either endpoint are skipped with a
// logged reason. Zero collected records is model.ErrEmptyResult.
func (o *Orchestrator) Run(ctx context.Context, date string) ([]model.DailyRecord, error) {
	log := zap.L().With(
		zap.String("component", "collector"),
		zap.String("run_id", uuid.New().String()),
		zap.String("date", date),
	)

	list := o.districts
	if o.limit > 0 && o.limit < len(list) {
		list = list[:o.limit]
	}

	log.Info("starting collection", zap.Int("districts", len(list)))

	records := make([]model.DailyRecord, 0, len(list))
	skipped := 0
	for _, d := range list {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "collect: cancelled")
		}

		point, ok := o.cache.Lookup(d.Name)
		if !ok {
			log.Warn("district missing from geocode cache, skipping",
				zap.String("district", d.Name))
			skipped++
			continue
		}

		record, err := o.collectOne(ctx, date, point)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(err, "collect: cancelled")
			}
			log.Warn("district collection failed, skipping",
				zap.String("district", point.District),
				zap.Error(err),
			)
			skipped++
			continue
		}
		records = append(records, record)
	}

	log.Info("collection finished",
		zap.Int("collected", len(records)),
		zap.Int("skipped", skipped),
	)

	if len(records) == 0 {
		return nil, eris.Wrapf(model.ErrEmptyResult, "collect %s: every district failed", date)
	}
	return records, nil
}

func (o *Orchestrator) collectOne(ctx context.Context, date string, p model.GeoPoint) (model.DailyRecord, error) {
	weather, err := o.weather.CurrentWeather(ctx, p.Latitude, p.Longitude)
	if err != nil {
		return model.DailyRecord{}, eris.Wrap(err, "weather")
	}

	air, err := o.air.AirQuality(ctx, p.Latitude, p.Longitude)
	if err != nil {
		return model.DailyRecord{}, eris.Wrap(err, "air quality")
	}

	return model.DailyRecord{
		Date:      date,
		District:  p.District,
		Division:  p.Division,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		TempC:     weather.TempC,
		Humidity:  weather.Humidity,
		Pressure:  weather.Pressure,
		WindSpeed: weather.WindSpeed,
		Clouds:    weather.Clouds,
		Rain:      weather.Rain,
		Snow:      weather.Snow,
		AQI:       air.AQI,
		PM25:      air.PM25,
		PM10:      air.PM10,
		O3:        air.O3,
		NO2:       air.NO2,
		SO2:       air.SO2,
		CO:        air.CO,
	}, nil
}
