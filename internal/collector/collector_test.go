package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdmet/climate-cli/internal/geocode"
	"github.com/bdmet/climate-cli/internal/model"
	"github.com/bdmet/climate-cli/internal/owm"
)

func coord(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

type fakeWeather struct {
	readings map[string]owm.Weather
	errs     map[string]error
	calls    int
}

func (f *fakeWeather) CurrentWeather(_ context.Context, lat, lon float64) (owm.Weather, error) {
	f.calls++
	k := coord(lat, lon)
	if err, ok := f.errs[k]; ok {
		return owm.Weather{}, err
	}
	return f.readings[k], nil
}

type fakeAir struct {
	reading owm.AirQuality
	errs    map[string]error
	calls   int
}

func (f *fakeAir) AirQuality(_ context.Context, lat, lon float64) (owm.AirQuality, error) {
	f.calls++
	if err, ok := f.errs[coord(lat, lon)]; ok {
		return owm.AirQuality{}, err
	}
	return f.reading, nil
}

func twoDistrictCache(t *testing.T) *geocode.Cache {
	t.Helper()
	cache := geocode.NewCache(filepath.Join(t.TempDir(), "geo.csv"))
	require.NoError(t, cache.Insert(model.GeoPoint{District: "Dhaka", Division: "Dhaka", Latitude: 23.81, Longitude: 90.41}))
	require.NoError(t, cache.Insert(model.GeoPoint{District: "Chittagong", Division: "Chattogram", Latitude: 22.34, Longitude: 91.83}))
	return cache
}

func twoDistricts() []model.District {
	return []model.District{
		{Name: "Dhaka", Division: "Dhaka"},
		{Name: "Chittagong", Division: "Chattogram"},
	}
}

func TestRun_CollectsAllDistricts(t *testing.T) {
	cache := twoDistrictCache(t)
	weather := &fakeWeather{
		readings: map[string]owm.Weather{
			coord(23.81, 90.41): {TempC: 31.5, Humidity: 70, Pressure: 1002, WindSpeed: 3.1, Clouds: 40, Rain: 2.5},
			// Rain and snow omitted from the payload stay zero.
			coord(22.34, 91.83): {TempC: 29.8, Humidity: 82, Pressure: 1005, WindSpeed: 5.0, Clouds: 90},
		},
	}
	air := &fakeAir{reading: owm.AirQuality{AQI: 3, PM25: 55.1, PM10: 80.2, O3: 20, NO2: 12, SO2: 6, CO: 900}}

	orch := New(cache, twoDistricts(), weather, air, 0)
	records, err := orch.Run(context.Background(), "2025-08-10")
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, r := range records {
		assert.Equal(t, "2025-08-10", r.Date)
		assert.Equal(t, 3, r.AQI)
	}

	assert.Equal(t, "Dhaka", records[0].District)
	assert.InDelta(t, 2.5, records[0].Rain, 0.001)

	assert.Equal(t, "Chittagong", records[1].District)
	assert.Zero(t, records[1].Rain)
	assert.Zero(t, records[1].Snow)
}

func TestRun_SkipsFailingDistrict(t *testing.T) {
	cache := twoDistrictCache(t)
	weather := &fakeWeather{
		readings: map[string]owm.Weather{
			coord(23.81, 90.41): {TempC: 30},
			coord(22.34, 91.83): {TempC: 29},
		},
	}
	air := &fakeAir{
		reading: owm.AirQuality{AQI: 2},
		errs: map[string]error{
			coord(22.34, 91.83): eris.New("air_quality: retries exhausted after 6 attempts"),
		},
	}

	orch := New(cache, twoDistricts(), weather, air, 0)
	records, err := orch.Run(context.Background(), "2025-08-10")
	require.NoError(t, err, "one failing district must not abort the run")
	require.Len(t, records, 1)
	assert.Equal(t, "Dhaka", records[0].District)
}

func TestRun_SkipsCacheMiss(t *testing.T) {
	cache := twoDistrictCache(t)
	weather := &fakeWeather{readings: map[string]owm.Weather{
		coord(23.81, 90.41): {TempC: 30},
		coord(22.34, 91.83): {TempC: 29},
	}}
	air := &fakeAir{reading: owm.AirQuality{AQI: 1}}

	list := append(twoDistricts(), model.District{Name: "Atlantis"})
	orch := New(cache, list, weather, air, 0)

	records, err := orch.Run(context.Background(), "2025-08-10")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, weather.calls, "no fetch may be issued for an unresolved district")
}

func TestRun_AllFailed_IsHardError(t *testing.T) {
	cache := twoDistrictCache(t)
	weather := &fakeWeather{
		errs: map[string]error{
			coord(23.81, 90.41): eris.New("weather: http 401"),
			coord(22.34, 91.83): eris.New("weather: http 401"),
		},
	}
	air := &fakeAir{}

	orch := New(cache, twoDistricts(), weather, air, 0)
	_, err := orch.Run(context.Background(), "2025-08-10")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrEmptyResult)
}

func TestRun_LimitRestrictsDistricts(t *testing.T) {
	cache := twoDistrictCache(t)
	weather := &fakeWeather{readings: map[string]owm.Weather{coord(23.81, 90.41): {TempC: 30}}}
	air := &fakeAir{reading: owm.AirQuality{AQI: 2}}

	orch := New(cache, twoDistricts(), weather, air, 1)
	records, err := orch.Run(context.Background(), "2025-08-10")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Dhaka", records[0].District)
	assert.Equal(t, 1, weather.calls)
}

func TestRun_AirNotCalledWhenWeatherFails(t *testing.T) {
	cache := twoDistrictCache(t)
	weather := &fakeWeather{
		readings: map[string]owm.Weather{coord(23.81, 90.41): {TempC: 30}},
		errs:     map[string]error{coord(22.34, 91.83): eris.New("boom")},
	}
	air := &fakeAir{reading: owm.AirQuality{AQI: 2}}

	orch := New(cache, twoDistricts(), weather, air, 0)
	_, err := orch.Run(context.Background(), "2025-08-10")
	require.NoError(t, err)
	assert.Equal(t, 1, air.calls)
}

func TestRun_Cancelled(t *testing.T) {
	cache := twoDistrictCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := New(cache, twoDistricts(), &fakeWeather{}, &fakeAir{}, 0)
	_, err := orch.Run(ctx, "2025-08-10")
	require.Error(t, err)
}

func TestResolveDate_ExplicitOverride(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	date, err := ResolveDate("2025-08-10", loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-10", date)
}

func TestResolveDate_RejectsBadFormat(t *testing.T) {
	loc := time.UTC
	for _, bad := range []string{"10-08-2025", "2025/08/10", "yesterday", "2025-13-01"} {
		_, err := ResolveDate(bad, loc)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestResolveDate_DefaultsToTodayInZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	date, err := ResolveDate("", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Now().In(loc).Format("2006-01-02"), date)
}
