package geocode

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bdmet/climate-cli/internal/districts"
	"github.com/bdmet/climate-cli/internal/model"
)

// Builder resolves missing cache entries through a geocoding collaborator.
type Builder struct {
	cache    *Cache
	geocoder Geocoder
}

// NewBuilder creates a Builder writing into cache via geocoder.
func NewBuilder(cache *Cache, geocoder Geocoder) *Builder {
	return &Builder{cache: cache, geocoder: geocoder}
}

// Build resolves a GeoPoint for every district not already cached (every
// district when force is set), persisting after each success. A district
// whose geocode fails — retries exhausted, no match, or a permanent
// failure — is skipped with a warning; only a cache left with zero entries
// is an error. Coordinates for administrative districts do not change, so
// refresh happens only on explicit force.
func (b *Builder) Build(ctx context.Context, list []model.District, force bool) error {
	log := zap.L().With(zap.String("component", "geocode.builder"))

	resolved, skipped, cached := 0, 0, 0
	for _, d := range list {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "geocode build: cancelled")
		}

		name := districts.CanonicalName(d.Name)
		if !force {
			if _, ok := b.cache.Lookup(name); ok {
				cached++
				continue
			}
		}

		res, err := b.geocoder.Geocode(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return eris.Wrap(err, "geocode build: cancelled")
			}
			log.Warn("geocode failed, skipping district",
				zap.String("district", name),
				zap.Error(err),
			)
			skipped++
			continue
		}

		point := model.GeoPoint{
			District:  name,
			Division:  districts.NormalizeDivision(name, firstNonEmpty(res.Division, d.Division)),
			Latitude:  res.Latitude,
			Longitude: res.Longitude,
		}
		if err := b.cache.Insert(point); err != nil {
			// Persistence failure would silently lose the whole pass.
			return eris.Wrap(err, "geocode build")
		}
		resolved++
	}

	log.Info("geocode build complete",
		zap.Int("resolved", resolved),
		zap.Int("cached", cached),
		zap.Int("skipped", skipped),
	)

	if b.cache.Len() == 0 {
		return eris.Wrap(model.ErrEmptyResult, "geocode build: no district resolved")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
