package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bdmet/climate-cli/internal/collector"
	"github.com/bdmet/climate-cli/internal/dataset"
	"github.com/bdmet/climate-cli/internal/districts"
	"github.com/bdmet/climate-cli/internal/fetcher"
	"github.com/bdmet/climate-cli/internal/geocode"
	"github.com/bdmet/climate-cli/internal/model"
	"github.com/bdmet/climate-cli/internal/owm"
	"github.com/bdmet/climate-cli/internal/store"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect one day of weather and air-quality readings",
	Long: `Collect one weather and air-quality reading per district for a single date.

Builds the geocode cache first if it is absent or --rebuild-geocode is set.
A district that fails after retries is skipped; the run only fails when no
district yields a record.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		date, _ := cmd.Flags().GetString("date")
		apiKey, _ := cmd.Flags().GetString("api-key")
		limit, _ := cmd.Flags().GetInt("limit")
		rebuild, _ := cmd.Flags().GetBool("rebuild-geocode")

		if apiKey != "" {
			cfg.OWM.APIKey = apiKey
		}
		if err := cfg.ValidateOWM(); err != nil {
			return err
		}

		loc, err := time.LoadLocation(cfg.Collect.Timezone)
		if err != nil {
			return eris.Wrapf(err, "collect: load timezone %s", cfg.Collect.Timezone)
		}
		dateStr, err := collector.ResolveDate(date, loc)
		if err != nil {
			return err
		}

		f := newFetchClient()

		list, err := districts.StaticSource{}.Districts()
		if err != nil {
			return eris.Wrap(err, "collect: district list")
		}

		cache, err := loadOrBuildCache(ctx, f, list, rebuild)
		if err != nil {
			return err
		}

		client := owm.NewClient(f, cfg.OWM.APIKey, cfg.OWM.WeatherURL, cfg.OWM.AirURL)
		orch := collector.New(cache, list, client, client, limit)

		records, err := orch.Run(ctx, dateStr)
		if err != nil {
			return eris.Wrap(err, "collect")
		}

		path, err := dataset.NewWriter(cfg.Data.Dir).WriteDaily(dateStr, records)
		if err != nil {
			return eris.Wrap(err, "collect")
		}

		zap.L().Info("collection written",
			zap.String("path", path),
			zap.Int("records", len(records)),
		)
		fmt.Printf("Wrote %d records to %s\n", len(records), path)
		return nil
	},
}

func init() {
	collectCmd.Flags().String("date", "", "target date YYYY-MM-DD (default: today in the configured timezone)")
	collectCmd.Flags().String("api-key", "", "OpenWeatherMap API key (overrides config/env)")
	collectCmd.Flags().Int("limit", 0, "collect only the first N districts (testing aid)")
	collectCmd.Flags().Bool("rebuild-geocode", false, "rebuild the geocode cache before collecting")
	rootCmd.AddCommand(collectCmd)
}

// newFetchClient builds the single rate-limited client every outbound call
// shares, so geocoding and data fetches draw from the same permit gate.
func newFetchClient() *fetcher.Client {
	return fetcher.New(fetcher.Options{
		MinInterval: cfg.Fetch.MinInterval(),
		Timeout:     cfg.Fetch.Timeout(),
		UserAgent:   cfg.Fetch.UserAgent,
		Retry:       cfg.Fetch.RetryConfig(),
	})
}

// loadOrBuildCache loads the persisted geocode cache, running a build pass
// when it is empty or a rebuild was requested.
func loadOrBuildCache(ctx context.Context, f *fetcher.Client, list []model.District, rebuild bool) (*geocode.Cache, error) {
	if !rebuild {
		cache, err := geocode.Load(cfg.Geocode.CachePath)
		if err != nil {
			return nil, err
		}
		if cache.Len() > 0 {
			zap.L().Info("geocode cache loaded",
				zap.String("path", cache.Path()),
				zap.Int("districts", cache.Len()),
			)
			return cache, nil
		}
	}
	return buildCache(ctx, f, list, rebuild)
}

// buildCache runs a geocode build pass over the district list, resolving
// missing entries (or every entry when force is set) through Nominatim with
// the SQLite response memo in front of it.
func buildCache(ctx context.Context, f *fetcher.Client, list []model.District, force bool) (*geocode.Cache, error) {
	cache, err := geocode.Load(cfg.Geocode.CachePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Geocode.ResponsesPath), 0o755); err != nil {
		return nil, eris.Wrap(err, "geocode: create cache dir")
	}
	responses, err := store.OpenResponseCache(cfg.Geocode.ResponsesPath)
	if err != nil {
		return nil, err
	}
	defer responses.Close() //nolint:errcheck

	geocoder := geocode.NewNominatim(f, cfg.Nominatim.BaseURL, responses)
	if err := geocode.NewBuilder(cache, geocoder).Build(ctx, list, force); err != nil {
		return nil, err
	}
	return cache, nil
}
