package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bdmet/climate-cli/internal/districts"
	"github.com/bdmet/climate-cli/internal/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Manage the district geocode cache",
}

var geocodeBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build or refresh the geocode cache",
	Long: `Resolve coordinates for districts missing from the geocode cache.

With --force, every district is re-resolved. Raw geocoding responses are
memoized separately, so a forced rebuild re-queries the service only for
queries it has never seen.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		force, _ := cmd.Flags().GetBool("force")

		list, err := districts.StaticSource{}.Districts()
		if err != nil {
			return eris.Wrap(err, "geocode build: district list")
		}

		cache, err := buildCache(ctx, newFetchClient(), list, force)
		if err != nil {
			return eris.Wrap(err, "geocode build")
		}

		zap.L().Info("geocode cache ready",
			zap.String("path", cache.Path()),
			zap.Int("districts", cache.Len()),
		)
		fmt.Printf("Geocode cache holds %d districts (%s)\n", cache.Len(), cache.Path())
		return nil
	},
}

var geocodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report geocode cache contents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := geocode.Load(cfg.Geocode.CachePath)
		if err != nil {
			return eris.Wrap(err, "geocode status")
		}
		fmt.Printf("Geocode cache: %s\n", cache.Path())
		fmt.Printf("Districts cached: %d\n", cache.Len())
		for _, p := range cache.Points() {
			fmt.Printf("  %-20s %-12s %9.4f %9.4f\n", p.District, p.Division, p.Latitude, p.Longitude)
		}
		return nil
	},
}

func init() {
	geocodeBuildCmd.Flags().Bool("force", false, "re-resolve every district, not just missing ones")
	geocodeCmd.AddCommand(geocodeBuildCmd)
	geocodeCmd.AddCommand(geocodeStatusCmd)
	rootCmd.AddCommand(geocodeCmd)
}
