package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/UnknownOlympus/hermes/internal/clustering"
	"github.com/UnknownOlympus/hermes/internal/export"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/UnknownOlympus/hermes/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type clusterFlags struct {
	maxBikes    int
	maxDistance float64
	forceK      int
	seed        uint64
	seeded      bool
	depotLat    float64
	depotLon    float64
	geoJSON     bool
}

var clusterOpts clusterFlags

var clusterCmd = &cobra.Command{
	Use:   "cluster [file]",
	Short: "Group a JSON array of stops into van routes",
	Long: `Reads a JSON array of stops from file, or from stdin when no file is given,
and prints the proposed route plan.

$ echo '[{"id":"o1-collection","type":"collection","lat":52.48,"lon":-1.89,"bikeQuantity":2}]' | hermes cluster
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open stops file: %w", err)
			}
			defer f.Close()
			input = f
		} else if f, ok := input.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Reading stops from stdin, finish with Ctrl+D…")
		}

		clusterOpts.seeded = cmd.Flags().Changed("seed")

		return runCluster(cmd, input, cmd.OutOrStdout(), clusterOpts)
	},
}

func init() {
	flags := clusterCmd.Flags()
	flags.IntVar(&clusterOpts.maxBikes, "max-bikes", clustering.DefaultMaxBikesPerVan, "collection bikes a van can carry")
	flags.Float64Var(&clusterOpts.maxDistance, "max-distance", clustering.DefaultMaxDistancePerRoute, "maximum route length in miles")
	flags.IntVar(&clusterOpts.forceK, "k", 0, "force the number of routes (0 picks it from the limits)")
	flags.Uint64Var(&clusterOpts.seed, "seed", 0, "seed for reproducible centroid seeding")
	flags.Float64Var(&clusterOpts.depotLat, "depot-lat", clustering.DefaultDepot.Latitude, "depot latitude")
	flags.Float64Var(&clusterOpts.depotLon, "depot-lon", clustering.DefaultDepot.Longitude, "depot longitude")
	flags.BoolVar(&clusterOpts.geoJSON, "geojson", false, "print a GeoJSON FeatureCollection instead of the plan")
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, in io.Reader, out io.Writer, flags clusterFlags) error {
	var points []models.GeoPoint
	if err := json.NewDecoder(in).Decode(&points); err != nil {
		return fmt.Errorf("failed to decode stops: %w", err)
	}

	var opts []clustering.Option
	if flags.seeded {
		opts = append(opts, clustering.WithRand(rand.New(rand.NewPCG(flags.seed, flags.seed)))) //nolint:gosec // seeding only
	}

	depot := models.Coordinates{Latitude: flags.depotLat, Longitude: flags.depotLon}
	planner := service.NewPlanner(
		slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})),
		nil,
		nil,
		clustering.New(depot, opts...),
		metrics.New(prometheus.NewRegistry()),
		clustering.Options{MaxBikesPerVan: flags.maxBikes, MaxDistancePerRoute: flags.maxDistance},
	)

	plan, err := planner.PlanPoints(cmd.Context(), points, clustering.Options{ForceK: flags.forceK})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if flags.geoJSON {
		return enc.Encode(export.FeatureCollection(plan))
	}

	return enc.Encode(plan)
}
