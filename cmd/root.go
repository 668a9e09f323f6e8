package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hermes",
	Short: "Geocodes courier orders and groups their stops into van routes",
	Long: `
hermes geocodes the collection and delivery addresses of bike courier orders
and proposes van routes by clustering the stops around the depot.

Run "hermes serve" for the geocoding worker and HTTP API, or "hermes cluster"
to plan routes for a JSON file of stops without a database.
`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
