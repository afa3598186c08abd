package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "druid-emitter",
	Short: "Service metric event emitter for Prometheus",
	Long: `druid-emitter routes service metric events to pre-registered Prometheus
collectors and ships them onward, either by pushing the collector registry to
a Pushgateway on a fixed cadence or by exposing it for scraping.

Events arrive as JSON over HTTP; the metric map resource decides which
collector (counter, gauge, histogram) each (metric, service) pair feeds and
which event dimensions become labels.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
