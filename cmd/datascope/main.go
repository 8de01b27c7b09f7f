// Command datascope runs the interactive EDA web server.
//
// Usage:
//
//	datascope serve [--addr :8080] [--config datascope.yaml]
//
// Configuration precedence is flags > DATASCOPE_* env > yaml file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"datascope/internal/config"
	"datascope/internal/metrics"
	"datascope/internal/metrics/datadog"
	"datascope/internal/server"
	"datascope/internal/session"

	// Database backends register themselves for the publish endpoint.
	_ "datascope/internal/publish/mssql"
	_ "datascope/internal/publish/postgres"
	_ "datascope/internal/publish/sqlite"
)

var (
	cfgFile     string
	flagAddr    string
	flagTTLMin  int
	flagMetrics string
)

var rootCmd = &cobra.Command{
	Use:   "datascope",
	Short: "DataScope: upload a table, explore it statistically",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./datascope.yaml)")

	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().IntVar(&flagTTLMin, "session-ttl-min", 0, "idle session TTL in minutes (overrides config)")
	serveCmd.Flags().StringVar(&flagMetrics, "metrics-backend", "", "metrics backend: none|datadog (overrides config)")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Flag overrides.
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagTTLMin > 0 {
		cfg.SessionTTLMin = flagTTLMin
	}
	if flagMetrics != "" {
		cfg.MetricsBackend = flagMetrics
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.MetricsBackend {
	case "datadog":
		b, err := datadog.NewBackend(ctx, datadog.Options{
			Tags: datadog.ParseTagsCSV(cfg.MetricsTags),
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			break
		}
		metrics.SetBackend(b)
		defer func() {
			// Close stops the periodic flush loop and performs a final Flush.
			if err := b.Close(); err != nil {
				log.Printf("metrics: datadog close/flush error: %v", err)
			}
		}()

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; using nop", cfg.MetricsBackend)
	}

	store := session.NewStore(cfg.SessionTTL())
	defer store.Close()

	srv := server.New(cfg, store, log.Default())
	return srv.Run(ctx)
}
