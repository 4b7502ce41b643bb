package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pxilabs/pxi/internal/cache"
	"github.com/pxilabs/pxi/internal/config"
	"github.com/pxilabs/pxi/internal/metrics"
	"github.com/pxilabs/pxi/internal/persistence/postgres"
	"github.com/pxilabs/pxi/internal/pipeline"
)

var (
	configPath string
	runDate    string
)

var rootCmd = &cobra.Command{
	Use:   "pxi",
	Short: "PXI macro-market-strength index engine",
	Long: `PXI computes a 0-100 composite macro-market-strength index from
economic, market, and crypto indicators, classifies the market regime,
and derives a risk-allocation signal with divergence detection.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scoring pipeline once",
	Long: `Run one batch pass of the scoring pipeline: staleness gating,
normalization, category and composite scoring, regime classification,
signal policy, and divergence detection for a single date.

Example usage:
  pxi run                      # score today (UTC)
  pxi run --date=2026-03-10    # recompute a past date (idempotent)`,
	RunE: runPipeline,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured cron schedule",
	RunE:  runScheduler,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest cached snapshot",
	RunE:  showSnapshot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to pxi.yaml (built-in defaults when empty)")
	runCmd.Flags().StringVar(&runDate, "date", "", "Target date (YYYY-MM-DD), default today UTC")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "CSV observations file (stdin when empty)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(ingestCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configPath)
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// buildPipeline wires storage, cache, and metrics into a pipeline.
func buildPipeline(cfg *config.Config, reg prometheus.Registerer) (*pipeline.Pipeline, *sqlx.DB, error) {
	db, err := postgres.Connect(cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}

	values := postgres.NewValuesRepo(db, postgres.DefaultTimeout)
	scores := postgres.NewScoresRepo(db, postgres.DefaultTimeout)

	var snapshots pipeline.SnapshotStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		snapshots = cache.NewSnapshotCache(client)
	}

	var m *metrics.Pipeline
	if reg != nil {
		m = metrics.NewPipeline(reg)
	}

	return pipeline.New(cfg, values, scores, snapshots, m), db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
