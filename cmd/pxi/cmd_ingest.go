package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pxilabs/pxi/internal/ingest"
	"github.com/pxilabs/pxi/internal/persistence/postgres"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load indicator observations into the store",
	Long: `Admit fetcher output into the values store through the per-source
circuit breakers and rate limiters. Input is CSV rows of
indicator_id,date,value,source; writes are idempotent upserts, so
re-running a file is safe.

Example usage:
  pxi ingest --file=observations.csv
  fetch-macro | pxi ingest                # read from stdin`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	var in io.Reader = os.Stdin
	if ingestFile != "" {
		f, err := os.Open(ingestFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	values, err := ingest.ParseRecords(in)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no observations to ingest")
	}

	db, err := postgres.Connect(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewValuesRepo(db, postgres.DefaultTimeout)
	gate := ingest.NewGate(repo, cfg.Ingest)
	if err := gate.IngestBatch(cmd.Context(), values); err != nil {
		return err
	}

	log.Info().Int("observations", len(values)).Msg("ingest finished")
	return nil
}
