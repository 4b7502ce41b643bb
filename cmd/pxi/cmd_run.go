package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pxilabs/pxi/internal/cache"
	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/scheduler"
)

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	date := time.Now().UTC()
	if runDate != "" {
		if date, err = domain.ParseDate(runDate); err != nil {
			return err
		}
	}

	p, db, err := buildPipeline(cfg, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := p.Run(cmd.Context(), date)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	reg := prometheus.NewRegistry()
	p, db, err := buildPipeline(cfg, reg)
	if err != nil {
		return err
	}
	defer db.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(":9187", mux); err != nil {
			log.Warn().Err(err).Msg("metrics listener stopped")
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s := scheduler.New(p, cfg.Schedule)
	if err := s.Start(ctx); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()
	s.Stop()
	return nil
}

func showSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	snap, err := cache.NewSnapshotCache(client).Latest(cmd.Context())
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no snapshot cached yet; run `pxi run` first")
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
