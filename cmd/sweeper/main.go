package main

import (
	"salon-service/internal/config"
	"salon-service/internal/storage/postgres"
	"salon-service/pkg/sl"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Releases unpaid deposit holds older than the hold TTL. Run it one-shot from
// cron, or with -interval to keep sweeping in a loop.
func main() {
	var interval time.Duration
	flag.DurationVar(&interval, "interval", 0, "sweep repeatedly at this interval (0 = run once)")
	flag.Parse()

	cfg := config.MustLoad()

	log := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	sweep := func(ctx context.Context) {
		cutoff := time.Now().Add(-cfg.Salon.HoldTTL)

		count, err := storage.ExpireStale(ctx, cutoff)
		if err != nil {
			log.Error("Sweep failed", sl.Err(err))
			return
		}

		if count > 0 {
			log.Info("Expired unpaid bookings", slog.Int64("count", count))
		} else {
			log.Info("No unpaid bookings to expire")
		}
	}

	ctx := context.Background()

	if interval <= 0 {
		sweep(ctx)
		return
	}

	log.Info("Starting sweep loop", slog.String("interval", interval.String()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sweep(ctx)

	for {
		select {
		case <-ticker.C:
			sweep(ctx)
		case sig := <-sigCh:
			log.Info("Received shutdown signal", slog.String("signal", sig.String()))
			return
		}
	}
}
