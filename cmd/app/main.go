package main

import (
	"salon-service/internal/config"
	bookingCancel "salon-service/internal/http-server/handlers/bookings/cancel"
	bookingComplete "salon-service/internal/http-server/handlers/bookings/complete"
	bookingCreate "salon-service/internal/http-server/handlers/bookings/create"
	bookingDeposit "salon-service/internal/http-server/handlers/bookings/deposit"
	bookingGet "salon-service/internal/http-server/handlers/bookings/get"
	bookingReschedule "salon-service/internal/http-server/handlers/bookings/reschedule"
	manicuristList "salon-service/internal/http-server/handlers/manicurists/list"
	paymentWebhook "salon-service/internal/http-server/handlers/payments/webhook"
	promotionGet "salon-service/internal/http-server/handlers/promotion/get"
	serviceList "salon-service/internal/http-server/handlers/services/list"
	slotGet "salon-service/internal/http-server/handlers/slots/get"
	"salon-service/internal/lock"
	"salon-service/internal/payments"
	svc "salon-service/internal/service"
	"salon-service/internal/storage/postgres"
	slogpretty "salon-service/pkg/handlers/slogPretty"
	"salon-service/pkg/middleware/mwLogger"
	"salon-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	location, err := time.LoadLocation(cfg.Salon.Timezone)
	if err != nil {
		log.Error("Failed to load salon timezone", sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	provider := payments.NewStripeProvider(cfg.Stripe)

	service := svc.NewService(storage, locker, provider, log, svc.Config{
		Location:       location,
		DepositPercent: cfg.Salon.DepositPercent,
		HoldTTL:        cfg.Salon.HoldTTL,
		HorizonDays:    cfg.Salon.HorizonDays,
		SlotDuration:   time.Duration(cfg.Salon.SlotMinutes) * time.Minute,
	})

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Catalog
	router.Get("/services", serviceList.New(log, service))
	router.Get("/manicurists", manicuristList.New(log, service))

	// Slots
	router.Get("/manicurists/{id}/slots", slotGet.New(log, service))

	// Bookings
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings", bookingGet.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Put("/bookings/{id}/cancel", bookingCancel.New(log, service))
	router.Put("/bookings/{id}/reschedule", bookingReschedule.New(log, service))
	router.Post("/bookings/{id}/complete", bookingComplete.New(log, service))
	router.Get("/bookings/{id}/deposit", bookingDeposit.New(log, service))

	// Promotion
	router.Get("/promotion", promotionGet.New(log, service))

	// Payments
	router.Post("/payments/webhook", paymentWebhook.New(log, service, cfg.Stripe.WebhookSecret, cfg.Stripe.WebhookTolerance))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
