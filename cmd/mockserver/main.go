package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/config"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/dockerhttp/internal/mockserver"
)

func main() {
	cfg := config.LoadOrDefault()

	// Flags override the environment
	addr := flag.String("addr", cfg.MockServer.Addr, "Listen address")
	rps := flag.Float64("rate-limit", cfg.MockServer.RateLimit, "Requests per second per client (0 disables)")
	burst := flag.Int("burst", cfg.MockServer.Burst, "Rate limit burst")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.MockServer.Addr = *addr
	cfg.MockServer.RateLimit = *rps
	cfg.MockServer.Burst = *burst

	var logger *logging.Logger
	if *dev {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	tracer := tracing.New("mockserver", logger.Logger)
	defer tracer.Close()

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	srv, err := mockserver.New(cfg.MockServer,
		mockserver.WithLogger(logger),
		mockserver.WithMetrics(metrics, reg),
		mockserver.WithTracer(tracer),
		mockserver.WithDevelopment(*dev),
	)
	if err != nil {
		log.Fatalf("Failed to create mock API: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
