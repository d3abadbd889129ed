package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	adminhttp "github.com/GriffinCanCode/AgentOS/ipcshim/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/broker"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "broker: %v\n", err)
		os.Exit(1)
	}

	// Flags override env
	socket := flag.String("socket", cfg.Broker.SocketPath, "Unix socket path")
	capacity := flag.Int("capacity", cfg.Queue.Capacity, "Queue capacity")
	admin := flag.String("admin", adminAddr(cfg), "Admin HTTP address (empty to disable)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored debug logs)")
	flag.Parse()

	logger, err := logging.New(logging.BrokerConfig(cfg.Logging.Level, *dev))
	if err != nil {
		fmt.Fprintf(os.Stderr, "broker: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, *socket, *capacity, *admin, *dev); err != nil {
		logger.Fatal("Broker failed", zap.Error(err))
	}
}

func adminAddr(cfg *config.Config) string {
	if !cfg.Admin.Enabled {
		return ""
	}
	return cfg.Admin.Addr
}

func run(logger *logging.Logger, socket string, capacity int, admin string, dev bool) error {
	if capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", capacity)
	}

	metrics := monitoring.NewMetrics()
	q := queue.New(capacity)
	srv := broker.New(socket, q, logger, metrics)
	if err := srv.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var adminSrv *http.Server
	if admin != "" {
		handlers := adminhttp.NewHandlers(socket, q, metrics)
		adminSrv = &http.Server{
			Addr:              admin,
			Handler:           adminhttp.NewRouter(handlers, metrics, dev),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Admin endpoint listening", zap.String("addr", admin))
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Admin endpoint failed", zap.Error(err))
			}
		}()
	}

	serveErr := srv.Serve(ctx)
	logger.Info("Shutting down gracefully")

	if adminSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Admin shutdown failed", zap.Error(err))
		}
	}

	return serveErr
}
