package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"habit_tracker_bot/internal/config"
	"habit_tracker_bot/internal/conversation"
	"habit_tracker_bot/internal/feature/user"
	"habit_tracker_bot/internal/health"
	"habit_tracker_bot/internal/logging"
	"habit_tracker_bot/internal/metrics"
	"habit_tracker_bot/internal/store"
	"habit_tracker_bot/internal/telegram"
	"habit_tracker_bot/internal/tracker"
)

const (
	storeOpenTimeout        = 10 * time.Second
	storeCloseTimeout       = 5 * time.Second
	commandsTimeout         = 5 * time.Second
	healthShutdownTimeout   = 5 * time.Second
	telegramShutdownTimeout = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":        "startup",
		"store_driver": cfg.StoreDriver,
		"timezone":     cfg.Location().String(),
	}).Info("configuration loaded")

	openCtx, cancelOpen := context.WithTimeout(context.Background(), storeOpenTimeout)
	habitStore, err := store.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		logger.WithError(err).Error("store open error")
		fmt.Fprintf(os.Stderr, "store open error: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logging.Fields{
		"event":  "store_open",
		"driver": habitStore.Driver(),
	}).Info("habit store ready")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(registry)

	registrar := user.NewRegistrar(habitStore, logger)
	machine := conversation.NewMachine(conversation.NewStateStore(), habitStore, logger)

	service, err := tracker.NewService(habitStore, machine, registrar,
		tracker.WithRecorder(recorder),
		tracker.WithLogger(logger),
	)
	if err != nil {
		logger.WithError(err).Error("service setup error")
		fmt.Fprintf(os.Stderr, "service setup error: %v\n", err)
		os.Exit(1)
	}

	tgClient, err := telegram.NewClient(cfg, service, logger)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	commandsCtx, cancelCommands := context.WithTimeout(context.Background(), commandsTimeout)
	if err := tgClient.RegisterCommands(commandsCtx, tracker.Menu); err != nil {
		logging.Warn("telegram command menu registration failed", logging.Fields{
			"event": "telegram_commands_error",
			"error": err,
		})
	}
	cancelCommands()

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	healthServer := health.NewServer(cfg.HTTPPort, habitStore, logger,
		health.WithMetrics(metrics.HTTPHandler(registry)),
	)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil {
			logger.WithError(err).Error("health server error")
		}
	}()

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})

	go func() {
		tgClient.Start(telegramCtx)
		close(tgDone)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping telegram polling")
	case <-tgDone:
		logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
	}

	cancelTelegram()

	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), healthShutdownTimeout)
	if err := healthServer.Shutdown(healthCtx); err != nil {
		logger.WithError(err).Warn("health server shutdown error")
	}
	cancelHealth()

	closeCtx, cancelClose := context.WithTimeout(context.Background(), storeCloseTimeout)
	if err := habitStore.Close(closeCtx); err != nil {
		logger.WithError(err).Error("store close error")
	} else {
		logger.WithField("event", "store_close").Info("habit store closed")
	}
	cancelClose()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
