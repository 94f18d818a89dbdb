package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/Pale-Moon-Guild/grind-bot/app"
	"github.com/Pale-Moon-Guild/grind-bot/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("application stopped with error", "error", err)
	}

	if err := application.Close(); err != nil {
		application.Logger.Error("shutdown error", "error", err)
	}
	application.Logger.Info("application shut down gracefully")
}
