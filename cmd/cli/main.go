package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/flashgenius/internal/client/cli"
	"github.com/dmitrijs2005/flashgenius/internal/client/config"
	"github.com/dmitrijs2005/flashgenius/internal/logging"
	"github.com/joho/godotenv"
)

func init() {
	// A .env file is optional; real environment variables still apply.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: reading .env: %v", err)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := cli.PromptSecrets(cfg, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
