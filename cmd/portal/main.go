package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portal/internal/config"
	"portal/internal/janitor"
	"portal/internal/logger"
	"portal/internal/routing"
	"portal/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load() // env file named by START, else .env
	if err != nil {
		return err
	}
	log := logger.Load(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	stores, err := storage.Open(openCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())

	purge, err := janitor.New(stores.Sessions, cfg.PurgeSchedule, cfg.StoreTimeout, log)
	if err != nil {
		return err
	}
	purge.Start()
	defer purge.Stop()

	r := routing.NewRouter(stores.Users, stores.Sessions, cfg, log)
	return routing.StartServer(ctx, r, cfg.HTTPAddr, log)
}
