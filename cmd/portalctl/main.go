package main

import (
	"context"
	"os"

	"portal/internal/cli"
	"portal/internal/config"
	"portal/internal/logger"
	"portal/internal/storage"
	"portal/pkg/user"
)

func main() {
	if err := cli.NewRootCmd(open).Execute(); err != nil {
		os.Exit(1)
	}
}

func open(ctx context.Context) (*cli.Backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	stores, err := storage.Open(ctx, cfg, logger.New(os.Stderr, "warn"))
	if err != nil {
		return nil, nil, err
	}

	b := &cli.Backend{
		Users:    stores.Users,
		Sessions: stores.Sessions,
		Service:  user.NewService(stores.Users),
		Timeout:  cfg.StoreTimeout,
	}
	return b, func() { _ = stores.Close(context.Background()) }, nil
}
