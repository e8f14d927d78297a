package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"promptadmin/internal/config"
	"promptadmin/internal/keyval"
	"promptadmin/internal/keyval/badgerstore"
	"promptadmin/internal/keyval/dynamo"
)

var cfgFile string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promptadmin",
		Short: "Prompt versioning and access-control admin service",
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to promptadmin.yaml")
	cmd.AddCommand(serveCmd(), initTableCmd(), seedCmd())
	return cmd
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// openStore builds the configured keyval driver.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (keyval.Store, error) {
	switch cfg.Store.Driver {
	case "dynamo":
		return dynamo.New(ctx, dynamo.Config{
			Table:    cfg.Store.Table,
			Region:   cfg.Store.Region,
			Endpoint: cfg.Store.Endpoint,
		}, log)
	case "badger":
		return badgerstore.New(badgerstore.Options{
			Path:     cfg.Store.Path,
			InMemory: cfg.Store.InMemory,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
