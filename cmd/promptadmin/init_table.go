package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"promptadmin/internal/config"
	"promptadmin/internal/keyval/dynamo"
)

func initTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-table",
		Short: "Create the DynamoDB table (dynamo driver only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != "dynamo" {
				return fmt.Errorf("init-table requires store.driver=dynamo, got %q", cfg.Store.Driver)
			}

			ctx := cmd.Context()
			store, err := dynamo.New(ctx, dynamo.Config{
				Table:    cfg.Store.Table,
				Region:   cfg.Store.Region,
				Endpoint: cfg.Store.Endpoint,
			}, log)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.InitTable(ctx)
		},
	}
}
