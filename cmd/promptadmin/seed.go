package main

import (
	"github.com/spf13/cobra"

	"promptadmin/internal/config"
	"promptadmin/internal/repo"
	"promptadmin/internal/seed"
)

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load bootstrap fixtures (admin user, products, projects)",
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
			fixtures, err := seed.Parse(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			repos := repo.New(store, log)
			return seed.Apply(ctx, fixtures, repos, log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "seed.yaml", "path to the seed fixture file")
	return cmd
}
