package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"promptadmin/internal/auth"
	"promptadmin/internal/authz"
	"promptadmin/internal/config"
	"promptadmin/internal/httpapi"
	"promptadmin/internal/prompts"
	"promptadmin/internal/repo"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
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

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			repos := repo.New(store, log)
			gate := authz.New(repos.Grants, repos.Versions)
			promptSvc := prompts.NewService(repos, gate, log)
			tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			api := httpapi.NewServer(repos, promptSvc, tokens, log)

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      api.Router(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting server",
					zap.String("addr", cfg.Server.Addr),
					zap.String("store", cfg.Store.Driver))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
