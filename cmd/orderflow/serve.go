package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/nikolayk812/orderflow/internal/httpapi"
	"github.com/nikolayk812/orderflow/internal/repository"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		migrateFirst bool
		noScheduler  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the abandoned cart scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrateFirst && a.pool != nil {
				if err := repository.Migrate(a.pool); err != nil {
					return fmt.Errorf("repository.Migrate: %w", err)
				}
				a.logger.Info("migrations applied")
			}

			return serve(ctx, a, !noScheduler)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not run the abandoned cart sweep")

	return cmd
}

func serve(ctx context.Context, a *app, withScheduler bool) error {
	router := httpapi.NewRouter(httpapi.Deps{
		Carts:    a.carts,
		Orders:   a.orders,
		Payments: a.payments,
		Sweeper:  a.scheduler,
		Logger:   a.logger.Named("http"),
		Timeout:  a.cfg.HTTP.RequestTimeout,
	})

	srv := &http.Server{
		Addr:    a.cfg.HTTP.Addr,
		Handler: otelhttp.NewHandler(router, "orderflow"),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	})

	if withScheduler {
		g.Go(func() error {
			return a.scheduler.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("srv.Shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
