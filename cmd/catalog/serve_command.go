package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ogero/mediacatalog/internal"
	"github.com/ogero/mediacatalog/internal/common"
	"github.com/ogero/mediacatalog/internal/library"
	"github.com/ogero/mediacatalog/internal/loki"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const serviceName = "mediacatalog"

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Seed the catalog if needed and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmdCtx)
		},
	}
}

func runServe(ctx context.Context, cmdCtx *commandContext) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}

	logShutdown, err := common.InitLogger(serviceName, version, cfg.ServiceEnvironment, cfg.OTelExporterEndpoint)
	if err != nil {
		return fmt.Errorf("failed to common.InitLogger: %w", err)
	}
	defer func() {
		_ = logShutdown(context.Background())
	}()

	if cfg.OTelExporterEndpoint != "" {
		otelShutdown, err := common.InitInstrumentation(serviceName, version, cfg.ServiceEnvironment, cfg.OTelExporterEndpoint)
		if err != nil {
			return fmt.Errorf("failed to common.InitInstrumentation: %w", err)
		}
		defer otelShutdown(context.Background())
	}

	session, st, err := cmdCtx.openSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			common.Log.Error("Failed to store.Store.Close", "err", err)
		}
	}()

	var lokiClient loki.Loki
	if cfg.LokiHost != "" {
		lokiClient = loki.NewLoki(cfg.LokiHost, nil)
	}

	svc, err := internal.NewCatalogService(cfg.StatsWebsocketChannel, session, lokiClient)
	if err != nil {
		return err
	}

	fetcher, err := cmdCtx.manifestFetcher()
	if err != nil {
		return err
	}

	result, err := startService(ctx, svc, fetcher)
	if err != nil {
		return err
	}
	common.Log.InfoContext(ctx, "Catalog ready", "items", session.Cache().Len(), "skipped", result.Skipped, "fetchFailed", result.FetchFailed)

	app := internal.NewApp(svc, cfg.AddonHost)
	limiter := rate.NewLimiter(rate.Limit(cfg.ViewRateLimit), cfg.ViewRateBurst)

	srv := &http.Server{
		Addr:              cfg.ServerListenAddr,
		Handler:           otelhttp.NewHandler(app.Router(limiter), serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		common.Log.Info("Listening", "addr", cfg.ServerListenAddr, "host", cfg.AddonHost)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to http.Server.ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		svc.StartPollingStats(gctx, cfg.StatsPollInterval.Std())
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			common.Log.Error("Failed to http.Server.Shutdown", "err", err)
		}
		shutdownService(shutdownCtx, svc)
		return nil
	})

	err = g.Wait()
	common.Log.Info("Bye!")
	return err
}

// startService runs the session-start sequence on svc. A partial seed is logged and tolerated;
// any other failure shuts svc down before returning.
func startService(ctx context.Context, svc internal.CatalogService, fetcher library.ManifestFetcher) (library.SeedResult, error) {
	result, err := svc.Start(ctx, fetcher)

	var partial *library.SeedPartialFailure
	switch {
	case errors.As(err, &partial):
		common.Log.WarnContext(ctx, "Catalog seeded with failures", "stored", partial.Stored, "failed", partial.Failed)
	case err != nil:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownService(shutdownCtx, svc)
		return result, fmt.Errorf("failed to internal.CatalogService.Start: %w", err)
	}

	return result, nil
}

func shutdownService(ctx context.Context, svc internal.CatalogService) {
	if err := svc.Shutdown(ctx); err != nil {
		common.Log.Error("Failed to internal.CatalogService.Shutdown", "err", err)
	}
}
