package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/dipex/internal/app"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/logging"
	"github.com/joseph-ayodele/dipex/internal/repository"
	"github.com/joseph-ayodele/dipex/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("dipexd exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	store, err := repository.OpenStore(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := repository.HealthCheck(ctx, store, cfg.Database.DialTimeout, logger); err != nil {
		return err
	}
	logger.Info("database health OK", "driver", cfg.Database.Driver)

	core, err := app.NewCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := core.Close(); cerr != nil {
			logger.Warn("close blob resolver", "error", cerr)
		}
	}()

	trail, closeAudit, err := app.NewAuditTrail(ctx, cfg.Mongo, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeAudit(context.Background()); cerr != nil {
			logger.Warn("close audit trail", "error", cerr)
		}
	}()

	publisher, err := app.NewPublisher(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			logger.Warn("close publisher", "error", cerr)
		}
	}()

	svc := app.NewService(core, store, app.ServiceDeps{Audit: trail, Events: publisher}, logger)

	httpSrv := server.NewServer(logger, cfg, svc, core.Metrics.Handler())
	healthSrv := server.NewHealthServer(cfg.Server.GRPCAddr, store, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	g.Go(func() error {
		return healthSrv.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return httpSrv.Stop(context.WithoutCancel(gctx))
	})

	logger.Info("dipexd started",
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
		"vision", cfg.VisionEnabled())

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("dipexd stopped")
	return nil
}
