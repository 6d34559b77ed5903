// Command renderer consumes render requests from Kafka, renders each map
// product through Magics and publishes a rendered-product event per image.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/mapplot/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/mapplot/internal/adapter/kafka"
	"github.com/couchcryptid/mapplot/internal/adapter/pymagics"
	"github.com/couchcryptid/mapplot/internal/config"
	"github.com/couchcryptid/mapplot/internal/observability"
	"github.com/couchcryptid/mapplot/internal/pipeline"
	"github.com/couchcryptid/mapplot/internal/product"
	"github.com/couchcryptid/mapplot/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	engine := pymagics.New(pymagics.Config{
		Python:      cfg.MagicsPython,
		WorkDir:     cfg.MagicsWorkDir,
		FigureWidth: cfg.OutputWidth,
	}, logger)
	renderer := product.NewRenderer(engine,
		product.WithWidth(cfg.OutputWidth),
		product.WithLogger(logger),
	)
	service := render.NewService(renderer, render.OpenNetCDF, logger,
		render.WithOutputDir(cfg.OutputDir),
		render.WithDataDir(cfg.DataDir),
	)
	logger.Info("magics engine configured",
		"python", cfg.MagicsPython,
		"width", cfg.OutputWidth,
		"output_dir", cfg.OutputDir,
		"data_dir", cfg.DataDir,
		"render_timeout", cfg.RenderTimeout,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(service, cfg.RenderTimeout, metrics, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, service, cfg.RenderTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
