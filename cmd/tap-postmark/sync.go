package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/internal/pipeline"
	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/base"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/registry"
	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
	"github.com/ajitpratap0/tap-postmark/pkg/metrics"
	"github.com/ajitpratap0/tap-postmark/pkg/observability"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

const sourceName = "postmark"

// loadCatalog returns the built-in catalog, or the one at path.
func loadCatalog(path string) (*schema.Catalog, error) {
	if path == "" {
		return schema.DefaultCatalog()
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return schema.ParseCatalog(data)
}

// runSync wires the configured collaborators and runs the engine once.
func runSync(ctx context.Context, cfg *config.TapConfig, cat *schema.Catalog) (err error) {
	ctx = logger.ContextWith(ctx, logger.RunIDKey, uuid.NewString())
	log := logger.WithContext(ctx).With(zap.String("component", "tap-postmark-cli"))

	log.Info("starting sync",
		zap.String("version", version),
		zap.String("output", cfg.Output.Type),
		zap.String("state_backend", cfg.State.Backend),
		zap.Any("config", cfg.Redacted()))

	if cfg.Observability.MetricsAddr != "" {
		if err := metrics.Serve(ctx, cfg.Observability.MetricsAddr, log); err != nil {
			return fmt.Errorf("failed to serve metrics: %w", err)
		}
	}
	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "tap-postmark",
			ServiceVersion: version,
			SamplingRate:   cfg.Observability.TracingSampleRate,
		})
		if err != nil {
			return err
		}
		defer func() {
			if serr := shutdown(context.Background()); serr != nil {
				log.Warn("failed to flush traces", zap.Error(serr))
			}
		}()
	}

	streams, err := cat.Select(cfg.Streams)
	if err != nil {
		return err
	}
	start, err := daterange.ParseDay(cfg.StartDate)
	if err != nil {
		return err
	}

	src, err := registry.CreateSource(ctx, sourceName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	defer closeQuietly(log, "source", src)

	store, err := registry.CreateStateStore(ctx, cfg.State.Backend, cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s state store: %w", cfg.State.Backend, err)
	}
	defer closeQuietly(log, "state store", store)

	dest, err := registry.CreateDestination(ctx, cfg.Output.Type, cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s destination: %w", cfg.Output.Type, err)
	}
	defer func() {
		if cerr := dest.Close(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close destination: %w", cerr)
		}
	}()

	engine, err := pipeline.NewEngine(src, dest, store, &pipeline.EngineConfig{
		Catalog:   cat,
		Streams:   streams,
		StartDate: start,
		FailFast:  cfg.Reliability.FailFast,
		Retry:     base.NewRetryPolicyFromConfig(cfg.Reliability),
	}, log)
	if err != nil {
		return err
	}

	summary, err := engine.Run(ctx)
	log.Info("sync finished",
		zap.Duration("duration", summary.Duration),
		zap.Int64("records", summary.Records()),
		zap.Strings("failed_streams", summary.Failed()))
	return err
}

// closeQuietly closes collaborators that hold resources.
func closeQuietly(log *zap.Logger, what string, v any) {
	c, ok := v.(core.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, zap.Error(err))
	}
}
