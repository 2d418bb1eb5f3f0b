package state

import (
	"context"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/registry"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
)

func init() {
	_ = registry.RegisterStateStore("file", func(_ context.Context, cfg *config.TapConfig) (core.StateStore, error) {
		return NewFileStore(cfg.State.Path)
	})
	_ = registry.RegisterStateStore("memory", func(context.Context, *config.TapConfig) (core.StateStore, error) {
		return NewMemoryStore(nil), nil
	})
	_ = registry.RegisterStateStore("s3", func(ctx context.Context, cfg *config.TapConfig) (core.StateStore, error) {
		blob, err := DialS3(ctx, cfg.State)
		if err != nil {
			return nil, err
		}
		return NewObjectStore(blob, logger.Get()), nil
	})
	_ = registry.RegisterStateStore("gcs", func(ctx context.Context, cfg *config.TapConfig) (core.StateStore, error) {
		blob, err := DialGCS(ctx, cfg.State)
		if err != nil {
			return nil, err
		}
		return NewObjectStore(blob, logger.Get()), nil
	})
}
