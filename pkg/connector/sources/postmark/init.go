package postmark

import (
	"context"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/registry"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
)

func init() {
	// Register the Postmark source connector in the global registry
	_ = registry.RegisterSource("postmark", func(_ context.Context, cfg *config.TapConfig) (core.Fetcher, error) {
		return NewSource(cfg, logger.Get())
	})
}
