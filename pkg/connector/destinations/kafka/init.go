package kafka

import (
	"context"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/registry"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
)

func init() {
	_ = registry.RegisterDestination("kafka", func(_ context.Context, cfg *config.TapConfig) (core.Destination, error) {
		return Connect(cfg.Output, logger.Get())
	})
}
