package jsonl

import (
	"context"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/registry"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
)

func init() {
	_ = registry.RegisterDestination("jsonl", func(_ context.Context, cfg *config.TapConfig) (core.Destination, error) {
		return NewDestination(cfg.Output, logger.Get())
	})
}
