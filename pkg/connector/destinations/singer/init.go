package singer

import (
	"context"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/registry"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
)

func init() {
	_ = registry.RegisterDestination("singer", func(context.Context, *config.TapConfig) (core.Destination, error) {
		return NewStdoutDestination(logger.Get()), nil
	})
}
