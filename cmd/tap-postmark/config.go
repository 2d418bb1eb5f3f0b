package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// envPrefix namespaces environment overrides, e.g. TAP_POSTMARK_START_DATE
// or TAP_POSTMARK_STATE_BACKEND.
const envPrefix = "TAP_POSTMARK"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"state":     "state.path",
	"output":    "output.type",
	"streams":   "streams",
	"log-level": "observability.log_level",
	"fail-fast": "reliability.fail_fast",
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return v, nil
}

// loadConfig reads path (if any) over the defaults, then applies
// environment variables and flags, and validates the result.
func loadConfig(v *viper.Viper, path string) (*config.TapConfig, error) {
	cfg := config.NewTapConfig()
	if path != "" {
		loaded, err := config.LoadTapConfig(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to load %s", path))
		}
		cfg = loaded
	}

	applyOverrides(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(v *viper.Viper, cfg *config.TapConfig) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	list := func(key string, dst *[]string) {
		if v.IsSet(key) {
			*dst = splitList(v.GetStringSlice(key))
		}
	}

	str("start_date", &cfg.StartDate)
	str("postmark_server_token", &cfg.ServerToken)
	str("base_url", &cfg.BaseURL)
	list("streams", &cfg.Streams)

	str("output.type", &cfg.Output.Type)
	str("output.path", &cfg.Output.Path)
	str("output.compression", &cfg.Output.Compression)
	str("output.topic", &cfg.Output.Topic)
	list("output.brokers", &cfg.Output.Brokers)

	str("state.backend", &cfg.State.Backend)
	str("state.path", &cfg.State.Path)
	str("state.bucket", &cfg.State.Bucket)
	str("state.key", &cfg.State.Key)
	str("state.region", &cfg.State.Region)

	str("observability.log_level", &cfg.Observability.LogLevel)
	str("observability.metrics_addr", &cfg.Observability.MetricsAddr)

	if v.IsSet("reliability.fail_fast") {
		cfg.Reliability.FailFast = v.GetBool("reliability.fail_fast")
	}
	if v.IsSet("observability.enable_tracing") {
		cfg.Observability.EnableTracing = v.GetBool("observability.enable_tracing")
	}
}

// splitList accepts both repeated values and comma separated ones, which
// is what environment variables carry.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
