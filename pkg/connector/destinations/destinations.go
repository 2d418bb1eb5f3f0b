// Package destinations imports every destination connector so their init
// functions register them with the connector registry.
package destinations

import (
	// Import all destination connectors to trigger init() registration
	_ "github.com/ajitpratap0/tap-postmark/pkg/connector/destinations/jsonl"
	_ "github.com/ajitpratap0/tap-postmark/pkg/connector/destinations/kafka"
	_ "github.com/ajitpratap0/tap-postmark/pkg/connector/destinations/singer"
)
