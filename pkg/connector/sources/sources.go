// Package sources imports every source connector so their init functions
// register them with the connector registry.
package sources

import (
	// Import all source connectors to trigger init() registration
	_ "github.com/ajitpratap0/tap-postmark/pkg/connector/sources/postmark"
)
