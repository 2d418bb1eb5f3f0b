// Package core defines the contracts between the extraction engine, the
// Postmark source, the output destinations and the bookmark stores.
package core

import (
	"context"

	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
	ConnectorTypeState       ConnectorType = "state"
)

// Fetcher retrieves the raw payload of one stream for one UTC day.
type Fetcher interface {
	Fetch(ctx context.Context, stream string, day daterange.Day) (schema.RawRecord, error)
}

// Destination is the interface that all destination connectors must implement.
// WriteSchema is called once per stream before its first WriteRecords.
type Destination interface {
	WriteSchema(ctx context.Context, stream *schema.StreamSchema, jsonSchema map[string]any) error
	WriteRecords(ctx context.Context, stream string, records []schema.CleanedRecord) error
	// WriteState publishes the bookmarks after the records they cover
	// have been accepted.
	WriteState(ctx context.Context, state *State) error
	Close(ctx context.Context) error
}

// StateStore persists bookmarks between runs.
type StateStore interface {
	// Load returns an empty state when nothing has been saved yet.
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// Closer is implemented by sources and stores holding connections.
type Closer interface {
	Close() error
}
