package main

import (
	"fmt"
	"io"

	jsonpool "github.com/ajitpratap0/tap-postmark/pkg/json"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

type discoveredStream struct {
	Stream         string         `json:"stream"`
	TapStreamID    string         `json:"tap_stream_id"`
	Description    string         `json:"description,omitempty"`
	KeyProperties  []string       `json:"key_properties"`
	ReplicationKey string         `json:"replication_key,omitempty"`
	Schema         map[string]any `json:"schema"`
}

// writeDiscovery prints cat as a Singer catalog.
func writeDiscovery(w io.Writer, cat *schema.Catalog) error {
	streams := make([]discoveredStream, 0, len(cat.Streams()))
	for _, s := range cat.Streams() {
		streams = append(streams, discoveredStream{
			Stream:         s.Name,
			TapStreamID:    s.Name,
			Description:    s.Description,
			KeyProperties:  s.KeyProperties,
			ReplicationKey: s.ReplicationKey,
			Schema:         cat.JSONSchema(s),
		})
	}
	out, err := jsonpool.MarshalIndent(map[string]any{"streams": streams}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// writeStreams lists stream names with their descriptions.
func writeStreams(w io.Writer, cat *schema.Catalog) error {
	for _, s := range cat.Streams() {
		if _, err := fmt.Fprintf(w, "%-26s %s\n", s.Name, s.Description); err != nil {
			return err
		}
	}
	return nil
}
