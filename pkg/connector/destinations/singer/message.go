package singer

import (
	"time"

	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

// Message types of the Singer protocol.
const (
	TypeSchema = "SCHEMA"
	TypeRecord = "RECORD"
	TypeState  = "STATE"
)

// Message is one line of Singer output.
type Message struct {
	Type               string         `json:"type"`
	Stream             string         `json:"stream,omitempty"`
	Record             map[string]any `json:"record,omitempty"`
	TimeExtracted      *time.Time     `json:"time_extracted,omitempty"`
	Schema             map[string]any `json:"schema,omitempty"`
	KeyProperties      []string       `json:"key_properties,omitempty"`
	BookmarkProperties []string       `json:"bookmark_properties,omitempty"`
	Value              *core.State    `json:"value,omitempty"`
}

// SchemaMessage describes a stream before its first record.
func SchemaMessage(s *schema.StreamSchema, jsonSchema map[string]any) Message {
	m := Message{
		Type:          TypeSchema,
		Stream:        s.Name,
		Schema:        jsonSchema,
		KeyProperties: s.KeyProperties,
	}
	if s.ReplicationKey != "" {
		m.BookmarkProperties = []string{s.ReplicationKey}
	}
	return m
}

// RecordMessage wraps one cleaned record.
func RecordMessage(stream string, rec schema.CleanedRecord, extracted time.Time) Message {
	t := extracted.UTC()
	return Message{
		Type:          TypeRecord,
		Stream:        stream,
		Record:        rec,
		TimeExtracted: &t,
	}
}

// StateMessage publishes the bookmarks.
func StateMessage(st *core.State) Message {
	return Message{Type: TypeState, Value: st}
}
