// Package schema declares stream schemas and turns raw Postmark payloads
// into typed records that conform to them.
package schema

import (
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// RawRecord is a JSON object exactly as decoded from the API.
type RawRecord = map[string]any

// CleanedRecord is a record whose values match their field rule or are nil.
type CleanedRecord = map[string]any

// CoercionKind selects the conversion applied to a field.
type CoercionKind string

const (
	// KindIdentity leaves the value untouched apart from the null rule.
	KindIdentity  CoercionKind = ""
	KindString    CoercionKind = "string"
	KindInteger   CoercionKind = "integer"
	KindDecimal   CoercionKind = "decimal"
	KindTimestamp CoercionKind = "timestamp"
	KindBoolean   CoercionKind = "boolean"
)

// ParseKind validates a kind name from the catalog.
func ParseKind(s string) (CoercionKind, error) {
	switch k := CoercionKind(s); k {
	case KindIdentity, KindString, KindInteger, KindDecimal, KindTimestamp, KindBoolean:
		return k, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown field type %q", s)
	}
}

// FieldRule maps one source key onto the cleaned record.
type FieldRule struct {
	Source   string
	Target   string
	Kind     CoercionKind
	Nullable bool
}

// TargetName is Target, falling back to Source.
func (r FieldRule) TargetName() string {
	if r.Target != "" {
		return r.Target
	}
	return r.Source
}

// StreamSchema is the immutable description of one stream.
type StreamSchema struct {
	Name           string
	Description    string
	KeyProperties  []string
	ReplicationKey string
	Fields         []FieldRule
}

// TargetNames lists the keys every cleaned record of the stream carries, in
// declaration order.
func (s *StreamSchema) TargetNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.TargetName()
	}
	return out
}
