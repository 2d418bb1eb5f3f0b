// Package cleaners normalizes raw Postmark payloads into records, one
// cleaner per stream. The registry is fixed at compile time.
package cleaners

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

// Context carries what a cleaner needs besides the payload.
type Context struct {
	// Day is the day the payload was fetched for
	Day daterange.Day
	// Now stamps ProcessedAt
	Now time.Time
	// Schema is the stream's schema; stats cleaners map through it
	Schema *schema.StreamSchema
	Logger *zap.Logger
}

func (cc Context) logger() *zap.Logger {
	if cc.Logger == nil {
		return zap.NewNop()
	}
	return cc.Logger
}

// Cleaner turns one day's payload into zero or more records.
type Cleaner func(cc Context, payload schema.RawRecord) ([]schema.CleanedRecord, error)

var registry = map[string]Cleaner{
	"stats_outbound_bounces":  single(CleanStatsOutboundBounces),
	"stats_outbound_overview": single(CleanStatsOutboundOverview),
	"stats_outbound_platform": single(CleanStatsOutboundPlatform),
	"outbound_bounces":        eachIn("Days", CleanAggregate),
	"outbound_platform":       eachIn("Days", CleanAggregate),
	"outbound_clients":        eachIn("Days", CleanOutboundClients),
	"messages_outbound":       eachIn("Messages", CleanMessageOutbound),
	"messages_opens":          CleanMessageOpens,
}

// Lookup returns the cleaner registered for stream.
func Lookup(stream string) (Cleaner, bool) {
	c, ok := registry[stream]
	return c, ok
}

// Names lists the streams that have a cleaner, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func single(fn func(Context, schema.RawRecord) (schema.CleanedRecord, error)) Cleaner {
	return func(cc Context, payload schema.RawRecord) ([]schema.CleanedRecord, error) {
		rec, err := fn(cc, payload)
		if err != nil {
			return nil, err
		}
		return []schema.CleanedRecord{rec}, nil
	}
}

// eachIn applies fn to every object of the list stored under key. A
// missing or null list yields no records.
func eachIn(key string, fn func(Context, schema.RawRecord) (schema.CleanedRecord, error)) Cleaner {
	return func(cc Context, payload schema.RawRecord) ([]schema.CleanedRecord, error) {
		rows, err := objects(payload, key)
		if err != nil {
			return nil, err
		}
		out := make([]schema.CleanedRecord, 0, len(rows))
		for _, row := range rows {
			rec, err := fn(cc, row)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		return out, nil
	}
}

func objects(payload schema.RawRecord, key string) ([]schema.RawRecord, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeMalformedResponse, "%q is %T, not a list", key, raw)
	}
	rows := make([]schema.RawRecord, 0, len(list))
	for i, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeMalformedResponse, "%s[%d] is %T, not an object", key, i, item)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseTimestampTolerant parses non-empty strings with schema.ParseTimestamp.
// Unparsable strings are logged and returned unchanged; other values pass
// through untouched.
func ParseTimestampTolerant(logger *zap.Logger, field string, v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	t, err := schema.ParseTimestamp(s)
	if err != nil {
		logger.Warn("could not parse date, keeping original value",
			zap.String("field", field),
			zap.String("value", s),
			zap.Error(err))
		return s
	}
	return t
}

// conform applies the stream's field rules to rec in place. Declared keys
// the payload lacks become null and undeclared keys are kept. A timestamp
// that does not parse stays the original string.
func conform(cc Context, rec schema.CleanedRecord) (schema.CleanedRecord, error) {
	if cc.Schema == nil {
		return nil, errors.New(errors.ErrorTypeInternal, "cleaner called without a schema")
	}
	for _, rule := range cc.Schema.Fields {
		raw := rec[rule.Source]
		if rule.Source != rule.TargetName() {
			delete(rec, rule.Source)
		}

		if rule.Kind == schema.KindTimestamp {
			raw = ParseTimestampTolerant(cc.logger(), rule.Source, raw)
			if s, ok := raw.(string); ok && s != "" {
				rec[rule.TargetName()] = s
				continue
			}
		}

		value, err := schema.Coerce(raw, rule.Kind, rule.Nullable)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConversion,
				fmt.Sprintf("%s: field %q", cc.Schema.Name, rule.Source)).
				WithDetail(errors.DetailStream, cc.Schema.Name).
				WithDetail(errors.DetailField, rule.Source).
				WithDetail(errors.DetailValue, raw)
		}
		rec[rule.TargetName()] = value
	}
	return rec, nil
}
