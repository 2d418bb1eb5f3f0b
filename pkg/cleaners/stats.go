package cleaners

import (
	"maps"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

var (
	bounceCounters = []string{
		"AutoResponder", "Blocked", "DnsError", "HardBounce", "SMTPApiError",
		"SoftBounce", "SpamNotification", "Transient", "Unknown",
	}
	platformCounters = []string{"Desktop", "Mobile", "Unknown", "WebMail"}
)

// CleanStatsOutboundBounces builds the fixed bounce-category record for a
// day. Categories absent from the payload map to null and the per-day
// breakdown under "Days" is discarded.
func CleanStatsOutboundBounces(cc Context, payload schema.RawRecord) (schema.CleanedRecord, error) {
	delete(payload, "Days")
	return mapDay(cc, pick(cc, payload, bounceCounters))
}

// CleanStatsOutboundOverview adds id and date to the payload and maps it.
func CleanStatsOutboundOverview(cc Context, payload schema.RawRecord) (schema.CleanedRecord, error) {
	row := maps.Clone(payload)
	if row == nil {
		row = schema.RawRecord{}
	}
	row["id"] = cc.Day.ID()
	row["date"] = cc.Day.String()
	return mapDay(cc, row)
}

// CleanStatsOutboundPlatform builds the fixed platform record for a day.
// Postmark leaves days without opens out of the response entirely, so an
// empty payload yields four null counters.
func CleanStatsOutboundPlatform(cc Context, payload schema.RawRecord) (schema.CleanedRecord, error) {
	return mapDay(cc, pick(cc, payload, platformCounters))
}

func pick(cc Context, payload schema.RawRecord, keys []string) schema.RawRecord {
	row := schema.RawRecord{
		"id":   cc.Day.ID(),
		"date": cc.Day.String(),
	}
	for _, k := range keys {
		row[k] = payload[k]
	}
	return row
}

func mapDay(cc Context, row schema.RawRecord) (schema.CleanedRecord, error) {
	if cc.Schema == nil {
		return nil, errors.New(errors.ErrorTypeInternal, "cleaner called without a schema")
	}
	return schema.CleanRow(row, cc.Schema)
}
