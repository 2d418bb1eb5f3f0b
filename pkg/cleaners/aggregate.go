package cleaners

import (
	"math"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

// CleanAggregate cleans one day-summary row: Total is the sum of every
// column but Date, ProcessedAt is stamped and the stream's rules type the
// declared columns.
func CleanAggregate(cc Context, row schema.RawRecord) (schema.CleanedRecord, error) {
	out := make(schema.CleanedRecord, len(row)+2)
	for k, v := range row {
		out[k] = v
	}

	total, err := sumColumns(row)
	if err != nil {
		return nil, err
	}
	out["Total"] = total
	out["ProcessedAt"] = cc.Now.UTC()
	return conform(cc, out)
}

// CleanOutboundClients renames Email.cz to Email_cz and aggregates the row.
func CleanOutboundClients(cc Context, row schema.RawRecord) (schema.CleanedRecord, error) {
	if v, ok := row["Email.cz"]; ok {
		row = cloneWithout(row, "Email.cz")
		row["Email_cz"] = v
	}
	return CleanAggregate(cc, row)
}

// sumColumns adds every numeric value except Date. Nulls count as zero.
// The total is an int64 when every addend is integral.
func sumColumns(row schema.RawRecord) (any, error) {
	var (
		sum      float64
		integral = true
	)
	for k, v := range row {
		if k == "Date" || v == nil {
			continue
		}
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		default:
			return nil, errors.Newf(errors.ErrorTypeConversion,
				"could not add column %q: %v is not a number", k, v).
				WithDetail(errors.DetailField, k).
				WithDetail(errors.DetailValue, v)
		}
		if f != math.Trunc(f) {
			integral = false
		}
		sum += f
	}
	if integral {
		return int64(sum), nil
	}
	return sum, nil
}

func cloneWithout(row schema.RawRecord, drop ...string) schema.RawRecord {
	out := make(schema.RawRecord, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, k := range drop {
		delete(out, k)
	}
	return out
}
