package cleaners

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

var (
	outboundDropped = []string{"Attachments", "Bcc", "Cc", "To"}
	opensDropped    = []string{"Geo_IP", "Geo_Coords", "Geo_Zip", "Recipient"}
)

// CleanMessageOutbound cleans one outbound message. Only the first
// recipient is kept, base64 encoded.
func CleanMessageOutbound(cc Context, msg schema.RawRecord) (schema.CleanedRecord, error) {
	out := cloneWithout(msg, outboundDropped...)

	out["Recipients"] = encodeFirstRecipient(msg["Recipients"])
	for _, k := range []string{"TrackLinks", "TrackOpens"} {
		if v, ok := out[k].(string); ok && v == "None" {
			out[k] = false
		}
	}
	out["ProcessedAt"] = cc.Now.UTC()
	return conform(cc, out)
}

func encodeFirstRecipient(v any) any {
	var first any
	switch r := v.(type) {
	case []any:
		if len(r) == 0 {
			return nil
		}
		first = r[0]
	case string:
		first = r
	default:
		return nil
	}
	if first == nil {
		return nil
	}
	s, ok := first.(string)
	if !ok {
		s = fmt.Sprint(first)
	}
	if s == "" {
		return nil
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// CleanMessageOpens flattens every open event under "Opens", drops the
// precise geo and recipient columns and types the result.
func CleanMessageOpens(cc Context, payload schema.RawRecord) ([]schema.CleanedRecord, error) {
	rows, err := objects(payload, "Opens")
	if err != nil {
		return nil, err
	}

	out := make([]schema.CleanedRecord, 0, len(rows))
	for _, row := range rows {
		flat := make(schema.CleanedRecord, len(row))
		flatten("", row, flat)
		for _, k := range opensDropped {
			delete(flat, k)
		}
		flat["ProcessedAt"] = cc.Now.UTC()
		rec, err := conform(cc, flat)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// flatten writes nested objects as Parent_Child keys. Dots in keys become
// underscores as well.
func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := strings.ReplaceAll(k, ".", "_")
		if prefix != "" {
			key = prefix + "_" + key
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}
