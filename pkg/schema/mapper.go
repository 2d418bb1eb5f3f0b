package schema

import (
	"fmt"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// CleanRow applies every field rule of s to row, in declaration order.
// A rule whose source key is absent from row fails with a missing_field
// error; a failed coercion fails with a conversion error naming the field.
func CleanRow(row RawRecord, s *StreamSchema) (CleanedRecord, error) {
	cleaned := make(CleanedRecord, len(s.Fields))
	for _, rule := range s.Fields {
		raw, ok := row[rule.Source]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeMissingField,
				"%s: payload has no key %q", s.Name, rule.Source).
				WithDetail(errors.DetailStream, s.Name).
				WithDetail(errors.DetailField, rule.Source)
		}

		value, err := Coerce(raw, rule.Kind, rule.Nullable)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConversion,
				fmt.Sprintf("%s: field %q", s.Name, rule.Source)).
				WithDetail(errors.DetailStream, s.Name).
				WithDetail(errors.DetailField, rule.Source).
				WithDetail(errors.DetailValue, raw)
		}
		cleaned[rule.TargetName()] = value
	}
	return cleaned, nil
}
