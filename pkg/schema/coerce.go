package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-postmark/pkg/json"
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// IsEmpty reports whether v counts as absent: nil, "", or an empty map,
// slice or array. Zero numbers and false are values, not absence.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case bool, float64, int, int64, decimal.Decimal, time.Time:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Coerce converts value to kind. Empty values become nil when nullable and
// are otherwise returned as is, as are values of KindIdentity.
func Coerce(value any, kind CoercionKind, nullable bool) (any, error) {
	if IsEmpty(value) {
		if nullable {
			return nil, nil
		}
		return value, nil
	}

	var (
		out any
		err error
	)
	switch kind {
	case KindIdentity:
		return value, nil
	case KindString:
		out, err = toString(value)
	case KindInteger:
		out, err = toInteger(value)
	case KindDecimal:
		out, err = toDecimal(value)
	case KindTimestamp:
		out, err = toTimestamp(value)
	case KindBoolean:
		out, err = toBoolean(value)
	default:
		err = fmt.Errorf("unknown coercion kind")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConversion,
			fmt.Sprintf("could not convert %v to %s", value, kind)).
			WithDetail(errors.DetailValue, value)
	}
	return out, nil
}

// ParseTimestamp parses the date and time formats Postmark emits and
// normalizes the result to UTC. Values without an offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case decimal.Decimal:
		return t.String(), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	b, err := jsonpool.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toInteger(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || t > math.MaxInt64 || t < math.MinInt64 {
			return 0, fmt.Errorf("%v is not an integral number", t)
		}
		return int64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case decimal.Decimal:
		if !t.IsInteger() {
			return 0, fmt.Errorf("%s is not an integral number", t)
		}
		return t.IntPart(), nil
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, fmt.Errorf("%v is not finite", t)
		}
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	case bool:
		if t {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	}
	return decimal.Decimal{}, fmt.Errorf("unsupported type %T", v)
}

func toTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return ParseTimestamp(t)
	}
	return time.Time{}, fmt.Errorf("unsupported type %T", v)
}

func toBoolean(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	case float64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	}
	return false, fmt.Errorf("unsupported type %T", v)
}
