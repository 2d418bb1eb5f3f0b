// Package daterange walks calendar days for day-bucketed Postmark endpoints.
package daterange

import (
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// Layout is the wire format of a day (YYYY-MM-DD).
const Layout = "2006-01-02"

// Day is an immutable calendar date in UTC. The zero value is not a valid day.
type Day struct {
	t time.Time
}

// ParseDay parses s as YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Day{}, errors.Wrap(err, errors.ErrorTypeInvalidDate,
			"expected YYYY-MM-DD").WithDetail(errors.DetailValue, s)
	}
	return Day{t: t}, nil
}

// MustParseDay is ParseDay for constants and tests.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.t.Format(Layout)
}

// ID is the day's digits as an integer, 2021-03-05 -> 20210305.
func (d Day) ID() int64 {
	id, _ := strconv.ParseInt(strings.ReplaceAll(d.String(), "-", ""), 10, 64)
	return id
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time { return d.t }

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d.t.IsZero() }

// Next returns the following day.
func (d Day) Next() Day { return Day{t: d.t.AddDate(0, 0, 1)} }

// Before reports whether d is earlier than o.
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

// After reports whether d is later than o.
func (d Day) After(o Day) bool { return d.t.After(o.t) }

// Equal reports whether d and o are the same day.
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

// Later returns the later of a and b.
func Later(a, b Day) Day {
	if a.Before(b) {
		return b
	}
	return a
}

// Days yields every day from start through the UTC day of now, inclusive
// and ascending. It yields nothing when start is after now.
func Days(start Day, now time.Time) iter.Seq[Day] {
	end := DayOf(now)
	return func(yield func(Day) bool) {
		for d := start; !d.After(end); d = d.Next() {
			if !yield(d) {
				return
			}
		}
	}
}

// Walk parses start and walks up to clock(). The clock is read once per
// call, so successive calls may yield sequences of different length.
func Walk(start string, clock func() time.Time) (iter.Seq[Day], error) {
	d, err := ParseDay(start)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	return Days(d, clock()), nil
}
