package core

import (
	"fmt"
	"strings"
	"time"
)

// YearMonth identifies a calendar month; it is the aggregation key for every
// summary and balance.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth normalizes out-of-range months (13 -> January of next year).
func NewYearMonth(year int, month time.Month) YearMonth {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the "2006-01" form.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) Validate() error {
	if ym.Year < 1 || ym.Month < time.January || ym.Month > time.December {
		return ErrInvalidYearMonth
	}
	return nil
}

// AddMonths moves n months forward (or back when n is negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	return NewYearMonth(ym.Year, ym.Month+time.Month(n))
}

// FirstDay is the 1st of the month.
func (ym YearMonth) FirstDay() Date {
	return NewDate(ym.Year, int(ym.Month), 1)
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Sequence returns n consecutive months starting at ym inclusive.
func (ym YearMonth) Sequence(n int) []YearMonth {
	if n <= 0 {
		return nil
	}
	out := make([]YearMonth, n)
	for i := range out {
		out[i] = ym.AddMonths(i)
	}
	return out
}

// ThroughDecember returns every month from ym to December of the same year.
func (ym YearMonth) ThroughDecember() []YearMonth {
	return ym.Sequence(int(time.December-ym.Month) + 1)
}

// Preceding returns up to n months before ym, most recent first.
func (ym YearMonth) Preceding(n int) []YearMonth {
	out := make([]YearMonth, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, ym.AddMonths(-i))
	}
	return out
}

// CurrentYearMonth returns the month containing t.
func CurrentYearMonth(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
