package timeseries

import (
	"time"
)

// Layout is the timestamp format the data.gov.sg APIs accept in their
// date query parameters and the format we persist in CSV exports.
// It sorts lexicographically in chronological order.
const Layout = "2006-01-02T15:04:05"

// Range describes a finite sequence of query timestamps walking backward
// from End: End, End-Step, End-2*Step, ...
type Range struct {
	End   time.Time
	Step  time.Duration
	Count int
}

// Timestamps materializes the range as formatted timestamp strings,
// newest first. The result is fully determined by the range; calling it
// twice yields identical slices.
func (r Range) Timestamps() []string {
	if r.Count <= 0 {
		return nil
	}
	out := make([]string, 0, r.Count)
	for i := 0; i < r.Count; i++ {
		out = append(out, r.End.Add(-time.Duration(i)*r.Step).Format(Layout))
	}
	return out
}

// Parse reads a timestamp in one of the shapes the APIs return: full
// RFC3339 with offset, or the bare layout used in query parameters.
func Parse(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse(Layout, s)
}
