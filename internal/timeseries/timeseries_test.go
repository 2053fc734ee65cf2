package timeseries

import (
	"testing"
	"time"
)

func TestRangeTimestamps(t *testing.T) {
	end := time.Date(2025, 2, 21, 23, 59, 59, 0, time.UTC)
	r := Range{End: end, Step: time.Hour, Count: 48}

	got := r.Timestamps()
	if len(got) != 48 {
		t.Fatalf("expected 48 timestamps, got %d", len(got))
	}
	if got[0] != "2025-02-21T23:59:59" {
		t.Errorf("expected first timestamp to be the end instant, got %s", got[0])
	}

	seen := make(map[string]struct{}, len(got))
	for i, s := range got {
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate timestamp %s", s)
		}
		seen[s] = struct{}{}

		ts, err := time.Parse(Layout, s)
		if err != nil {
			t.Fatalf("timestamp %q does not parse: %v", s, err)
		}
		want := end.Add(-time.Duration(i) * time.Hour)
		if !ts.Equal(want) {
			t.Errorf("index %d: expected %s, got %s", i, want.Format(Layout), s)
		}
	}
}

func TestRangeIsDeterministic(t *testing.T) {
	r := Range{End: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Step: 30 * time.Minute, Count: 10}
	a := r.Timestamps()
	b := r.Timestamps()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs between runs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestRangeEmpty(t *testing.T) {
	r := Range{End: time.Now(), Step: time.Hour, Count: 0}
	if got := r.Timestamps(); got != nil {
		t.Fatalf("expected nil for zero count, got %v", got)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("2025-02-21T23:59:59"); err != nil {
		t.Errorf("bare layout should parse: %v", err)
	}
	ts, err := Parse("2025-02-21T23:45:00+08:00")
	if err != nil {
		t.Fatalf("RFC3339 should parse: %v", err)
	}
	if ts.Hour() != 23 || ts.Minute() != 45 {
		t.Errorf("unexpected parsed time %v", ts)
	}
	if _, err := Parse("21/02/2025"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
