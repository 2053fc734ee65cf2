package geo

import "testing"

func TestBoxContains(t *testing.T) {
	box := Box{North: 1.35106, South: 1.32206, East: 103.97839, West: 103.92805}

	cases := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"inside", 103.95, 1.34, true},
		{"on north edge", 103.95, 1.35106, true},
		{"north of box", 103.95, 1.36, false},
		{"west of box", 103.90, 1.34, false},
	}
	for _, tc := range cases {
		if got := box.Contains(tc.lon, tc.lat); got != tc.want {
			t.Errorf("%s: Contains(%v, %v) = %v, want %v", tc.name, tc.lon, tc.lat, got, tc.want)
		}
	}
}

func TestRound5(t *testing.T) {
	if got := Round5(1.330119999); got != 1.33012 {
		t.Fatalf("Round5 = %v, want 1.33012", got)
	}
	if got := Round5(103.93389999); got != 103.9339 {
		t.Fatalf("Round5 = %v, want 103.9339", got)
	}
}
