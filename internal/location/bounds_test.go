package location

import "testing"

func usBounds() Bounds {
	return Bounds{LatMin: 24.5, LatMax: 49.5, LonMin: -125.0, LonMax: -66.9}
}

func TestBounds_Contains(t *testing.T) {
	b := usBounds()

	cases := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"interior", 39.7, -104.9, true},
		{"north edge inclusive", 49.5, -100.0, true},
		{"south edge inclusive", 24.5, -100.0, true},
		{"west edge inclusive", 40.0, -125.0, true},
		{"east edge inclusive", 40.0, -66.9, true},
		{"north of box", 49.6, -100.0, false},
		{"west of box", 40.0, -125.1, false},
		{"both out", 0, 0, false},
	}
	for _, tc := range cases {
		if got := b.Contains(tc.lat, tc.lon); got != tc.want {
			t.Fatalf("%s: Contains(%v, %v) = %v, want %v", tc.name, tc.lat, tc.lon, got, tc.want)
		}
	}
}
