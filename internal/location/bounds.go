package location

import "callgate/internal/config"

// Bounds is the rectangular region of permitted coordinates.
type Bounds struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

func BoundsFromConfig(cfg config.GeofenceConfig) Bounds {
	return Bounds{
		LatMin: cfg.LatMin,
		LatMax: cfg.LatMax,
		LonMin: cfg.LonMin,
		LonMax: cfg.LonMax,
	}
}

// Contains reports whether the coordinates fall inside the region.
// Edges are inclusive.
func (b Bounds) Contains(lat, lon float64) bool {
	return b.LatMin <= lat && lat <= b.LatMax &&
		b.LonMin <= lon && lon <= b.LonMax
}
