package geo

import "math"

// Box is a rectangular lat/lon area of interest.
type Box struct {
	North float64
	South float64
	East  float64
	West  float64
}

// Contains reports whether a (longitude, latitude) pair lies in the box.
func (b Box) Contains(lon, lat float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// Round5 rounds a coordinate to 5 decimal places, the precision we key
// CSV deduplication on.
func Round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
