package dispatch

import (
	"regexp"
	"strconv"
)

// Groups match whole numbers so a fragment of a longer figure, like a
// price, cannot pass as an in-bounds coordinate.
var coordPattern = regexp.MustCompile(`(-?\d+\.\d+)\s*,\s*(-?\d+\.\d+)`)

// GeoBounds limits which decimal coordinate pairs count as a real
// location rather than an arbitrary pair of numbers in prose.
type GeoBounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (b GeoBounds) contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ExtractCoordinates scans text for a "lat, lon" decimal pair inside
// bounds and returns the first in-bounds match. Out-of-bounds pairs
// are skipped so a later valid pair can still win.
func ExtractCoordinates(text string, bounds GeoBounds) (lat, lon float64, ok bool) {
	for _, m := range coordPattern.FindAllStringSubmatch(text, -1) {
		la, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		lo, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if bounds.contains(la, lo) {
			return la, lo, true
		}
	}
	return 0, 0, false
}
