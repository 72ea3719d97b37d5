package analysis

import "math"

// EarthRadiusMeters is the IUGG mean Earth radius.
const EarthRadiusMeters = 6371008.8

// metersPerDegree is the great-circle length of one degree on the sphere.
const metersPerDegree = EarthRadiusMeters * math.Pi / 180

// Point is a WGS84 position tagged with the identifier of the record it came
// from. Key drives the deterministic ordering of cluster ids.
type Point struct {
	Key string
	Lat float64
	Lon float64
}

// Valid reports whether both coordinates are finite and within range.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// HaversineMeters returns the great-circle distance between a and b.
func HaversineMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if s > 1 {
		s = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(s))
}

// DegreeSpan returns how many degrees of latitude and of longitude cover at
// least meters everywhere between the equator and maxAbsLat.
func DegreeSpan(meters, maxAbsLat float64) (dLat, dLon float64) {
	dLat = meters / metersPerDegree
	c := math.Cos(maxAbsLat * math.Pi / 180)
	if c < 0.01 {
		c = 0.01
	}
	dLon = meters / (metersPerDegree * c)
	return dLat, dLon
}

//Personal.AI order the ending
