package clustering

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance in this package.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two
// positions given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a just outside [0, 1] for near-antipodal pairs
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
