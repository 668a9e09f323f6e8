package clustering

import "github.com/UnknownOlympus/hermes/internal/models"

// Region labels.
const (
	RegionLocal   = "Local"
	RegionNorth   = "North"
	RegionSouth   = "South"
	RegionWest    = "Wales/West"
	RegionEast    = "East"
	RegionCentral = "Central"
)

// LocalRadiusKm is the distance from the depot under which a cluster is local.
const LocalRadiusKm = 80.0

// The bands are asymmetric because the depot is not central to the service area.
const (
	northLatDelta = 1.5
	southLatDelta = -1.0
	westLonDelta  = -1.5
	eastLonDelta  = 0.5
)

// RegionName labels a centroid relative to the clusterer's depot.
func (c *Clusterer) RegionName(centroid models.Centroid) string {
	return RegionFor(c.depot, centroid)
}

// RegionFor labels a centroid by distance and compass direction from depot.
func RegionFor(depot models.Coordinates, centroid models.Centroid) string {
	if Haversine(centroid.Lat, centroid.Lon, depot.Latitude, depot.Longitude) < LocalRadiusKm {
		return RegionLocal
	}

	latDiff := centroid.Lat - depot.Latitude
	lonDiff := centroid.Lon - depot.Longitude

	switch {
	case latDiff > northLatDelta:
		return RegionNorth
	case latDiff < southLatDelta:
		return RegionSouth
	case lonDiff < westLonDelta:
		return RegionWest
	case lonDiff > eastLonDelta:
		return RegionEast
	default:
		return RegionCentral
	}
}
