// Package export renders route plans for map clients.
package export

import (
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds set in the "kind" property.
const (
	KindDepot    = "depot"
	KindCentroid = "centroid"
	KindStop     = "stop"
)

// FeatureCollection converts a plan into GeoJSON. The collection holds the
// depot, one centroid per route (bounded by its stops) and every stop
// coloured like its route.
func FeatureCollection(plan *models.RoutePlan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	depot := geojson.NewFeature(orb.Point{plan.Depot.Longitude, plan.Depot.Latitude})
	depot.Properties["kind"] = KindDepot
	fc.Append(depot)

	for _, route := range plan.Routes {
		stops := make(orb.MultiPoint, 0, len(route.Points))
		for _, pt := range route.Points {
			stops = append(stops, orb.Point{pt.Lon, pt.Lat})
		}

		centroid := geojson.NewFeature(orb.Point{route.Centroid.Lon, route.Centroid.Lat})
		centroid.BBox = geojson.NewBBox(stops.Bound())
		centroid.Properties["kind"] = KindCentroid
		centroid.Properties["cluster"] = route.ID
		centroid.Properties["color"] = route.Color
		centroid.Properties["region"] = route.Region
		centroid.Properties["stops"] = len(route.Points)
		centroid.Properties["collectionBikes"] = route.CollectionBikes
		centroid.Properties["deliveryBikes"] = route.DeliveryBikes
		centroid.Properties["depotDistanceKm"] = route.DepotDistanceKm
		fc.Append(centroid)

		for i, pt := range route.Points {
			stop := geojson.NewFeature(stops[i])
			stop.ID = pt.ID
			stop.Properties["kind"] = KindStop
			stop.Properties["cluster"] = route.ID
			stop.Properties["color"] = route.Color
			stop.Properties["orderId"] = pt.OrderID
			stop.Properties["type"] = string(pt.Type)
			stop.Properties["bikeQuantity"] = pt.BikeQuantity
			stop.Properties["trackingNumber"] = pt.TrackingNumber
			fc.Append(stop)
		}
	}

	return fc
}
