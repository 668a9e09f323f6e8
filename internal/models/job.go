package models

import (
	"errors"
	"fmt"
	"math"
)

// JobType is the role of a stop within an order.
type JobType string

const (
	// JobTypeCollection is a pickup from the sender.
	JobTypeCollection JobType = "collection"
	// JobTypeDelivery is a drop-off at the receiver.
	JobTypeDelivery JobType = "delivery"
)

// Valid reports whether the job type is one of the known roles.
func (t JobType) Valid() bool {
	return t == JobTypeCollection || t == JobTypeDelivery
}

// GeoPoint is one pickup or drop-off obligation extracted from an order.
// Everything apart from the position is carried through clustering untouched.
type GeoPoint struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"orderId"`
	Type           JobType `json:"type"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	BikeQuantity   int     `json:"bikeQuantity"`
	TrackingNumber string  `json:"trackingNumber"`
}

// NewGeoPoint builds a point whose ID is derived from the order and its role.
func NewGeoPoint(orderID string, jobType JobType, coords Coordinates, bikes int, tracking string) GeoPoint {
	return GeoPoint{
		ID:             JobID(orderID, jobType),
		OrderID:        orderID,
		Type:           jobType,
		Lat:            coords.Latitude,
		Lon:            coords.Longitude,
		BikeQuantity:   bikes,
		TrackingNumber: tracking,
	}
}

// JobID returns the stable identifier of an order stop.
func JobID(orderID string, jobType JobType) string {
	return fmt.Sprintf("%s-%s", orderID, jobType)
}

// ErrInvalidPoint is returned by GeoPoint.Validate.
var ErrInvalidPoint = errors.New("invalid point")

// Validate checks the preconditions clustering relies on: finite WGS-84
// coordinates, a known job type and a non-negative bike quantity.
func (p GeoPoint) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidPoint)
	case !p.Type.Valid():
		return fmt.Errorf("%w %s: unknown type %q", ErrInvalidPoint, p.ID, p.Type)
	case math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("%w %s: latitude %v out of range", ErrInvalidPoint, p.ID, p.Lat)
	case math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180:
		return fmt.Errorf("%w %s: longitude %v out of range", ErrInvalidPoint, p.ID, p.Lon)
	case p.BikeQuantity < 0:
		return fmt.Errorf("%w %s: negative bike quantity", ErrInvalidPoint, p.ID)
	}

	return nil
}

// Coordinates returns the position of the point.
func (p GeoPoint) Coordinates() Coordinates {
	return Coordinates{Longitude: p.Lon, Latitude: p.Lat}
}

// GeocodeTask is a single order address that still lacks coordinates.
type GeocodeTask struct {
	OrderID string  // OrderID is the order the address belongs to.
	Type    JobType // Type tells whether the address is the sender's or the receiver's.
	Address string  // Address is the location to be geocoded.
}
