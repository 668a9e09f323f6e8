package models

import (
	"errors"
	"fmt"
	"time"
)

// OrderStatusPending is the status of an order that has just been received.
const OrderStatusPending = "pending"

// ErrInvalidOrder is returned by Order.Validate.
var ErrInvalidOrder = errors.New("invalid order")

// Order is a bike transport booking with its collection and delivery stops.
type Order struct {
	ID             string      `json:"id"`
	TrackingNumber string      `json:"trackingNumber"`
	BikeQuantity   int         `json:"bikeQuantity"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"createdAt,omitzero"`
	Stops          []OrderStop `json:"stops"`
}

// OrderStop is one address of an order. Coordinates stay nil until the stop is geocoded.
type OrderStop struct {
	Type              JobType      `json:"type"`
	Address           string       `json:"address"`
	Coordinates       *Coordinates `json:"coordinates,omitempty"`
	GeocodingAttempts int          `json:"geocodingAttempts"`
	GeocodingError    string       `json:"geocodingError,omitempty"`
	CompletedAt       *time.Time   `json:"completedAt,omitempty"`
}

// NewOrder builds a pending order with a collection and a delivery stop.
func NewOrder(id, tracking string, bikes int, collectionAddress, deliveryAddress string) Order {
	return Order{
		ID:             id,
		TrackingNumber: tracking,
		BikeQuantity:   bikes,
		Status:         OrderStatusPending,
		Stops: []OrderStop{
			{Type: JobTypeCollection, Address: collectionAddress},
			{Type: JobTypeDelivery, Address: deliveryAddress},
		},
	}
}

// Validate checks an order before it is stored: it needs an id, a non-negative
// bike quantity and at least one stop with an address, each role at most once.
func (o Order) Validate() error {
	switch {
	case o.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	case o.BikeQuantity < 0:
		return fmt.Errorf("%w %s: negative bike quantity", ErrInvalidOrder, o.ID)
	}

	seen := make(map[JobType]bool, len(o.Stops))
	addressed := false
	for _, s := range o.Stops {
		if !s.Type.Valid() {
			return fmt.Errorf("%w %s: unknown stop type %q", ErrInvalidOrder, o.ID, s.Type)
		}
		if seen[s.Type] {
			return fmt.Errorf("%w %s: duplicate %s stop", ErrInvalidOrder, o.ID, s.Type)
		}
		seen[s.Type] = true
		addressed = addressed || s.Address != ""
	}
	if !addressed {
		return fmt.Errorf("%w %s: no stop has an address", ErrInvalidOrder, o.ID)
	}

	return nil
}
