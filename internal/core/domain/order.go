package domain

import "time"

// OrderStatus represents the lifecycle state of a delivery order.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "created"
	StatusAssigned  OrderStatus = "assigned"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusCreated:   {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusPickedUp, StatusCancelled},
	StatusPickedUp:  {StatusInTransit},
	StatusInTransit: {StatusDelivered},
}

// ValidStatus reports whether s names a known order status.
func ValidStatus(s string) bool {
	switch OrderStatus(s) {
	case StatusCreated, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InMotion reports whether the order is in a courier's hands, which is the
// only window where location pings make sense.
func (s OrderStatus) InMotion() bool {
	return s == StatusAssigned || s == StatusPickedUp || s == StatusInTransit
}

// Editable reports whether the order may still be modified by the customer.
// Once a courier has picked the parcel up the destination is locked.
func (s OrderStatus) Editable() bool {
	return s == StatusCreated || s == StatusAssigned
}

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Address represents a physical location.
type Address struct {
	Address     string      `json:"address" bson:"address"`
	City        string      `json:"city" bson:"city"`
	ZipCode     string      `json:"zip_code" bson:"zip_code"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
}

// Contact represents the person handing over or receiving the parcel.
type Contact struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// Package contains the details of what is being delivered.
type Package struct {
	WeightKg      float64 `json:"weight_kg" bson:"weight_kg"`
	Description   string  `json:"description" bson:"description"`
	DeclaredValue float64 `json:"declared_value" bson:"declared_value"`
	Currency      string  `json:"currency" bson:"currency"`
}

// Quote is the price estimate computed when the order is created.
type Quote struct {
	DistanceKm float64 `json:"distance_km" bson:"distance_km"`
	Amount     float64 `json:"amount" bson:"amount"`
	Currency   string  `json:"currency" bson:"currency"`
}

// StatusHistoryEntry records a single status transition on an order.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
	Notes     string      `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Order is the core aggregate root.
type Order struct {
	ID                string               `json:"id" bson:"_id,omitempty"`
	OrderNumber       string               `json:"order_number" bson:"order_number"`
	CustomerID        string               `json:"customer_id" bson:"customer_id"`
	CourierID         string               `json:"courier_id,omitempty" bson:"courier_id,omitempty"`
	Recipient         Contact              `json:"recipient" bson:"recipient"`
	Pickup            Address              `json:"pickup" bson:"pickup"`
	Dropoff           Address              `json:"dropoff" bson:"dropoff"`
	Package           Package              `json:"package" bson:"package"`
	ServiceType       string               `json:"service_type" bson:"service_type"`
	Quote             Quote                `json:"quote" bson:"quote"`
	Status            OrderStatus          `json:"status" bson:"status"`
	CreatedAt         time.Time            `json:"created_at" bson:"created_at"`
	EstimatedDelivery time.Time            `json:"estimated_delivery" bson:"estimated_delivery"`
	IdempotencyKey    string               `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	StatusHistory     []StatusHistoryEntry `json:"status_history" bson:"status_history"`
}
