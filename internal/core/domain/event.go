package domain

import "time"

// CourierEvent represents a status update reported by a courier in the field.
type CourierEvent struct {
	OrderNumber string
	CourierID   string
	Status      OrderStatus
	Timestamp   time.Time
	Location    *Coordinates // optional
}
