package ports

import (
	"context"
	"time"
)

// LocationInput carries optional geographic coordinates for a courier event.
type LocationInput struct {
	Lat float64
	Lng float64
}

// CourierEventInput is the DTO passed from the transport layer to EventService.
type CourierEventInput struct {
	OrderNumber string
	CourierID   string
	Status      string
	Timestamp   time.Time
	Location    *LocationInput // optional
}

// EventService processes incoming courier status events.
type EventService interface {
	Process(ctx context.Context, event CourierEventInput) error
}
