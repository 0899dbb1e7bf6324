package handler

import "time"

type courierEventRequest struct {
	OrderNumber string              `json:"order_number" validate:"required"`
	Status      string              `json:"status"       validate:"required,oneof=picked_up in_transit delivered"`
	Timestamp   time.Time           `json:"timestamp"`
	Location    *coordinatesPayload `json:"location,omitempty"`
}

type courierLocationRequest struct {
	Location  *coordinatesPayload `json:"location"  validate:"required"`
	Timestamp time.Time           `json:"timestamp"`
}

type courierEventBatchRequest struct {
	Events []courierEventRequest `json:"events" validate:"required,min=1,max=100,dive"`
}

type eventAcceptedResponse struct {
	Accepted int `json:"accepted"`
}
