package handler

import (
	"time"

	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type coordinatesPayload struct {
	Lat float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type addressPayload struct {
	Address     string             `json:"address"  validate:"required"`
	City        string             `json:"city"     validate:"required"`
	ZipCode     string             `json:"zip_code" validate:"required"`
	Coordinates coordinatesPayload `json:"coordinates" validate:"required"`
}

type contactPayload struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"required"`
}

type packagePayload struct {
	WeightKg      float64 `json:"weight_kg" validate:"required,gt=0"`
	Description   string  `json:"description"`
	DeclaredValue float64 `json:"declared_value" validate:"gte=0"`
	Currency      string  `json:"currency"`
}

type createOrderRequest struct {
	Recipient   contactPayload `json:"recipient"    validate:"required"`
	Pickup      addressPayload `json:"pickup"       validate:"required"`
	Dropoff     addressPayload `json:"dropoff"      validate:"required"`
	Package     packagePayload `json:"package"      validate:"required"`
	ServiceType string         `json:"service_type" validate:"required,oneof=express same_day standard"`
}

type quotePayload struct {
	DistanceKm float64 `json:"distance_km"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

type createOrderResponse struct {
	OrderNumber       string       `json:"order_number"`
	Status            string       `json:"status"`
	Quote             quotePayload `json:"quote"`
	CreatedAt         time.Time    `json:"created_at"`
	EstimatedDelivery time.Time    `json:"estimated_delivery"`
}

type statusHistoryPayload struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

type orderDetailResponse struct {
	OrderNumber       string                 `json:"order_number"`
	Status            string                 `json:"status"`
	ServiceType       string                 `json:"service_type"`
	CustomerID        string                 `json:"customer_id"`
	CourierID         string                 `json:"courier_id,omitempty"`
	Recipient         contactPayload         `json:"recipient"`
	Pickup            addressPayload         `json:"pickup"`
	Dropoff           addressPayload         `json:"dropoff"`
	Package           packagePayload         `json:"package"`
	Quote             quotePayload           `json:"quote"`
	CreatedAt         time.Time              `json:"created_at"`
	EstimatedDelivery time.Time              `json:"estimated_delivery"`
	StatusHistory     []statusHistoryPayload `json:"status_history"`
}

type orderSummaryPayload struct {
	OrderNumber       string         `json:"order_number"`
	Status            string         `json:"status"`
	ServiceType       string         `json:"service_type"`
	CustomerID        string         `json:"customer_id"`
	CourierID         string         `json:"courier_id,omitempty"`
	Dropoff           addressPayload `json:"dropoff"`
	Quote             quotePayload   `json:"quote"`
	CreatedAt         time.Time      `json:"created_at"`
	EstimatedDelivery time.Time      `json:"estimated_delivery"`
}

type listOrdersResponse struct {
	Items      []orderSummaryPayload `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

type updateDestinationRequest struct {
	Dropoff addressPayload `json:"dropoff" validate:"required"`
}

type assignCourierRequest struct {
	CourierID string `json:"courier_id" validate:"required"`
}

func toAddressInputPayload(p addressPayload) ports.AddressInput {
	return ports.AddressInput{
		Address: p.Address,
		City:    p.City,
		ZipCode: p.ZipCode,
		Coordinates: ports.CoordinatesInput{
			Lat: p.Coordinates.Lat,
			Lng: p.Coordinates.Lng,
		},
	}
}

func fromAddressInput(a ports.AddressInput) addressPayload {
	return addressPayload{
		Address: a.Address,
		City:    a.City,
		ZipCode: a.ZipCode,
		Coordinates: coordinatesPayload{
			Lat: a.Coordinates.Lat,
			Lng: a.Coordinates.Lng,
		},
	}
}

func fromQuote(q ports.QuoteResult) quotePayload {
	return quotePayload{DistanceKm: q.DistanceKm, Amount: q.Amount, Currency: q.Currency}
}

func fromOrderDetail(d *ports.OrderDetail) orderDetailResponse {
	history := make([]statusHistoryPayload, 0, len(d.StatusHistory))
	for _, h := range d.StatusHistory {
		history = append(history, statusHistoryPayload{
			Status:    h.Status,
			Timestamp: h.Timestamp,
			Notes:     h.Notes,
		})
	}
	return orderDetailResponse{
		OrderNumber: d.OrderNumber,
		Status:      d.Status,
		ServiceType: d.ServiceType,
		CustomerID:  d.CustomerID,
		CourierID:   d.CourierID,
		Recipient: contactPayload{
			Name:  d.Recipient.Name,
			Email: d.Recipient.Email,
			Phone: d.Recipient.Phone,
		},
		Pickup:  fromAddressInput(d.Pickup),
		Dropoff: fromAddressInput(d.Dropoff),
		Package: packagePayload{
			WeightKg:      d.Package.WeightKg,
			Description:   d.Package.Description,
			DeclaredValue: d.Package.DeclaredValue,
			Currency:      d.Package.Currency,
		},
		Quote:             fromQuote(d.Quote),
		CreatedAt:         d.CreatedAt,
		EstimatedDelivery: d.EstimatedDelivery,
		StatusHistory:     history,
	}
}

func fromOrderSummary(s ports.OrderSummary) orderSummaryPayload {
	return orderSummaryPayload{
		OrderNumber:       s.OrderNumber,
		Status:            s.Status,
		ServiceType:       s.ServiceType,
		CustomerID:        s.CustomerID,
		CourierID:         s.CourierID,
		Dropoff:           fromAddressInput(s.Dropoff),
		Quote:             fromQuote(s.Quote),
		CreatedAt:         s.CreatedAt,
		EstimatedDelivery: s.EstimatedDelivery,
	}
}
