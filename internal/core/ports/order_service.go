package ports

import (
	"context"
	"time"
)

// CoordinatesInput holds geographic coordinates.
type CoordinatesInput struct {
	Lat float64
	Lng float64
}

// AddressInput holds a physical location.
type AddressInput struct {
	Address     string
	City        string
	ZipCode     string
	Coordinates CoordinatesInput
}

// ContactInput holds recipient contact details.
type ContactInput struct {
	Name  string
	Email string
	Phone string
}

// PackageInput holds parcel details.
type PackageInput struct {
	WeightKg      float64
	Description   string
	DeclaredValue float64
	Currency      string
}

// CreateOrderInput carries all data needed to create a new delivery order.
type CreateOrderInput struct {
	Recipient      ContactInput
	Pickup         AddressInput
	Dropoff        AddressInput
	Package        PackageInput
	ServiceType    string
	CustomerID     string
	IdempotencyKey string
}

// QuoteResult is the price estimate attached to a created order.
type QuoteResult struct {
	DistanceKm float64
	Amount     float64
	Currency   string
}

// OrderResult is returned by the service after creating an order.
type OrderResult struct {
	OrderNumber       string
	Status            string
	Quote             QuoteResult
	CreatedAt         time.Time
	EstimatedDelivery time.Time
	// AlreadyExisted is true when the Idempotency-Key matched an existing order.
	AlreadyExisted bool
}

// Actor identifies the caller for RBAC enforcement. Customers only see their
// own orders, couriers only orders assigned to them, admins see everything.
type Actor struct {
	UserID string
	Role   string
}

// StatusHistoryItem is a single entry in the order's status history.
type StatusHistoryItem struct {
	Status    string
	Timestamp time.Time
	Notes     string
}

// OrderDetail is the full order view returned by GetOrder.
type OrderDetail struct {
	OrderNumber       string
	Status            string
	ServiceType       string
	CustomerID        string
	CourierID         string
	Recipient         ContactInput
	Pickup            AddressInput
	Dropoff           AddressInput
	Package           PackageInput
	Quote             QuoteResult
	CreatedAt         time.Time
	EstimatedDelivery time.Time
	StatusHistory     []StatusHistoryItem
}

// ListOrdersInput carries all parameters for the list endpoint.
type ListOrdersInput struct {
	Actor       Actor
	Status      string
	ServiceType string
	Page        int
	Limit       int
}

// OrderSummary is the lightweight view used in list responses.
type OrderSummary struct {
	OrderNumber       string
	Status            string
	ServiceType       string
	CustomerID        string
	CourierID         string
	Dropoff           AddressInput
	Quote             QuoteResult
	CreatedAt         time.Time
	EstimatedDelivery time.Time
}

// ListOrdersResult is returned by ListOrders.
type ListOrdersResult struct {
	Items      []OrderSummary
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// OrderService defines use-case operations for delivery orders.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error)
	GetOrder(ctx context.Context, actor Actor, orderNumber string) (*OrderDetail, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*ListOrdersResult, error)
	// UpdateDestination replaces the dropoff address. Only allowed while the
	// parcel has not been picked up.
	UpdateDestination(ctx context.Context, actor Actor, orderNumber string, dropoff AddressInput) error
	// CancelOrder cancels an order that has not been picked up yet.
	CancelOrder(ctx context.Context, actor Actor, orderNumber string) error
	// AssignCourier moves a created order to assigned. Admin only.
	AssignCourier(ctx context.Context, orderNumber, courierID string) error
}
