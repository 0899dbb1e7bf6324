package ports

import (
	"context"
	"time"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
)

// ListOrdersFilter carries all query parameters for listing orders.
// CustomerID/CourierID scoping is decided by the service layer (RBAC).
type ListOrdersFilter struct {
	CustomerID  string // non-empty = scoped to customer
	CourierID   string // non-empty = scoped to courier
	Status      string // optional: filter by order status
	ServiceType string // optional: filter by service type
	Page        int    // 1-based
	Limit       int    // capped at 100 by the service
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	// List returns a page of orders matching filter and the total count.
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, int64, error)
	UpdateDropoff(ctx context.Context, orderNumber string, dropoff domain.Address) error
	// AssignCourier atomically sets the courier, moves the order to assigned
	// and appends a history entry.
	AssignCourier(ctx context.Context, orderNumber, courierID string, ts time.Time) error
	// SetStatus sets the order status and appends a history entry.
	SetStatus(ctx context.Context, orderNumber string, status domain.OrderStatus, ts time.Time, notes string) error
}
