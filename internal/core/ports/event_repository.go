package ports

import (
	"context"
	"time"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
)

// EventRepository handles event persistence and atomic order status updates.
type EventRepository interface {
	// UpdateOrderStatus atomically sets the order's new status and appends a
	// history entry.
	UpdateOrderStatus(
		ctx context.Context,
		orderNumber string,
		status domain.OrderStatus,
		ts time.Time,
		notes string,
		location *domain.Coordinates,
	) error

	// UpdateOrderLocation refreshes the order's last known location without
	// touching its status or history.
	UpdateOrderLocation(ctx context.Context, orderNumber string, ts time.Time, location domain.Coordinates) error

	// InsertEvent persists an event to the order_events audit collection.
	InsertEvent(ctx context.Context, event *domain.CourierEvent) error
}
