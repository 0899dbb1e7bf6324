package ports

import "context"

// PlatformReport aggregates operational counts for the admin dashboard.
type PlatformReport struct {
	TotalUsers          int64            `json:"total_users"`
	TotalOrders         int64            `json:"total_orders"`
	UsersByRole         map[string]int64 `json:"users_by_role"`
	OrdersByStatus      map[string]int64 `json:"orders_by_status"`
	OrdersByServiceType map[string]int64 `json:"orders_by_service_type"`
}

// ReportService builds aggregate reports across users and orders.
type ReportService interface {
	PlatformReport(ctx context.Context) (*PlatformReport, error)
}
