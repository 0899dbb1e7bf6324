package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

// OrderCounter exposes the order aggregations the reports need.
type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByServiceType(ctx context.Context) (map[string]int64, error)
}

// UserCounter exposes the user aggregations the reports need.
type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type reportService struct {
	orders OrderCounter
	users  UserCounter
	log    zerolog.Logger
}

// NewReportService returns a ReportService backed by the given counters.
func NewReportService(orders OrderCounter, users UserCounter, log zerolog.Logger) ports.ReportService {
	return &reportService{orders: orders, users: users, log: log}
}

// PlatformReport assembles the admin dashboard counts. Totals are derived
// from the grouped counts so the numbers always agree with each other.
func (s *reportService) PlatformReport(ctx context.Context) (*ports.PlatformReport, error) {
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: count orders by status: %w", err)
	}
	byService, err := s.orders.CountByServiceType(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: count orders by service type: %w", err)
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: count users by role: %w", err)
	}

	report := &ports.PlatformReport{
		UsersByRole:         byRole,
		OrdersByStatus:      byStatus,
		OrdersByServiceType: byService,
	}
	for _, n := range byStatus {
		report.TotalOrders += n
	}
	for _, n := range byRole {
		report.TotalUsers += n
	}
	return report, nil
}
