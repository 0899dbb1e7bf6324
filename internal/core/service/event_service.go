package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftparcel/delivery-platform/internal/api/metrics"
	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, orderNumber, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, orderNumber, status string, ts time.Time) error
}

type eventService struct {
	orderRepo ports.OrderRepository
	eventRepo ports.EventRepository
	dedup     DedupChecker
	log       zerolog.Logger
}

// NewEventService returns an EventService implementation.
func NewEventService(
	orderRepo ports.OrderRepository,
	eventRepo ports.EventRepository,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.EventService {
	return &eventService{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		dedup:     dedup,
		log:       log,
	}
}

// locationStatus is the dedup/metrics label for pure location pings, which
// carry no status transition.
const locationStatus = "location"

// Process validates, deduplicates, and persists a single courier event.
// Events without a status are location pings and skip the state machine.
func (s *eventService) Process(ctx context.Context, in ports.CourierEventInput) error {
	if in.Status == "" {
		return s.processLocationPing(ctx, in)
	}

	start := time.Now()
	newStatus := domain.OrderStatus(in.Status)

	// 1. Idempotency check — silently skip duplicates.
	isDup, err := s.dedup.IsDuplicate(ctx, in.OrderNumber, in.Status, in.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("order_number", in.OrderNumber).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.EventsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("order_number", in.OrderNumber).Str("status", in.Status).Msg("duplicate event skipped")
		return nil
	}
	metrics.EventsDedupTotal.WithLabelValues("miss").Inc()

	order, err := s.orderRepo.FindByNumber(ctx, in.OrderNumber)
	if err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("order_not_found").Inc()
		return fmt.Errorf("process event: %w", err)
	}

	// 2. Only the assigned courier may report progress on an order.
	if order.CourierID == "" || order.CourierID != in.CourierID {
		metrics.EventsErrorsTotal.WithLabelValues("courier_mismatch").Inc()
		return fmt.Errorf("process event: %w", domain.ErrForbidden)
	}

	// 3. Validate state machine transition.
	if !order.Status.CanTransitionTo(newStatus) {
		metrics.EventsErrorsTotal.WithLabelValues("invalid_transition").Inc()
		return fmt.Errorf("process event: %w (from %s to %s)", domain.ErrInvalidTransition, order.Status, newStatus)
	}

	// 4. Mark as processed before writing (prevents duplicate processing on retry).
	if markErr := s.dedup.Mark(ctx, in.OrderNumber, in.Status, in.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("order_number", in.OrderNumber).Msg("failed to set dedup key")
	}

	var loc *domain.Coordinates
	if in.Location != nil {
		loc = &domain.Coordinates{Lat: in.Location.Lat, Lng: in.Location.Lng}
	}

	// 5. Atomically update order status + history.
	if err := s.eventRepo.UpdateOrderStatus(ctx, in.OrderNumber, newStatus, in.Timestamp, "courier "+in.CourierID, loc); err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("update_failed").Inc()
		return fmt.Errorf("process event: update status: %w", err)
	}

	// 6. Insert into audit trail (non-fatal on failure).
	auditEvent := &domain.CourierEvent{
		OrderNumber: in.OrderNumber,
		CourierID:   in.CourierID,
		Status:      newStatus,
		Timestamp:   in.Timestamp,
		Location:    loc,
	}
	if err := s.eventRepo.InsertEvent(ctx, auditEvent); err != nil {
		s.log.Warn().Err(err).Str("order_number", in.OrderNumber).Msg("failed to insert audit event")
	}

	metrics.EventsProcessedTotal.WithLabelValues(in.Status).Inc()
	metrics.EventProcessingDuration.WithLabelValues(in.Status).Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("order_number", in.OrderNumber).
		Str("status", in.Status).
		Str("courier_id", in.CourierID).
		Msg("event processed")

	return nil
}

// processLocationPing refreshes the order's last known location. Pings never
// move the state machine and repeated positions for an order in motion are
// expected, so only the per-timestamp dedup applies.
func (s *eventService) processLocationPing(ctx context.Context, in ports.CourierEventInput) error {
	start := time.Now()

	if in.Location == nil {
		metrics.EventsErrorsTotal.WithLabelValues("missing_location").Inc()
		return fmt.Errorf("process location ping: no coordinates")
	}

	isDup, err := s.dedup.IsDuplicate(ctx, in.OrderNumber, locationStatus, in.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("order_number", in.OrderNumber).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.EventsDedupTotal.WithLabelValues("hit").Inc()
		return nil
	}
	metrics.EventsDedupTotal.WithLabelValues("miss").Inc()

	order, err := s.orderRepo.FindByNumber(ctx, in.OrderNumber)
	if err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("order_not_found").Inc()
		return fmt.Errorf("process location ping: %w", err)
	}
	if order.CourierID == "" || order.CourierID != in.CourierID {
		metrics.EventsErrorsTotal.WithLabelValues("courier_mismatch").Inc()
		return fmt.Errorf("process location ping: %w", domain.ErrForbidden)
	}
	if !order.Status.InMotion() {
		metrics.EventsErrorsTotal.WithLabelValues("not_in_motion").Inc()
		return fmt.Errorf("process location ping: %w (order is %s)", domain.ErrInvalidTransition, order.Status)
	}

	if markErr := s.dedup.Mark(ctx, in.OrderNumber, locationStatus, in.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("order_number", in.OrderNumber).Msg("failed to set dedup key")
	}

	loc := domain.Coordinates{Lat: in.Location.Lat, Lng: in.Location.Lng}
	if err := s.eventRepo.UpdateOrderLocation(ctx, in.OrderNumber, in.Timestamp, loc); err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("update_failed").Inc()
		return fmt.Errorf("process location ping: update location: %w", err)
	}

	auditEvent := &domain.CourierEvent{
		OrderNumber: in.OrderNumber,
		CourierID:   in.CourierID,
		Timestamp:   in.Timestamp,
		Location:    &loc,
	}
	if err := s.eventRepo.InsertEvent(ctx, auditEvent); err != nil {
		s.log.Warn().Err(err).Str("order_number", in.OrderNumber).Msg("failed to insert audit event")
	}

	metrics.EventsProcessedTotal.WithLabelValues(locationStatus).Inc()
	metrics.EventProcessingDuration.WithLabelValues(locationStatus).Observe(time.Since(start).Seconds())

	s.log.Debug().
		Str("order_number", in.OrderNumber).
		Str("courier_id", in.CourierID).
		Float64("lat", loc.Lat).
		Float64("lng", loc.Lng).
		Msg("location updated")

	return nil
}
