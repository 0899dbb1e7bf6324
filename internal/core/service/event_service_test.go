package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type stubDedup struct {
	seen  map[string]bool
	fail  bool
	marks int
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func dedupKey(orderNumber, status string, ts time.Time) string {
	return fmt.Sprintf("%s:%s:%d", orderNumber, status, ts.Unix())
}

func (d *stubDedup) IsDuplicate(_ context.Context, orderNumber, status string, ts time.Time) (bool, error) {
	if d.fail {
		return false, fmt.Errorf("redis down")
	}
	return d.seen[dedupKey(orderNumber, status, ts)], nil
}

func (d *stubDedup) Mark(_ context.Context, orderNumber, status string, ts time.Time) error {
	d.marks++
	d.seen[dedupKey(orderNumber, status, ts)] = true
	return nil
}

type stubEventRepo struct {
	orders    *stubOrderRepo
	events    []*domain.CourierEvent
	failIns   bool
	lastLoc   *domain.Coordinates
	lastLocOn string // order number of the last location update
}

func (r *stubEventRepo) UpdateOrderStatus(ctx context.Context, orderNumber string, status domain.OrderStatus, ts time.Time, notes string, _ *domain.Coordinates) error {
	return r.orders.SetStatus(ctx, orderNumber, status, ts, notes)
}

func (r *stubEventRepo) UpdateOrderLocation(_ context.Context, orderNumber string, _ time.Time, location domain.Coordinates) error {
	r.lastLoc = &location
	r.lastLocOn = orderNumber
	return nil
}

func (r *stubEventRepo) InsertEvent(_ context.Context, event *domain.CourierEvent) error {
	if r.failIns {
		return fmt.Errorf("insert failed")
	}
	r.events = append(r.events, event)
	return nil
}

func newEventFixture(t *testing.T) (ports.EventService, *stubOrderRepo, *stubEventRepo, *stubDedup, string) {
	t.Helper()
	orders := newStubOrderRepo()
	eventRepo := &stubEventRepo{orders: orders}
	dedup := newStubDedup()
	svc := NewEventService(orders, eventRepo, dedup, zerolog.Nop())

	orderSvc := NewOrderService(orders, newStubUserRepo(), zerolog.Nop())
	result, err := orderSvc.CreateOrder(context.Background(), orderFixtureInput("cust_1", ""))
	if err != nil {
		t.Fatalf("fixture order failed: %v", err)
	}
	if err := orders.AssignCourier(context.Background(), result.OrderNumber, "cour_1", time.Now()); err != nil {
		t.Fatalf("fixture assign failed: %v", err)
	}
	return svc, orders, eventRepo, dedup, result.OrderNumber
}

func TestEventService_Process_Success(t *testing.T) {
	svc, orders, eventRepo, _, orderNumber := newEventFixture(t)

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Status:      string(domain.StatusPickedUp),
		Timestamp:   time.Now().UTC(),
		Location:    &ports.LocationInput{Lat: 19.43, Lng: -99.13},
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	order, _ := orders.FindByNumber(context.Background(), orderNumber)
	if order.Status != domain.StatusPickedUp {
		t.Fatalf("expected picked_up, got %s", order.Status)
	}
	if len(eventRepo.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(eventRepo.events))
	}
	if eventRepo.events[0].Location == nil {
		t.Fatalf("location dropped from audit event")
	}
}

func TestEventService_Process_DuplicateSkipped(t *testing.T) {
	svc, orders, _, _, orderNumber := newEventFixture(t)
	ts := time.Now().UTC()

	event := ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Status:      string(domain.StatusPickedUp),
		Timestamp:   ts,
	}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	// Exact same event again: skipped silently, state unchanged.
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("duplicate must be skipped, got %v", err)
	}

	order, _ := orders.FindByNumber(context.Background(), orderNumber)
	if len(order.StatusHistory) != 3 { // created + assigned + picked_up
		t.Fatalf("duplicate appended history: %d entries", len(order.StatusHistory))
	}
}

func TestEventService_Process_CourierMismatch(t *testing.T) {
	svc, _, _, _, orderNumber := newEventFixture(t)

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "someone_else",
		Status:      string(domain.StatusPickedUp),
		Timestamp:   time.Now().UTC(),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEventService_Process_InvalidTransition(t *testing.T) {
	svc, _, _, _, orderNumber := newEventFixture(t)

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Status:      string(domain.StatusDelivered), // assigned → delivered is not allowed
		Timestamp:   time.Now().UTC(),
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestEventService_Process_UnknownOrder(t *testing.T) {
	svc, _, _, _, _ := newEventFixture(t)

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: "SP-DOESNOTEXIST",
		CourierID:   "cour_1",
		Status:      string(domain.StatusPickedUp),
		Timestamp:   time.Now().UTC(),
	})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestEventService_LocationPing_UpdatesLastLocation(t *testing.T) {
	svc, orders, eventRepo, _, orderNumber := newEventFixture(t)

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Timestamp:   time.Now().UTC(),
		Location:    &ports.LocationInput{Lat: 19.40, Lng: -99.15},
	})
	if err != nil {
		t.Fatalf("location ping failed: %v", err)
	}

	if eventRepo.lastLocOn != orderNumber || eventRepo.lastLoc == nil || eventRepo.lastLoc.Lat != 19.40 {
		t.Fatalf("location not stored: order=%q loc=%+v", eventRepo.lastLocOn, eventRepo.lastLoc)
	}
	// Pings never move the state machine or grow the history.
	order, _ := orders.FindByNumber(context.Background(), orderNumber)
	if order.Status != domain.StatusAssigned {
		t.Fatalf("ping must not change status, got %s", order.Status)
	}
	if len(order.StatusHistory) != 2 { // created + assigned
		t.Fatalf("ping appended history: %d entries", len(order.StatusHistory))
	}
	// But they do land in the audit trail.
	if len(eventRepo.events) != 1 || eventRepo.events[0].Status != "" {
		t.Fatalf("expected one statusless audit event, got %+v", eventRepo.events)
	}
}

func TestEventService_LocationPing_RepeatedPositionsAllowed(t *testing.T) {
	svc, _, eventRepo, _, orderNumber := newEventFixture(t)
	base := time.Now().UTC()

	// The same coordinates at different times are normal for a parked
	// courier; only identical timestamps are deduplicated.
	for i := 0; i < 3; i++ {
		err := svc.Process(context.Background(), ports.CourierEventInput{
			OrderNumber: orderNumber,
			CourierID:   "cour_1",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Location:    &ports.LocationInput{Lat: 19.40, Lng: -99.15},
		})
		if err != nil {
			t.Fatalf("ping %d failed: %v", i, err)
		}
	}
	if len(eventRepo.events) != 3 {
		t.Fatalf("expected 3 audit events, got %d", len(eventRepo.events))
	}
}

func TestEventService_LocationPing_WrongCourier(t *testing.T) {
	svc, _, _, _, orderNumber := newEventFixture(t)

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "someone_else",
		Timestamp:   time.Now().UTC(),
		Location:    &ports.LocationInput{Lat: 19.40, Lng: -99.15},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEventService_LocationPing_RejectedOnceDelivered(t *testing.T) {
	svc, orders, _, _, orderNumber := newEventFixture(t)
	for _, status := range []domain.OrderStatus{domain.StatusPickedUp, domain.StatusInTransit, domain.StatusDelivered} {
		if err := orders.SetStatus(context.Background(), orderNumber, status, time.Now(), ""); err != nil {
			t.Fatalf("fixture transition failed: %v", err)
		}
	}

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Timestamp:   time.Now().UTC(),
		Location:    &ports.LocationInput{Lat: 19.40, Lng: -99.15},
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestEventService_LocationPing_RequiresCoordinates(t *testing.T) {
	svc, _, eventRepo, _, orderNumber := newEventFixture(t)

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Timestamp:   time.Now().UTC(),
	})
	if err == nil {
		t.Fatalf("ping without coordinates must fail")
	}
	if eventRepo.lastLoc != nil {
		t.Fatalf("nothing must be stored: %+v", eventRepo.lastLoc)
	}
}

func TestEventService_Process_DedupFailureIsNotFatal(t *testing.T) {
	svc, orders, _, dedup, orderNumber := newEventFixture(t)
	dedup.fail = true

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Status:      string(domain.StatusPickedUp),
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dedup outage must not block processing: %v", err)
	}

	order, _ := orders.FindByNumber(context.Background(), orderNumber)
	if order.Status != domain.StatusPickedUp {
		t.Fatalf("expected picked_up, got %s", order.Status)
	}
}

func TestEventService_Process_AuditFailureIsNotFatal(t *testing.T) {
	svc, orders, eventRepo, _, orderNumber := newEventFixture(t)
	eventRepo.failIns = true

	err := svc.Process(context.Background(), ports.CourierEventInput{
		OrderNumber: orderNumber,
		CourierID:   "cour_1",
		Status:      string(domain.StatusPickedUp),
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("audit failure must not fail the event: %v", err)
	}

	order, _ := orders.FindByNumber(context.Background(), orderNumber)
	if order.Status != domain.StatusPickedUp {
		t.Fatalf("status update lost: %s", order.Status)
	}
}
