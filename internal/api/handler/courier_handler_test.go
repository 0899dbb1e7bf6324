package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type stubDispatcher struct {
	events []ports.CourierEventInput
	full   bool // simulates saturated shard buffers
}

func (d *stubDispatcher) Enqueue(event ports.CourierEventInput) bool {
	if d.full {
		return false
	}
	d.events = append(d.events, event)
	return true
}

func (d *stubDispatcher) EnqueueBatch(events []ports.CourierEventInput) int {
	for i, e := range events {
		if !d.Enqueue(e) {
			return i
		}
	}
	return len(events)
}

func TestCourierHandler_Event_Accepted(t *testing.T) {
	dispatcher := &stubDispatcher{}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	body := `{"order_number": "SP-0000ABCD", "status": "picked_up",
		"location": {"lat": 19.4326, "lng": -99.1332}}`
	c, rec := authedContext(t, http.MethodPost, "/v1/courier/events", body, "courier_1", "courier")

	if err := handler.Event(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(dispatcher.events) != 1 {
		t.Fatalf("expected 1 enqueued event, got %d", len(dispatcher.events))
	}
	event := dispatcher.events[0]
	// The courier id always comes from the token, never from the payload.
	if event.CourierID != "courier_1" {
		t.Fatalf("unexpected courier id: %s", event.CourierID)
	}
	if event.Location == nil || event.Location.Lat != 19.4326 {
		t.Fatalf("location not forwarded: %+v", event.Location)
	}
	if event.Timestamp.IsZero() {
		t.Fatalf("missing timestamp must be defaulted to now")
	}
}

func TestCourierHandler_Event_RejectsUnknownStatus(t *testing.T) {
	dispatcher := &stubDispatcher{}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	body := `{"order_number": "SP-0000ABCD", "status": "created"}`
	c, rec := authedContext(t, http.MethodPost, "/v1/courier/events", body, "courier_1", "courier")

	if err := handler.Event(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	// Couriers can only report movement statuses.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(dispatcher.events) != 0 {
		t.Fatalf("invalid event must not be enqueued")
	}
}

func TestCourierHandler_EventBatch_PreservesOrder(t *testing.T) {
	dispatcher := &stubDispatcher{}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	body := `{"events": [
		{"order_number": "SP-0000ABCD", "status": "picked_up", "timestamp": "` + ts.Format(time.RFC3339) + `"},
		{"order_number": "SP-0000ABCD", "status": "in_transit", "timestamp": "` + ts.Add(time.Minute).Format(time.RFC3339) + `"}
	]}`
	c, rec := authedContext(t, http.MethodPost, "/v1/courier/events/batch", body, "courier_1", "courier")

	if err := handler.EventBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["accepted"] != float64(2) {
		t.Fatalf("expected accepted=2, got %+v", resp)
	}

	if len(dispatcher.events) != 2 {
		t.Fatalf("expected 2 enqueued events, got %d", len(dispatcher.events))
	}
	if dispatcher.events[0].Status != "picked_up" || dispatcher.events[1].Status != "in_transit" {
		t.Fatalf("batch order not preserved: %+v", dispatcher.events)
	}
}

func TestCourierHandler_EventBatch_RejectsEmpty(t *testing.T) {
	dispatcher := &stubDispatcher{}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	c, rec := authedContext(t, http.MethodPost, "/v1/courier/events/batch", `{"events": []}`, "courier_1", "courier")

	if err := handler.EventBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCourierHandler_Event_QueueFullAnswers503(t *testing.T) {
	dispatcher := &stubDispatcher{full: true}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	body := `{"order_number": "SP-0000ABCD", "status": "picked_up"}`
	c, rec := authedContext(t, http.MethodPost, "/v1/courier/events", body, "courier_1", "courier")

	if err := handler.Event(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the queue is full, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected a Retry-After header")
	}
}

func TestCourierHandler_EventBatch_QueueFullAnswers503(t *testing.T) {
	dispatcher := &stubDispatcher{full: true}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	body := `{"events": [{"order_number": "SP-0000ABCD", "status": "picked_up"}]}`
	c, rec := authedContext(t, http.MethodPost, "/v1/courier/events/batch", body, "courier_1", "courier")

	if err := handler.EventBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when nothing was accepted, got %d", rec.Code)
	}
}

func TestCourierHandler_Location_Accepted(t *testing.T) {
	dispatcher := &stubDispatcher{}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	body := `{"location": {"lat": 19.4326, "lng": -99.1332}}`
	c, rec := authedContext(t, http.MethodPatch, "/v1/courier/orders/SP-0000ABCD/location", body, "courier_1", "courier")
	c.SetParamNames("orderNumber")
	c.SetParamValues("SP-0000ABCD")

	if err := handler.Location(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(dispatcher.events) != 1 {
		t.Fatalf("expected 1 enqueued event, got %d", len(dispatcher.events))
	}
	event := dispatcher.events[0]
	if event.OrderNumber != "SP-0000ABCD" || event.CourierID != "courier_1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	// A location ping carries no status transition.
	if event.Status != "" {
		t.Fatalf("location ping must not carry a status, got %q", event.Status)
	}
	if event.Location == nil || event.Location.Lng != -99.1332 {
		t.Fatalf("location not forwarded: %+v", event.Location)
	}
	if event.Timestamp.IsZero() {
		t.Fatalf("missing timestamp must be defaulted to now")
	}
}

func TestCourierHandler_Location_RequiresCoordinates(t *testing.T) {
	dispatcher := &stubDispatcher{}
	handler := NewCourierHandler(&stubOrderService{}, dispatcher)

	c, rec := authedContext(t, http.MethodPatch, "/v1/courier/orders/SP-0000ABCD/location", `{}`, "courier_1", "courier")
	c.SetParamNames("orderNumber")
	c.SetParamValues("SP-0000ABCD")

	if err := handler.Location(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(dispatcher.events) != 0 {
		t.Fatalf("invalid ping must not be enqueued")
	}
}

func TestCourierHandler_Orders_ScopedToCourier(t *testing.T) {
	stub := &stubOrderService{
		listFn: func(ctx context.Context, input ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
			if input.Actor.UserID != "courier_1" || input.Actor.Role != "courier" {
				t.Fatalf("unexpected actor: %+v", input.Actor)
			}
			return &ports.ListOrdersResult{
				Items: []ports.OrderSummary{{OrderNumber: "SP-0000ABCD", Status: "assigned", CourierID: "courier_1"}},
				Total: 1, Page: 1, Limit: 20, TotalPages: 1,
			}, nil
		},
	}
	handler := NewCourierHandler(stub, &stubDispatcher{})

	c, rec := authedContext(t, http.MethodGet, "/v1/courier/orders", "", "courier_1", "courier")

	if err := handler.Orders(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
