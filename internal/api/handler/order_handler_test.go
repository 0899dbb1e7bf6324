package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type stubOrderService struct {
	createFn func(ctx context.Context, input ports.CreateOrderInput) (*ports.OrderResult, error)
	getFn    func(ctx context.Context, actor ports.Actor, orderNumber string) (*ports.OrderDetail, error)
	listFn   func(ctx context.Context, input ports.ListOrdersInput) (*ports.ListOrdersResult, error)
	updateFn func(ctx context.Context, actor ports.Actor, orderNumber string, dropoff ports.AddressInput) error
	cancelFn func(ctx context.Context, actor ports.Actor, orderNumber string) error
	assignFn func(ctx context.Context, orderNumber, courierID string) error
}

func (s *stubOrderService) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*ports.OrderResult, error) {
	return s.createFn(ctx, input)
}

func (s *stubOrderService) GetOrder(ctx context.Context, actor ports.Actor, orderNumber string) (*ports.OrderDetail, error) {
	return s.getFn(ctx, actor, orderNumber)
}

func (s *stubOrderService) ListOrders(ctx context.Context, input ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
	return s.listFn(ctx, input)
}

func (s *stubOrderService) UpdateDestination(ctx context.Context, actor ports.Actor, orderNumber string, dropoff ports.AddressInput) error {
	return s.updateFn(ctx, actor, orderNumber, dropoff)
}

func (s *stubOrderService) CancelOrder(ctx context.Context, actor ports.Actor, orderNumber string) error {
	return s.cancelFn(ctx, actor, orderNumber)
}

func (s *stubOrderService) AssignCourier(ctx context.Context, orderNumber, courierID string) error {
	return s.assignFn(ctx, orderNumber, courierID)
}

const createOrderBody = `{
	"recipient": {"name": "Carlos", "phone": "555-0101"},
	"pickup": {"address": "Av. Reforma 1", "city": "CDMX", "zip_code": "06000",
		"coordinates": {"lat": 19.4326, "lng": -99.1332}},
	"dropoff": {"address": "Av. Insurgentes 100", "city": "CDMX", "zip_code": "03100",
		"coordinates": {"lat": 19.3910, "lng": -99.1710}},
	"package": {"weight_kg": 2.5, "description": "documents"},
	"service_type": "express"
}`

func authedContext(t *testing.T, method, path, body, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	return c, rec
}

func TestOrderHandler_Create_Success(t *testing.T) {
	now := time.Now().UTC()
	stub := &stubOrderService{
		createFn: func(ctx context.Context, input ports.CreateOrderInput) (*ports.OrderResult, error) {
			if input.CustomerID != "cust_1" {
				t.Fatalf("customer id must come from the token, got %q", input.CustomerID)
			}
			if input.ServiceType != "express" {
				t.Fatalf("unexpected service type: %s", input.ServiceType)
			}
			return &ports.OrderResult{
				OrderNumber:       "SP-0000ABCD",
				Status:            "created",
				Quote:             ports.QuoteResult{DistanceKm: 6.2, Amount: 198.11, Currency: "MXN"},
				CreatedAt:         now,
				EstimatedDelivery: now.Add(4 * time.Hour),
			}, nil
		},
	}
	handler := NewOrderHandler(stub)

	c, rec := authedContext(t, http.MethodPost, "/v1/orders", createOrderBody, "cust_1", "customer")

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["order_number"] != "SP-0000ABCD" || resp["status"] != "created" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestOrderHandler_Create_IdempotentReplay(t *testing.T) {
	stub := &stubOrderService{
		createFn: func(ctx context.Context, input ports.CreateOrderInput) (*ports.OrderResult, error) {
			if input.IdempotencyKey != "idem-123" {
				t.Fatalf("idempotency key not forwarded, got %q", input.IdempotencyKey)
			}
			return &ports.OrderResult{OrderNumber: "SP-0000ABCD", Status: "created", AlreadyExisted: true}, nil
		},
	}
	handler := NewOrderHandler(stub)

	c, rec := authedContext(t, http.MethodPost, "/v1/orders", createOrderBody, "cust_1", "customer")
	c.Request().Header.Set("Idempotency-Key", "idem-123")

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	// Replays answer 200 instead of 201.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rec.Code)
	}
}

func TestOrderHandler_Create_InvalidServiceType(t *testing.T) {
	handler := NewOrderHandler(&stubOrderService{
		createFn: func(ctx context.Context, input ports.CreateOrderInput) (*ports.OrderResult, error) {
			t.Fatalf("service must not be called on validation failure")
			return nil, nil
		},
	})

	body := strings.Replace(createOrderBody, `"express"`, `"teleport"`, 1)
	c, rec := authedContext(t, http.MethodPost, "/v1/orders", body, "cust_1", "customer")

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOrderHandler_Get_PassesActor(t *testing.T) {
	stub := &stubOrderService{
		getFn: func(ctx context.Context, actor ports.Actor, orderNumber string) (*ports.OrderDetail, error) {
			if actor.UserID != "courier_1" || actor.Role != "courier" {
				t.Fatalf("unexpected actor: %+v", actor)
			}
			if orderNumber != "SP-0000ABCD" {
				t.Fatalf("unexpected order number: %s", orderNumber)
			}
			return &ports.OrderDetail{OrderNumber: orderNumber, Status: "assigned"}, nil
		},
	}
	handler := NewOrderHandler(stub)

	c, rec := authedContext(t, http.MethodGet, "/v1/orders/SP-0000ABCD", "", "courier_1", "courier")
	c.SetParamNames("orderNumber")
	c.SetParamValues("SP-0000ABCD")

	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOrderHandler_List_ParsesFilters(t *testing.T) {
	stub := &stubOrderService{
		listFn: func(ctx context.Context, input ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
			if input.Status != "created" || input.Page != 2 || input.Limit != 5 {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &ports.ListOrdersResult{Items: nil, Total: 0, Page: 2, Limit: 5}, nil
		},
	}
	handler := NewOrderHandler(stub)

	c, rec := authedContext(t, http.MethodGet, "/v1/orders?status=created&page=2&limit=5", "", "cust_1", "customer")

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	// Empty pages serialize as [] not null.
	items, ok := resp["items"].([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("expected empty items array, got %+v", resp["items"])
	}
}

func TestOrderHandler_List_UnknownStatusFilter(t *testing.T) {
	handler := NewOrderHandler(&stubOrderService{
		listFn: func(ctx context.Context, input ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
			t.Fatalf("service must not be called for an unknown status")
			return nil, nil
		},
	})

	c, rec := authedContext(t, http.MethodGet, "/v1/orders?status=lost", "", "cust_1", "customer")

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOrderHandler_UpdateDestination_Success(t *testing.T) {
	called := false
	stub := &stubOrderService{
		updateFn: func(ctx context.Context, actor ports.Actor, orderNumber string, dropoff ports.AddressInput) error {
			called = true
			if dropoff.City != "Guadalajara" {
				t.Fatalf("unexpected dropoff: %+v", dropoff)
			}
			return nil
		},
	}
	handler := NewOrderHandler(stub)

	body := `{"dropoff": {"address": "Calle 5", "city": "Guadalajara", "zip_code": "44100",
		"coordinates": {"lat": 20.6597, "lng": -103.3496}}}`
	c, rec := authedContext(t, http.MethodPatch, "/v1/orders/SP-0000ABCD/destination", body, "cust_1", "customer")
	c.SetParamNames("orderNumber")
	c.SetParamValues("SP-0000ABCD")

	if err := handler.UpdateDestination(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("service was not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOrderHandler_Cancel_Success(t *testing.T) {
	stub := &stubOrderService{
		cancelFn: func(ctx context.Context, actor ports.Actor, orderNumber string) error {
			if orderNumber != "SP-0000ABCD" {
				t.Fatalf("unexpected order number: %s", orderNumber)
			}
			return nil
		},
	}
	handler := NewOrderHandler(stub)

	c, rec := authedContext(t, http.MethodPost, "/v1/orders/SP-0000ABCD/cancel", "", "cust_1", "customer")
	c.SetParamNames("orderNumber")
	c.SetParamValues("SP-0000ABCD")

	if err := handler.Cancel(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
