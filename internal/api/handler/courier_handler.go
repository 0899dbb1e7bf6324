package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

// EventDispatcher decouples the HTTP layer from the async worker pool.
// Enqueue reports whether the event was accepted; a full queue sheds load
// instead of blocking the handler. EnqueueBatch returns the accepted count.
type EventDispatcher interface {
	Enqueue(event ports.CourierEventInput) bool
	EnqueueBatch(events []ports.CourierEventInput) int
}

type CourierHandler struct {
	orderService ports.OrderService
	dispatcher   EventDispatcher
}

func NewCourierHandler(orderService ports.OrderService, dispatcher EventDispatcher) *CourierHandler {
	return &CourierHandler{orderService: orderService, dispatcher: dispatcher}
}

// Orders lists the orders currently assigned to the authenticated courier.
//
// @Summary      List assigned orders
// @Tags         courier
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200  {object}  listOrdersResponse
// @Router       /v1/courier/orders [get]
func (h *CourierHandler) Orders(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.orderService.ListOrders(c.Request().Context(), ports.ListOrdersInput{
		Actor:  actor,
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	items := make([]orderSummaryPayload, 0, len(result.Items))
	for _, s := range result.Items {
		items = append(items, fromOrderSummary(s))
	}
	return c.JSON(http.StatusOK, listOrdersResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Event accepts a single status event and queues it for async processing.
// 202 only means the event was accepted for processing: validation against
// the order state machine happens in the worker.
//
// @Summary      Report a courier status event
// @Tags         courier
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      courierEventRequest  true  "Status event"
// @Success      202  {object}  eventAcceptedResponse
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/courier/events [post]
func (h *CourierHandler) Event(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req courierEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if !h.dispatcher.Enqueue(toEventInput(req, actor.UserID)) {
		c.Response().Header().Set("Retry-After", "5")
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "event queue full, retry later"})
	}
	return c.JSON(http.StatusAccepted, eventAcceptedResponse{Accepted: 1})
}

// Location accepts a pure position update for an order in progress. Unlike
// status events it never moves the state machine; it shares the dispatcher so
// pings and status events for one order stay ordered.
//
// @Summary      Report the courier's position for an order
// @Tags         courier
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string                  true  "Order number"
// @Param        body         body      courierLocationRequest  true  "Position"
// @Success      202  {object}  eventAcceptedResponse
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/courier/orders/{orderNumber}/location [patch]
func (h *CourierHandler) Location(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req courierLocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	input := ports.CourierEventInput{
		OrderNumber: c.Param("orderNumber"),
		CourierID:   actor.UserID,
		Timestamp:   ts,
		Location:    &ports.LocationInput{Lat: req.Location.Lat, Lng: req.Location.Lng},
	}

	if !h.dispatcher.Enqueue(input) {
		c.Response().Header().Set("Retry-After", "5")
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "event queue full, retry later"})
	}
	return c.JSON(http.StatusAccepted, eventAcceptedResponse{Accepted: 1})
}

// EventBatch accepts up to 100 events in one request, preserving per-order
// ordering when they are dispatched to the workers.
//
// @Summary      Report a batch of courier status events
// @Tags         courier
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      courierEventBatchRequest  true  "Status events"
// @Success      202  {object}  eventAcceptedResponse
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/courier/events/batch [post]
func (h *CourierHandler) EventBatch(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req courierEventBatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	events := make([]ports.CourierEventInput, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, toEventInput(e, actor.UserID))
	}

	accepted := h.dispatcher.EnqueueBatch(events)
	if accepted == 0 {
		c.Response().Header().Set("Retry-After", "5")
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "event queue full, retry later"})
	}
	// A partial batch still answers 202: the caller re-submits the tail.
	return c.JSON(http.StatusAccepted, eventAcceptedResponse{Accepted: accepted})
}

func toEventInput(req courierEventRequest, courierID string) ports.CourierEventInput {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	input := ports.CourierEventInput{
		OrderNumber: req.OrderNumber,
		CourierID:   courierID,
		Status:      req.Status,
		Timestamp:   ts,
	}
	if req.Location != nil {
		input.Location = &ports.LocationInput{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}
	return input
}
