package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type OrderHandler struct {
	orderService ports.OrderService
}

func NewOrderHandler(orderService ports.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create registers a new delivery order for the authenticated customer.
// Repeating a request with the same Idempotency-Key returns the original
// order with a 200 instead of creating a duplicate.
//
// @Summary      Create a delivery order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Idempotency key"
// @Param        body             body      createOrderRequest  true   "Order details"
// @Success      201  {object}  createOrderResponse
// @Success      200  {object}  createOrderResponse  "Idempotent replay"
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	result, err := h.orderService.CreateOrder(c.Request().Context(), ports.CreateOrderInput{
		Recipient: ports.ContactInput{
			Name:  req.Recipient.Name,
			Email: req.Recipient.Email,
			Phone: req.Recipient.Phone,
		},
		Pickup:  toAddressInputPayload(req.Pickup),
		Dropoff: toAddressInputPayload(req.Dropoff),
		Package: ports.PackageInput{
			WeightKg:      req.Package.WeightKg,
			Description:   req.Package.Description,
			DeclaredValue: req.Package.DeclaredValue,
			Currency:      req.Package.Currency,
		},
		ServiceType:    req.ServiceType,
		CustomerID:     actor.UserID,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, createOrderResponse{
		OrderNumber:       result.OrderNumber,
		Status:            result.Status,
		Quote:             fromQuote(result.Quote),
		CreatedAt:         result.CreatedAt,
		EstimatedDelivery: result.EstimatedDelivery,
	})
}

// Get returns the full order detail, scoped to the caller's role.
//
// @Summary      Get an order by number
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string  true  "Order number"
// @Success      200  {object}  orderDetailResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{orderNumber} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	detail, err := h.orderService.GetOrder(c.Request().Context(), actor, c.Param("orderNumber"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fromOrderDetail(detail))
}

// List returns orders visible to the caller, paginated and optionally
// filtered by status and service type.
//
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status        query     string  false  "Filter by status"
// @Param        service_type  query     string  false  "Filter by service type"
// @Param        page          query     int     false  "Page number"
// @Param        limit         query     int     false  "Page size"
// @Success      200  {object}  listOrdersResponse
// @Router       /v1/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	if s := c.QueryParam("status"); s != "" && !domain.ValidStatus(s) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown status filter"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.orderService.ListOrders(c.Request().Context(), ports.ListOrdersInput{
		Actor:       actor,
		Status:      c.QueryParam("status"),
		ServiceType: c.QueryParam("service_type"),
		Page:        page,
		Limit:       limit,
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

// UpdateDestination replaces the dropoff address while the parcel has not
// been picked up.
//
// @Summary      Update the delivery destination
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string                    true  "Order number"
// @Param        body         body      updateDestinationRequest  true  "New destination"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/orders/{orderNumber}/destination [patch]
func (h *OrderHandler) UpdateDestination(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req updateDestinationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	err = h.orderService.UpdateDestination(c.Request().Context(), actor, c.Param("orderNumber"), toAddressInputPayload(req.Dropoff))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "destination updated"})
}

// Cancel cancels an order that has not been picked up yet.
//
// @Summary      Cancel an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string  true  "Order number"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/orders/{orderNumber}/cancel [post]
func (h *OrderHandler) Cancel(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	if err := h.orderService.CancelOrder(c.Request().Context(), actor, c.Param("orderNumber")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "order cancelled"})
}
