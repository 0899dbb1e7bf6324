package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type listUsersResponse struct {
	Items      []*domain.User `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

type toggleActiveResponse struct {
	UserID   string `json:"user_id"`
	IsActive bool   `json:"is_active"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer courier admin"`
}

type AdminHandler struct {
	userService   ports.UserService
	orderService  ports.OrderService
	reportService ports.ReportService
}

func NewAdminHandler(userService ports.UserService, orderService ports.OrderService, reportService ports.ReportService) *AdminHandler {
	return &AdminHandler{
		userService:   userService,
		orderService:  orderService,
		reportService: reportService,
	}
}

// ListUsers returns all platform accounts, optionally filtered by role.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role   query     string  false  "Filter by role"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200  {object}  listUsersResponse
// @Router       /v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	if role := c.QueryParam("role"); role != "" && !domain.ValidRole(role) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown role filter"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.userService.ListUsers(c.Request().Context(), ports.ListUsersInput{
		Role:  c.QueryParam("role"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Items:      result.Items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// ToggleActive flips a user's active flag. Deactivating a user also blocks
// their future token refreshes.
//
// @Summary      Toggle a user's active flag
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path      string  true  "User ID"
// @Success      200  {object}  toggleActiveResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{userID}/toggle-active [post]
func (h *AdminHandler) ToggleActive(c echo.Context) error {
	userID := c.Param("userID")
	active, err := h.userService.ToggleActive(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toggleActiveResponse{UserID: userID, IsActive: active})
}

// ChangeRole updates a user's role.
//
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path      string             true  "User ID"
// @Param        body    body      changeRoleRequest  true  "New role"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{userID}/role [patch]
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.userService.ChangeRole(c.Request().Context(), c.Param("userID"), req.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "role updated"})
}

// Reports returns the aggregate counts behind the admin dashboard.
//
// @Summary      Platform report
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.PlatformReport
// @Router       /v1/admin/reports [get]
func (h *AdminHandler) Reports(c echo.Context) error {
	report, err := h.reportService.PlatformReport(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// AssignCourier moves a created order to assigned under the given courier.
//
// @Summary      Assign a courier to an order
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string                true  "Order number"
// @Param        body         body      assignCourierRequest  true  "Courier to assign"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/orders/{orderNumber}/assign [post]
func (h *AdminHandler) AssignCourier(c echo.Context) error {
	var req assignCourierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.orderService.AssignCourier(c.Request().Context(), c.Param("orderNumber"), req.CourierID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "courier assigned"})
}
