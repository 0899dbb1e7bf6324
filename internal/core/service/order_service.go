package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftparcel/delivery-platform/internal/api/metrics"
	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

type OrderService struct {
	repo  ports.OrderRepository
	users ports.UserRepository
	log   zerolog.Logger
}

func NewOrderService(repo ports.OrderRepository, users ports.UserRepository, log zerolog.Logger) *OrderService {
	return &OrderService{repo: repo, users: users, log: log}
}

// CreateOrder creates a new delivery order with a price quote. If an
// idempotency key is provided and already seen, the previously created order
// is returned without side effects.
func (s *OrderService) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*ports.OrderResult, error) {
	if input.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, input.IdempotencyKey)
		if err == nil && existing != nil {
			s.log.Info().
				Str("idempotency_key", input.IdempotencyKey).
				Str("order_number", existing.OrderNumber).
				Msg("idempotent replay")
			return &ports.OrderResult{
				OrderNumber:       existing.OrderNumber,
				Status:            string(existing.Status),
				Quote:             toQuoteResult(existing.Quote),
				CreatedAt:         existing.CreatedAt,
				EstimatedDelivery: existing.EstimatedDelivery,
				AlreadyExisted:    true,
			}, nil
		}
	}

	now := time.Now().UTC()
	pickup := toAddress(input.Pickup)
	dropoff := toAddress(input.Dropoff)
	quote := quoteOrder(input.ServiceType, pickup.Coordinates, dropoff.Coordinates, input.Package.WeightKg)

	order := &domain.Order{
		OrderNumber: generateOrderNumber(),
		CustomerID:  input.CustomerID,
		Status:      domain.StatusCreated,
		ServiceType: input.ServiceType,
		Quote:       quote,
		Recipient: domain.Contact{
			Name:  input.Recipient.Name,
			Email: input.Recipient.Email,
			Phone: input.Recipient.Phone,
		},
		Pickup:  pickup,
		Dropoff: dropoff,
		Package: domain.Package{
			WeightKg:      input.Package.WeightKg,
			Description:   input.Package.Description,
			DeclaredValue: input.Package.DeclaredValue,
			Currency:      input.Package.Currency,
		},
		CreatedAt:         now,
		EstimatedDelivery: estimatedDelivery(input.ServiceType, now),
		IdempotencyKey:    input.IdempotencyKey,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusCreated, Timestamp: now},
		},
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.log.Error().Err(err).Msg("failed to create order")
		return nil, err
	}

	metrics.OrdersCreatedTotal.WithLabelValues(input.ServiceType).Inc()
	s.log.Info().
		Str("order_number", order.OrderNumber).
		Str("customer_id", input.CustomerID).
		Float64("quote_amount", quote.Amount).
		Msg("order created")

	return &ports.OrderResult{
		OrderNumber:       order.OrderNumber,
		Status:            string(order.Status),
		Quote:             toQuoteResult(quote),
		CreatedAt:         order.CreatedAt,
		EstimatedDelivery: order.EstimatedDelivery,
	}, nil
}

// GetOrder retrieves a single order, enforcing access by role: customers see
// their own orders, couriers the ones assigned to them, admins everything.
func (s *OrderService) GetOrder(ctx context.Context, actor ports.Actor, orderNumber string) (*ports.OrderDetail, error) {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrderAccess(actor, order); err != nil {
		return nil, err
	}

	detail := &ports.OrderDetail{
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		ServiceType: order.ServiceType,
		CustomerID:  order.CustomerID,
		CourierID:   order.CourierID,
		Recipient: ports.ContactInput{
			Name:  order.Recipient.Name,
			Email: order.Recipient.Email,
			Phone: order.Recipient.Phone,
		},
		Pickup:  toAddressInput(order.Pickup),
		Dropoff: toAddressInput(order.Dropoff),
		Package: ports.PackageInput{
			WeightKg:      order.Package.WeightKg,
			Description:   order.Package.Description,
			DeclaredValue: order.Package.DeclaredValue,
			Currency:      order.Package.Currency,
		},
		Quote:             toQuoteResult(order.Quote),
		CreatedAt:         order.CreatedAt,
		EstimatedDelivery: order.EstimatedDelivery,
	}
	for _, h := range order.StatusHistory {
		detail.StatusHistory = append(detail.StatusHistory, ports.StatusHistoryItem{
			Status:    string(h.Status),
			Timestamp: h.Timestamp,
			Notes:     h.Notes,
		})
	}
	return detail, nil
}

// ListOrders returns a page of orders scoped to the caller's role.
func (s *OrderService) ListOrders(ctx context.Context, input ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	filter := ports.ListOrdersFilter{
		Status:      input.Status,
		ServiceType: input.ServiceType,
		Page:        page,
		Limit:       limit,
	}
	switch input.Actor.Role {
	case domain.RoleCustomer:
		filter.CustomerID = input.Actor.UserID
	case domain.RoleCourier:
		filter.CourierID = input.Actor.UserID
	case domain.RoleAdmin:
		// unscoped
	default:
		return nil, domain.ErrForbidden
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ports.OrderSummary, 0, len(orders))
	for _, o := range orders {
		items = append(items, ports.OrderSummary{
			OrderNumber:       o.OrderNumber,
			Status:            string(o.Status),
			ServiceType:       o.ServiceType,
			CustomerID:        o.CustomerID,
			CourierID:         o.CourierID,
			Dropoff:           toAddressInput(o.Dropoff),
			Quote:             toQuoteResult(o.Quote),
			CreatedAt:         o.CreatedAt,
			EstimatedDelivery: o.EstimatedDelivery,
		})
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListOrdersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateDestination replaces the dropoff address while the parcel has not
// been picked up. Only the owning customer (or an admin) may do this.
func (s *OrderService) UpdateDestination(ctx context.Context, actor ports.Actor, orderNumber string, dropoff ports.AddressInput) error {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && order.CustomerID != actor.UserID {
		return domain.ErrForbidden
	}
	if !order.Status.Editable() {
		return domain.ErrOrderNotEditable
	}

	if err := s.repo.UpdateDropoff(ctx, orderNumber, toAddress(dropoff)); err != nil {
		return err
	}
	s.log.Info().Str("order_number", orderNumber).Msg("destination updated")
	return nil
}

// CancelOrder cancels an order that has not been picked up yet.
func (s *OrderService) CancelOrder(ctx context.Context, actor ports.Actor, orderNumber string) error {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && order.CustomerID != actor.UserID {
		return domain.ErrForbidden
	}
	if !order.Status.CanTransitionTo(domain.StatusCancelled) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, order.Status, domain.StatusCancelled)
	}

	if err := s.repo.SetStatus(ctx, orderNumber, domain.StatusCancelled, time.Now().UTC(), "cancelled by "+actor.Role); err != nil {
		return err
	}
	s.log.Info().Str("order_number", orderNumber).Msg("order cancelled")
	return nil
}

// AssignCourier moves a created order to assigned. The target user must be an
// active courier.
func (s *OrderService) AssignCourier(ctx context.Context, orderNumber, courierID string) error {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(domain.StatusAssigned) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, order.Status, domain.StatusAssigned)
	}

	courier, err := s.users.FindByID(ctx, courierID)
	if err != nil {
		return err
	}
	if courier.Role != domain.RoleCourier || !courier.IsActive {
		return domain.ErrForbidden
	}

	if err := s.repo.AssignCourier(ctx, orderNumber, courierID, time.Now().UTC()); err != nil {
		return err
	}
	s.log.Info().Str("order_number", orderNumber).Str("courier_id", courierID).Msg("courier assigned")
	return nil
}

func authorizeOrderAccess(actor ports.Actor, order *domain.Order) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleCustomer:
		if order.CustomerID == actor.UserID {
			return nil
		}
	case domain.RoleCourier:
		if order.CourierID == actor.UserID {
			return nil
		}
	}
	return domain.ErrForbidden
}

func toAddress(in ports.AddressInput) domain.Address {
	return domain.Address{
		Address: in.Address,
		City:    in.City,
		ZipCode: in.ZipCode,
		Coordinates: domain.Coordinates{
			Lat: in.Coordinates.Lat,
			Lng: in.Coordinates.Lng,
		},
	}
}

func toAddressInput(a domain.Address) ports.AddressInput {
	return ports.AddressInput{
		Address: a.Address,
		City:    a.City,
		ZipCode: a.ZipCode,
		Coordinates: ports.CoordinatesInput{
			Lat: a.Coordinates.Lat,
			Lng: a.Coordinates.Lng,
		},
	}
}

func toQuoteResult(q domain.Quote) ports.QuoteResult {
	return ports.QuoteResult{
		DistanceKm: q.DistanceKm,
		Amount:     q.Amount,
		Currency:   q.Currency,
	}
}

// generateOrderNumber returns a unique order number in the format SP-XXXXXXXX.
func generateOrderNumber() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("SP-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("SP-%08X", b)
}
