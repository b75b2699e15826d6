package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"kirana/internal/auth"
	"kirana/internal/authz"
	"kirana/internal/domain"
	"kirana/internal/errors"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus, etaMinutes *int) (*domain.Order, error)
	AssignPartner(ctx context.Context, id uint64, partnerID uint64) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uint64, status domain.PaymentStatus) (*domain.Order, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
}

// Broadcaster fans an order event out to subscribed clients. Calls must not
// block; delivery is fire-and-forget.
type Broadcaster interface {
	BroadcastOrderUpdate(order *domain.Order)
}

// LifecycleService owns the order status state machine. Every mutation of an
// order goes through a per-order lock, so two concurrent requests for the
// same order are applied one after the other; requests for different orders
// proceed in parallel.
type LifecycleService struct {
	orders            OrderRepository
	users             UserRepository
	broadcaster       Broadcaster
	logger            *zap.Logger
	defaultETAMinutes int

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func NewLifecycleService(
	orders OrderRepository,
	users UserRepository,
	broadcaster Broadcaster,
	logger *zap.Logger,
	defaultETAMinutes int,
) *LifecycleService {
	return &LifecycleService{
		orders:            orders,
		users:             users,
		broadcaster:       broadcaster,
		logger:            logger,
		defaultETAMinutes: defaultETAMinutes,
		locks:             make(map[uint64]*sync.Mutex),
	}
}

func (s *LifecycleService) lockOrder(id uint64) *sync.Mutex {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock
}

// RequestTransition validates and applies a status change. The graph is
// checked before the guard so that an illegal edge reports InvalidTransition
// regardless of who asks for it.
func (s *LifecycleService) RequestTransition(ctx context.Context, orderID uint64, actor *auth.Principal, target domain.OrderStatus) (*domain.Order, error) {
	lock := s.lockOrder(orderID)
	defer lock.Unlock()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(order.Status, target) {
		return nil, errors.NewInvalidTransitionError(string(order.Status), string(target))
	}

	if !authz.CanTransition(actor.Role, actor.UserID, order, target) {
		return nil, errors.NewForbiddenError("not allowed to perform this transition")
	}

	var eta *int
	if target == domain.OrderStatusPreparing && order.ETAMinutes == nil {
		minutes := s.defaultETAMinutes
		eta = &minutes
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, target, eta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Uint64("orderId", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(target)),
		zap.Uint64("actorId", actor.UserID),
		zap.String("actorRole", string(actor.Role)))

	s.broadcaster.BroadcastOrderUpdate(updated)
	return updated, nil
}

// AssignDeliveryPartner sets the partner on an order that is being prepared
// or already packed. Admins assign anyone; a partner may self-accept.
func (s *LifecycleService) AssignDeliveryPartner(ctx context.Context, orderID, partnerID uint64, actor *auth.Principal) (*domain.Order, error) {
	lock := s.lockOrder(orderID)
	defer lock.Unlock()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAssign(actor.Role, actor.UserID, order, partnerID) {
		return nil, errors.NewForbiddenError("not allowed to assign a delivery partner")
	}

	if order.Status != domain.OrderStatusPreparing && order.Status != domain.OrderStatusPacked {
		return nil, errors.NewInvalidStateError(
			fmt.Sprintf("cannot assign a delivery partner while order is %s", order.Status))
	}

	partner, err := s.users.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partner.Role != domain.RoleDelivery {
		return nil, errors.NewNotFoundError(fmt.Sprintf("delivery partner with id %d not found", partnerID))
	}

	updated, err := s.orders.AssignPartner(ctx, orderID, partnerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("delivery partner assigned",
		zap.Uint64("orderId", orderID),
		zap.Uint64("partnerId", partnerID),
		zap.Uint64("actorId", actor.UserID))

	s.broadcaster.BroadcastOrderUpdate(updated)
	return updated, nil
}

// UpdatePaymentStatus moves the payment axis from pending to paid or failed.
func (s *LifecycleService) UpdatePaymentStatus(ctx context.Context, orderID uint64, target domain.PaymentStatus, actor *auth.Principal) (*domain.Order, error) {
	lock := s.lockOrder(orderID)
	defer lock.Unlock()

	if actor.Role != domain.RoleAdmin {
		return nil, errors.NewForbiddenError("only admins may update payment status")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != domain.PaymentStatusPending {
		return nil, errors.NewInvalidStateError(
			fmt.Sprintf("payment status is already %s", order.PaymentStatus))
	}
	if target != domain.PaymentStatusPaid && target != domain.PaymentStatusFailed {
		return nil, errors.NewInvalidStateError("payment status may only move to paid or failed")
	}

	updated, err := s.orders.UpdatePaymentStatus(ctx, orderID, target)
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastOrderUpdate(updated)
	return updated, nil
}

// GetOrder returns the order when the actor may view it.
func (s *LifecycleService) GetOrder(ctx context.Context, orderID uint64, actor *auth.Principal) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !authz.CanView(actor.Role, actor.UserID, order) {
		return nil, errors.NewForbiddenError("not allowed to view this order")
	}

	return order, nil
}

// ListOrders applies the filter; non-admin actors are implicitly restricted
// to their own or assigned orders.
func (s *LifecycleService) ListOrders(ctx context.Context, filter domain.OrderFilter, actor *auth.Principal) ([]domain.Order, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleDelivery:
		filter.PartnerIDs = []uint64{actor.UserID}
	default:
		filter.UserIDs = []uint64{actor.UserID}
	}

	return s.orders.List(ctx, filter)
}
