package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kirana/internal/domain"
	"kirana/internal/errors"
	productrepo "kirana/internal/product/repository"
)

// MemoryOrderRepository is an in-memory order store with the same contract as
// the MySQL one. It backs unit tests and the no-database run mode.
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	orders   map[uint64]*domain.Order
	nextID   uint64
	nextItem uint64
	products *productrepo.MemoryProductRepository
}

func NewMemoryOrderRepository(products *productrepo.MemoryProductRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[uint64]*domain.Order),
		nextID:   1,
		nextItem: 1,
		products: products,
	}
}

func (r *MemoryOrderRepository) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate every item before touching any stock, so a failure leaves
	// the store untouched.
	for _, item := range order.Items {
		product, ok := r.products.Get(item.ProductID)
		if !ok || !product.Available() {
			return nil, errors.NewProductUnavailableError(item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, errors.NewInsufficientStockError(item.ProductID, item.Quantity, product.Stock)
		}
	}

	for _, item := range order.Items {
		r.products.AdjustStock(item.ProductID, -item.Quantity)
	}

	now := time.Now().UTC()
	stored := *order
	stored.ID = r.nextID
	r.nextID++
	stored.CreatedAt = now
	stored.UpdatedAt = now

	stored.Items = make([]domain.OrderItem, len(order.Items))
	copy(stored.Items, order.Items)
	for i := range stored.Items {
		stored.Items[i].ID = r.nextItem
		r.nextItem++
		stored.Items[i].OrderID = stored.ID
	}

	r.orders[stored.ID] = &stored
	return copyOrder(&stored), nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id uint64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Matches(*order) {
			result = append(result, *copyOrder(order))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id uint64, status domain.OrderStatus, etaMinutes *int) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	order.Status = status
	if etaMinutes != nil {
		minutes := *etaMinutes
		order.ETAMinutes = &minutes
	}
	order.UpdatedAt = time.Now().UTC()

	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) AssignPartner(_ context.Context, id uint64, partnerID uint64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	pid := partnerID
	order.DeliveryPartnerID = &pid
	order.UpdatedAt = time.Now().UTC()

	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) UpdatePaymentStatus(_ context.Context, id uint64, status domain.PaymentStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	order.PaymentStatus = status
	order.UpdatedAt = time.Now().UTC()

	return copyOrder(order), nil
}

// Len reports the number of stored orders. Used by tests asserting creation
// atomicity.
func (r *MemoryOrderRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	if o.DeliveryPartnerID != nil {
		id := *o.DeliveryPartnerID
		c.DeliveryPartnerID = &id
	}
	if o.ETAMinutes != nil {
		minutes := *o.ETAMinutes
		c.ETAMinutes = &minutes
	}
	c.Items = make([]domain.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}
