package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"kirana/internal/config"
	"kirana/internal/domain"
	"kirana/internal/dto"
	apperrors "kirana/internal/errors"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error)
}

// Broadcaster announces newly created orders to the admin dashboard.
type Broadcaster interface {
	BroadcastOrderCreated(order *domain.Order)
}

// CreateOrderUseCase validates a basket against the catalog, snapshots unit
// prices and persists the order atomically. Any item failure is a hard
// failure: nothing is persisted.
type CreateOrderUseCase struct {
	orders           OrderStore
	products         ProductRepository
	broadcaster      Broadcaster
	logger           *zap.Logger
	cfg              config.OrderConfig
	maxRetryAttempts int
}

func NewCreateOrderUseCase(
	orders OrderStore,
	products ProductRepository,
	broadcaster Broadcaster,
	logger *zap.Logger,
	cfg config.OrderConfig,
	maxRetryAttempts int,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orders:           orders,
		products:         products,
		broadcaster:      broadcaster,
		logger:           logger,
		cfg:              cfg,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (uc *CreateOrderUseCase) CreateOrder(ctx context.Context, userID uint64, items []dto.NewOrderItem, address, paymentMethod string) (*domain.Order, error) {
	uc.logger.Info("order creation started",
		zap.Uint64("userId", userID), zap.Int("itemCount", len(items)))

	ids := make([]uint64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := uc.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var itemsTotal int64
	orderItems := make([]domain.OrderItem, len(items))
	for i, item := range items {
		product, ok := byID[item.ProductID]
		if !ok || !product.Available() {
			return nil, apperrors.NewProductUnavailableError(item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, apperrors.NewInsufficientStockError(item.ProductID, item.Quantity, product.Stock)
		}

		// Unit price is snapshotted here; later catalog changes do not
		// affect this order.
		orderItems[i] = domain.OrderItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PricePaise: product.PricePaise,
		}
		itemsTotal += int64(item.Quantity) * product.PricePaise
	}

	// Lock products in a stable order inside the store transaction.
	sort.Slice(orderItems, func(i, j int) bool { return orderItems[i].ProductID < orderItems[j].ProductID })

	deliveryFee := uc.cfg.DeliveryFeePaise
	if itemsTotal >= uc.cfg.FreeDeliveryOverPaise {
		deliveryFee = 0
	}

	order := &domain.Order{
		UserID:           userID,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
		PaymentMethod:    paymentMethod,
		TotalPaise:       itemsTotal + deliveryFee,
		DeliveryFeePaise: deliveryFee,
		Address:          address,
		Items:            orderItems,
	}

	created, err := uc.createWithRetry(ctx, order)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order created",
		zap.Uint64("orderId", created.ID),
		zap.Uint64("userId", userID),
		zap.Int64("totalPaise", created.TotalPaise))

	uc.broadcaster.BroadcastOrderCreated(created)
	return created, nil
}

func (uc *CreateOrderUseCase) createWithRetry(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	maxAttempts := uc.maxRetryAttempts
	backoffs := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		created, err := uc.orders.CreateOrder(ctx, order)
		if err == nil {
			return created, nil
		}

		if isDeadlockError(err) {
			if attempt < maxAttempts {
				backoff := backoffs[min(attempt-1, len(backoffs)-1)]
				jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
				time.Sleep(jitter)
				uc.logger.Warn("deadlock during order creation, retrying",
					zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts))
				continue
			}
			break
		}

		return nil, err
	}

	return nil, apperrors.NewConflictError("max retries exceeded creating order")
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
