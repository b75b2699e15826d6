package usecase

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kirana/internal/config"
	"kirana/internal/domain"
	"kirana/internal/dto"
	apperrors "kirana/internal/errors"
	orderrepo "kirana/internal/order/repository"
	productrepo "kirana/internal/product/repository"
)

type mockOrderStore struct {
	createOrder func(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	return m.createOrder(ctx, order)
}

type creationRecorder struct {
	created []*domain.Order
}

func (r *creationRecorder) BroadcastOrderCreated(order *domain.Order) {
	r.created = append(r.created, order)
}

func testConfig() config.OrderConfig {
	return config.OrderConfig{
		DeliveryFeePaise:      2500,
		FreeDeliveryOverPaise: 49900,
		DefaultETAMinutes:     10,
		MaxRetryAttempts:      3,
	}
}

func seedCatalog() *productrepo.MemoryProductRepository {
	products := productrepo.NewMemoryProductRepository()
	products.Put(domain.Product{ID: 1, Name: "Milk 500ml", PricePaise: 3000, Stock: 10, IsActive: true})
	products.Put(domain.Product{ID: 2, Name: "Bread", PricePaise: 4500, Stock: 5, IsActive: true})
	products.Put(domain.Product{ID: 3, Name: "Ghee 1l", PricePaise: 60000, Stock: 3, IsActive: true})
	products.Put(domain.Product{ID: 4, Name: "Discontinued", PricePaise: 1000, Stock: 10, IsActive: false})
	return products
}

func newUseCase(store OrderStore, products ProductRepository, b Broadcaster) *CreateOrderUseCase {
	cfg := testConfig()
	return NewCreateOrderUseCase(store, products, b, zap.NewNop(), cfg, cfg.MaxRetryAttempts)
}

func TestCreateOrder_TotalsAndFee(t *testing.T) {
	products := seedCatalog()
	store := orderrepo.NewMemoryOrderRepository(products)
	recorder := &creationRecorder{}
	uc := newUseCase(store, products, recorder)

	order, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, "12 MG Road", "cod")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, int64(2500), order.DeliveryFeePaise)
	assert.Equal(t, int64(2*3000+4500+2500), order.TotalPaise)
	assert.Len(t, order.Items, 2)
	assert.Len(t, recorder.created, 1)

	milk, _ := products.Get(1)
	bread, _ := products.Get(2)
	assert.Equal(t, 8, milk.Stock)
	assert.Equal(t, 4, bread.Stock)
}

func TestCreateOrder_FreeDeliveryOverThreshold(t *testing.T) {
	products := seedCatalog()
	store := orderrepo.NewMemoryOrderRepository(products)
	uc := newUseCase(store, products, &creationRecorder{})

	order, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 3, Quantity: 1},
	}, "12 MG Road", "upi")

	require.NoError(t, err)
	assert.Equal(t, int64(0), order.DeliveryFeePaise)
	assert.Equal(t, int64(60000), order.TotalPaise)
}

func TestCreateOrder_PriceSnapshot(t *testing.T) {
	products := seedCatalog()
	store := orderrepo.NewMemoryOrderRepository(products)
	uc := newUseCase(store, products, &creationRecorder{})

	order, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 1, Quantity: 1},
	}, "12 MG Road", "cod")
	require.NoError(t, err)

	// A later catalog price change must not touch the stored line item.
	products.Put(domain.Product{ID: 1, Name: "Milk 500ml", PricePaise: 9900, Stock: 9, IsActive: true})

	stored, err := store.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), stored.Items[0].PricePaise)
}

func TestCreateOrder_InsufficientStock_NothingPersisted(t *testing.T) {
	products := seedCatalog()
	store := orderrepo.NewMemoryOrderRepository(products)
	recorder := &creationRecorder{}
	uc := newUseCase(store, products, recorder)

	_, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 6},
	}, "12 MG Road", "cod")

	se, ok := apperrors.IsInsufficientStockError(err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), se.ProductID)
	assert.Equal(t, 6, se.Requested)
	assert.Equal(t, 5, se.Available)

	assert.Zero(t, store.Len(), "a failed basket must persist nothing")
	assert.Empty(t, recorder.created)

	milk, _ := products.Get(1)
	assert.Equal(t, 10, milk.Stock, "stock of the valid line must be untouched")
}

func TestCreateOrder_InactiveProduct(t *testing.T) {
	products := seedCatalog()
	store := orderrepo.NewMemoryOrderRepository(products)
	uc := newUseCase(store, products, &creationRecorder{})

	_, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 4, Quantity: 1},
	}, "12 MG Road", "cod")

	pe, ok := apperrors.IsProductUnavailableError(err)
	require.True(t, ok)
	assert.Equal(t, uint64(4), pe.ProductID)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	products := seedCatalog()
	store := orderrepo.NewMemoryOrderRepository(products)
	uc := newUseCase(store, products, &creationRecorder{})

	_, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 999, Quantity: 1},
	}, "12 MG Road", "cod")

	_, ok := apperrors.IsProductUnavailableError(err)
	assert.True(t, ok)
}

func TestCreateOrder_ItemsSortedByProduct(t *testing.T) {
	products := seedCatalog()
	var captured *domain.Order
	store := &mockOrderStore{
		createOrder: func(_ context.Context, order *domain.Order) (*domain.Order, error) {
			captured = order
			return order, nil
		},
	}
	uc := newUseCase(store, products, &creationRecorder{})

	_, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 3, Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}, "12 MG Road", "cod")

	require.NoError(t, err)
	require.Len(t, captured.Items, 3)
	assert.Equal(t, uint64(1), captured.Items[0].ProductID)
	assert.Equal(t, uint64(2), captured.Items[1].ProductID)
	assert.Equal(t, uint64(3), captured.Items[2].ProductID)
}

func TestCreateOrder_RetriesDeadlocks(t *testing.T) {
	products := seedCatalog()
	attempts := 0
	store := &mockOrderStore{
		createOrder: func(_ context.Context, order *domain.Order) (*domain.Order, error) {
			attempts++
			if attempts < 3 {
				return nil, &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
			}
			created := *order
			created.ID = 1
			return &created, nil
		},
	}
	recorder := &creationRecorder{}
	uc := newUseCase(store, products, recorder)

	order, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 1, Quantity: 1},
	}, "12 MG Road", "cod")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, uint64(1), order.ID)
	assert.Len(t, recorder.created, 1)
}

func TestCreateOrder_DeadlockRetriesExhausted(t *testing.T) {
	products := seedCatalog()
	store := &mockOrderStore{
		createOrder: func(_ context.Context, _ *domain.Order) (*domain.Order, error) {
			return nil, &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
		},
	}
	recorder := &creationRecorder{}
	uc := newUseCase(store, products, recorder)

	_, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 1, Quantity: 1},
	}, "12 MG Road", "cod")

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Empty(t, recorder.created)
}

func TestCreateOrder_NonDeadlockErrorNotRetried(t *testing.T) {
	products := seedCatalog()
	attempts := 0
	store := &mockOrderStore{
		createOrder: func(_ context.Context, _ *domain.Order) (*domain.Order, error) {
			attempts++
			return nil, apperrors.NewInternalError("write failed", nil)
		},
	}
	uc := newUseCase(store, products, &creationRecorder{})

	_, err := uc.CreateOrder(context.Background(), 10, []dto.NewOrderItem{
		{ProductID: 1, Quantity: 1},
	}, "12 MG Road", "cod")

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
