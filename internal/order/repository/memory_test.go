package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirana/internal/domain"
	"kirana/internal/errors"
	productrepo "kirana/internal/product/repository"
)

func newMemoryFixture() (*MemoryOrderRepository, *productrepo.MemoryProductRepository) {
	products := productrepo.NewMemoryProductRepository()
	products.Put(domain.Product{ID: 1, Name: "Milk 500ml", PricePaise: 3000, Stock: 10, IsActive: true})
	products.Put(domain.Product{ID: 2, Name: "Bread", PricePaise: 4500, Stock: 2, IsActive: true})
	return NewMemoryOrderRepository(products), products
}

func pendingOrder(userID uint64) *domain.Order {
	return &domain.Order{
		UserID:        userID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		Address:       "12 MG Road",
		Items: []domain.OrderItem{
			{ProductID: 1, Quantity: 2, PricePaise: 3000},
		},
	}
}

func TestMemoryOrderRepository_CreateAndFind(t *testing.T) {
	repo, products := newMemoryFixture()

	created, err := repo.CreateOrder(context.Background(), pendingOrder(10))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotZero(t, created.CreatedAt)
	require.Len(t, created.Items, 1)
	assert.Equal(t, created.ID, created.Items[0].OrderID)
	assert.NotZero(t, created.Items[0].ID)

	milk, _ := products.Get(1)
	assert.Equal(t, 8, milk.Stock)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, domain.OrderStatusPending, found.Status)
}

func TestMemoryOrderRepository_FindUnknown(t *testing.T) {
	repo, _ := newMemoryFixture()

	_, err := repo.FindByID(context.Background(), 99)

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestMemoryOrderRepository_CreateFailureLeavesStoreUntouched(t *testing.T) {
	repo, products := newMemoryFixture()

	order := pendingOrder(10)
	order.Items = append(order.Items, domain.OrderItem{ProductID: 2, Quantity: 3, PricePaise: 4500})

	_, err := repo.CreateOrder(context.Background(), order)

	_, ok := errors.IsInsufficientStockError(err)
	require.True(t, ok)
	assert.Zero(t, repo.Len())

	milk, _ := products.Get(1)
	assert.Equal(t, 10, milk.Stock)
}

func TestMemoryOrderRepository_UpdateStatus(t *testing.T) {
	repo, _ := newMemoryFixture()
	created, err := repo.CreateOrder(context.Background(), pendingOrder(10))
	require.NoError(t, err)

	eta := 12
	updated, err := repo.UpdateStatus(context.Background(), created.ID, domain.OrderStatusPreparing, &eta)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, updated.Status)
	require.NotNil(t, updated.ETAMinutes)
	assert.Equal(t, 12, *updated.ETAMinutes)

	// A later status change without an ETA keeps the stored one.
	updated, err = repo.UpdateStatus(context.Background(), created.ID, domain.OrderStatusPacked, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.ETAMinutes)
	assert.Equal(t, 12, *updated.ETAMinutes)
}

func TestMemoryOrderRepository_AssignPartner(t *testing.T) {
	repo, _ := newMemoryFixture()
	created, err := repo.CreateOrder(context.Background(), pendingOrder(10))
	require.NoError(t, err)

	updated, err := repo.AssignPartner(context.Background(), created.ID, 30)
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveryPartnerID)
	assert.Equal(t, uint64(30), *updated.DeliveryPartnerID)
}

func TestMemoryOrderRepository_UpdatePaymentStatus(t *testing.T) {
	repo, _ := newMemoryFixture()
	created, err := repo.CreateOrder(context.Background(), pendingOrder(10))
	require.NoError(t, err)

	updated, err := repo.UpdatePaymentStatus(context.Background(), created.ID, domain.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
}

func TestMemoryOrderRepository_List(t *testing.T) {
	repo, _ := newMemoryFixture()

	first, err := repo.CreateOrder(context.Background(), pendingOrder(10))
	require.NoError(t, err)
	_, err = repo.CreateOrder(context.Background(), pendingOrder(11))
	require.NoError(t, err)

	_, err = repo.UpdateStatus(context.Background(), first.ID, domain.OrderStatusPreparing, nil)
	require.NoError(t, err)

	all, err := repo.List(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	preparing, err := repo.List(context.Background(), domain.OrderFilter{Statuses: []domain.OrderStatus{domain.OrderStatusPreparing}})
	require.NoError(t, err)
	require.Len(t, preparing, 1)
	assert.Equal(t, first.ID, preparing[0].ID)

	mine, err := repo.List(context.Background(), domain.OrderFilter{UserIDs: []uint64{11}})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint64(11), mine[0].UserID)
}

// Returned orders are copies: mutating one must not leak into the store.
func TestMemoryOrderRepository_ReturnsCopies(t *testing.T) {
	repo, _ := newMemoryFixture()
	created, err := repo.CreateOrder(context.Background(), pendingOrder(10))
	require.NoError(t, err)

	created.Status = domain.OrderStatusDelivered
	created.Items[0].Quantity = 999

	stored, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}
