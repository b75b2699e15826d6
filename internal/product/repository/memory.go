package repository

import (
	"context"
	"sync"

	"kirana/internal/domain"
)

// MemoryProductRepository holds products in memory, mirroring the original
// catalog maps. Stock adjustments are only made through the order store's
// creation path.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[uint64]*domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[uint64]*domain.Product)}
}

func (r *MemoryProductRepository) Put(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := p
	r.products[p.ID] = &stored
}

func (r *MemoryProductRepository) Get(id uint64) (domain.Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, false
	}
	return *p, true
}

// AdjustStock adds delta to the product's stock. Callers hold the order
// store's lock during creation, so the two-step check-then-adjust is safe.
func (r *MemoryProductRepository) AdjustStock(id uint64, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Stock += delta
	}
}

func (r *MemoryProductRepository) FindByIDs(_ context.Context, ids []uint64) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []domain.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && !p.IsDeleted {
			products = append(products, *p)
		}
	}
	return products, nil
}
