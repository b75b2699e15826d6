package domain

import "time"

type Product struct {
	ID         uint64
	Name       string
	Category   string
	PricePaise int64
	Stock      int
	IsActive   bool
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Available reports whether the product can be ordered at all.
func (p Product) Available() bool {
	return p.IsActive && !p.IsDeleted
}
