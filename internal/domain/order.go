package domain

import "time"

type Order struct {
	ID                uint64
	UserID            uint64
	DeliveryPartnerID *uint64
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	PaymentMethod     string
	TotalPaise        int64
	DeliveryFeePaise  int64
	Address           string
	ETAMinutes        *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []OrderItem
}

type OrderItem struct {
	ID         uint64
	OrderID    uint64
	ProductID  uint64
	Quantity   int
	PricePaise int64
}

// ItemsTotalPaise sums quantity x unit price across line items.
func (o Order) ItemsTotalPaise() int64 {
	var total int64
	for _, it := range o.Items {
		total += int64(it.Quantity) * it.PricePaise
	}
	return total
}

// AssignedTo reports whether the order is assigned to the given delivery partner.
func (o Order) AssignedTo(partnerID uint64) bool {
	return o.DeliveryPartnerID != nil && *o.DeliveryPartnerID == partnerID
}
