package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map and,
// if reachable, to transitionEdges
const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:        {},
	OrderStatusPreparing:      {},
	OrderStatusPacked:         {},
	OrderStatusOutForDelivery: {},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

// transitionEdges is the authoritative order lifecycle graph. Terminal
// statuses (delivered, cancelled) have no outgoing edges.
var transitionEdges = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPacked:         {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

// CanTransition reports whether (from, to) is an edge in the lifecycle graph.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitionEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the outgoing edges of the given status.
func NextStatuses(from OrderStatus) []OrderStatus {
	return transitionEdges[from]
}

// IsTerminal reports whether the status has no outgoing edges.
func IsTerminal(s OrderStatus) bool {
	return len(transitionEdges[s]) == 0
}

// OrderStatuses returns the full status vocabulary.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPreparing,
		OrderStatusPacked,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func ToPaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(s); ps {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return ps, nil
	}
	return "", errors.New("invalid payment status")
}
