package dto

import (
	"time"

	"kirana/internal/domain"
)

type NewOrderItem struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	UserID        uint64         `json:"userId"`
	Items         []NewOrderItem `json:"items"`
	Address       string         `json:"address"`
	PaymentMethod string         `json:"paymentMethod"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AssignPartnerRequest struct {
	DeliveryPartnerID uint64 `json:"deliveryPartnerId"`
}

type UpdatePaymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

type OrderItemDTO struct {
	ID         uint64 `json:"id"`
	ProductID  uint64 `json:"productId"`
	Quantity   int    `json:"quantity"`
	PricePaise int64  `json:"pricePaise"`
}

type OrderDTO struct {
	ID                uint64         `json:"id"`
	UserID            uint64         `json:"userId"`
	DeliveryPartnerID *uint64        `json:"deliveryPartnerId,omitempty"`
	Status            string         `json:"status"`
	PaymentStatus     string         `json:"paymentStatus"`
	PaymentMethod     string         `json:"paymentMethod"`
	TotalPaise        int64          `json:"totalPaise"`
	DeliveryFeePaise  int64          `json:"deliveryFeePaise"`
	Address           string         `json:"address"`
	ETAMinutes        *int           `json:"estimatedDeliveryTime,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	Items             []OrderItemDTO `json:"items"`
}

func ToOrderDTO(order *domain.Order) OrderDTO {
	items := make([]OrderItemDTO, len(order.Items))
	for i, it := range order.Items {
		items[i] = OrderItemDTO{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PricePaise: it.PricePaise,
		}
	}

	return OrderDTO{
		ID:                order.ID,
		UserID:            order.UserID,
		DeliveryPartnerID: order.DeliveryPartnerID,
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		PaymentMethod:     order.PaymentMethod,
		TotalPaise:        order.TotalPaise,
		DeliveryFeePaise:  order.DeliveryFeePaise,
		Address:           order.Address,
		ETAMinutes:        order.ETAMinutes,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
		Items:             items,
	}
}
