package realtime

import "encoding/json"

// Client → server message types.
const (
	TypeAuth                 = "auth"
	TypeSubscribeToOrder     = "SUBSCRIBE_TO_ORDER"
	TypeUnsubscribeFromOrder = "UNSUBSCRIBE_FROM_ORDER"
	TypeGetOrderStatus       = "GET_ORDER_STATUS"
)

// Server → client message types. LOCATION_UPDATE travels both ways.
const (
	TypeConnectionEstablished = "CONNECTION_ESTABLISHED"
	TypeOrderUpdate           = "ORDER_UPDATE"
	TypeOrderCreated          = "ORDER_CREATED"
	TypeLocationUpdate        = "LOCATION_UPDATE"
	TypeError                 = "ERROR"
)

type Inbound struct {
	Type    string          `json:"type"`
	UserID  uint64          `json:"userId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type OrderRefPayload struct {
	OrderID uint64 `json:"orderId"`
}

type LocationReportPayload struct {
	DeliveryID uint64  `json:"deliveryId"`
	Location   LatLng  `json:"location"`
	OrderID    *uint64 `json:"orderId,omitempty"`
}

type ConnectionEstablishedPayload struct {
	ClientID string `json:"clientId"`
}

type OrderUpdatePayload struct {
	OrderID           uint64  `json:"orderId"`
	Status            string  `json:"status"`
	PaymentStatus     string  `json:"paymentStatus"`
	ETA               *int    `json:"eta,omitempty"`
	DeliveryPartnerID *uint64 `json:"deliveryPartnerId,omitempty"`
	Location          *LatLng `json:"location,omitempty"`
}

type LocationUpdatePayload struct {
	DeliveryPartnerID uint64 `json:"deliveryPartnerId"`
	Location          LatLng `json:"location"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
