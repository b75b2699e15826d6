package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kirana/internal/auth"
	"kirana/internal/domain"
)

type UserLookup interface {
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
}

// OrderReader is the engine's guarded read path; it returns an error when the
// actor may not view the order, which the gateway treats as "drop silently".
type OrderReader interface {
	GetOrder(ctx context.Context, orderID uint64, actor *auth.Principal) (*domain.Order, error)
}

// Gateway accepts websocket connections and translates inbound control
// messages into registry and dispatcher calls. A connection starts anonymous;
// the first auth message binds it to a user.
type Gateway struct {
	dispatcher *Dispatcher
	users      UserLookup
	orders     OrderReader
	locations  *LocationStore
	logger     *zap.Logger
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewGateway(
	dispatcher *Dispatcher,
	users UserLookup,
	orders OrderReader,
	locations *LocationStore,
	logger *zap.Logger,
	bufferSize int,
) *Gateway {
	return &Gateway{
		dispatcher: dispatcher,
		users:      users,
		orders:     orders,
		locations:  locations,
		logger:     logger,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The UI layer fronts this service; origin policy lives there.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the connection and runs the read loop until the client
// disconnects. Channel cleanup happens before the socket is torn down, so no
// broadcast can target a closed connection.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := NewChannel(uuid.New().String(), g.bufferSize)
	logger := g.logger.With(zap.String("channelId", ch.ID))
	logger.Info("client connected")

	go g.writePump(conn, ch, logger)

	ch.TrySend(Outbound{
		Type:    TypeConnectionEstablished,
		Payload: ConnectionEstablishedPayload{ClientID: ch.ID},
	})

	g.readLoop(r.Context(), conn, ch, logger)

	g.dispatcher.RemoveChannel(ch)
	ch.Close()
	_ = conn.Close()
	logger.Info("client disconnected")
}

func (g *Gateway) writePump(conn *websocket.Conn, ch *Channel, logger *zap.Logger) {
	for msg := range ch.Out {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debug("write failed", zap.Error(err))
			return
		}
	}
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, ch *Channel, logger *zap.Logger) {
	var principal *auth.Principal

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			ch.TrySend(Outbound{Type: TypeError, Payload: ErrorPayload{Message: "malformed message"}})
			continue
		}

		switch msg.Type {
		case TypeAuth:
			principal = g.handleAuth(ctx, ch, msg, logger)
		case TypeSubscribeToOrder:
			g.handleSubscribe(ctx, ch, principal, msg.Payload)
		case TypeUnsubscribeFromOrder:
			var payload OrderRefPayload
			if err := json.Unmarshal(msg.Payload, &payload); err == nil {
				g.dispatcher.UnsubscribeFromOrder(ch, payload.OrderID)
			}
		case TypeLocationUpdate:
			g.handleLocationReport(ctx, principal, msg.Payload, logger)
		case TypeGetOrderStatus:
			g.handleGetStatus(ctx, ch, principal, msg.Payload)
		default:
			ch.TrySend(Outbound{Type: TypeError, Payload: ErrorPayload{Message: "unknown message type"}})
		}
	}
}

// handleAuth binds the channel to a user. Unknown users leave the channel
// anonymous; admin channels additionally receive order-creation events, and a
// delivery partner's channel tracks its own location stream.
func (g *Gateway) handleAuth(ctx context.Context, ch *Channel, msg Inbound, logger *zap.Logger) *auth.Principal {
	user, err := g.users.FindByID(ctx, msg.UserID)
	if err != nil {
		logger.Debug("auth for unknown user", zap.Uint64("userId", msg.UserID))
		return nil
	}

	switch user.Role {
	case domain.RoleAdmin:
		g.dispatcher.MarkAdmin(ch)
	case domain.RoleDelivery:
		g.dispatcher.SubscribeToPartner(ch, user.ID)
	}

	logger.Info("channel authenticated",
		zap.Uint64("userId", user.ID), zap.String("role", string(user.Role)))
	return &auth.Principal{UserID: user.ID, Role: user.Role}
}

// handleSubscribe drops denied or unknown orders silently so that probing
// for order ids reveals nothing.
func (g *Gateway) handleSubscribe(ctx context.Context, ch *Channel, principal *auth.Principal, raw json.RawMessage) {
	if principal == nil {
		return
	}

	var payload OrderRefPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	if _, err := g.orders.GetOrder(ctx, payload.OrderID, principal); err != nil {
		return
	}

	g.dispatcher.SubscribeToOrder(ch, payload.OrderID)
}

// handleLocationReport stores the partner's position (last write wins) and
// fans it out. Reports for anyone but the authenticated partner are ignored.
func (g *Gateway) handleLocationReport(ctx context.Context, principal *auth.Principal, raw json.RawMessage, logger *zap.Logger) {
	if principal == nil || principal.Role != domain.RoleDelivery {
		return
	}

	var payload LocationReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	if payload.DeliveryID != principal.UserID {
		logger.Debug("location report for another partner ignored",
			zap.Uint64("reportedId", payload.DeliveryID))
		return
	}

	loc := domain.PartnerLocation{
		PartnerID:  principal.UserID,
		Lat:        payload.Location.Lat,
		Lng:        payload.Location.Lng,
		CapturedAt: time.Now().UTC(),
	}
	g.locations.Set(loc)

	orderID := payload.OrderID
	if orderID != nil {
		// Only forward to an order's subscribers when the partner is
		// actually assigned to it.
		if _, err := g.orders.GetOrder(ctx, *orderID, principal); err != nil {
			orderID = nil
		}
	}

	g.dispatcher.BroadcastLocationUpdate(loc, orderID)
}

// handleGetStatus replies with an authoritative snapshot and subscribes the
// channel, which is the documented reconnect protocol: pull the snapshot,
// then rely on pushes.
func (g *Gateway) handleGetStatus(ctx context.Context, ch *Channel, principal *auth.Principal, raw json.RawMessage) {
	if principal == nil {
		return
	}

	var payload OrderRefPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	order, err := g.orders.GetOrder(ctx, payload.OrderID, principal)
	if err != nil {
		return
	}

	ch.TrySend(Outbound{Type: TypeOrderUpdate, Payload: g.dispatcher.orderPayload(order)})
	g.dispatcher.SubscribeToOrder(ch, payload.OrderID)
}
