package realtime

import (
	"go.uber.org/zap"

	"kirana/internal/domain"
)

type commandKind int

const (
	cmdSubscribeOrder commandKind = iota
	cmdUnsubscribeOrder
	cmdSubscribePartner
	cmdMarkAdmin
	cmdRemoveChannel
	cmdBroadcastOrder
	cmdBroadcastCreated
	cmdBroadcastLocation
)

type command struct {
	kind      commandKind
	ch        *Channel
	orderID   uint64
	partnerID uint64
	order     *domain.Order
	location  domain.PartnerLocation
	toOrder   *uint64
	done      chan struct{}
}

// Dispatcher owns the subscription registry. A single goroutine consumes the
// command queue, so registry mutations and fan-outs are serialized without
// locks and per-order message order is preserved. Broadcast entry points
// enqueue and return; callers never wait for the fan-out.
type Dispatcher struct {
	cmds      chan command
	reg       *registry
	locations *LocationStore
	logger    *zap.Logger
	stopped   chan struct{}
}

func NewDispatcher(locations *LocationStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cmds:      make(chan command, 256),
		reg:       newRegistry(),
		locations: locations,
		logger:    logger,
		stopped:   make(chan struct{}),
	}
}

// Start launches the dispatcher loop.
func (d *Dispatcher) Start() {
	go d.run()
}

// Stop drains no further commands; pending ones are processed first.
func (d *Dispatcher) Stop() {
	close(d.cmds)
	<-d.stopped
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for cmd := range d.cmds {
		d.handle(cmd)
		if cmd.done != nil {
			close(cmd.done)
		}
	}
}

func (d *Dispatcher) handle(cmd command) {
	switch cmd.kind {
	case cmdSubscribeOrder:
		d.reg.subscribeOrder(cmd.ch, cmd.orderID)
	case cmdUnsubscribeOrder:
		d.reg.unsubscribeOrder(cmd.ch, cmd.orderID)
	case cmdSubscribePartner:
		d.reg.subscribePartner(cmd.ch, cmd.partnerID)
	case cmdMarkAdmin:
		d.reg.markAdmin(cmd.ch)
	case cmdRemoveChannel:
		d.reg.removeChannel(cmd.ch)
	case cmdBroadcastOrder:
		d.fanOutOrder(cmd.order, TypeOrderUpdate)
	case cmdBroadcastCreated:
		d.fanOutCreated(cmd.order)
	case cmdBroadcastLocation:
		d.fanOutLocation(cmd.location, cmd.toOrder)
	}
}

func (d *Dispatcher) SubscribeToOrder(ch *Channel, orderID uint64) {
	d.cmds <- command{kind: cmdSubscribeOrder, ch: ch, orderID: orderID}
}

func (d *Dispatcher) UnsubscribeFromOrder(ch *Channel, orderID uint64) {
	d.cmds <- command{kind: cmdUnsubscribeOrder, ch: ch, orderID: orderID}
}

func (d *Dispatcher) SubscribeToPartner(ch *Channel, partnerID uint64) {
	d.cmds <- command{kind: cmdSubscribePartner, ch: ch, partnerID: partnerID}
}

func (d *Dispatcher) MarkAdmin(ch *Channel) {
	d.cmds <- command{kind: cmdMarkAdmin, ch: ch}
}

// RemoveChannel purges the channel from every subscriber set. It waits for
// the command to be applied: once it returns, no later broadcast can target
// the channel.
func (d *Dispatcher) RemoveChannel(ch *Channel) {
	done := make(chan struct{})
	d.cmds <- command{kind: cmdRemoveChannel, ch: ch, done: done}
	<-done
}

func (d *Dispatcher) BroadcastOrderUpdate(order *domain.Order) {
	d.cmds <- command{kind: cmdBroadcastOrder, order: order}
}

func (d *Dispatcher) BroadcastOrderCreated(order *domain.Order) {
	d.cmds <- command{kind: cmdBroadcastCreated, order: order}
}

func (d *Dispatcher) BroadcastLocationUpdate(loc domain.PartnerLocation, orderID *uint64) {
	d.cmds <- command{kind: cmdBroadcastLocation, location: loc, toOrder: orderID}
}

// fanOutOrder pushes the order state to order subscribers and, when a partner
// is assigned, to that partner's subscribers as well. Channels present in
// both sets get the message once.
func (d *Dispatcher) fanOutOrder(order *domain.Order, msgType string) {
	payload := d.orderPayload(order)
	msg := Outbound{Type: msgType, Payload: payload}

	seen := make(map[string]struct{})
	for id, ch := range d.reg.orderSubscribers(order.ID) {
		seen[id] = struct{}{}
		d.push(ch, msg)
	}
	if order.DeliveryPartnerID != nil {
		for id, ch := range d.reg.partnerSubscribers(*order.DeliveryPartnerID) {
			if _, dup := seen[id]; dup {
				continue
			}
			d.push(ch, msg)
		}
	}
}

// fanOutCreated notifies admin dashboards only; the customer subscribes to
// the order explicitly after creation.
func (d *Dispatcher) fanOutCreated(order *domain.Order) {
	msg := Outbound{Type: TypeOrderCreated, Payload: d.orderPayload(order)}
	for _, ch := range d.reg.admins() {
		d.push(ch, msg)
	}
}

func (d *Dispatcher) fanOutLocation(loc domain.PartnerLocation, orderID *uint64) {
	msg := Outbound{Type: TypeLocationUpdate, Payload: LocationUpdatePayload{
		DeliveryPartnerID: loc.PartnerID,
		Location:          LatLng{Lat: loc.Lat, Lng: loc.Lng},
	}}

	seen := make(map[string]struct{})
	for id, ch := range d.reg.partnerSubscribers(loc.PartnerID) {
		seen[id] = struct{}{}
		d.push(ch, msg)
	}
	if orderID != nil {
		for id, ch := range d.reg.orderSubscribers(*orderID) {
			if _, dup := seen[id]; dup {
				continue
			}
			d.push(ch, msg)
		}
	}
}

func (d *Dispatcher) orderPayload(order *domain.Order) OrderUpdatePayload {
	payload := OrderUpdatePayload{
		OrderID:           order.ID,
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		ETA:               order.ETAMinutes,
		DeliveryPartnerID: order.DeliveryPartnerID,
	}
	if order.DeliveryPartnerID != nil {
		if loc, ok := d.locations.Get(*order.DeliveryPartnerID); ok {
			payload.Location = &LatLng{Lat: loc.Lat, Lng: loc.Lng}
		}
	}
	return payload
}

// push never blocks and never fails the broadcast; a dead or slow subscriber
// is simply skipped.
func (d *Dispatcher) push(ch *Channel, msg Outbound) {
	if !ch.TrySend(msg) {
		d.logger.Debug("dropped message for channel", zap.String("channelId", ch.ID), zap.String("type", msg.Type))
	}
}
