package realtime

// registry maps orders and delivery partners to their subscriber channels.
// It is not safe for concurrent use: the dispatcher goroutine owns it
// exclusively and is the only code that touches it.
type registry struct {
	orderSubs   map[uint64]map[string]*Channel
	partnerSubs map[uint64]map[string]*Channel
	adminChans  map[string]*Channel

	// reverse index so removeChannel sweeps only the channel's own
	// subscriptions, not the whole registry
	channelOrders   map[string]map[uint64]struct{}
	channelPartners map[string]map[uint64]struct{}
}

func newRegistry() *registry {
	return &registry{
		orderSubs:       make(map[uint64]map[string]*Channel),
		partnerSubs:     make(map[uint64]map[string]*Channel),
		adminChans:      make(map[string]*Channel),
		channelOrders:   make(map[string]map[uint64]struct{}),
		channelPartners: make(map[string]map[uint64]struct{}),
	}
}

func (r *registry) subscribeOrder(ch *Channel, orderID uint64) {
	subs, ok := r.orderSubs[orderID]
	if !ok {
		subs = make(map[string]*Channel)
		r.orderSubs[orderID] = subs
	}
	subs[ch.ID] = ch

	orders, ok := r.channelOrders[ch.ID]
	if !ok {
		orders = make(map[uint64]struct{})
		r.channelOrders[ch.ID] = orders
	}
	orders[orderID] = struct{}{}
}

func (r *registry) unsubscribeOrder(ch *Channel, orderID uint64) {
	if subs, ok := r.orderSubs[orderID]; ok {
		delete(subs, ch.ID)
		if len(subs) == 0 {
			delete(r.orderSubs, orderID)
		}
	}
	if orders, ok := r.channelOrders[ch.ID]; ok {
		delete(orders, orderID)
		if len(orders) == 0 {
			delete(r.channelOrders, ch.ID)
		}
	}
}

func (r *registry) subscribePartner(ch *Channel, partnerID uint64) {
	subs, ok := r.partnerSubs[partnerID]
	if !ok {
		subs = make(map[string]*Channel)
		r.partnerSubs[partnerID] = subs
	}
	subs[ch.ID] = ch

	partners, ok := r.channelPartners[ch.ID]
	if !ok {
		partners = make(map[uint64]struct{})
		r.channelPartners[ch.ID] = partners
	}
	partners[partnerID] = struct{}{}
}

func (r *registry) markAdmin(ch *Channel) {
	r.adminChans[ch.ID] = ch
}

func (r *registry) removeChannel(ch *Channel) {
	for orderID := range r.channelOrders[ch.ID] {
		if subs, ok := r.orderSubs[orderID]; ok {
			delete(subs, ch.ID)
			if len(subs) == 0 {
				delete(r.orderSubs, orderID)
			}
		}
	}
	delete(r.channelOrders, ch.ID)

	for partnerID := range r.channelPartners[ch.ID] {
		if subs, ok := r.partnerSubs[partnerID]; ok {
			delete(subs, ch.ID)
			if len(subs) == 0 {
				delete(r.partnerSubs, partnerID)
			}
		}
	}
	delete(r.channelPartners, ch.ID)

	delete(r.adminChans, ch.ID)
}

func (r *registry) orderSubscribers(orderID uint64) map[string]*Channel {
	return r.orderSubs[orderID]
}

func (r *registry) partnerSubscribers(partnerID uint64) map[string]*Channel {
	return r.partnerSubs[partnerID]
}

func (r *registry) admins() map[string]*Channel {
	return r.adminChans
}
