// Package authz holds the authorization guard: pure functions deciding what a
// role-bearing actor may do to an order. All role checks in the system go
// through here rather than inline per call site, so the transition graph and
// the permission matrix cannot drift apart.
package authz

import "kirana/internal/domain"

// CanTransition reports whether the actor may request moving the order to
// target. It assumes (order.Status, target) is a valid edge; the lifecycle
// engine checks the graph separately so that an illegal edge surfaces as
// InvalidTransition rather than Forbidden.
func CanTransition(role domain.Role, actorID uint64, order *domain.Order, target domain.OrderStatus) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDelivery:
		// A partner may only complete their own delivery.
		return order.Status == domain.OrderStatusOutForDelivery &&
			target == domain.OrderStatusDelivered &&
			order.AssignedTo(actorID)
	case domain.RoleCustomer:
		// An owner may only cancel.
		return target == domain.OrderStatusCancelled && order.UserID == actorID
	}
	return false
}

// CanView guards both the HTTP read path and the subscribe control message.
func CanView(role domain.Role, actorID uint64, order *domain.Order) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDelivery:
		return order.AssignedTo(actorID)
	case domain.RoleCustomer:
		return order.UserID == actorID
	}
	return false
}

// CanAssign reports whether the actor may set the order's delivery partner.
// Admins may assign anyone; a delivery partner may self-accept an order that
// has no partner yet.
func CanAssign(role domain.Role, actorID uint64, order *domain.Order, partnerID uint64) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDelivery:
		return actorID == partnerID && order.DeliveryPartnerID == nil
	}
	return false
}
