package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kirana/internal/domain"
)

func orderWith(userID uint64, partnerID *uint64, status domain.OrderStatus) *domain.Order {
	return &domain.Order{ID: 1, UserID: userID, DeliveryPartnerID: partnerID, Status: status}
}

func TestCanTransition_Matrix(t *testing.T) {
	partnerID := uint64(30)

	tests := []struct {
		name    string
		role    domain.Role
		actorID uint64
		order   *domain.Order
		target  domain.OrderStatus
		allowed bool
	}{
		{
			name:    "admin advances any order",
			role:    domain.RoleAdmin,
			actorID: 1,
			order:   orderWith(10, nil, domain.OrderStatusPending),
			target:  domain.OrderStatusPreparing,
			allowed: true,
		},
		{
			name:    "admin cancels any order",
			role:    domain.RoleAdmin,
			actorID: 1,
			order:   orderWith(10, nil, domain.OrderStatusPacked),
			target:  domain.OrderStatusCancelled,
			allowed: true,
		},
		{
			name:    "customer cancels own order",
			role:    domain.RoleCustomer,
			actorID: 10,
			order:   orderWith(10, nil, domain.OrderStatusPending),
			target:  domain.OrderStatusCancelled,
			allowed: true,
		},
		{
			name:    "customer cannot cancel someone else's order",
			role:    domain.RoleCustomer,
			actorID: 11,
			order:   orderWith(10, nil, domain.OrderStatusPending),
			target:  domain.OrderStatusCancelled,
			allowed: false,
		},
		{
			name:    "customer cannot advance own order",
			role:    domain.RoleCustomer,
			actorID: 10,
			order:   orderWith(10, nil, domain.OrderStatusPending),
			target:  domain.OrderStatusPreparing,
			allowed: false,
		},
		{
			name:    "partner completes own delivery",
			role:    domain.RoleDelivery,
			actorID: partnerID,
			order:   orderWith(10, &partnerID, domain.OrderStatusOutForDelivery),
			target:  domain.OrderStatusDelivered,
			allowed: true,
		},
		{
			name:    "partner cannot complete another partner's delivery",
			role:    domain.RoleDelivery,
			actorID: 31,
			order:   orderWith(10, &partnerID, domain.OrderStatusOutForDelivery),
			target:  domain.OrderStatusDelivered,
			allowed: false,
		},
		{
			name:    "partner cannot advance earlier statuses",
			role:    domain.RoleDelivery,
			actorID: partnerID,
			order:   orderWith(10, &partnerID, domain.OrderStatusPacked),
			target:  domain.OrderStatusOutForDelivery,
			allowed: false,
		},
		{
			name:    "partner cannot cancel",
			role:    domain.RoleDelivery,
			actorID: partnerID,
			order:   orderWith(10, &partnerID, domain.OrderStatusPacked),
			target:  domain.OrderStatusCancelled,
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanTransition(tt.role, tt.actorID, tt.order, tt.target)
			assert.Equal(t, tt.allowed, got)
		})
	}
}

func TestCanView(t *testing.T) {
	partnerID := uint64(30)
	order := orderWith(10, &partnerID, domain.OrderStatusOutForDelivery)

	assert.True(t, CanView(domain.RoleAdmin, 1, order))
	assert.True(t, CanView(domain.RoleCustomer, 10, order))
	assert.False(t, CanView(domain.RoleCustomer, 11, order))
	assert.True(t, CanView(domain.RoleDelivery, partnerID, order))
	assert.False(t, CanView(domain.RoleDelivery, 31, order))

	unassigned := orderWith(10, nil, domain.OrderStatusPending)
	assert.False(t, CanView(domain.RoleDelivery, partnerID, unassigned))
}

func TestCanAssign(t *testing.T) {
	partnerID := uint64(30)
	unassigned := orderWith(10, nil, domain.OrderStatusPreparing)
	assigned := orderWith(10, &partnerID, domain.OrderStatusPreparing)

	assert.True(t, CanAssign(domain.RoleAdmin, 1, unassigned, partnerID))
	assert.True(t, CanAssign(domain.RoleAdmin, 1, assigned, 31), "admin may reassign")

	assert.True(t, CanAssign(domain.RoleDelivery, partnerID, unassigned, partnerID), "partner self-accepts")
	assert.False(t, CanAssign(domain.RoleDelivery, partnerID, assigned, partnerID), "already assigned")
	assert.False(t, CanAssign(domain.RoleDelivery, partnerID, unassigned, 31), "partner cannot assign others")

	assert.False(t, CanAssign(domain.RoleCustomer, 10, unassigned, partnerID))
}
