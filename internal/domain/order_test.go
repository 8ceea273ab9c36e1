package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusGraph(t *testing.T) {
	t.Parallel()

	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {OrderStatusCompleted},
		OrderStatusCompleted:  {OrderStatusRefunded},
		OrderStatusCancelled:  {},
		OrderStatusRefunded:   {},
	}

	all := []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded,
	}

	for from, successors := range allowed {
		permitted := make(map[OrderStatus]bool, len(successors))
		for _, to := range successors {
			permitted[to] = true
		}
		for _, to := range all {
			assert.Equal(t, permitted[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, OrderStatusPending.IsValid())
	assert.True(t, OrderStatusRefunded.IsValid())
	assert.False(t, OrderStatus("teleported").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}

func TestPaymentStatusIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, PaymentStatusPaid.IsValid())
	assert.False(t, PaymentStatus("charged-back").IsValid())
}

func TestActorCapabilities(t *testing.T) {
	t.Parallel()

	order := &Order{OrderID: "o1", BuyerID: "buyer-1", SellerID: "seller-1"}

	admin := NewActor("admin-1", RoleAdmin)
	assert.True(t, admin.CanManageOrder(order))
	assert.True(t, admin.CanCancelOrder(order))

	owner := NewActor("seller-1", RoleSeller)
	assert.True(t, owner.CanManageOrder(order))

	otherSeller := NewActor("seller-2", RoleSeller)
	assert.False(t, otherSeller.CanManageOrder(order))

	buyer := NewActor("buyer-1", RoleBuyer)
	assert.False(t, buyer.CanManageOrder(order))
	assert.True(t, buyer.CanCancelOrder(order))

	stranger := NewActor("buyer-2", RoleBuyer)
	assert.False(t, stranger.CanCancelOrder(order))

	system := SystemActor()
	assert.True(t, system.CanManageOrder(order))
}
