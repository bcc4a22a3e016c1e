package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrderStatus_HappyPath(t *testing.T) {
	path := []OrderStatus{
		OrderStatusPlaced,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransitionOrderStatus(path[i], path[i+1]),
			"%s -> %s should be allowed", path[i], path[i+1])
	}
}

func TestCanTransitionOrderStatus_SkipProcessing(t *testing.T) {
	assert.True(t, CanTransitionOrderStatus(OrderStatusConfirmed, OrderStatusShipped))
}

func TestCanTransitionOrderStatus_InvalidJumps(t *testing.T) {
	assert.False(t, CanTransitionOrderStatus(OrderStatusPlaced, OrderStatusShipped))
	assert.False(t, CanTransitionOrderStatus(OrderStatusPlaced, OrderStatusDelivered))
	assert.False(t, CanTransitionOrderStatus(OrderStatusShipped, OrderStatusConfirmed))
	assert.False(t, CanTransitionOrderStatus(OrderStatusDelivered, OrderStatusCancelled))
}

func TestCanTransitionOrderStatus_TerminalStates(t *testing.T) {
	for _, to := range []OrderStatus{
		OrderStatusPlaced, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled,
	} {
		assert.False(t, CanTransitionOrderStatus(OrderStatusCompleted, to))
		assert.False(t, CanTransitionOrderStatus(OrderStatusCancelled, to))
	}
}

func TestCanTransitionOrderStatus_CancellableBeforeDelivery(t *testing.T) {
	for _, from := range []OrderStatus{
		OrderStatusPlaced, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
	} {
		assert.True(t, CanTransitionOrderStatus(from, OrderStatusCancelled), "%s should be cancellable", from)
	}
	assert.False(t, CanTransitionOrderStatus(OrderStatusDelivered, OrderStatusCancelled))
}

func TestAddressEditableStatuses(t *testing.T) {
	assert.True(t, AddressEditableStatuses[OrderStatusPlaced])
	assert.True(t, AddressEditableStatuses[OrderStatusConfirmed])
	assert.True(t, AddressEditableStatuses[OrderStatusProcessing])
	assert.False(t, AddressEditableStatuses[OrderStatusShipped])
	assert.False(t, AddressEditableStatuses[OrderStatusDelivered])
	assert.False(t, AddressEditableStatuses[OrderStatusCancelled])
}
