package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"food-order-bot/apperr"
	"food-order-bot/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		actor    string
		ok       bool
	}{
		{models.StatusPending, models.StatusConfirmed, ActorCustomer, true},
		{models.StatusPending, models.StatusCancelled, ActorSystem, true},
		{models.StatusConfirmed, models.StatusCompleted, ActorStaff, true},
		{models.StatusConfirmed, models.StatusCompleted, ActorCustomer, false},
		{models.StatusCompleted, models.StatusCancelled, ActorStaff, false},
		{models.StatusPending, models.StatusCompleted, ActorStaff, false},
	}
	for _, tt := range tests {
		err := CanTransition(tt.from, tt.to, tt.actor)
		if tt.ok {
			assert.NoError(t, err)
		} else {
			assert.True(t, apperr.IsConflict(err), "%s → %s by %s", tt.from, tt.to, tt.actor)
		}
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	assert.Empty(t, ValidTransitionsFrom(models.StatusCompleted))
	err := CanTransition(models.StatusCompleted, models.StatusPending, ActorStaff)
	assert.Contains(t, err.Error(), "none (terminal state)")
}

// every intent kind and action id the conversation machine can receive
var events = []string{
	"greeting", "restart", "show_menu", "view_order", "checkout", "order_item", "dietary_preference",
	"recommendation", "short_reply", "unknown", EventText,
	"select_item", "choose_option", "skip_option", "decline", "continue", "remove_line", "clear_order",
	"delivery", "pickup", "no_instructions", "payment", "retry_payment", "confirm", "modify",
}

func TestConversationTableIsTotal(t *testing.T) {
	for _, s := range models.AllStates {
		for _, e := range events {
			next := NextStates(s, e)
			assert.NotEmpty(t, next, "%s × %s", s, e)
			for _, n := range next {
				assert.NotEqual(t, AnyState, n)
				assert.Contains(t, models.AllStates, n)
			}
		}
	}
}

func TestConversationLookupOrder(t *testing.T) {
	assert.Equal(t, []models.State{models.StateInitial}, NextStates(models.StateInitial, "restart"))
	assert.Equal(t, entryTargets, NextStates(models.StateInitial, "checkout"))
	assert.Equal(t, []models.State{models.StatePaymentSelection, models.StateMenuSelection}, NextStates(models.StateDeliveryInfo, "pickup"))
	assert.Equal(t, []models.State{models.StateInitial}, NextStates(models.StateOrderConfirmation, "restart"))
	assert.Equal(t, []models.State{models.StateItemSelection}, NextStates(models.StateItemSelection, "view_order"))

	row, ok := LookupConversation(models.StateMenuSelection, "no_such_event")
	assert.True(t, ok)
	assert.Equal(t, AnyState, row.From)
	assert.Equal(t, AnyEvent, row.On)
}
