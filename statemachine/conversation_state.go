package statemachine

import (
	"food-order-bot/models"
)

// Wildcards for ConversationTransition. AnyState in To means the state is unchanged.
const (
	AnyState models.State = "*"
	AnyEvent              = "*"
)

// EventText is the event raised when a state captures free text itself
// (an address, delivery instructions, a customization answer).
const EventText = "text"

// ConversationTransition documents where an event can take a conversation.
// On is an intent kind, an action id or EventText.
type ConversationTransition struct {
	From models.State   `json:"from"`
	On   string         `json:"on"`
	To   []models.State `json:"to"`
	Note string         `json:"note,omitempty"`
}

var entryTargets = []models.State{
	models.StateMenuSelection, models.StateItemSelection, models.StateAwaitingInput, models.StateDeliveryInfo,
}

// finalizeTargets are the outcomes of confirming: done, declined, or sent back
// for a missing order, payment method or address
var finalizeTargets = []models.State{
	models.StateInitial, models.StatePaymentSelection, models.StateMenuSelection, models.StateDeliveryAddress,
}

var conversationTransitions = []ConversationTransition{
	// Entry
	{From: models.StateInitial, On: "restart", To: []models.State{models.StateInitial}, Note: "nothing to discard"},
	{From: models.StateTerminal, On: "restart", To: []models.State{models.StateInitial}},
	{From: models.StateInitial, On: AnyEvent, To: entryTargets,
		Note: "welcome; anything but a greeting is then handled as from menu_selection"},
	{From: models.StateTerminal, On: AnyEvent, To: entryTargets, Note: "as initial"},

	// Customization and upsell
	{From: models.StateAwaitingInput, On: EventText, To: []models.State{models.StateAwaitingInput, models.StateItemSelection},
		Note: "customization answer, or a decline of the current suggestion"},
	{From: models.StateAwaitingInput, On: "choose_option", To: []models.State{models.StateAwaitingInput, models.StateItemSelection},
		Note: "next unanswered option, else resume the upsell chain"},
	{From: models.StateAwaitingInput, On: "skip_option", To: []models.State{models.StateAwaitingInput, models.StateItemSelection},
		Note: "optional options only"},
	{From: models.StateAwaitingInput, On: "decline", To: []models.State{models.StateAwaitingInput, models.StateItemSelection},
		Note: "sides → drinks → desserts → anything else"},

	// Checkout
	{From: models.StateDeliveryInfo, On: "delivery", To: []models.State{models.StateDeliveryAddress, models.StateMenuSelection}, Note: "set delivery fee"},
	{From: models.StateDeliveryInfo, On: "pickup", To: []models.State{models.StatePaymentSelection, models.StateMenuSelection}},
	{From: models.StateDeliveryInfo, On: EventText, To: []models.State{models.StateDeliveryAddress, models.StatePaymentSelection, models.StateMenuSelection}},
	{From: models.StateDeliveryAddress, On: EventText, To: []models.State{models.StateDeliveryInstructions, AnyState, models.StateDeliveryInfo, models.StateMenuSelection},
		Note: "invalid addresses are asked for again"},
	{From: models.StateDeliveryInstructions, On: EventText, To: []models.State{models.StatePaymentSelection, models.StateDeliveryInfo, models.StateMenuSelection},
		Note: `"none" skips`},
	{From: models.StateDeliveryInstructions, On: "no_instructions", To: []models.State{models.StatePaymentSelection, models.StateDeliveryInfo}},
	{From: models.StatePaymentSelection, On: "payment", To: []models.State{models.StateOrderConfirmation, models.StateMenuSelection}},
	{From: models.StatePaymentSelection, On: EventText, To: append([]models.State{models.StateOrderConfirmation, AnyState}, finalizeTargets...)},
	{From: models.StatePaymentSelection, On: "retry_payment", To: finalizeTargets},
	{From: models.StateOrderConfirmation, On: "payment", To: []models.State{models.StateOrderConfirmation, models.StateMenuSelection}},
	{From: models.StateOrderConfirmation, On: "confirm", To: finalizeTargets,
		Note: "authorize if needed; on success the order is confirmed and the conversation reset"},
	{From: models.StateOrderConfirmation, On: EventText, To: append([]models.State{models.StateOrderConfirmation, models.StateItemSelection}, finalizeTargets...)},

	// Any state
	{From: AnyState, On: "restart", To: []models.State{models.StateInitial}, Note: "discard the pending order, reset context"},
	{From: AnyState, On: "greeting", To: []models.State{models.StateMenuSelection}, Note: "welcome"},
	{From: AnyState, On: "show_menu", To: []models.State{models.StateMenuSelection}, Note: "category list or items of one category"},
	{From: AnyState, On: "continue", To: []models.State{models.StateMenuSelection}},
	{From: AnyState, On: "view_order", To: []models.State{AnyState}, Note: "order summary or empty-order prompt"},
	{From: AnyState, On: "order_item", To: []models.State{models.StateAwaitingInput, models.StateItemSelection, AnyState},
		Note: "single match adds a line; ambiguous matches offer one button per candidate"},
	{From: AnyState, On: "select_item", To: []models.State{models.StateAwaitingInput, models.StateItemSelection, AnyState}},
	{From: AnyState, On: "checkout", To: []models.State{models.StateDeliveryInfo, models.StateAwaitingInput, AnyState},
		Note: "needs at least one line; unanswered required options are asked first"},
	{From: AnyState, On: "delivery", To: []models.State{models.StateDeliveryAddress, models.StateDeliveryInfo, AnyState}},
	{From: AnyState, On: "pickup", To: []models.State{models.StatePaymentSelection, models.StateDeliveryInfo, AnyState}},
	{From: AnyState, On: "modify", To: []models.State{models.StateItemSelection}},
	{From: AnyState, On: "remove_line", To: []models.State{AnyState}},
	{From: AnyState, On: "clear_order", To: []models.State{models.StateMenuSelection, AnyState}},
	{From: AnyState, On: "dietary_preference", To: []models.State{AnyState}, Note: "list matching items"},
	{From: AnyState, On: "recommendation", To: []models.State{AnyState}},
	{From: AnyState, On: "short_reply", To: []models.State{AnyState, models.StateAwaitingInput, models.StateItemSelection, models.StateMenuSelection},
		Note: "record the preference; a style answer picks between offered candidates"},
	{From: AnyState, On: "unknown", To: []models.State{AnyState}, Note: "re-run generic extraction, else fallback prompt"},
	{From: AnyState, On: AnyEvent, To: []models.State{AnyState}, Note: "stale button or unmatched input: fallback prompt"},
}

type conversationKey struct {
	From models.State
	On   string
}

var conversationMap = func() map[conversationKey]ConversationTransition {
	m := make(map[conversationKey]ConversationTransition)
	for _, t := range conversationTransitions {
		k := conversationKey{t.From, t.On}
		if _, dup := m[k]; dup {
			panic("duplicate conversation transition " + string(t.From) + " × " + t.On)
		}
		m[k] = t
	}
	return m
}()

// LookupConversation finds the row for (from, on), trying the exact pair, then
// the state wildcard row, then the event row for any state, then the catch-all.
func LookupConversation(from models.State, on string) (ConversationTransition, bool) {
	for _, k := range []conversationKey{{from, on}, {from, AnyEvent}, {AnyState, on}, {AnyState, AnyEvent}} {
		if t, ok := conversationMap[k]; ok {
			return t, true
		}
	}
	return ConversationTransition{}, false
}

// NextStates lists the states a conversation in from can reach on event on
func NextStates(from models.State, on string) []models.State {
	t, ok := LookupConversation(from, on)
	if !ok {
		return nil
	}
	var out []models.State
	seen := map[models.State]bool{}
	for _, s := range t.To {
		if s == AnyState {
			s = from
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ConversationTransitions returns the conversation table for documentation
func ConversationTransitions() []ConversationTransition {
	return conversationTransitions
}
