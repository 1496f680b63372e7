package models

import "time"

// State is the conversation state machine position
type State string

const (
	StateInitial              State = "initial"
	StateMenuSelection        State = "menu_selection"
	StateItemSelection        State = "item_selection"
	StateDeliveryInfo         State = "delivery_info"
	StateDeliveryAddress      State = "delivery_address" // delivery_info awaiting address text
	StateDeliveryInstructions State = "delivery_instructions"
	StatePaymentSelection     State = "payment_selection"
	StateOrderConfirmation    State = "order_confirmation"
	StateAwaitingInput        State = "awaiting_input"
	StateTerminal             State = "terminal"
)

// AllStates lists every state in flow order
var AllStates = []State{
	StateInitial, StateMenuSelection, StateItemSelection, StateDeliveryInfo,
	StateDeliveryAddress, StateDeliveryInstructions, StatePaymentSelection,
	StateOrderConfirmation, StateAwaitingInput, StateTerminal,
}

// Purpose says what an awaiting_input conversation is waiting for
type Purpose string

const (
	PurposeNone            Purpose = ""
	PurposeCustomization   Purpose = "customization"
	PurposeSuggestSides    Purpose = "suggest_sides"
	PurposeSuggestDrinks   Purpose = "suggest_drinks"
	PurposeSuggestDesserts Purpose = "suggest_desserts"
)

type Conversation struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	State     State     `json:"state" gorm:"not null;default:'initial'"`
	Purpose   Purpose   `json:"purpose,omitempty"`
	Context   Context   `json:"context" gorm:"serializer:json"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation returns a conversation at the entry state
func NewConversation(userID string) *Conversation {
	return &Conversation{UserID: userID, State: StateInitial, Context: Context{}}
}

// Reset returns the conversation to the entry state with an empty context
func (c *Conversation) Reset() {
	c.State = StateInitial
	c.Purpose = PurposeNone
	c.Context = Context{}
}

// MoveTo changes state, clearing the purpose unless the new state awaits input
func (c *Conversation) MoveTo(s State) {
	c.State = s
	if s != StateAwaitingInput {
		c.Purpose = PurposeNone
	}
}

// Await moves to awaiting_input for the given purpose
func (c *Conversation) Await(p Purpose) {
	c.State = StateAwaitingInput
	c.Purpose = p
}

func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Context = c.Context.Clone()
	return &cp
}

type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// ConversationMessage is one entry of the append-only conversation log
type ConversationMessage struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;index:idx_user_messages,priority:1"`
	Author    Author    `json:"author" gorm:"not null"`
	Text      string    `json:"text" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_user_messages,priority:2"`
}
