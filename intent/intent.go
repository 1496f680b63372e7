package intent

import (
	"food-order-bot/models"
	"food-order-bot/recommend"
)

// Kind names an intent variant
type Kind string

const (
	KindGreeting          Kind = "greeting"
	KindRestart           Kind = "restart"
	KindShowMenu          Kind = "show_menu"
	KindViewOrder         Kind = "view_order"
	KindCheckout          Kind = "checkout"
	KindOrderItem         Kind = "order_item"
	KindDietaryPreference Kind = "dietary_preference"
	KindRecommendation    Kind = "recommendation"
	KindShortReply        Kind = "short_reply"
	KindUnknown           Kind = "unknown"
)

// AllKinds lists every intent kind
var AllKinds = []Kind{
	KindGreeting, KindRestart, KindShowMenu, KindViewOrder, KindCheckout, KindOrderItem,
	KindDietaryPreference, KindRecommendation, KindShortReply, KindUnknown,
}

// Intent is the structured reading of one utterance
type Intent interface {
	Kind() Kind
}

type Greeting struct{}

type Restart struct{}

type ShowMenu struct {
	CategoryID string // empty for the category list
}

type ViewOrder struct{}

type Checkout struct{}

// Candidate is one possible item for an ambiguous order request
type Candidate struct {
	ItemID string
	Name   string
	Price  models.Money
}

// OrderItem names a single item, or carries candidates when the text matched several
type OrderItem struct {
	ItemID              string
	Candidates          []Candidate
	Quantity            int
	SpecialInstructions string
}

func (o OrderItem) Ambiguous() bool { return o.ItemID == "" && len(o.Candidates) > 1 }

// DietaryPreference carries a tag such as "vegan" or the spice answers "spicy" and "mild"
type DietaryPreference struct {
	Preference string
}

// Recommendation wraps a successful answer from the recommendation engine
type Recommendation struct {
	Message   string
	Items     []recommend.Item
	FollowUps []string
}

// Dimension is the preference a short reply resolves
type Dimension string

const (
	DimensionSpice   Dimension = "spice"
	DimensionAllergy Dimension = "allergy"
	DimensionStyle   Dimension = "style"
)

type ShortReply struct {
	Dimension Dimension
	Answer    string
}

type Unknown struct {
	Text     string
	Fallback string
}

func (Greeting) Kind() Kind          { return KindGreeting }
func (Restart) Kind() Kind           { return KindRestart }
func (ShowMenu) Kind() Kind          { return KindShowMenu }
func (ViewOrder) Kind() Kind         { return KindViewOrder }
func (Checkout) Kind() Kind          { return KindCheckout }
func (OrderItem) Kind() Kind         { return KindOrderItem }
func (DietaryPreference) Kind() Kind { return KindDietaryPreference }
func (Recommendation) Kind() Kind    { return KindRecommendation }
func (ShortReply) Kind() Kind        { return KindShortReply }
func (Unknown) Kind() Kind           { return KindUnknown }
