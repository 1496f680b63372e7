package models

import "time"

// OrderStatus represents all possible states of a bot order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentNone   PaymentMethod = ""
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentCrypto PaymentMethod = "crypto"
)

// PaymentMethods lists the methods offered to customers, in display order
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentCrypto}

// RequiresPreauth reports whether the method must be authorized before confirming
func (p PaymentMethod) RequiresPreauth() bool {
	return p == PaymentCard || p == PaymentCrypto
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// MaxLineQuantity caps the quantity of a single order line
const MaxLineQuantity = 99

type Order struct {
	ID                   string               `json:"id" gorm:"primaryKey"`
	UserID               string               `json:"user_id" gorm:"not null;index"`
	Status               OrderStatus          `json:"status" gorm:"not null;default:'pending';index"`
	Lines                []OrderLine          `json:"lines" gorm:"foreignKey:OrderID"`
	Delivery             bool                 `json:"delivery"`
	DeliveryAddress      string               `json:"delivery_address,omitempty"`
	DeliveryInstructions string               `json:"delivery_instructions,omitempty"`
	DeliveryFee          Money                `json:"delivery_fee"`
	PaymentMethod        PaymentMethod        `json:"payment_method"`
	PaymentStatus        PaymentStatus        `json:"payment_status" gorm:"default:'pending'"`
	PaymentReference     string               `json:"payment_reference,omitempty"`
	TotalAmount          Money                `json:"total_amount"`
	StatusHistory        []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// IsActive reports whether the order is still the user's in-progress cart
func (o *Order) IsActive() bool {
	return o.Status == StatusPending
}

// Line returns the line with the given id
func (o *Order) Line(lineID string) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers can mutate without aliasing stored state
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = make([]OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		c.Lines[i] = l.Clone()
	}
	c.StatusHistory = append([]OrderStatusHistory(nil), o.StatusHistory...)
	return &c
}

type OrderLine struct {
	ID                  string            `json:"id" gorm:"primaryKey"`
	OrderID             string            `json:"order_id" gorm:"not null;index"`
	MenuItemID          string            `json:"menu_item_id" gorm:"not null"`
	Name                string            `json:"name"` // snapshot name
	Quantity            int               `json:"quantity" gorm:"not null"`
	Price               Money             `json:"price" gorm:"not null"` // snapshot price at add time
	Customizations      map[string]string `json:"customizations" gorm:"serializer:json"`
	SpecialInstructions string            `json:"special_instructions,omitempty"`
	Position            int               `json:"position"`
}

func (l OrderLine) Subtotal() Money {
	return l.Price.Times(l.Quantity)
}

func (l OrderLine) Clone() OrderLine {
	c := l
	if l.Customizations != nil {
		c.Customizations = make(map[string]string, len(l.Customizations))
		for k, v := range l.Customizations {
			c.Customizations[k] = v
		}
	}
	return c
}

// OrderStatusHistory tracks every status change of an order
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    string      `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	Actor      string      `json:"actor"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
