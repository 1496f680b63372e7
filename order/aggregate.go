// Package order is the single writer of orders. Every mutation goes through the
// Aggregate, which recomputes the total before saving and keeps at most one
// pending order per user.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"food-order-bot/apperr"
	"food-order-bot/catalog"
	"food-order-bot/models"
	"food-order-bot/statemachine"
	"food-order-bot/store"

	"github.com/google/uuid"
)

const maxInstructionsLen = 500

type Aggregate struct {
	orders  store.OrderRepository
	catalog catalog.Catalog
	now     func() time.Time
}

func New(orders store.OrderRepository, cat catalog.Catalog) *Aggregate {
	return &Aggregate{orders: orders, catalog: cat, now: time.Now}
}

// RecomputeTotal sets and returns Σ price × quantity + delivery fee
func RecomputeTotal(o *models.Order) models.Money {
	var total models.Money
	for _, l := range o.Lines {
		total += l.Subtotal()
	}
	if o.Delivery {
		total += o.DeliveryFee
	}
	o.TotalAmount = total
	return total
}

// CreateOrder starts an empty pending order. It fails with a StateConflictError
// when the user already has one.
func (a *Aggregate) CreateOrder(ctx context.Context, userID string) (*models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Invalid("user_id", "must not be empty")
	}
	active, err := a.orders.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.Conflict("user %s already has active order %s", userID, active.ID)
	}

	now := a.now()
	o := &models.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		StatusHistory: []models.OrderStatusHistory{{
			ToStatus:  models.StatusPending,
			Actor:     statemachine.ActorCustomer,
			Note:      "order started",
			CreatedAt: now,
		}},
	}
	o.StatusHistory[0].OrderID = o.ID
	if err := a.save(ctx, o); err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

// GetActiveOrder returns the user's pending order, or nil
func (a *Aggregate) GetActiveOrder(ctx context.Context, userID string) (*models.Order, error) {
	return a.orders.FindActive(ctx, userID)
}

func (a *Aggregate) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return a.orders.Get(ctx, orderID)
}

// AddLine appends a line priced at the item's current catalog price
func (a *Aggregate) AddLine(ctx context.Context, orderID, itemID string, quantity int, instructions string) (*models.OrderLine, error) {
	if quantity < 1 || quantity > models.MaxLineQuantity {
		return nil, apperr.Invalid("quantity", fmt.Sprintf("must be between 1 and %d", models.MaxLineQuantity))
	}
	if len(instructions) > maxInstructionsLen {
		return nil, apperr.Invalid("special_instructions", "too long")
	}
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return nil, err
	}
	item, err := a.catalog.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsAvailable {
		return nil, apperr.NotFound("menu item", itemID)
	}

	pos := 0
	for _, l := range o.Lines {
		if l.Position > pos {
			pos = l.Position
		}
	}
	line := models.OrderLine{
		ID:                  uuid.NewString(),
		OrderID:             o.ID,
		MenuItemID:          item.ID,
		Name:                item.Name,
		Quantity:            quantity,
		Price:               item.Price,
		Customizations:      map[string]string{},
		SpecialInstructions: strings.TrimSpace(instructions),
		Position:            pos + 1,
	}
	o.Lines = append(o.Lines, line)
	if err := a.save(ctx, o); err != nil {
		return nil, err
	}
	return &line, nil
}

// SetCustomization records the choice for an option, replacing any earlier one
func (a *Aggregate) SetCustomization(ctx context.Context, lineID, optionName, value string) error {
	o, line, err := a.loadLine(ctx, lineID)
	if err != nil {
		return err
	}
	item, err := a.catalog.GetItem(line.MenuItemID)
	if err != nil {
		return err
	}
	opt, ok := item.Option(optionName)
	if !ok {
		return apperr.Invalid("option", fmt.Sprintf("%s has no option %q", item.Name, optionName))
	}
	choice, ok := opt.Match(value)
	if !ok {
		return apperr.Invalid(opt.Name, fmt.Sprintf("%q is not one of %s", value, strings.Join(opt.Choices, ", ")))
	}
	if line.Customizations == nil {
		line.Customizations = map[string]string{}
	}
	line.Customizations[opt.Name] = choice
	return a.save(ctx, o)
}

// RemoveLine deletes a line. A missing line is reported as NotFoundError and
// nothing changes.
func (a *Aggregate) RemoveLine(ctx context.Context, lineID string) (*models.Order, error) {
	o, _, err := a.loadLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	kept := o.Lines[:0]
	for _, l := range o.Lines {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	o.Lines = kept
	if err := a.save(ctx, o); err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

// Clear removes every line and keeps the order shell
func (a *Aggregate) Clear(ctx context.Context, orderID string) error {
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return err
	}
	o.Lines = nil
	return a.save(ctx, o)
}

// RecomputeTotal reloads an order and repairs a stale stored total
func (a *Aggregate) RecomputeTotal(ctx context.Context, orderID string) (models.Money, error) {
	o, err := a.orders.Get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	stored := o.TotalAmount
	total := RecomputeTotal(o)
	if total != stored && o.IsActive() {
		if err := a.save(ctx, o); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (a *Aggregate) SetDelivery(ctx context.Context, orderID string, fee models.Money) error {
	if fee < 0 {
		return apperr.Invalid("delivery_fee", "must not be negative")
	}
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return err
	}
	o.Delivery = true
	o.DeliveryFee = fee
	return a.save(ctx, o)
}

// SetPickup clears the delivery flag, fee and address
func (a *Aggregate) SetPickup(ctx context.Context, orderID string) error {
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return err
	}
	o.Delivery = false
	o.DeliveryFee = 0
	o.DeliveryAddress = ""
	o.DeliveryInstructions = ""
	return a.save(ctx, o)
}

func (a *Aggregate) SetAddress(ctx context.Context, orderID, address string) error {
	address = strings.Join(strings.Fields(address), " ")
	if len(address) < 5 || !strings.ContainsFunc(address, unicode.IsLetter) {
		return apperr.Invalid("delivery_address", "looks incomplete")
	}
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.Delivery {
		return apperr.Conflict("order %s is not for delivery", o.ID)
	}
	o.DeliveryAddress = address
	return a.save(ctx, o)
}

func (a *Aggregate) SetInstructions(ctx context.Context, orderID, instructions string) error {
	instructions = strings.TrimSpace(instructions)
	if len(instructions) > maxInstructionsLen {
		return apperr.Invalid("delivery_instructions", "too long")
	}
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.Delivery {
		return apperr.Conflict("order %s is not for delivery", o.ID)
	}
	o.DeliveryInstructions = instructions
	return a.save(ctx, o)
}

func (a *Aggregate) SetPaymentMethod(ctx context.Context, orderID string, method models.PaymentMethod) error {
	valid := false
	for _, m := range models.PaymentMethods {
		valid = valid || m == method
	}
	if !valid {
		return apperr.Invalid("payment_method", fmt.Sprintf("unsupported method %q", method))
	}
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return err
	}
	o.PaymentMethod = method
	return a.save(ctx, o)
}

// Confirm finalizes a pending order. Payment is marked paid only when settled.
func (a *Aggregate) Confirm(ctx context.Context, orderID, reference string, settled bool) (*models.Order, error) {
	o, err := a.loadPending(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case len(o.Lines) == 0:
		return nil, apperr.Invalid("order", "has no items")
	case o.PaymentMethod == models.PaymentNone:
		return nil, apperr.Invalid("payment_method", "not selected")
	case o.Delivery && o.DeliveryAddress == "":
		return nil, apperr.Invalid("delivery_address", "missing")
	}
	if err := a.transition(o, models.StatusConfirmed, statemachine.ActorCustomer, "confirmed in chat"); err != nil {
		return nil, err
	}
	o.PaymentReference = reference
	if settled {
		o.PaymentStatus = models.PaymentPaid
	}
	if err := a.save(ctx, o); err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

// Discard deletes the user's pending order, reporting whether there was one
func (a *Aggregate) Discard(ctx context.Context, userID string) (bool, error) {
	o, err := a.orders.FindActive(ctx, userID)
	if err != nil || o == nil {
		return false, err
	}
	if err := a.orders.Delete(ctx, o.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel cancels the user's pending order on behalf of actor. It returns nil
// when there is no pending order.
func (a *Aggregate) Cancel(ctx context.Context, userID, actor, note string) (*models.Order, error) {
	o, err := a.orders.FindActive(ctx, userID)
	if err != nil || o == nil {
		return nil, err
	}
	return a.ChangeStatus(ctx, o.ID, models.StatusCancelled, actor, note)
}

// ExpireStale cancels the user's pending order when it has not changed for
// longer than ttl and returns it. A ttl of zero never expires anything.
func (a *Aggregate) ExpireStale(ctx context.Context, userID string, ttl time.Duration) (*models.Order, error) {
	if ttl <= 0 {
		return nil, nil
	}
	o, err := a.orders.FindActive(ctx, userID)
	if err != nil || o == nil {
		return nil, err
	}
	last := o.UpdatedAt
	if last.IsZero() {
		last = o.CreatedAt
	}
	if a.now().Sub(last) <= ttl {
		return nil, nil
	}
	return a.ChangeStatus(ctx, o.ID, models.StatusCancelled, statemachine.ActorSystem, "expired")
}

// ChangeStatus moves an order along its lifecycle on behalf of actor.
// Cancelling a paid order marks the payment refunded.
func (a *Aggregate) ChangeStatus(ctx context.Context, orderID string, to models.OrderStatus, actor, note string) (*models.Order, error) {
	o, err := a.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := a.transition(o, to, actor, note); err != nil {
		return nil, err
	}
	if to == models.StatusCancelled && o.PaymentStatus == models.PaymentPaid {
		o.PaymentStatus = models.PaymentRefunded
	}
	if err := a.save(ctx, o); err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

func (a *Aggregate) transition(o *models.Order, to models.OrderStatus, actor, note string) error {
	if err := statemachine.CanTransition(o.Status, to, actor); err != nil {
		return err
	}
	o.StatusHistory = append(o.StatusHistory, models.OrderStatusHistory{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   to,
		Actor:      actor,
		Note:       note,
		CreatedAt:  a.now(),
	})
	o.Status = to
	return nil
}

func (a *Aggregate) loadPending(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := a.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsActive() {
		return nil, apperr.Conflict("order %s is %s and can no longer change", o.ID, o.Status)
	}
	return o, nil
}

func (a *Aggregate) loadLine(ctx context.Context, lineID string) (*models.Order, *models.OrderLine, error) {
	o, err := a.orders.FindByLine(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	if !o.IsActive() {
		return nil, nil, apperr.Conflict("order %s is %s and can no longer change", o.ID, o.Status)
	}
	line, ok := o.Line(lineID)
	if !ok {
		return nil, nil, apperr.NotFound("order line", lineID)
	}
	return o, line, nil
}

func (a *Aggregate) save(ctx context.Context, o *models.Order) error {
	RecomputeTotal(o)
	o.UpdatedAt = a.now()
	if err := a.orders.Save(ctx, o); err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	return nil
}
