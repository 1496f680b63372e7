package conversation

import (
	"food-order-bot/directive"
	"food-order-bot/models"
	"food-order-bot/payment"
)

const (
	deliveryETA = "Your food will be with you in about 35-45 minutes."
	pickupETA   = "Your order will be ready for pickup in about 15-20 minutes."
)

func (t *turn) checkout() (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil || len(o.Lines) == 0 {
		return directive.AddItemsFirst{}, nil
	}

	// required options must be answered before the order can go through
	for i := range o.Lines {
		line := &o.Lines[i]
		item, err := t.m.catalog.GetItem(line.MenuItemID)
		if err != nil {
			continue
		}
		for j := range item.Options {
			opt := &item.Options[j]
			if _, done := line.Customizations[opt.Name]; done || !opt.Required {
				continue
			}
			t.conv.Await(models.PurposeCustomization)
			t.conv.Context.SetString(models.KeyPendingLineID, line.ID)
			t.conv.Context.Delete(models.KeySkippedOptions)
			return directive.Notice{
				Text: "One more thing before checkout.",
				Next: customize(item, line, opt),
			}, nil
		}
	}

	t.conv.MoveTo(models.StateDeliveryInfo)
	return directive.DeliveryChoice{Fee: t.m.deliveryFee}, nil
}

// inCheckout reports whether the conversation is past the delivery question
func (t *turn) inCheckout() bool {
	switch t.conv.State {
	case models.StateDeliveryInfo, models.StateDeliveryAddress, models.StateDeliveryInstructions,
		models.StatePaymentSelection, models.StateOrderConfirmation:
		return true
	}
	return false
}

func (t *turn) chooseDelivery(delivery bool) (directive.Prompt, error) {
	if !t.inCheckout() {
		return t.checkout()
	}
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil {
		t.conv.MoveTo(models.StateMenuSelection)
		return directive.AddItemsFirst{}, nil
	}
	if !delivery {
		if err := t.orders.SetPickup(t.ctx, o.ID); err != nil {
			return nil, err
		}
		return t.paymentChoice()
	}
	if err := t.orders.SetDelivery(t.ctx, o.ID, t.m.deliveryFee); err != nil {
		return nil, err
	}
	t.conv.MoveTo(models.StateDeliveryAddress)
	return directive.AskAddress{}, nil
}

func (t *turn) setAddress(text string) (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil {
		t.conv.MoveTo(models.StateMenuSelection)
		return directive.AddItemsFirst{}, nil
	}
	if !o.Delivery {
		t.conv.MoveTo(models.StateDeliveryInfo)
		return directive.DeliveryChoice{Fee: t.m.deliveryFee}, nil
	}
	if err := t.orders.SetAddress(t.ctx, o.ID, text); err != nil {
		return t.recoverable(err, directive.AskAddress{})
	}
	t.conv.MoveTo(models.StateDeliveryInstructions)
	return directive.AskInstructions{}, nil
}

func (t *turn) setInstructions(text string) (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil {
		t.conv.MoveTo(models.StateMenuSelection)
		return directive.AddItemsFirst{}, nil
	}
	if !o.Delivery {
		t.conv.MoveTo(models.StateDeliveryInfo)
		return directive.DeliveryChoice{Fee: t.m.deliveryFee}, nil
	}
	if err := t.orders.SetInstructions(t.ctx, o.ID, text); err != nil {
		return t.recoverable(err, directive.AskInstructions{})
	}
	return t.paymentChoice()
}

func (t *turn) paymentChoice() (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil {
		t.conv.MoveTo(models.StateMenuSelection)
		return directive.AddItemsFirst{}, nil
	}
	t.conv.MoveTo(models.StatePaymentSelection)
	return directive.PaymentChoice{Total: o.TotalAmount, Methods: models.PaymentMethods}, nil
}

func (t *turn) choosePayment(method models.PaymentMethod) (directive.Prompt, error) {
	if t.conv.State != models.StatePaymentSelection && t.conv.State != models.StateOrderConfirmation {
		return t.stale(), nil
	}
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil {
		t.conv.MoveTo(models.StateMenuSelection)
		return directive.AddItemsFirst{}, nil
	}
	if err := t.orders.SetPaymentMethod(t.ctx, o.ID, method); err != nil {
		return t.recoverable(err, directive.PaymentChoice{Total: o.TotalAmount, Methods: models.PaymentMethods})
	}
	if o, err = t.active(); err != nil {
		return nil, err
	}
	t.conv.MoveTo(models.StateOrderConfirmation)
	return directive.ConfirmOrder{Order: o}, nil
}

func (t *turn) modify() (directive.Prompt, error) {
	t.conv.MoveTo(models.StateItemSelection)
	current, err := t.viewOrder()
	if err != nil {
		return nil, err
	}
	return directive.Notice{Text: "No problem. What would you like to change?", Next: current}, nil
}

// finalize authorizes the payment when the method needs it and confirms the
// order. A declined payment leaves the order pending in payment selection.
func (t *turn) finalize() (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	switch {
	case o == nil || len(o.Lines) == 0:
		t.conv.MoveTo(models.StateMenuSelection)
		return directive.AddItemsFirst{}, nil
	case o.PaymentMethod == models.PaymentNone:
		return t.paymentChoice()
	case o.Delivery && o.DeliveryAddress == "":
		t.conv.MoveTo(models.StateDeliveryAddress)
		return directive.AskAddress{}, nil
	}

	var auth payment.Authorization
	if o.PaymentMethod.RequiresPreauth() {
		auth = t.authorize(o)
		if !auth.Success {
			t.conv.MoveTo(models.StatePaymentSelection)
			return directive.PaymentFailed{Method: o.PaymentMethod, Reason: auth.Message, Methods: models.PaymentMethods}, nil
		}
	}

	confirmed, err := t.orders.Confirm(t.ctx, o.ID, auth.Reference, auth.Settled)
	if err != nil {
		return nil, err
	}
	t.confirmed = confirmed
	t.m.logger.Info().Str("user_id", t.conv.UserID).Str("order_id", confirmed.ID).
		Stringer("total", confirmed.TotalAmount).Msg("order confirmed")

	t.conv.Reset()
	eta := pickupETA
	if confirmed.Delivery {
		eta = deliveryETA
	}
	return directive.OrderConfirmed{Order: confirmed, ETA: eta}, nil
}

func (t *turn) authorize(o *models.Order) payment.Authorization {
	if t.m.payments == nil {
		return payment.Authorization{Message: "online payment is not available"}
	}
	auth, err := t.m.payments.Authorize(t.ctx, o)
	if err != nil {
		t.m.logger.Error().Err(err).Str("order_id", o.ID).Msg("payment authorization failed")
		return payment.Authorization{Message: "the payment service is unavailable"}
	}
	if !auth.Success && auth.Message == "" {
		auth.Message = "the payment was declined"
	}
	return auth
}
