// Package action defines the quick-action buttons a user can press. The set is
// closed: every Action is one of the types below, and Parse is the only way to
// decode one from a transport callback.
package action

import (
	"food-order-bot/apperr"
	"food-order-bot/models"
)

type Action interface {
	ID() string
	Params() map[string]string
	isAction()
}

const (
	IDShowMenu       = "show_menu"
	IDSelectItem     = "select_item"
	IDChooseOption   = "choose_option"
	IDSkipOption     = "skip_option"
	IDDecline        = "decline"
	IDViewOrder      = "view_order"
	IDCheckout       = "checkout"
	IDContinue       = "continue"
	IDRemoveLine     = "remove_line"
	IDClearOrder     = "clear_order"
	IDDelivery       = "delivery"
	IDPickup         = "pickup"
	IDNoInstructions = "no_instructions"
	IDPayment        = "payment"
	IDRetryPayment   = "retry_payment"
	IDConfirm        = "confirm"
	IDModify         = "modify"
	IDRestart        = "restart"
)

type ShowMenu struct{ CategoryID string }
type SelectItem struct{ ItemID string }
type ChooseOption struct{ LineID, Option, Value string }
type SkipOption struct{ LineID, Option string }
type Decline struct{}
type ViewOrder struct{}
type Checkout struct{}
type Continue struct{}
type RemoveLine struct{ LineID string }
type ClearOrder struct{}
type Delivery struct{}
type Pickup struct{}
type NoInstructions struct{}
type Payment struct{ Method models.PaymentMethod }
type RetryPayment struct{}
type Confirm struct{}
type Modify struct{}
type Restart struct{}

func (ShowMenu) ID() string       { return IDShowMenu }
func (SelectItem) ID() string     { return IDSelectItem }
func (ChooseOption) ID() string   { return IDChooseOption }
func (SkipOption) ID() string     { return IDSkipOption }
func (Decline) ID() string        { return IDDecline }
func (ViewOrder) ID() string      { return IDViewOrder }
func (Checkout) ID() string       { return IDCheckout }
func (Continue) ID() string       { return IDContinue }
func (RemoveLine) ID() string     { return IDRemoveLine }
func (ClearOrder) ID() string     { return IDClearOrder }
func (Delivery) ID() string       { return IDDelivery }
func (Pickup) ID() string         { return IDPickup }
func (NoInstructions) ID() string { return IDNoInstructions }
func (Payment) ID() string        { return IDPayment }
func (RetryPayment) ID() string   { return IDRetryPayment }
func (Confirm) ID() string        { return IDConfirm }
func (Modify) ID() string         { return IDModify }
func (Restart) ID() string        { return IDRestart }

func (a ShowMenu) Params() map[string]string {
	if a.CategoryID == "" {
		return nil
	}
	return map[string]string{"category_id": a.CategoryID}
}
func (a SelectItem) Params() map[string]string { return map[string]string{"item_id": a.ItemID} }
func (a ChooseOption) Params() map[string]string {
	return map[string]string{"line_id": a.LineID, "option": a.Option, "value": a.Value}
}
func (a SkipOption) Params() map[string]string {
	return map[string]string{"line_id": a.LineID, "option": a.Option}
}
func (a RemoveLine) Params() map[string]string { return map[string]string{"line_id": a.LineID} }
func (a Payment) Params() map[string]string    { return map[string]string{"method": string(a.Method)} }

func (Decline) Params() map[string]string        { return nil }
func (ViewOrder) Params() map[string]string      { return nil }
func (Checkout) Params() map[string]string       { return nil }
func (Continue) Params() map[string]string       { return nil }
func (ClearOrder) Params() map[string]string     { return nil }
func (Delivery) Params() map[string]string       { return nil }
func (Pickup) Params() map[string]string         { return nil }
func (NoInstructions) Params() map[string]string { return nil }
func (RetryPayment) Params() map[string]string   { return nil }
func (Confirm) Params() map[string]string        { return nil }
func (Modify) Params() map[string]string         { return nil }
func (Restart) Params() map[string]string        { return nil }

func (ShowMenu) isAction()       {}
func (SelectItem) isAction()     {}
func (ChooseOption) isAction()   {}
func (SkipOption) isAction()     {}
func (Decline) isAction()        {}
func (ViewOrder) isAction()      {}
func (Checkout) isAction()       {}
func (Continue) isAction()       {}
func (RemoveLine) isAction()     {}
func (ClearOrder) isAction()     {}
func (Delivery) isAction()       {}
func (Pickup) isAction()         {}
func (NoInstructions) isAction() {}
func (Payment) isAction()        {}
func (RetryPayment) isAction()   {}
func (Confirm) isAction()        {}
func (Modify) isAction()         {}
func (Restart) isAction()        {}

// Parse decodes a callback id and its params. Unknown ids and missing params are
// validation errors.
func Parse(id string, params map[string]string) (Action, error) {
	get := func(key string) (string, error) {
		v := params[key]
		if v == "" {
			return "", apperr.Invalid(key, "required for action "+id)
		}
		return v, nil
	}

	switch id {
	case IDShowMenu:
		return ShowMenu{CategoryID: params["category_id"]}, nil
	case IDSelectItem:
		item, err := get("item_id")
		if err != nil {
			return nil, err
		}
		return SelectItem{ItemID: item}, nil
	case IDChooseOption:
		line, err := get("line_id")
		if err != nil {
			return nil, err
		}
		opt, err := get("option")
		if err != nil {
			return nil, err
		}
		val, err := get("value")
		if err != nil {
			return nil, err
		}
		return ChooseOption{LineID: line, Option: opt, Value: val}, nil
	case IDSkipOption:
		line, err := get("line_id")
		if err != nil {
			return nil, err
		}
		opt, err := get("option")
		if err != nil {
			return nil, err
		}
		return SkipOption{LineID: line, Option: opt}, nil
	case IDRemoveLine:
		line, err := get("line_id")
		if err != nil {
			return nil, err
		}
		return RemoveLine{LineID: line}, nil
	case IDPayment:
		m, err := get("method")
		if err != nil {
			return nil, err
		}
		method := models.PaymentMethod(m)
		for _, pm := range models.PaymentMethods {
			if pm == method {
				return Payment{Method: method}, nil
			}
		}
		return nil, apperr.Invalid("method", "unsupported payment method "+m)
	case IDDecline:
		return Decline{}, nil
	case IDViewOrder:
		return ViewOrder{}, nil
	case IDCheckout:
		return Checkout{}, nil
	case IDContinue:
		return Continue{}, nil
	case IDClearOrder:
		return ClearOrder{}, nil
	case IDDelivery:
		return Delivery{}, nil
	case IDPickup:
		return Pickup{}, nil
	case IDNoInstructions:
		return NoInstructions{}, nil
	case IDRetryPayment:
		return RetryPayment{}, nil
	case IDConfirm:
		return Confirm{}, nil
	case IDModify:
		return Modify{}, nil
	case IDRestart:
		return Restart{}, nil
	}
	return nil, apperr.Invalid("action", "unknown action "+id)
}
