// Package conversation runs one turn of the ordering conversation: it reads the
// user's input against the current state, drives the order aggregate and
// returns the prompt to render next.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"food-order-bot/action"
	"food-order-bot/apperr"
	"food-order-bot/catalog"
	"food-order-bot/directive"
	"food-order-bot/intent"
	"food-order-bot/models"
	"food-order-bot/order"
	"food-order-bot/payment"
	"food-order-bot/statemachine"
)

const (
	defaultDeliveryFee  = models.Money(299)
	defaultHistoryLimit = 10
	maxSuggestions      = 4
)

// Input is one inbound event. Action is set when a quick action was pressed.
type Input struct {
	Text           string
	Action         action.Action
	LastBotMessage string
	History        []string
}

type Result struct {
	Prompt directive.Prompt
	// Confirmed is the order finalized during this turn, if any
	Confirmed *models.Order
	Cancelled []Cancellation
}

// Cancellation is an order cancelled during a turn and who cancelled it
type Cancellation struct {
	Order *models.Order
	Actor string
}

type Machine struct {
	catalog      catalog.Catalog
	extractor    *intent.Extractor
	payments     payment.Processor
	deliveryFee  models.Money
	historyLimit int
	orderTTL     time.Duration
	logger       zerolog.Logger
}

type Option func(*Machine)

func WithDeliveryFee(fee models.Money) Option {
	return func(m *Machine) { m.deliveryFee = fee }
}

// WithHistoryLimit sets how many recent user messages are kept in the context
func WithHistoryLimit(n int) Option {
	return func(m *Machine) { m.historyLimit = n }
}

// WithOrderTTL expires a pending order idle for longer than ttl at the start
// of the user's next turn
func WithOrderTTL(ttl time.Duration) Option {
	return func(m *Machine) { m.orderTTL = ttl }
}

func NewMachine(cat catalog.Catalog, extractor *intent.Extractor, payments payment.Processor, opts ...Option) *Machine {
	m := &Machine{
		catalog:      cat,
		extractor:    extractor,
		payments:     payments,
		deliveryFee:  defaultDeliveryFee,
		historyLimit: defaultHistoryLimit,
		logger:       log.With().Str("component", "conversation").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step applies one input to conv, mutating it in place. Orders are changed
// through the given aggregate so the caller decides the transaction scope.
// Not-found and validation failures come back as corrective prompts; only
// storage failures and state conflicts are returned as errors.
func (m *Machine) Step(ctx context.Context, orders *order.Aggregate, conv *models.Conversation, in Input) (*Result, error) {
	if conv.Context == nil {
		conv.Context = models.Context{}
	}
	t := &turn{m: m, ctx: ctx, orders: orders, conv: conv, in: in}
	expired, err := t.expireStale()
	if err != nil {
		return nil, err
	}
	if text := strings.TrimSpace(in.Text); text != "" {
		conv.Context.AppendString(models.KeyRecentMessages, text, m.historyLimit)
	}

	from := conv.State
	p, err := t.run()
	if err != nil {
		return nil, err
	}
	if expired {
		p = directive.Notice{Text: "Your previous order expired, so we're starting fresh.", Next: p}
	}

	if !allowed(from, t.event, conv.State) {
		m.logger.Debug().Str("from", string(from)).Str("on", t.event).Str("to", string(conv.State)).
			Msg("transition not listed in table")
	}
	return &Result{Prompt: p, Confirmed: t.confirmed, Cancelled: t.cancelled}, nil
}

func allowed(from models.State, event string, to models.State) bool {
	for _, s := range statemachine.NextStates(from, event) {
		if s == to {
			return true
		}
	}
	return false
}

// turn carries the state of a single Step call
type turn struct {
	m         *Machine
	ctx       context.Context
	orders    *order.Aggregate
	conv      *models.Conversation
	in        Input
	event     string
	confirmed *models.Order
	cancelled []Cancellation
}

// expireStale cancels an idle pending order and forgets the conversation that
// was building it
func (t *turn) expireStale() (bool, error) {
	o, err := t.orders.ExpireStale(t.ctx, t.conv.UserID, t.m.orderTTL)
	if err != nil || o == nil {
		return false, err
	}
	t.m.logger.Info().Str("user_id", t.conv.UserID).Str("order_id", o.ID).Msg("pending order expired")
	t.cancelled = append(t.cancelled, Cancellation{Order: o, Actor: statemachine.ActorSystem})
	t.conv.Reset()
	return true, nil
}

func (t *turn) run() (directive.Prompt, error) {
	if t.isRestart() {
		t.event = action.IDRestart
		return t.restart()
	}

	switch t.conv.State {
	case models.StateInitial, models.StateTerminal:
		t.conv.MoveTo(models.StateMenuSelection)
		if t.in.Action != nil {
			t.event = t.in.Action.ID()
			return t.welcomed(t.onAction(t.in.Action))
		}
		it := t.extract()
		t.event = string(it.Kind())
		switch it.(type) {
		case intent.Greeting, intent.Unknown:
			return t.welcome()
		}
		return t.welcomed(t.dispatch(it, false))
	}

	if t.in.Action != nil {
		t.event = t.in.Action.ID()
		return t.onAction(t.in.Action)
	}
	if p, ok, err := t.capture(); ok || err != nil {
		t.event = statemachine.EventText
		return p, err
	}
	it := t.extract()
	t.event = string(it.Kind())
	return t.dispatch(it, false)
}

func (t *turn) isRestart() bool {
	if _, ok := t.in.Action.(action.Restart); ok {
		return true
	}
	if t.in.Action != nil {
		return false
	}
	it, ok := t.m.extractor.ExtractCommand(t.in.Text)
	if !ok {
		return false
	}
	_, restart := it.(intent.Restart)
	return restart
}

func (t *turn) extract() intent.Intent {
	return t.m.extractor.Extract(t.ctx, intent.Input{
		Text:           t.in.Text,
		LastBotMessage: t.in.LastBotMessage,
		UserID:         t.conv.UserID,
		History:        t.in.History,
	})
}

// dispatch handles a classified utterance. generic is set once the text has
// been re-read in the extractor's fallback mode.
func (t *turn) dispatch(it intent.Intent, generic bool) (directive.Prompt, error) {
	switch it := it.(type) {
	case intent.Restart:
		return t.restart()
	case intent.Greeting:
		return t.welcome()
	case intent.ShowMenu:
		return t.showMenu(it.CategoryID), nil
	case intent.ViewOrder:
		return t.viewOrder()
	case intent.Checkout:
		return t.checkout()
	case intent.OrderItem:
		if it.Ambiguous() {
			return t.disambiguate(it), nil
		}
		return t.addItem(it.ItemID, it.Quantity, it.SpecialInstructions)
	case intent.DietaryPreference:
		return t.dietary(it.Preference), nil
	case intent.Recommendation:
		return t.recommendations(it), nil
	case intent.ShortReply:
		if p, ok, err := t.shortReply(it); ok || err != nil {
			return p, err
		}
	case intent.Unknown:
		if generic {
			return t.fallback(it.Fallback), nil
		}
	}
	if generic {
		return t.fallback(""), nil
	}
	return t.dispatch(t.m.extractor.ExtractGeneric(t.in.Text), true)
}

func (t *turn) onAction(a action.Action) (directive.Prompt, error) {
	switch a := a.(type) {
	case action.ShowMenu:
		return t.showMenu(a.CategoryID), nil
	case action.Continue:
		return t.showMenu(""), nil
	case action.SelectItem:
		return t.addItem(a.ItemID, 1, "")
	case action.ChooseOption:
		return t.chooseOption(a.LineID, a.Option, a.Value)
	case action.SkipOption:
		return t.skipOption(a.LineID, a.Option)
	case action.Decline:
		return t.decline()
	case action.ViewOrder:
		return t.viewOrder()
	case action.Checkout:
		return t.checkout()
	case action.RemoveLine:
		return t.removeLine(a.LineID)
	case action.ClearOrder:
		return t.clearOrder()
	case action.Delivery:
		return t.chooseDelivery(true)
	case action.Pickup:
		return t.chooseDelivery(false)
	case action.NoInstructions:
		if t.conv.State != models.StateDeliveryInstructions {
			return t.stale(), nil
		}
		return t.setInstructions("")
	case action.Payment:
		return t.choosePayment(a.Method)
	case action.RetryPayment:
		if t.conv.State != models.StatePaymentSelection {
			return t.stale(), nil
		}
		return t.finalize()
	case action.Confirm:
		if t.conv.State != models.StateOrderConfirmation {
			return t.stale(), nil
		}
		return t.finalize()
	case action.Modify:
		return t.modify()
	case action.Restart:
		return t.restart()
	}
	return t.stale(), nil
}

// capture lets states that expect free text read it before general
// classification. ok is false when the text was not meant for the state.
func (t *turn) capture() (directive.Prompt, bool, error) {
	text := t.in.Text
	switch t.conv.State {
	case models.StateDeliveryAddress:
		if it, ok := t.m.extractor.ExtractCommand(text); ok {
			p, err := t.dispatch(it, true)
			return p, true, err
		}
		p, err := t.setAddress(text)
		return p, true, err

	case models.StateDeliveryInstructions:
		if it, ok := t.m.extractor.ExtractCommand(text); ok {
			p, err := t.dispatch(it, true)
			return p, true, err
		}
		if said(text, noneWords...) {
			text = ""
		}
		p, err := t.setInstructions(text)
		return p, true, err

	case models.StateAwaitingInput:
		switch t.conv.Purpose {
		case models.PurposeCustomization:
			return t.captureCustomization(text)
		case models.PurposeSuggestSides, models.PurposeSuggestDrinks, models.PurposeSuggestDesserts:
			if said(text, declineWords...) {
				p, err := t.decline()
				return p, true, err
			}
		}

	case models.StateDeliveryInfo:
		switch {
		case said(text, pickupWords...):
			p, err := t.chooseDelivery(false)
			return p, true, err
		case said(text, deliveryWords...):
			p, err := t.chooseDelivery(true)
			return p, true, err
		}

	case models.StatePaymentSelection:
		if m, ok := paymentIn(text); ok {
			p, err := t.choosePayment(m)
			return p, true, err
		}
		if said(text, retryWords...) {
			p, err := t.finalize()
			return p, true, err
		}

	case models.StateOrderConfirmation:
		if m, ok := paymentIn(text); ok {
			p, err := t.choosePayment(m)
			return p, true, err
		}
		switch {
		case said(text, confirmWords...):
			p, err := t.finalize()
			return p, true, err
		case said(text, modifyWords...):
			p, err := t.modify()
			return p, true, err
		}
	}
	return nil, false, nil
}

func (t *turn) welcome() (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	n := 0
	if o != nil {
		n = len(o.Lines)
	}
	t.conv.MoveTo(models.StateMenuSelection)
	return directive.Welcome{Categories: t.m.catalog.Categories(), ItemsInOrder: n}, nil
}

// welcomed greets a user whose first message already asked for something
func (t *turn) welcomed(p directive.Prompt, err error) (directive.Prompt, error) {
	if err != nil {
		return nil, err
	}
	return directive.Notice{Text: "Welcome!", Next: p}, nil
}

// restart drops the pending order: an empty one is deleted, one with items is
// cancelled so its history is kept
func (t *turn) restart() (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	switch {
	case o == nil:
	case len(o.Lines) == 0:
		if _, err := t.orders.Discard(t.ctx, t.conv.UserID); err != nil {
			return nil, err
		}
	default:
		cancelled, err := t.orders.Cancel(t.ctx, t.conv.UserID, statemachine.ActorCustomer, "cancelled in chat")
		if err != nil {
			return nil, err
		}
		t.m.logger.Info().Str("user_id", t.conv.UserID).Str("order_id", cancelled.ID).Msg("pending order cancelled on restart")
		t.cancelled = append(t.cancelled, Cancellation{Order: cancelled, Actor: statemachine.ActorCustomer})
	}
	t.conv.Reset()
	return directive.Restarted{}, nil
}

func (t *turn) showMenu(categoryID string) directive.Prompt {
	t.conv.MoveTo(models.StateMenuSelection)
	if categoryID == "" {
		return directive.CategoryList{Categories: t.m.catalog.Categories()}
	}
	cat, err := t.m.catalog.GetCategory(categoryID)
	if err != nil {
		return directive.Notice{
			Text: "Sorry, I couldn't find that part of the menu.",
			Next: directive.CategoryList{Categories: t.m.catalog.Categories()},
		}
	}
	return directive.ItemList{Category: *cat, Items: t.m.catalog.ItemsInCategory(cat.ID)}
}

func (t *turn) viewOrder() (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil || len(o.Lines) == 0 {
		return directive.EmptyOrder{}, nil
	}
	return directive.OrderSummary{Order: o}, nil
}

func (t *turn) disambiguate(it intent.OrderItem) directive.Prompt {
	ids := make([]string, len(it.Candidates))
	cands := make([]directive.Candidate, len(it.Candidates))
	for i, c := range it.Candidates {
		ids[i] = c.ItemID
		cands[i] = directive.Candidate{ItemID: c.ItemID, Name: c.Name, Price: c.Price}
	}
	t.conv.Context.SetStrings(models.KeyPendingCandidates, ids)
	return directive.Disambiguate{Candidates: cands, WrapOrPlatter: t.wrapOrPlatter(ids)}
}

// wrapOrPlatter reports whether the candidates differ only by being a pita or a platter
func (t *turn) wrapOrPlatter(ids []string) bool {
	if len(ids) != 2 {
		return false
	}
	var pita, platter bool
	for _, id := range ids {
		item, err := t.m.catalog.GetItem(id)
		if err != nil {
			return false
		}
		name := strings.ToLower(item.Name)
		pita = pita || strings.HasSuffix(name, " pita") || strings.HasSuffix(name, " wrap")
		platter = platter || strings.HasSuffix(name, " platter")
	}
	return pita && platter
}

func (t *turn) dietary(pref string) directive.Prompt {
	switch pref {
	case "mild", "spicy":
		t.conv.Context.SetString(models.KeySpicePreference, pref)
	default:
		t.conv.Context.SetString(models.KeyDietaryPreference, pref)
	}
	return directive.DietaryMatches{Preference: pref, Items: t.m.catalog.ItemsByTag(pref)}
}

func (t *turn) recommendations(it intent.Recommendation) directive.Prompt {
	var items []models.MenuItem
	for _, rec := range it.Items {
		if found := t.m.catalog.FindItemsByExactName(rec.Name); len(found) == 1 {
			items = append(items, found[0])
		}
	}
	if len(it.FollowUps) > 0 {
		t.conv.Context.SetStrings(models.KeyAIFollowUps, it.FollowUps)
	}
	return directive.Recommendations{Message: it.Message, Items: items, FollowUps: it.FollowUps}
}

// shortReply applies an answer to the bot's last question. ok is false when
// the answer does not fit the conversation and should be re-read.
func (t *turn) shortReply(r intent.ShortReply) (directive.Prompt, bool, error) {
	switch r.Dimension {
	case intent.DimensionAllergy:
		has := r.Answer == "yes"
		t.conv.Context.SetBool(models.KeyAllergyInfo, has)
		return directive.AllergyNoted{HasAllergy: has}, true, nil

	case intent.DimensionStyle:
		t.conv.Context.SetString(models.KeyStylePreference, r.Answer)
		ids, _ := t.conv.Context.GetStrings(models.KeyPendingCandidates)
		for _, id := range ids {
			item, err := t.m.catalog.GetItem(id)
			if err != nil {
				continue
			}
			name := strings.ToLower(item.Name)
			if (r.Answer == "wrap" && (strings.HasSuffix(name, " pita") || strings.HasSuffix(name, " wrap"))) ||
				(r.Answer == "platter" && strings.HasSuffix(name, " platter")) {
				p, err := t.addItem(id, 1, "")
				return p, true, err
			}
		}

	case intent.DimensionSpice:
		t.conv.Context.SetString(models.KeySpicePreference, strings.ToLower(r.Answer))
	}
	return nil, false, nil
}

// fallback answers text nothing could make sense of with the popular items
func (t *turn) fallback(text string) directive.Prompt {
	items, err := t.m.catalog.PopularItems(t.ctx, maxSuggestions)
	if err != nil {
		t.m.logger.Warn().Err(err).Msg("popular items unavailable")
	}
	return directive.Fallback{Text: text, Items: items}
}

// stale answers a button that no longer applies to the conversation
func (t *turn) stale() directive.Prompt {
	return directive.Fallback{Text: "That option isn't available right now."}
}

// active returns the user's pending order, or nil
func (t *turn) active() (*models.Order, error) {
	return t.orders.GetActiveOrder(t.ctx, t.conv.UserID)
}

// recoverable turns domain errors into a corrective prompt in front of next.
// A conflict here means a stale button for an order that is no longer pending.
// Storage errors are returned.
func (t *turn) recoverable(err error, next directive.Prompt) (directive.Prompt, error) {
	var ve *apperr.ValidationError
	switch {
	case apperr.IsNotFound(err):
		return directive.Notice{Text: "Sorry, I couldn't find that.", Next: next}, nil
	case errors.As(err, &ve):
		return directive.Notice{Text: "Sorry, that didn't work: " + humanize(ve.Field) + " " + ve.Reason + ".", Next: next}, nil
	case apperr.IsConflict(err):
		t.m.logger.Warn().Err(err).Str("user_id", t.conv.UserID).Msg("stale request")
		return directive.Notice{Text: "That order can no longer be changed.", Next: next}, nil
	}
	return nil, err
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
