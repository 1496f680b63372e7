// Package bot ties the conversation core to persistence: every inbound message
// is handled as one serialized, atomic turn.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"food-order-bot/action"
	"food-order-bot/apperr"
	"food-order-bot/catalog"
	"food-order-bot/conversation"
	"food-order-bot/dedupe"
	"food-order-bot/directive"
	"food-order-bot/events"
	"food-order-bot/locks"
	"food-order-bot/models"
	"food-order-bot/order"
	"food-order-bot/statemachine"
	"food-order-bot/store"
)

// ErrDuplicate is returned for a message id that was already handled
var ErrDuplicate = errors.New("duplicate message")

const defaultHistory = 10

// Message is one inbound user event. ActionID is set when a quick action was
// pressed, in which case Text is usually empty.
type Message struct {
	ID       string
	UserID   string
	Text     string
	ActionID string
	Params   map[string]string
}

type Engine struct {
	store     store.Store
	catalog   catalog.Catalog
	machine   *conversation.Machine
	locker    locks.Locker
	deduper   dedupe.Deduper
	publisher events.Publisher
	history   int
	logger    zerolog.Logger
}

type Option func(*Engine)

func WithLocker(l locks.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithDeduper drops redelivered messages. Messages without an id are never deduplicated.
func WithDeduper(d dedupe.Deduper) Option {
	return func(e *Engine) { e.deduper = d }
}

func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithHistory sets how many logged messages are passed to the recommendation engine
func WithHistory(n int) Option {
	return func(e *Engine) { e.history = n }
}

func New(st store.Store, cat catalog.Catalog, machine *conversation.Machine, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		catalog: cat,
		machine: machine,
		locker:  locks.NewLocal(),
		history: defaultHistory,
		logger:  log.With().Str("component", "bot").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() catalog.Catalog { return e.catalog }

// Handle runs one turn for msg and returns the directive to send back.
// Turns of the same user never interleave; all writes of a turn commit together.
func (e *Engine) Handle(ctx context.Context, msg Message) (*directive.Directive, error) {
	if strings.TrimSpace(msg.UserID) == "" {
		return nil, apperr.Invalid("user_id", "required")
	}
	var act action.Action
	if msg.ActionID != "" {
		a, err := action.Parse(msg.ActionID, msg.Params)
		if err != nil {
			return nil, err
		}
		act = a
	}

	unlock, err := e.locker.Lock(ctx, "conversation:"+msg.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if e.deduper != nil && msg.ID != "" {
		first, err := e.deduper.Claim(ctx, msg.ID)
		if err != nil {
			return nil, err
		}
		if !first {
			return nil, ErrDuplicate
		}
	}

	var (
		d         directive.Directive
		confirmed *models.Order
		cancelled []conversation.Cancellation
	)
	err = e.store.InTx(ctx, func(tx store.Store) error {
		res, err := e.turn(ctx, tx, msg, act)
		if err != nil {
			return err
		}
		d = directive.Build(res.Prompt)
		confirmed = res.Confirmed
		cancelled = res.Cancelled
		return e.logExchange(ctx, tx, msg, act, d)
	})
	if err != nil {
		if e.deduper != nil && msg.ID != "" {
			if rerr := e.deduper.Release(context.Background(), msg.ID); rerr != nil {
				e.logger.Warn().Err(rerr).Str("message_id", msg.ID).Msg("failed to release message id")
			}
		}
		e.logger.Error().Err(err).Str("user_id", msg.UserID).Msg("turn failed")
		return nil, err
	}

	for _, c := range cancelled {
		e.publish(ctx, events.FromOrder(events.OrderStatusChanged, c.Order, c.Actor))
	}
	if confirmed != nil {
		e.publish(ctx, events.FromOrder(events.OrderConfirmed, confirmed, statemachine.ActorCustomer))
	}
	return &d, nil
}

func (e *Engine) turn(ctx context.Context, tx store.Store, msg Message, act action.Action) (*conversation.Result, error) {
	conv, err := tx.Conversations().Get(ctx, msg.UserID)
	switch {
	case apperr.IsNotFound(err):
		conv = models.NewConversation(msg.UserID)
	case err != nil:
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	in := conversation.Input{Text: msg.Text, Action: act}
	last, err := tx.Conversations().LastMessage(ctx, msg.UserID, models.AuthorBot)
	if err != nil {
		return nil, fmt.Errorf("load last bot message: %w", err)
	}
	if last != nil {
		in.LastBotMessage = last.Text
	}
	recent, err := tx.Conversations().RecentMessages(ctx, msg.UserID, e.history)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for _, m := range recent {
		in.History = append(in.History, string(m.Author)+": "+m.Text)
	}

	res, err := e.machine.Step(ctx, order.New(tx.Orders(), e.catalog), conv, in)
	if err != nil {
		return nil, err
	}
	if err := tx.Conversations().Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	return res, nil
}

func (e *Engine) logExchange(ctx context.Context, tx store.Store, msg Message, act action.Action, d directive.Directive) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" && act != nil {
		text = "[" + act.ID() + "]"
	}
	now := time.Now()
	entries := []*models.ConversationMessage{
		{ID: uuid.NewString(), UserID: msg.UserID, Author: models.AuthorUser, Text: text, CreatedAt: now},
		{ID: uuid.NewString(), UserID: msg.UserID, Author: models.AuthorBot, Text: d.Text, CreatedAt: now.Add(time.Microsecond)},
	}
	for _, m := range entries {
		if err := tx.Conversations().AppendMessage(ctx, m); err != nil {
			return fmt.Errorf("append message: %w", err)
		}
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Error().Err(err).Str("order_id", ev.OrderID).Msg("failed to publish order event")
	}
}

// ChangeOrderStatus moves an order along its lifecycle on behalf of staff
func (e *Engine) ChangeOrderStatus(ctx context.Context, orderID string, to models.OrderStatus, note string) (*models.Order, error) {
	var updated *models.Order
	err := e.store.InTx(ctx, func(tx store.Store) error {
		o, err := order.New(tx.Orders(), e.catalog).ChangeStatus(ctx, orderID, to, statemachine.ActorStaff, note)
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events.FromOrder(events.OrderStatusChanged, updated, statemachine.ActorStaff))
	return updated, nil
}

func (e *Engine) Order(ctx context.Context, orderID string) (*models.Order, error) {
	return e.store.Orders().Get(ctx, orderID)
}

func (e *Engine) Orders(ctx context.Context, userID string) ([]models.Order, error) {
	return e.store.Orders().ListByUser(ctx, userID)
}

// Conversation returns the stored conversation of a user, or a fresh one
func (e *Engine) Conversation(ctx context.Context, userID string) (*models.Conversation, error) {
	conv, err := e.store.Conversations().Get(ctx, userID)
	if apperr.IsNotFound(err) {
		return models.NewConversation(userID), nil
	}
	return conv, err
}
