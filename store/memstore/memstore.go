// Package memstore keeps everything in process memory. Transactions buffer their
// writes in an overlay that is merged on commit, so a failed unit of work leaves
// the store untouched.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/store"
)

type data struct {
	mu            sync.RWMutex
	categories    map[string]models.Category
	items         map[string]models.MenuItem
	orders        map[string]*models.Order
	conversations map[string]*models.Conversation
	messages      map[string][]models.ConversationMessage
	historySeq    uint
}

// overlay holds the writes of one transaction
type overlay struct {
	orders        map[string]*models.Order // nil value marks a delete
	conversations map[string]*models.Conversation
	messages      []models.ConversationMessage
}

type Store struct {
	*data
	tx *overlay
}

func New() *Store {
	return &Store{data: &data{
		categories:    map[string]models.Category{},
		items:         map[string]models.MenuItem{},
		orders:        map[string]*models.Order{},
		conversations: map[string]*models.Conversation{},
		messages:      map[string][]models.ConversationMessage{},
	}}
}

func (s *Store) Menu() store.MenuRepository                  { return menuRepo{s} }
func (s *Store) Orders() store.OrderRepository               { return orderRepo{s} }
func (s *Store) Conversations() store.ConversationRepository { return conversationRepo{s} }

// InTx runs fn against a view whose writes become visible only when fn returns nil.
// Nested calls join the outer transaction. Menu writes are not transactional.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	view := &Store{data: s.data, tx: &overlay{
		orders:        map[string]*models.Order{},
		conversations: map[string]*models.Conversation{},
	}}
	if err := fn(view); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(view.tx)
	return nil
}

func (s *Store) commit(tx *overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, o := range tx.orders {
		if o == nil {
			delete(s.orders, id)
			continue
		}
		s.assignHistoryIDs(o)
		s.orders[id] = o
	}
	for id, c := range tx.conversations {
		s.conversations[id] = c
	}
	for _, m := range tx.messages {
		s.messages[m.UserID] = append(s.messages[m.UserID], m)
	}
}

// assignHistoryIDs numbers new history entries; callers hold the write lock
func (s *Store) assignHistoryIDs(o *models.Order) {
	for i := range o.StatusHistory {
		if o.StatusHistory[i].ID == 0 {
			s.historySeq++
			o.StatusHistory[i].ID = s.historySeq
		}
	}
}

type menuRepo struct{ s *Store }

func (r menuRepo) Categories(ctx context.Context) ([]models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r menuRepo) Items(ctx context.Context) ([]models.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.MenuItem, 0, len(r.s.items))
	for _, item := range r.s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r menuRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.categories[c.ID] = *c
	return nil
}

func (r menuRepo) SaveItem(ctx context.Context, item *models.MenuItem) error {
	if _, err := r.category(item.CategoryID); err != nil {
		return err
	}
	cp := *item
	cp.Tags = append([]string(nil), item.Tags...)
	cp.Options = append([]models.CustomizationOption(nil), item.Options...)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.ID] = cp
	return nil
}

func (r menuRepo) category(id string) (models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return c, apperr.NotFound("category", id)
	}
	return c, nil
}

type orderRepo struct{ s *Store }

// scan returns clones of every order visible to this view that keep accepts
func (r orderRepo) scan(keep func(*models.Order) bool) []*models.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Order
	for id, o := range r.s.orders {
		if r.s.tx != nil {
			if _, shadowed := r.s.tx.orders[id]; shadowed {
				continue
			}
		}
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	if r.s.tx != nil {
		for _, o := range r.s.tx.orders {
			if o != nil && keep(o) {
				out = append(out, o.Clone())
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r orderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	found := r.scan(func(o *models.Order) bool { return o.ID == id })
	if len(found) == 0 {
		return nil, apperr.NotFound("order", id)
	}
	return found[0], nil
}

func (r orderRepo) FindByLine(ctx context.Context, lineID string) (*models.Order, error) {
	found := r.scan(func(o *models.Order) bool {
		_, ok := o.Line(lineID)
		return ok
	})
	if len(found) == 0 {
		return nil, apperr.NotFound("order line", lineID)
	}
	return found[0], nil
}

func (r orderRepo) FindActive(ctx context.Context, userID string) (*models.Order, error) {
	found := r.scan(func(o *models.Order) bool { return o.UserID == userID && o.IsActive() })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r orderRepo) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	found := r.scan(func(o *models.Order) bool { return o.UserID == userID })
	out := make([]models.Order, 0, len(found))
	for _, o := range found {
		out = append(out, *o)
	}
	return out, nil
}

func (r orderRepo) Save(ctx context.Context, o *models.Order) error {
	cp := o.Clone()
	sort.SliceStable(cp.Lines, func(i, j int) bool { return cp.Lines[i].Position < cp.Lines[j].Position })
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	if r.s.tx != nil {
		r.s.tx.orders[o.ID] = cp
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignHistoryIDs(cp)
	r.s.orders[o.ID] = cp
	return nil
}

func (r orderRepo) Delete(ctx context.Context, id string) error {
	if r.s.tx != nil {
		r.s.tx.orders[id] = nil
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.orders, id)
	return nil
}

func (r orderRepo) PopularItemIDs(ctx context.Context, n int) ([]string, error) {
	totals := map[string]int{}
	for _, o := range r.scan(func(o *models.Order) bool {
		return o.Status == models.StatusConfirmed || o.Status == models.StatusCompleted
	}) {
		for _, l := range o.Lines {
			totals[l.MenuItemID] += l.Quantity
		}
	}
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

type conversationRepo struct{ s *Store }

func (r conversationRepo) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	if r.s.tx != nil {
		if c, ok := r.s.tx.conversations[userID]; ok {
			return c.Clone(), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.conversations[userID]
	if !ok {
		return nil, apperr.NotFound("conversation", userID)
	}
	return c.Clone(), nil
}

func (r conversationRepo) Save(ctx context.Context, c *models.Conversation) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	cp := c.Clone()
	if r.s.tx != nil {
		r.s.tx.conversations[c.UserID] = cp
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.conversations[c.UserID] = cp
	return nil
}

func (r conversationRepo) AppendMessage(ctx context.Context, m *models.ConversationMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if r.s.tx != nil {
		r.s.tx.messages = append(r.s.tx.messages, *m)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages[m.UserID] = append(r.s.messages[m.UserID], *m)
	return nil
}

func (r conversationRepo) history(userID string) []models.ConversationMessage {
	r.s.mu.RLock()
	out := append([]models.ConversationMessage(nil), r.s.messages[userID]...)
	r.s.mu.RUnlock()
	if r.s.tx != nil {
		for _, m := range r.s.tx.messages {
			if m.UserID == userID {
				out = append(out, m)
			}
		}
	}
	return out
}

func (r conversationRepo) LastMessage(ctx context.Context, userID string, author models.Author) (*models.ConversationMessage, error) {
	msgs := r.history(userID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Author == author {
			m := msgs[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (r conversationRepo) RecentMessages(ctx context.Context, userID string, n int) ([]models.ConversationMessage, error) {
	msgs := r.history(userID)
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs, nil
}
