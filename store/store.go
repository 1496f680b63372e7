// Package store declares the persistence contracts of the bot. Implementations
// live in memstore and gormstore.
package store

import (
	"context"

	"food-order-bot/models"
)

type MenuRepository interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Items(ctx context.Context) ([]models.MenuItem, error)
	SaveCategory(ctx context.Context, c *models.Category) error
	SaveItem(ctx context.Context, item *models.MenuItem) error
}

type OrderRepository interface {
	// Get returns apperr.NotFoundError when the order does not exist
	Get(ctx context.Context, id string) (*models.Order, error)
	// FindByLine returns the order owning a line, or apperr.NotFoundError
	FindByLine(ctx context.Context, lineID string) (*models.Order, error)
	// FindActive returns the user's pending order, or nil when there is none
	FindActive(ctx context.Context, userID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	// Save writes the order with its lines (replacing the stored ones) and
	// appends history entries that have no id yet
	Save(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id string) error
	// PopularItemIDs ranks menu items by quantity across confirmed and completed orders
	PopularItemIDs(ctx context.Context, n int) ([]string, error)
}

type ConversationRepository interface {
	// Get returns apperr.NotFoundError for a user who never talked to the bot
	Get(ctx context.Context, userID string) (*models.Conversation, error)
	Save(ctx context.Context, c *models.Conversation) error
	AppendMessage(ctx context.Context, m *models.ConversationMessage) error
	// LastMessage returns the newest message by author, or nil
	LastMessage(ctx context.Context, userID string, author models.Author) (*models.ConversationMessage, error)
	RecentMessages(ctx context.Context, userID string, n int) ([]models.ConversationMessage, error)
}

// Store groups the repositories and runs units of work
type Store interface {
	Menu() MenuRepository
	Orders() OrderRepository
	Conversations() ConversationRepository
	Transactor
}

// Transactor runs fn atomically: either every write made through tx is kept or none is
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Store) error) error
}
