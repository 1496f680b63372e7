// Package gormstore persists the bot through GORM.
package gormstore

import (
	"context"
	"errors"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/store"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the bot tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.MenuItem{},
		&models.CustomizationOption{},
		&models.Order{},
		&models.OrderLine{},
		&models.OrderStatusHistory{},
		&models.Conversation{},
		&models.ConversationMessage{},
	)
}

func (s *Store) Menu() store.MenuRepository                  { return menuRepo{s.db} }
func (s *Store) Orders() store.OrderRepository               { return orderRepo{s.db} }
func (s *Store) Conversations() store.ConversationRepository { return conversationRepo{s.db} }

// InTx runs fn inside a database transaction. Nested calls use savepoints.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}

func orderBy(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Order(column) }
}

type menuRepo struct{ db *gorm.DB }

func (r menuRepo) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.db.WithContext(ctx).Order("sort_order, id").Find(&cats).Error
	return cats, err
}

func (r menuRepo) Items(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Options", orderBy("sort_order, id")).
		Order("name").
		Find(&items).Error
	return items, err
}

func (r menuRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// SaveItem upserts the item and replaces its options
func (r menuRepo) SaveItem(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, "id = ?", item.CategoryID).Error; err != nil {
			return notFound(err, "category", item.CategoryID)
		}
		row := *item
		row.Options = nil
		if err := upsert(tx, &models.MenuItem{}, item.ID, &row); err != nil {
			return err
		}
		if err := tx.Where("menu_item_id = ?", item.ID).Delete(&models.CustomizationOption{}).Error; err != nil {
			return err
		}
		if len(item.Options) == 0 {
			return nil
		}
		opts := make([]models.CustomizationOption, len(item.Options))
		for i, o := range item.Options {
			o.ID = 0
			o.MenuItemID = item.ID
			opts[i] = o
		}
		return tx.Create(&opts).Error
	})
}

// upsert inserts row when no record with id exists, otherwise updates every column
func upsert(tx *gorm.DB, model any, id string, row any) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return tx.Create(row).Error
	}
	return tx.Save(row).Error
}

type orderRepo struct{ db *gorm.DB }

func (r orderRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", orderBy("position")).
		Preload("StatusHistory", orderBy("id"))
}

func (r orderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := r.preloaded(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "order", id)
	}
	return &o, nil
}

func (r orderRepo) FindByLine(ctx context.Context, lineID string) (*models.Order, error) {
	var line models.OrderLine
	if err := r.db.WithContext(ctx).First(&line, "id = ?", lineID).Error; err != nil {
		return nil, notFound(err, "order line", lineID)
	}
	return r.Get(ctx, line.OrderID)
}

func (r orderRepo) FindActive(ctx context.Context, userID string) (*models.Order, error) {
	var orders []models.Order
	err := r.preloaded(ctx).
		Where("user_id = ? AND status = ?", userID, models.StatusPending).
		Order("created_at, id").
		Limit(1).
		Find(&orders).Error
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

func (r orderRepo) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.preloaded(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&orders).Error
	return orders, err
}

func (r orderRepo) Save(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := *o
		row.Lines = nil
		row.StatusHistory = nil
		if err := upsert(tx, &models.Order{}, o.ID, &row); err != nil {
			return err
		}
		o.CreatedAt = row.CreatedAt
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		if len(o.Lines) > 0 {
			lines := make([]models.OrderLine, len(o.Lines))
			for i, l := range o.Lines {
				l.OrderID = o.ID
				lines[i] = l
			}
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		for i := range o.StatusHistory {
			if o.StatusHistory[i].ID != 0 {
				continue
			}
			o.StatusHistory[i].OrderID = o.ID
			if err := tx.Create(&o.StatusHistory[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r orderRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Order{}).Error
	})
}

func (r orderRepo) PopularItemIDs(ctx context.Context, n int) ([]string, error) {
	var rows []struct {
		MenuItemID string
		Total      int64
	}
	q := r.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Select("order_lines.menu_item_id AS menu_item_id, SUM(order_lines.quantity) AS total").
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Where("orders.status IN ?", []models.OrderStatus{models.StatusConfirmed, models.StatusCompleted}).
		Group("order_lines.menu_item_id").
		Order("total DESC, menu_item_id")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.MenuItemID
	}
	return ids, nil
}

type conversationRepo struct{ db *gorm.DB }

func (r conversationRepo) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.db.WithContext(ctx).First(&c, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "conversation", userID)
	}
	if c.Context == nil {
		c.Context = models.Context{}
	}
	return &c, nil
}

func (r conversationRepo) Save(ctx context.Context, c *models.Conversation) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r conversationRepo) AppendMessage(ctx context.Context, m *models.ConversationMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r conversationRepo) LastMessage(ctx context.Context, userID string, author models.Author) (*models.ConversationMessage, error) {
	var msgs []models.ConversationMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND author = ?", userID, author).
		Order("created_at DESC, rowid DESC").
		Limit(1).
		Find(&msgs).Error
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return &msgs[0], nil
}

func (r conversationRepo) RecentMessages(ctx context.Context, userID string, n int) ([]models.ConversationMessage, error) {
	var msgs []models.ConversationMessage
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, rowid DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
