package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"food-order-bot/apperr"
	"food-order-bot/models"
)

// MemoryLedger keeps balances in process
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]models.Money
	log      []Transaction
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]models.Money)}
}

func (l *MemoryLedger) Balance(_ context.Context, userID string) (models.Money, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *MemoryLedger) Credit(_ context.Context, userID string, amount models.Money) error {
	if amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	return nil
}

func (l *MemoryLedger) Debit(_ context.Context, userID string, amount models.Money) error {
	if amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if have := l.balances[userID]; have < amount {
		return insufficient(userID, have, amount)
	}
	l.balances[userID] -= amount
	return nil
}

func (l *MemoryLedger) Record(_ context.Context, tx Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = append(l.log, tx)
	return nil
}

func (l *MemoryLedger) Transactions(_ context.Context, userID string) ([]Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Transaction
	for _, tx := range l.log {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// GormLedger stores wallets and transactions next to the orders
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// MigrateLedger creates the wallet and transaction tables
func MigrateLedger(db *gorm.DB) error {
	return db.AutoMigrate(&Wallet{}, &Transaction{})
}

func (l *GormLedger) Balance(ctx context.Context, userID string) (models.Money, error) {
	var w Wallet
	err := l.db.WithContext(ctx).First(&w, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

func (l *GormLedger) Credit(ctx context.Context, userID string, amount models.Money) error {
	if amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	w := Wallet{UserID: userID, Balance: amount, UpdatedAt: time.Now()}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": w.UpdatedAt,
		}),
	}).Create(&w).Error
}

func (l *GormLedger) Debit(ctx context.Context, userID string, amount models.Money) error {
	if amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	res := l.db.WithContext(ctx).Model(&Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		have, err := l.Balance(ctx, userID)
		if err != nil {
			return err
		}
		return insufficient(userID, have, amount)
	}
	return nil
}

func (l *GormLedger) Record(ctx context.Context, tx Transaction) error {
	return l.db.WithContext(ctx).Create(&tx).Error
}

func (l *GormLedger) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	var out []Transaction
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}
