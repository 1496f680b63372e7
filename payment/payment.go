// Package payment authorizes orders before they are confirmed.
package payment

//go:generate mockgen -destination=mocks/mock_payment.go -package=mocks food-order-bot/payment Processor,Ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"food-order-bot/apperr"
	"food-order-bot/models"
)

// Authorization is the outcome of a pre-authorization attempt. A declined
// payment is Success=false with a Message, not an error; errors mean the
// processor itself could not be reached.
type Authorization struct {
	Success   bool
	Reference string
	Settled   bool // money has moved, order can be marked paid
	Message   string
}

type Processor interface {
	Authorize(ctx context.Context, order *models.Order) (Authorization, error)
}

// Wallet holds a user's crypto balance
type Wallet struct {
	UserID    string       `json:"user_id" gorm:"primaryKey"`
	Balance   models.Money `json:"balance" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type TransactionKind string

const (
	KindCardAuth     TransactionKind = "card_auth"
	KindCryptoDebit  TransactionKind = "crypto_debit"
	KindWalletCredit TransactionKind = "wallet_credit"
)

// Transaction is one entry of the payment log
type Transaction struct {
	ID        string          `json:"id" gorm:"primaryKey"`
	UserID    string          `json:"user_id" gorm:"not null;index"`
	OrderID   string          `json:"order_id,omitempty" gorm:"index"`
	Kind      TransactionKind `json:"kind" gorm:"not null"`
	Amount    models.Money    `json:"amount" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
}

// Ledger keeps wallet balances and the transaction log
type Ledger interface {
	Balance(ctx context.Context, userID string) (models.Money, error)
	Credit(ctx context.Context, userID string, amount models.Money) error
	// Debit fails with a validation error when the balance is too low
	Debit(ctx context.Context, userID string, amount models.Money) error
	Record(ctx context.Context, tx Transaction) error
	Transactions(ctx context.Context, userID string) ([]Transaction, error)
}

var logger = zerolog.Nop()

// SetLogger replaces the package logger
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "payment").Logger()
}

func insufficient(userID string, have, want models.Money) error {
	return apperr.Invalid("balance", fmt.Sprintf("wallet of %s holds %s, needs %s", userID, have, want))
}
