package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"food-order-bot/apperr"
	"food-order-bot/models"
)

// Simulated stands in for a real payment gateway. Cards are approved up to
// cardLimit; crypto is paid from the user's ledger wallet.
type Simulated struct {
	ledger    Ledger
	cardLimit models.Money
	now       func() time.Time
}

func NewSimulated(ledger Ledger, cardLimit models.Money) *Simulated {
	return &Simulated{ledger: ledger, cardLimit: cardLimit, now: time.Now}
}

func (s *Simulated) Authorize(ctx context.Context, order *models.Order) (Authorization, error) {
	if err := ctx.Err(); err != nil {
		return Authorization{}, apperr.External("payment", err)
	}

	log := logger.With().Str("order_id", order.ID).Str("method", string(order.PaymentMethod)).Logger()

	switch order.PaymentMethod {
	case models.PaymentCard:
		if s.cardLimit > 0 && order.TotalAmount > s.cardLimit {
			log.Info().Stringer("total", order.TotalAmount).Msg("card declined")
			return Authorization{Message: "card declined"}, nil
		}
		ref := "card_" + uuid.NewString()
		if err := s.record(ctx, order, KindCardAuth, ref); err != nil {
			return Authorization{}, err
		}
		log.Info().Str("reference", ref).Msg("card authorized")
		return Authorization{Success: true, Reference: ref}, nil

	case models.PaymentCrypto:
		if err := s.ledger.Debit(ctx, order.UserID, order.TotalAmount); err != nil {
			if apperr.IsValidation(err) {
				log.Info().Err(err).Msg("crypto payment declined")
				return Authorization{Message: "insufficient wallet balance"}, nil
			}
			return Authorization{}, apperr.External("ledger", err)
		}
		ref := "crypto_" + uuid.NewString()
		if err := s.record(ctx, order, KindCryptoDebit, ref); err != nil {
			return Authorization{}, err
		}
		log.Info().Str("reference", ref).Msg("crypto payment settled")
		return Authorization{Success: true, Reference: ref, Settled: true}, nil
	}

	return Authorization{}, apperr.Invalid("payment_method", fmt.Sprintf("%q does not need authorization", order.PaymentMethod))
}

func (s *Simulated) record(ctx context.Context, order *models.Order, kind TransactionKind, ref string) error {
	err := s.ledger.Record(ctx, Transaction{
		ID:        ref,
		UserID:    order.UserID,
		OrderID:   order.ID,
		Kind:      kind,
		Amount:    order.TotalAmount,
		CreatedAt: s.now(),
	})
	if err != nil {
		return apperr.External("ledger", err)
	}
	return nil
}
