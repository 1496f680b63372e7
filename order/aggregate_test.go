package order

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/catalog"
	"food-order-bot/models"
	"food-order-bot/statemachine"
	"food-order-bot/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregate(t *testing.T) (*Aggregate, *memstore.Store) {
	t.Helper()
	cats, items := catalog.SampleMenu()
	for i := range items {
		if items[i].ID == "tabbouleh" {
			items[i].IsAvailable = false
		}
	}
	s := memstore.New()
	return New(s.Orders(), catalog.New(cats, items, nil)), s
}

func sum(o *models.Order) models.Money {
	var total models.Money
	for _, l := range o.Lines {
		total += l.Price.Times(l.Quantity)
	}
	if o.Delivery {
		total += o.DeliveryFee
	}
	return total
}

func TestSingleActiveOrder(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)

	first, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	_, err = a.CreateOrder(ctx, "u1")
	assert.True(t, apperr.IsConflict(err))

	// other users are independent
	_, err = a.CreateOrder(ctx, "u2")
	require.NoError(t, err)

	_, err = a.AddLine(ctx, first.ID, "falafel-pita", 1, "")
	require.NoError(t, err)
	require.NoError(t, a.Clear(ctx, first.ID))
	_, err = a.AddLine(ctx, first.ID, "hummus", 1, "")
	require.NoError(t, err)
	require.NoError(t, a.SetPaymentMethod(ctx, first.ID, models.PaymentCash))
	_, err = a.Confirm(ctx, first.ID, "", false)
	require.NoError(t, err)

	second, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := a.GetActiveOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestAddLineFreezesPrice(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	line, err := a.AddLine(ctx, o.ID, "beef-burger", 2, " no pickles ")
	require.NoError(t, err)
	assert.Equal(t, models.Cents(12, 99), line.Price)
	assert.Equal(t, "Beef Burger", line.Name)
	assert.Equal(t, "no pickles", line.SpecialInstructions)

	// a later catalog change does not touch the stored line
	cats, items := catalog.SampleMenu()
	for i := range items {
		items[i].Price = 1
	}
	a.catalog = catalog.New(cats, items, nil)

	got, err := a.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Cents(12, 99), got.Lines[0].Price)
	assert.Equal(t, models.Cents(25, 98), got.TotalAmount)
}

func TestAddLineErrors(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	_, err = a.AddLine(ctx, o.ID, "nope", 1, "")
	assert.True(t, apperr.IsNotFound(err))

	_, err = a.AddLine(ctx, o.ID, "tabbouleh", 1, "")
	assert.True(t, apperr.IsNotFound(err), "unavailable items cannot be added")

	_, err = a.AddLine(ctx, o.ID, "hummus", 0, "")
	assert.True(t, apperr.IsValidation(err))
	assert.False(t, apperr.IsNotFound(err))

	_, err = a.AddLine(ctx, "missing-order", "hummus", 1, "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddLineCapsQuantity(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	for _, qty := range []int{models.MaxLineQuantity + 1, 1_000_000} {
		_, err = a.AddLine(ctx, o.ID, "hummus", qty, "")
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve, "quantity %d", qty)
		assert.Equal(t, "quantity", ve.Field)
		assert.Equal(t, "must be between 1 and 99", ve.Reason)
	}

	line, err := a.AddLine(ctx, o.ID, "hummus", models.MaxLineQuantity, "")
	require.NoError(t, err)
	assert.Equal(t, models.MaxLineQuantity, line.Quantity)

	got, err := a.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, sum(got), got.TotalAmount)
	assert.Positive(t, got.TotalAmount)
}

func TestTotalInvariantHoldsAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	itemIDs := []string{"chicken-shawarma-pita", "falafel-pita", "hummus", "ayran", "baklava", "beef-shawarma-platter"}
	var lines []string

	check := func(step int) {
		got, err := a.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, sum(got), got.TotalAmount, "step %d", step)
		for _, l := range got.Lines {
			assert.Positive(t, l.Quantity)
		}
	}

	for step := 0; step < 200; step++ {
		switch rng.Intn(5) {
		case 0, 1:
			line, err := a.AddLine(ctx, o.ID, itemIDs[rng.Intn(len(itemIDs))], 1+rng.Intn(3), "")
			require.NoError(t, err)
			lines = append(lines, line.ID)
		case 2:
			if len(lines) == 0 {
				continue
			}
			i := rng.Intn(len(lines))
			_, err := a.RemoveLine(ctx, lines[i])
			require.NoError(t, err)
			lines = append(lines[:i], lines[i+1:]...)
		case 3:
			if len(lines) == 0 {
				continue
			}
			// wrong option names are rejected without touching the total
			err := a.SetCustomization(ctx, lines[rng.Intn(len(lines))], "Spice Level", "Mild")
			if err != nil {
				assert.True(t, apperr.IsValidation(err))
			}
		case 4:
			if rng.Intn(2) == 0 {
				require.NoError(t, a.SetDelivery(ctx, o.ID, models.Cents(2, 99)))
			} else {
				require.NoError(t, a.SetPickup(ctx, o.ID))
			}
		}
		check(step)
	}
}

func TestSetCustomization(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	line, err := a.AddLine(ctx, o.ID, "chicken-shawarma-pita", 1, "")
	require.NoError(t, err)

	require.NoError(t, a.SetCustomization(ctx, line.ID, "Spice Level", "spicy"))
	require.NoError(t, a.SetCustomization(ctx, line.ID, "Spice Level", "MILD"))

	err = a.SetCustomization(ctx, line.ID, "Spice Level", "volcanic")
	assert.True(t, apperr.IsValidation(err))
	err = a.SetCustomization(ctx, line.ID, "Cheese", "yes")
	assert.True(t, apperr.IsValidation(err))
	err = a.SetCustomization(ctx, "missing-line", "Spice Level", "Mild")
	assert.True(t, apperr.IsNotFound(err))

	got, err := a.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Spice Level": "Mild"}, got.Lines[0].Customizations)
}

func TestRemoveMissingLineChangesNothing(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	_, err = a.AddLine(ctx, o.ID, "hummus", 2, "")
	require.NoError(t, err)
	before, err := a.Get(ctx, o.ID)
	require.NoError(t, err)

	_, err = a.RemoveLine(ctx, "ghost")
	assert.True(t, apperr.IsNotFound(err))

	after, err := a.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeliveryDetails(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	_, err = a.AddLine(ctx, o.ID, "hummus", 1, "")
	require.NoError(t, err)

	err = a.SetAddress(ctx, o.ID, "12 Main Street")
	assert.True(t, apperr.IsConflict(err), "pickup orders take no address")

	require.NoError(t, a.SetDelivery(ctx, o.ID, models.Cents(3, 0)))
	assert.True(t, apperr.IsValidation(a.SetAddress(ctx, o.ID, "12")))
	require.NoError(t, a.SetAddress(ctx, o.ID, "  12   Main Street "))
	require.NoError(t, a.SetInstructions(ctx, o.ID, "ring twice"))

	got, err := a.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 Main Street", got.DeliveryAddress)
	assert.Equal(t, models.Cents(7, 99), got.TotalAmount)

	require.NoError(t, a.SetPickup(ctx, o.ID))
	got, err = a.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, got.DeliveryAddress)
	assert.Empty(t, got.DeliveryInstructions)
	assert.Equal(t, models.Cents(4, 99), got.TotalAmount)
}

func TestConfirmAndLifecycle(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	_, err = a.Confirm(ctx, o.ID, "", false)
	assert.True(t, apperr.IsValidation(err), "empty order")

	_, err = a.AddLine(ctx, o.ID, "hummus", 1, "")
	require.NoError(t, err)
	_, err = a.Confirm(ctx, o.ID, "", false)
	assert.True(t, apperr.IsValidation(err), "no payment method")

	require.NoError(t, a.SetPaymentMethod(ctx, o.ID, models.PaymentCrypto))
	confirmed, err := a.Confirm(ctx, o.ID, "ref-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.Equal(t, models.PaymentPaid, confirmed.PaymentStatus)
	assert.Equal(t, "ref-1", confirmed.PaymentReference)

	// confirmed orders are frozen
	_, err = a.AddLine(ctx, o.ID, "hummus", 1, "")
	assert.True(t, apperr.IsConflict(err))
	err = a.SetCustomization(ctx, confirmed.Lines[0].ID, "x", "y")
	assert.True(t, apperr.IsConflict(err))

	_, err = a.ChangeStatus(ctx, o.ID, models.StatusCompleted, statemachine.ActorCustomer, "")
	assert.True(t, apperr.IsConflict(err))

	cancelled, err := a.ChangeStatus(ctx, o.ID, models.StatusCancelled, statemachine.ActorStaff, "out of stock")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)

	got, err := a.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 3)
	assert.Equal(t, models.StatusPending, got.StatusHistory[1].FromStatus)
	assert.Equal(t, models.StatusConfirmed, got.StatusHistory[1].ToStatus)
	assert.Equal(t, "out of stock", got.StatusHistory[2].Note)
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)

	ok, err := a.Discard(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	ok, err = a.Discard(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = a.Get(ctx, o.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)

	none, err := a.Cancel(ctx, "u1", statemachine.ActorCustomer, "cancelled in chat")
	require.NoError(t, err)
	assert.Nil(t, none)

	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	_, err = a.AddLine(ctx, o.ID, "hummus", 1, "")
	require.NoError(t, err)

	cancelled, err := a.Cancel(ctx, "u1", statemachine.ActorCustomer, "cancelled in chat")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	last := cancelled.StatusHistory[len(cancelled.StatusHistory)-1]
	assert.Equal(t, statemachine.ActorCustomer, last.Actor)
	assert.Equal(t, models.StatusPending, last.FromStatus)

	active, err := a.GetActiveOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, active)

	// staff cannot cancel a pending order
	_, err = a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	_, err = a.Cancel(ctx, "u1", statemachine.ActorStaff, "")
	assert.True(t, apperr.IsConflict(err))
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	a, _ := newAggregate(t)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return start }

	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	_, err = a.AddLine(ctx, o.ID, "hummus", 1, "")
	require.NoError(t, err)

	a.now = func() time.Time { return start.Add(time.Hour) }
	expired, err := a.ExpireStale(ctx, "u1", 2*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, expired, "still within the ttl")

	a.now = func() time.Time { return start.Add(3 * time.Hour) }
	expired, err = a.ExpireStale(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Nil(t, expired, "a zero ttl never expires")

	expired, err = a.ExpireStale(ctx, "u1", 2*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, expired)
	assert.Equal(t, o.ID, expired.ID)
	assert.Equal(t, models.StatusCancelled, expired.Status)
	last := expired.StatusHistory[len(expired.StatusHistory)-1]
	assert.Equal(t, statemachine.ActorSystem, last.Actor)
	assert.Equal(t, "expired", last.Note)

	active, err := a.GetActiveOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, active)

	expired, err = a.ExpireStale(ctx, "u1", 2*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestRecomputeTotalRepairsStaleValue(t *testing.T) {
	ctx := context.Background()
	a, s := newAggregate(t)
	o, err := a.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	_, err = a.AddLine(ctx, o.ID, "ayran", 2, "")
	require.NoError(t, err)

	stale, err := s.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	stale.TotalAmount = 1
	require.NoError(t, s.Orders().Save(ctx, stale))

	total, err := a.RecomputeTotal(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Cents(5, 98), total)

	got, err := a.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Cents(5, 98), got.TotalAmount)
}
