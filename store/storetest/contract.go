// Package storetest holds the behaviour every store implementation must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/catalog"
	"food-order-bot/models"
	"food-order-bot/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Seed writes the sample menu into s
func Seed(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	cats, items := catalog.SampleMenu()
	for i := range cats {
		require.NoError(t, s.Menu().SaveCategory(ctx, &cats[i]))
	}
	for i := range items {
		require.NoError(t, s.Menu().SaveItem(ctx, &items[i]))
	}
}

func newOrder(userID string, status models.OrderStatus, created time.Time, lines ...models.OrderLine) *models.Order {
	o := &models.Order{
		ID:            userID + "-" + string(status) + "-" + created.Format("150405"),
		UserID:        userID,
		Status:        status,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     created,
		StatusHistory: []models.OrderStatusHistory{{ToStatus: status, Actor: "customer", CreatedAt: created}},
	}
	for i := range lines {
		lines[i].OrderID = o.ID
		lines[i].Position = i + 1
		o.Lines = append(o.Lines, lines[i])
	}
	return o
}

// Run exercises a fresh store returned by newStore
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("menu round trip", func(t *testing.T) {
		s := newStore(t)
		Seed(t, s)

		cats, err := s.Menu().Categories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 6)
		assert.Equal(t, "pitas", cats[0].ID)

		items, err := s.Menu().Items(ctx)
		require.NoError(t, err)
		var pita *models.MenuItem
		for i := range items {
			if items[i].ID == "chicken-shawarma-pita" {
				pita = &items[i]
			}
		}
		require.NotNil(t, pita)
		require.Len(t, pita.Options, 2)
		assert.Equal(t, "Spice Level", pita.Options[0].Name)
		assert.Equal(t, []string{"Mild", "Spicy"}, pita.Options[0].Choices)
		assert.True(t, pita.HasTag("halal"))
	})

	t.Run("order save and lookups", func(t *testing.T) {
		s := newStore(t)
		o := newOrder("u1", models.StatusPending, base,
			models.OrderLine{ID: "l1", MenuItemID: "hummus", Name: "Hummus", Quantity: 2, Price: 499,
				Customizations: map[string]string{}},
			models.OrderLine{ID: "l2", MenuItemID: "baklava", Name: "Baklava", Quantity: 1, Price: 449,
				Customizations: map[string]string{"Size": "Large"}},
		)
		o.TotalAmount = 1447
		require.NoError(t, s.Orders().Save(ctx, o))

		got, err := s.Orders().Get(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 2)
		assert.Equal(t, "l1", got.Lines[0].ID)
		assert.Equal(t, "Large", got.Lines[1].Customizations["Size"])
		assert.Equal(t, models.Money(1447), got.TotalAmount)
		require.Len(t, got.StatusHistory, 1)
		assert.NotZero(t, got.StatusHistory[0].ID)

		byLine, err := s.Orders().FindByLine(ctx, "l2")
		require.NoError(t, err)
		assert.Equal(t, o.ID, byLine.ID)

		active, err := s.Orders().FindActive(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, o.ID, active.ID)

		none, err := s.Orders().FindActive(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, none)

		_, err = s.Orders().Get(ctx, "missing")
		assert.True(t, apperr.IsNotFound(err))
		_, err = s.Orders().FindByLine(ctx, "missing")
		assert.True(t, apperr.IsNotFound(err))

		// saving replaces the lines
		got.Lines = got.Lines[:1]
		require.NoError(t, s.Orders().Save(ctx, got))
		again, err := s.Orders().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Len(t, again.Lines, 1)
		assert.Len(t, again.StatusHistory, 1)

		require.NoError(t, s.Orders().Delete(ctx, o.ID))
		_, err = s.Orders().Get(ctx, o.ID)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("popular items", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Orders().Save(ctx, newOrder("a", models.StatusConfirmed, base,
			models.OrderLine{ID: "a1", MenuItemID: "hummus", Quantity: 1, Price: 1},
			models.OrderLine{ID: "a2", MenuItemID: "baklava", Quantity: 3, Price: 1})))
		require.NoError(t, s.Orders().Save(ctx, newOrder("b", models.StatusCompleted, base,
			models.OrderLine{ID: "b1", MenuItemID: "hummus", Quantity: 1, Price: 1})))
		require.NoError(t, s.Orders().Save(ctx, newOrder("c", models.StatusPending, base,
			models.OrderLine{ID: "c1", MenuItemID: "ayran", Quantity: 9, Price: 1})))

		ids, err := s.Orders().PopularItemIDs(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"baklava", "hummus"}, ids)

		ids, err = s.Orders().PopularItemIDs(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"baklava"}, ids)
	})

	t.Run("list by user", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Orders().Save(ctx, newOrder("u", models.StatusConfirmed, base)))
		require.NoError(t, s.Orders().Save(ctx, newOrder("u", models.StatusPending, base.Add(time.Hour))))

		list, err := s.Orders().ListByUser(ctx, "u")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, models.StatusConfirmed, list[0].Status)
	})

	t.Run("conversations and messages", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Conversations().Get(ctx, "u1")
		assert.True(t, apperr.IsNotFound(err))

		c := models.NewConversation("u1")
		c.Await(models.PurposeSuggestDrinks)
		c.Context.SetString(models.KeyDietaryPreference, "vegan")
		c.Context.SetStrings(models.KeyRecentMessages, []string{"hi", "menu"})
		require.NoError(t, s.Conversations().Save(ctx, c))

		got, err := s.Conversations().Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, models.StateAwaitingInput, got.State)
		assert.Equal(t, models.PurposeSuggestDrinks, got.Purpose)
		pref, ok := got.Context.GetString(models.KeyDietaryPreference)
		assert.True(t, ok)
		assert.Equal(t, "vegan", pref)
		recent, _ := got.Context.GetStrings(models.KeyRecentMessages)
		assert.Equal(t, []string{"hi", "menu"}, recent)

		for i, m := range []models.ConversationMessage{
			{ID: "m1", UserID: "u1", Author: models.AuthorUser, Text: "hi", CreatedAt: base},
			{ID: "m2", UserID: "u1", Author: models.AuthorBot, Text: "welcome", CreatedAt: base.Add(time.Second)},
			{ID: "m3", UserID: "u1", Author: models.AuthorUser, Text: "menu", CreatedAt: base.Add(2 * time.Second)},
		} {
			m := m
			require.NoError(t, s.Conversations().AppendMessage(ctx, &m), i)
		}

		last, err := s.Conversations().LastMessage(ctx, "u1", models.AuthorBot)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, "welcome", last.Text)

		none, err := s.Conversations().LastMessage(ctx, "u2", models.AuthorBot)
		require.NoError(t, err)
		assert.Nil(t, none)

		recentMsgs, err := s.Conversations().RecentMessages(ctx, "u1", 2)
		require.NoError(t, err)
		require.Len(t, recentMsgs, 2)
		assert.Equal(t, "welcome", recentMsgs[0].Text)
		assert.Equal(t, "menu", recentMsgs[1].Text)
	})

	t.Run("transaction commits", func(t *testing.T) {
		s := newStore(t)
		err := s.InTx(ctx, func(tx store.Store) error {
			if err := tx.Orders().Save(ctx, newOrder("u1", models.StatusPending, base)); err != nil {
				return err
			}
			// writes are visible inside the transaction
			active, err := tx.Orders().FindActive(ctx, "u1")
			if err != nil {
				return err
			}
			if active == nil {
				return errors.New("order not visible in tx")
			}
			return tx.Conversations().Save(ctx, models.NewConversation("u1"))
		})
		require.NoError(t, err)

		active, err := s.Orders().FindActive(ctx, "u1")
		require.NoError(t, err)
		assert.NotNil(t, active)
		_, err = s.Conversations().Get(ctx, "u1")
		assert.NoError(t, err)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		s := newStore(t)
		existing := newOrder("u1", models.StatusPending, base)
		require.NoError(t, s.Orders().Save(ctx, existing))

		boom := errors.New("boom")
		err := s.InTx(ctx, func(tx store.Store) error {
			if err := tx.Orders().Delete(ctx, existing.ID); err != nil {
				return err
			}
			if err := tx.Conversations().Save(ctx, models.NewConversation("u1")); err != nil {
				return err
			}
			if err := tx.Conversations().AppendMessage(ctx, &models.ConversationMessage{
				ID: "m1", UserID: "u1", Author: models.AuthorBot, Text: "lost",
			}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.Orders().Get(ctx, existing.ID)
		assert.NoError(t, err)
		_, err = s.Conversations().Get(ctx, "u1")
		assert.True(t, apperr.IsNotFound(err))
		last, err := s.Conversations().LastMessage(ctx, "u1", models.AuthorBot)
		require.NoError(t, err)
		assert.Nil(t, last)
	})
}
