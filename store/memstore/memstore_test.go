package memstore

import (
	"context"
	"testing"

	"food-order-bot/models"
	"food-order-bot/store"
	"food-order-bot/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &models.Order{ID: "o1", UserID: "u1", Status: models.StatusPending,
		Lines: []models.OrderLine{{ID: "l1", Quantity: 1, Customizations: map[string]string{}}}}
	require.NoError(t, s.Orders().Save(ctx, o))

	o.Lines[0].Quantity = 99
	got, err := s.Orders().Get(ctx, "o1")
	require.NoError(t, err)
	got.Lines[0].Customizations["x"] = "y"

	again, err := s.Orders().Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Lines[0].Quantity)
	assert.Empty(t, again.Lines[0].Customizations)
}

func TestMenuRequiresCategory(t *testing.T) {
	s := New()
	err := s.Menu().SaveItem(context.Background(), &models.MenuItem{ID: "x", CategoryID: "nope"})
	assert.Error(t, err)
}
