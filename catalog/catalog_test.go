package catalog

import (
	"context"
	"errors"
	"testing"

	"food-order-bot/apperr"
	"food-order-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRanker struct {
	ids []string
	err error
}

func (r staticRanker) PopularItemIDs(ctx context.Context, n int) ([]string, error) {
	return r.ids, r.err
}

type sliceSource struct {
	cats  []models.Category
	items []models.MenuItem
}

func (s sliceSource) Categories(ctx context.Context) ([]models.Category, error) { return s.cats, nil }
func (s sliceSource) Items(ctx context.Context) ([]models.MenuItem, error)      { return s.items, nil }

func sample(ranker Ranker) *Service {
	cats, items := SampleMenu()
	return New(cats, items, ranker)
}

func TestFindItemsByExactName(t *testing.T) {
	s := sample(nil)

	got := s.FindItemsByExactName("falafel PITA")
	require.Len(t, got, 1)
	assert.Equal(t, "falafel-pita", got[0].ID)

	assert.Empty(t, s.FindItemsByExactName("falafel"))
}

func TestFindItemsByPartialNameSearchesDescriptions(t *testing.T) {
	s := sample(nil)

	names := func(items []models.MenuItem) []string {
		var out []string
		for _, i := range items {
			out = append(out, i.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Beef Kofta Pita", "Beef Shawarma Platter", "Beef Burger"}, names(s.FindItemsByPartialName("BEEF")))
	assert.Contains(t, names(s.FindItemsByPartialName("pistachio")), "Baklava")
	assert.Empty(t, s.FindItemsByPartialName("  "))
}

func TestUnavailableItemsAreHiddenFromLookups(t *testing.T) {
	cats, items := SampleMenu()
	for i := range items {
		if items[i].ID == "baklava" {
			items[i].IsAvailable = false
		}
	}
	s := New(cats, items, nil)

	assert.Empty(t, s.FindItemsByExactName("Baklava"))
	for _, item := range s.ItemsInCategory("desserts") {
		assert.NotEqual(t, "baklava", item.ID)
	}

	item, err := s.GetItem("baklava")
	require.NoError(t, err)
	assert.False(t, item.IsAvailable)
}

func TestGetNotFound(t *testing.T) {
	s := sample(nil)

	_, err := s.GetItem("nope")
	assert.True(t, apperr.IsNotFound(err))

	_, err = s.GetCategory("nope")
	assert.True(t, apperr.IsNotFound(err))

	c, err := s.GetCategory("drinks")
	require.NoError(t, err)
	assert.Equal(t, models.CourseDrink, c.Course)
}

func TestItemsFollowCategoryOrder(t *testing.T) {
	s := sample(nil)

	items := s.Items()
	require.NotEmpty(t, items)
	assert.Equal(t, "pitas", items[0].CategoryID)
	assert.Equal(t, "desserts", items[len(items)-1].CategoryID)

	cats := s.Categories()
	assert.Equal(t, "pitas", cats[0].ID)
	assert.Len(t, s.ItemsByCourse(models.CourseSide), 4)
	assert.Len(t, s.ItemsByTag("low_carb"), 2)
}

func TestPopularItemsUsesRankerThenPads(t *testing.T) {
	s := sample(staticRanker{ids: []string{"baklava", "unknown", "hummus"}})

	got, err := s.PopularItems(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "baklava", got[0].ID)
	assert.Equal(t, "hummus", got[1].ID)
	assert.Equal(t, "chicken-shawarma-pita", got[2].ID)
}

func TestPopularItemsRankerError(t *testing.T) {
	s := sample(staticRanker{err: errors.New("db down")})

	_, err := s.PopularItems(context.Background(), 2)
	assert.Error(t, err)
}

func TestReloadSwapsSnapshot(t *testing.T) {
	s := sample(nil)

	err := s.Reload(context.Background(), sliceSource{
		cats:  []models.Category{{ID: "drinks", Name: "Drinks", Course: models.CourseDrink}},
		items: []models.MenuItem{{ID: "water", Name: "Water", CategoryID: "drinks", IsAvailable: true, Price: 100}},
	})
	require.NoError(t, err)

	assert.Len(t, s.Items(), 1)
	_, err = s.GetItem("falafel-pita")
	assert.True(t, apperr.IsNotFound(err))
}
