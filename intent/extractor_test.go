package intent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"food-order-bot/catalog"
	"food-order-bot/intent"
	"food-order-bot/models"
	"food-order-bot/recommend"
	"food-order-bot/recommend/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newExtractor(t *testing.T, engine recommend.Engine, opts ...intent.Option) *intent.Extractor {
	t.Helper()
	cats, items := catalog.SampleMenu()
	return intent.NewExtractor(catalog.New(cats, items, nil), engine, opts...)
}

func extract(t *testing.T, e *intent.Extractor, text string) intent.Intent {
	t.Helper()
	return e.Extract(context.Background(), intent.Input{Text: text, UserID: "u1"})
}

func TestSingleTokenWithSeveralItemsIsAmbiguous(t *testing.T) {
	e := newExtractor(t, nil)

	got := extract(t, e, "beef")
	oi, ok := got.(intent.OrderItem)
	require.True(t, ok, "got %#v", got)
	assert.True(t, oi.Ambiguous())
	assert.Empty(t, oi.ItemID)
	require.Len(t, oi.Candidates, 3)

	var ids []string
	for _, c := range oi.Candidates {
		ids = append(ids, c.ItemID)
		assert.NotZero(t, c.Price)
	}
	assert.ElementsMatch(t, []string{"beef-kofta-pita", "beef-shawarma-platter", "beef-burger"}, ids)
}

func TestShortReplyNeedsMatchingQuestion(t *testing.T) {
	e := newExtractor(t, nil)

	got := e.Extract(context.Background(), intent.Input{
		Text:           "spicy please",
		LastBotMessage: "Would you like it mild or spicy?",
	})
	assert.Equal(t, intent.ShortReply{Dimension: intent.DimensionSpice, Answer: "Spicy"}, got)

	got = e.Extract(context.Background(), intent.Input{Text: "not spicy", LastBotMessage: "Mild or spicy?"})
	assert.Equal(t, intent.ShortReply{Dimension: intent.DimensionSpice, Answer: "Mild"}, got)

	got = e.Extract(context.Background(), intent.Input{Text: "nope", LastBotMessage: "Any food allergies we should know about?"})
	assert.Equal(t, intent.ShortReply{Dimension: intent.DimensionAllergy, Answer: "no"}, got)

	got = e.Extract(context.Background(), intent.Input{Text: "wrap", LastBotMessage: "Would you like it as a wrap or a platter?"})
	assert.Equal(t, intent.ShortReply{Dimension: intent.DimensionStyle, Answer: "wrap"}, got)

	// without the question the same words are read on their own
	assert.Equal(t, intent.DietaryPreference{Preference: "spicy"}, extract(t, e, "spicy please"))

	// too long to be a short reply
	got = e.Extract(context.Background(), intent.Input{
		Text:           "i would like it spicy today",
		LastBotMessage: "Would you like it mild or spicy?",
	})
	assert.Equal(t, intent.KindDietaryPreference, got.Kind())
}

func TestCommandsAndKeywordPriority(t *testing.T) {
	e := newExtractor(t, nil)

	cases := []struct {
		text string
		want intent.Intent
	}{
		{"/start", intent.Greeting{}},
		{"Hello!", intent.Greeting{}},
		{"start over", intent.Restart{}},
		{"show me the menu", intent.ShowMenu{}},
		{"what's on the drinks menu?", intent.ShowMenu{CategoryID: "drinks"}},
		{"menu or checkout", intent.ShowMenu{}},
		{"can I view my order", intent.ViewOrder{}},
		{"what's in my cart, then checkout", intent.ViewOrder{}},
		{"place my order", intent.Checkout{}},
		{"that's all", intent.Checkout{}},
		{"desserts", intent.ShowMenu{CategoryID: "desserts"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extract(t, e, tc.text), tc.text)
	}
}

func TestDietaryBank(t *testing.T) {
	e := newExtractor(t, nil)

	cases := map[string]string{
		"anything vegitarian?":              "vegetarian",
		"I'm vegan":                         "vegan",
		"gluten-free options":               "gluten_free",
		"is it halal":                       "halal",
		"I'm on keto":                       "low_carb",
		"high protein stuff":                "high_protein",
		"no dairy for me":                   "dairy_free",
		"I have a nut allergy":              "nut_free",
		"diabetic friendly":                 "sugar_free",
		"not spicy":                         "mild",
		"do you have anything with plants":  "vegan",
		"are there any light dishes":        "low_carb",
		"do you have something with a kick": "spicy",
	}
	for text, want := range cases {
		assert.Equal(t, intent.DietaryPreference{Preference: want}, extract(t, e, text), text)
	}
}

func TestOrderItemPhrases(t *testing.T) {
	e := newExtractor(t, nil)

	assert.Equal(t, intent.OrderItem{ItemID: "falafel-pita", Quantity: 1}, extract(t, e, "I want a falafel wrap"))
	assert.Equal(t, intent.OrderItem{ItemID: "french-fries", Quantity: 3}, extract(t, e, "I'd like 3 fries please"))
	assert.Equal(t, intent.OrderItem{ItemID: "mint-lemonade", Quantity: 1}, extract(t, e, "lemonade"))
	assert.Equal(t, intent.OrderItem{ItemID: "beef-kofta-pita", Quantity: 1}, extract(t, e, "kofta"))

	got := extract(t, e, "two shawarma pitas without onions extra garlic")
	assert.Equal(t, intent.OrderItem{
		ItemID:              "chicken-shawarma-pita",
		Quantity:            2,
		SpecialInstructions: "without onions extra garlic",
	}, got)

	got = extract(t, e, "Chicken Shawarma Platter")
	assert.Equal(t, intent.OrderItem{ItemID: "chicken-shawarma-platter", Quantity: 1}, got)

	got = extract(t, e, "can I get chicken shawarma")
	oi, ok := got.(intent.OrderItem)
	require.True(t, ok)
	assert.True(t, oi.Ambiguous())
	assert.Len(t, oi.Candidates, 2)
}

func TestOversizedQuantityIsKeptOutOfRange(t *testing.T) {
	e := newExtractor(t, nil)

	for _, text := range []string{
		"I want 9000000000000000000 falafel wraps",
		"I want 99999999999999999999999 falafel wraps",
		"100 falafel wraps",
	} {
		got := extract(t, e, text)
		assert.Equal(t, intent.OrderItem{ItemID: "falafel-pita", Quantity: models.MaxLineQuantity + 1}, got, text)
	}
	assert.Equal(t, intent.OrderItem{ItemID: "falafel-pita", Quantity: 99}, extract(t, e, "99 falafel wraps"))
}

func TestPartialItemName(t *testing.T) {
	e := newExtractor(t, nil)

	assert.Equal(t, intent.OrderItem{ItemID: "baklava", Quantity: 1}, extract(t, e, "bakla"))

	got := extract(t, e, "shawarm")
	oi, ok := got.(intent.OrderItem)
	require.True(t, ok, "got %#v", got)
	var ids []string
	for _, c := range oi.Candidates {
		ids = append(ids, c.ItemID)
	}
	assert.ElementsMatch(t, []string{"chicken-shawarma-pita", "chicken-shawarma-platter", "beef-shawarma-platter"}, ids)

	// too short to guess from
	assert.Equal(t, intent.KindUnknown, extract(t, e, "sha").Kind())
}

func TestRecommendationDelegation(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	e := newExtractor(t, engine)

	engine.EXPECT().
		Recommend(gomock.Any(), recommend.Request{Text: "what's good on a rainy day", UserID: "u1", RecentHistory: []string{"hi"}}).
		Return(&recommend.Result{
			Message:           "Something warm!",
			Recommendations:   []recommend.Item{{Name: "Beef Shawarma Platter", Reasons: []string{"hearty"}}},
			FollowUpQuestions: []string{"Do you like rice?"},
		}, nil)

	got := e.Extract(context.Background(), intent.Input{Text: "what's good on a rainy day", UserID: "u1", History: []string{"hi"}})
	rec, ok := got.(intent.Recommendation)
	require.True(t, ok, "got %#v", got)
	assert.Equal(t, "Something warm!", rec.Message)
	assert.Equal(t, []string{"Do you like rice?"}, rec.FollowUps)
}

func TestRecommendationFailuresResolveToUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	e := newExtractor(t, engine, intent.WithTimeout(20*time.Millisecond))

	engine.EXPECT().Recommend(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
	engine.EXPECT().Recommend(gomock.Any(), gomock.Any()).Return(&recommend.Result{}, nil)
	engine.EXPECT().Recommend(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req recommend.Request) (*recommend.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	for i := 0; i < 3; i++ {
		got := extract(t, e, "surprise me with something")
		assert.Equal(t, intent.Unknown{Text: "surprise me with something", Fallback: intent.FallbackMessage}, got)
	}
}

func TestWithoutEngineUnknown(t *testing.T) {
	e := newExtractor(t, nil)
	assert.Equal(t, intent.KindUnknown, extract(t, e, "tell me a joke").Kind())
}

func TestReducedModes(t *testing.T) {
	ctrl := gomock.NewController(t)
	e := newExtractor(t, mocks.NewMockEngine(ctrl))

	_, ok := e.ExtractCommand("12 Pay Street")
	assert.False(t, ok)
	it, ok := e.ExtractCommand("/restart")
	assert.True(t, ok)
	assert.Equal(t, intent.Restart{}, it)

	// whole-utterance requests escape free-text capture, mentions inside an address do not
	it, ok = e.ExtractCommand("View order")
	assert.True(t, ok)
	assert.Equal(t, intent.ViewOrder{}, it)
	it, ok = e.ExtractCommand("checkout")
	assert.True(t, ok)
	assert.Equal(t, intent.Checkout{}, it)
	it, ok = e.ExtractCommand("menu")
	assert.True(t, ok)
	assert.Equal(t, intent.ShowMenu{}, it)
	_, ok = e.ExtractCommand("4 Cart Lane, view order entrance")
	assert.False(t, ok)

	// generic mode never calls the engine
	assert.Equal(t, intent.KindUnknown, e.ExtractGeneric("surprise me with something").Kind())
	assert.Equal(t, intent.Checkout{}, e.ExtractGeneric("checkout"))
}
