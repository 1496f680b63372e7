package directive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-order-bot/action"
	"food-order-bot/directive"
	"food-order-bot/models"
)

func sampleOrder() *models.Order {
	return &models.Order{
		ID:     "0f8c2a4e-1111-2222-3333-444455556666",
		UserID: "u1",
		Lines: []models.OrderLine{
			{
				ID: "l1", Name: "Chicken Shawarma Pita", Quantity: 2, Price: 1099,
				Customizations: map[string]string{"Spice Level": "Spicy", "Sauce": "Garlic"},
			},
			{ID: "l2", Name: "Hummus", Quantity: 1, Price: 499, SpecialInstructions: "extra pita"},
		},
		Delivery:        true,
		DeliveryFee:     300,
		DeliveryAddress: "12 Main Street",
		PaymentMethod:   models.PaymentCard,
		TotalAmount:     2997,
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	prompts := []directive.Prompt{
		directive.OrderSummary{Order: sampleOrder()},
		directive.ConfirmOrder{Order: sampleOrder()},
		directive.PaymentChoice{Total: 2997, Methods: models.PaymentMethods},
		directive.Notice{Text: "Added.", Next: directive.AnythingElse{}},
	}
	for _, p := range prompts {
		first := directive.Build(p)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, directive.Build(p))
		}
	}
}

func TestOrderSummary(t *testing.T) {
	d := directive.Build(directive.OrderSummary{Order: sampleOrder()})

	assert.Equal(t, "order_summary", d.Kind)
	assert.Contains(t, d.Text, "2 × Chicken Shawarma Pita  $21.98")
	assert.Contains(t, d.Text, "Sauce: Garlic, Spice Level: Spicy")
	assert.Contains(t, d.Text, "Note: extra pita")
	assert.Contains(t, d.Text, "Delivery fee  $3.00")
	assert.Contains(t, d.Text, "Total  $29.97")

	ids := make([]string, len(d.QuickActions))
	for i, qa := range d.QuickActions {
		ids[i] = qa.ActionID
	}
	assert.Equal(t, []string{
		action.IDCheckout, action.IDContinue, action.IDRemoveLine, action.IDRemoveLine, action.IDClearOrder,
	}, ids)
	assert.Equal(t, map[string]string{"line_id": "l2"}, d.QuickActions[3].Params)
}

func TestEmptySummary(t *testing.T) {
	d := directive.Build(directive.OrderSummary{Order: &models.Order{}})
	assert.Equal(t, "empty_order", d.Kind)
}

func TestCustomizeMatchesShortReplyWording(t *testing.T) {
	opt := models.CustomizationOption{Name: "Spice Level", Choices: []string{"Mild", "Spicy"}, Required: true}
	d := directive.Build(directive.Customize{ItemName: "Chicken Shawarma Pita", LineID: "l1", Option: opt})

	assert.Equal(t, "Would you like your Chicken Shawarma Pita mild or spicy?", d.Text)
	require.Len(t, d.QuickActions, 2)
	assert.Equal(t, action.IDChooseOption, d.QuickActions[1].ActionID)
	assert.Equal(t, map[string]string{"line_id": "l1", "option": "Spice Level", "value": "Spicy"}, d.QuickActions[1].Params)
}

func TestCustomizeOptionalOffersSkip(t *testing.T) {
	opt := models.CustomizationOption{Name: "Rice", Choices: []string{"White", "Yellow"}}
	d := directive.Build(directive.Customize{ItemName: "Beef Shawarma Platter", LineID: "l9", Option: opt})

	assert.Contains(t, d.Text, "(optional)")
	last := d.QuickActions[len(d.QuickActions)-1]
	assert.Equal(t, action.IDSkipOption, last.ActionID)
}

func TestQuickActionsRoundTripThroughParse(t *testing.T) {
	prompts := []directive.Prompt{
		directive.OrderSummary{Order: sampleOrder()},
		directive.PaymentFailed{Method: models.PaymentCard, Methods: models.PaymentMethods},
		directive.Suggest{Course: models.CourseDrink, Items: []models.MenuItem{{ID: "ayran", Name: "Ayran", Price: 299}}},
		directive.DeliveryChoice{Fee: 300},
		directive.Restarted{},
	}
	for _, p := range prompts {
		for _, qa := range directive.Build(p).QuickActions {
			a, err := action.Parse(qa.ActionID, qa.Params)
			require.NoError(t, err, qa.Label)
			assert.Equal(t, qa.ActionID, a.ID())
		}
	}
}

func TestPaymentFailedOffersRetryAndOtherMethods(t *testing.T) {
	d := directive.Build(directive.PaymentFailed{Method: models.PaymentCard, Reason: "card declined", Methods: models.PaymentMethods})

	assert.Contains(t, d.Text, "card declined")
	require.Len(t, d.QuickActions, 3)
	assert.Equal(t, action.IDRetryPayment, d.QuickActions[0].ActionID)
	assert.Equal(t, "cash", d.QuickActions[1].Params["method"])
	assert.Equal(t, "crypto", d.QuickActions[2].Params["method"])
}

func TestNoticeAndUnwrap(t *testing.T) {
	p := directive.Notice{Text: "Removed.", Next: directive.Notice{Text: "Heads up.", Next: directive.EmptyOrder{}}}

	d := directive.Build(p)
	assert.Equal(t, "empty_order", d.Kind)
	assert.True(t, len(d.Text) > 0 && d.Text[:8] == "Removed.")
	assert.Equal(t, directive.EmptyOrder{}, directive.Unwrap(p))
}

func TestNilPromptFallsBack(t *testing.T) {
	d := directive.Build(nil)
	assert.Equal(t, "fallback", d.Kind)
	assert.NotNil(t, d.QuickActions)
}

func TestFallbackOffersItems(t *testing.T) {
	d := directive.Build(directive.Fallback{Items: []models.MenuItem{
		{ID: "hummus", Name: "Hummus", Price: models.Cents(4, 99)},
	}})
	assert.Equal(t, "fallback", d.Kind)
	assert.Contains(t, d.Text, "Popular right now:")
	require.Len(t, d.QuickActions, 3)
	assert.Equal(t, "Hummus ($4.99)", d.QuickActions[0].Label)
	assert.Equal(t, map[string]string{"item_id": "hummus"}, d.QuickActions[0].Params)
}

func TestDietaryMatchesAsksAboutAllergies(t *testing.T) {
	d := directive.Build(directive.DietaryMatches{
		Preference: "gluten_free",
		Items:      []models.MenuItem{{ID: "hummus", Name: "Hummus", Price: 499}},
	})
	assert.Contains(t, d.Text, "gluten-free options")
	assert.Contains(t, d.Text, "allergies")

	none := directive.Build(directive.DietaryMatches{Preference: "vegan"})
	assert.Contains(t, none.Text, "don't have any vegan")
}
