package catalog

import "food-order-bot/models"

// SampleMenu returns the demo menu used by the seed command and the tests
func SampleMenu() ([]models.Category, []models.MenuItem) {
	categories := []models.Category{
		{ID: "pitas", Name: "Pitas & Wraps", Course: models.CourseMain, SortOrder: 1},
		{ID: "platters", Name: "Platters", Course: models.CourseMain, SortOrder: 2},
		{ID: "sides", Name: "Sides", Course: models.CourseSide, SortOrder: 3},
		{ID: "salads", Name: "Salads", Course: models.CourseSide, SortOrder: 4},
		{ID: "drinks", Name: "Drinks", Course: models.CourseDrink, SortOrder: 5},
		{ID: "desserts", Name: "Desserts", Course: models.CourseDessert, SortOrder: 6},
	}

	items := []models.MenuItem{
		{
			ID: "chicken-shawarma-pita", Name: "Chicken Shawarma Pita", CategoryID: "pitas",
			Description: "Marinated chicken, pickles and garlic sauce in warm pita",
			Price:       models.Cents(9, 99), Tags: []string{"halal", "high_protein"},
			Options: []models.CustomizationOption{
				{Name: "Spice Level", Choices: []string{"Mild", "Spicy"}, Required: true, SortOrder: 1},
				{Name: "Sauce", Choices: []string{"Garlic", "Tahini", "Hot Sauce"}, Required: true, SortOrder: 2},
			},
		},
		{
			ID: "falafel-pita", Name: "Falafel Pita", CategoryID: "pitas",
			Description: "Crispy chickpea falafel with tahini, tomato and parsley",
			Price:       models.Cents(8, 49), Tags: []string{"vegetarian", "vegan", "dairy_free", "halal"},
		},
		{
			ID: "beef-kofta-pita", Name: "Beef Kofta Pita", CategoryID: "pitas",
			Description: "Grilled kofta skewers with onion and sumac",
			Price:       models.Cents(10, 49), Tags: []string{"halal", "high_protein", "spicy"},
		},
		{
			ID: "chicken-shawarma-platter", Name: "Chicken Shawarma Platter", CategoryID: "platters",
			Description: "Chicken shawarma over rice with salad and garlic sauce",
			Price:       models.Cents(14, 49), Tags: []string{"halal", "high_protein", "gluten_free"},
		},
		{
			ID: "beef-shawarma-platter", Name: "Beef Shawarma Platter", CategoryID: "platters",
			Description: "Slow roasted shawarma over rice with pickled turnips",
			Price:       models.Cents(15, 99), Tags: []string{"halal", "high_protein", "gluten_free"},
			Options: []models.CustomizationOption{
				{Name: "Rice", Choices: []string{"White", "Yellow"}, Required: false, SortOrder: 1},
			},
		},
		{
			ID: "falafel-platter", Name: "Falafel Platter", CategoryID: "platters",
			Description: "Six falafel with hummus, salad and pita bread",
			Price:       models.Cents(13, 49), Tags: []string{"vegetarian", "vegan", "dairy_free"},
		},
		{
			ID: "beef-burger", Name: "Beef Burger", CategoryID: "platters",
			Description: "Chargrilled patty with fries and pickles",
			Price:       models.Cents(12, 99), Tags: []string{"high_protein"},
		},
		{
			ID: "hummus", Name: "Hummus", CategoryID: "sides",
			Description: "Chickpea dip with olive oil and warm pita",
			Price:       models.Cents(4, 99), Tags: []string{"vegetarian", "vegan", "dairy_free", "nut_free"},
		},
		{
			ID: "french-fries", Name: "French Fries", CategoryID: "sides",
			Description: "Crispy salted fries",
			Price:       models.Cents(3, 99), Tags: []string{"vegetarian", "vegan", "dairy_free", "nut_free", "gluten_free"},
		},
		{
			ID: "fattoush-salad", Name: "Fattoush Salad", CategoryID: "salads",
			Description: "Crisp vegetables, toasted pita and sumac dressing",
			Price:       models.Cents(6, 49), Tags: []string{"vegetarian", "vegan", "dairy_free", "low_carb"},
		},
		{
			ID: "tabbouleh", Name: "Tabbouleh", CategoryID: "salads",
			Description: "Parsley, bulgur, tomato and lemon",
			Price:       models.Cents(5, 99), Tags: []string{"vegetarian", "vegan", "dairy_free", "low_carb"},
		},
		{
			ID: "mint-lemonade", Name: "Mint Lemonade", CategoryID: "drinks",
			Description: "Fresh lemon juice blended with mint",
			Price:       models.Cents(3, 49), Tags: []string{"vegetarian", "vegan", "gluten_free"},
		},
		{
			ID: "ayran", Name: "Ayran", CategoryID: "drinks",
			Description: "Chilled salted yogurt drink",
			Price:       models.Cents(2, 99), Tags: []string{"vegetarian", "gluten_free", "sugar_free"},
		},
		{
			ID: "soft-drink", Name: "Soft Drink", CategoryID: "drinks",
			Description: "Cola, lemon-lime or orange soda",
			Price:       models.Cents(1, 99), Tags: []string{"vegetarian", "vegan"},
		},
		{
			ID: "baklava", Name: "Baklava", CategoryID: "desserts",
			Description: "Layered filo pastry with pistachio and honey syrup",
			Price:       models.Cents(4, 49), Tags: []string{"vegetarian"},
		},
		{
			ID: "rice-pudding", Name: "Rice Pudding", CategoryID: "desserts",
			Description: "Creamy rice pudding with rose water and cinnamon",
			Price:       models.Cents(3, 99), Tags: []string{"vegetarian", "gluten_free", "nut_free"},
		},
	}
	for i := range items {
		items[i].IsAvailable = true
		for j := range items[i].Options {
			items[i].Options[j].MenuItemID = items[i].ID
		}
	}
	return categories, items
}
