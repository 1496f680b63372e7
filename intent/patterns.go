package intent

import "regexp"

// tagPattern is one entry of an ordered pattern bank; the first match wins
type tagPattern struct {
	re  *regexp.Regexp
	tag string
}

type answerPattern struct {
	re    *regexp.Regexp
	value string
}

// replyTemplate recognises a bot question whose short answers resolve a preference
type replyTemplate struct {
	dimension Dimension
	question  *regexp.Regexp
	answers   []answerPattern
}

var replyTemplates = []replyTemplate{
	{
		dimension: DimensionSpice,
		question:  regexp.MustCompile(`(?i)\b(spicy or mild|mild or spicy)\b`),
		answers: []answerPattern{
			{regexp.MustCompile(`\b(mild|not spic[eiy]+|no spice|not hot)\b`), "Mild"},
			{regexp.MustCompile(`\b(spic[eiy]+|hot|extra hot)\b`), "Spicy"},
		},
	},
	{
		dimension: DimensionAllergy,
		question:  regexp.MustCompile(`(?i)\ballerg(y|ies)\b`),
		answers: []answerPattern{
			{regexp.MustCompile(`\b(no|nope|nah|none)\b`), "no"},
			{regexp.MustCompile(`\b(yes|yeah|yep|yup|y|i do)\b`), "yes"},
		},
	},
	{
		dimension: DimensionStyle,
		question:  regexp.MustCompile(`(?i)\b(wrap or (a )?platter|platter or (a )?wrap)\b`),
		answers: []answerPattern{
			{regexp.MustCompile(`\b(wrap|pita|sandwich)s?\b`), "wrap"},
			{regexp.MustCompile(`\b(platter|plate)s?\b`), "platter"},
		},
	},
}

var (
	greetings = []string{
		"/start", "start", "hi", "hello", "hey", "hiya", "howdy", "yo", "hi there", "hey there",
		"hello there", "good morning", "good afternoon", "good evening", "salaam", "salam",
	}
	restartCommands = []string{
		"/restart", "restart", "reset", "start over", "start again", "begin again",
		"cancel order", "cancel my order",
	}
)

// keyword lists for menu, view-order and checkout requests, tested in that order
var (
	menuKeywords = []string{
		"menu", "what do you have", "what do you serve", "what do you sell", "what's available",
		"whats available", "what can i order", "categories", "food list", "see the food",
	}
	viewOrderKeywords = []string{
		"view order", "view my order", "show order", "show my order", "see my order",
		"check my order", "what's in my order", "whats in my order", "what did i order",
		"order summary", "my cart", "cart", "basket",
	}
	checkoutKeywords = []string{
		"checkout", "check out", "pay", "pay now", "place order", "place my order",
		"that's all", "thats all", "that is all", "done ordering", "finish order",
		"complete order", "i'm done", "im done",
	}
)

var dietaryPatterns = []tagPattern{
	{regexp.MustCompile(`\bveg[aei]?t[ae]r[iy]?[ae]ns?\b|\bveggie\b|\bno meat\b|\bmeat[ -]?free\b`), "vegetarian"},
	{regexp.MustCompile(`\bve+ga+ns?\b|\bplant[ -]?based\b`), "vegan"},
	{regexp.MustCompile(`\bglu?te?n[ -]?free\b|\bno gluten\b|\bco?eliac\b`), "gluten_free"},
	{regexp.MustCompile(`\bhal+al\b`), "halal"},
	{regexp.MustCompile(`\bketo\b|\blow[ -]?carbs?\b`), "low_carb"},
	{regexp.MustCompile(`\bhigh[ -]?(protein|calorie)s?\b|\bprotein\b`), "high_protein"},
	{regexp.MustCompile(`\bdairy[ -]?free\b|\bno dairy\b|\blactose\b`), "dairy_free"},
	{regexp.MustCompile(`\bnut[ -]?free\b|\bno nuts?\b|\bnut allerg(y|ies)\b|\bpeanuts?\b`), "nut_free"},
	{regexp.MustCompile(`\bsugar[ -]?free\b|\bno sugar\b|\bdiabetic\b`), "sugar_free"},
	{regexp.MustCompile(`\bmild\b|\bnot spic[eiy]+\b|\bno spic[eiy]+\b|\bno spice\b`), "mild"},
	{regexp.MustCompile(`\bspic[eiy]+\b`), "spicy"},
}

const questionPhrase = `\b(do you have|do you do|what options|any options|got any|is there|are there|anything)\b`

// indirectPatterns catch looser preference words, only after a question phrase
var indirectPatterns = []tagPattern{
	{regexp.MustCompile(questionPhrase + `.*\b(veg|meatless|greens)\b`), "vegetarian"},
	{regexp.MustCompile(questionPhrase + `.*\bplants?\b`), "vegan"},
	{regexp.MustCompile(questionPhrase + `.*\b(gf|wheat)\b`), "gluten_free"},
	{regexp.MustCompile(questionPhrase + `.*\b(carbs?|light|healthy)\b`), "low_carb"},
	{regexp.MustCompile(questionPhrase + `.*\b(filling|hearty)\b`), "high_protein"},
	{regexp.MustCompile(questionPhrase + `.*\b(milk|cheese)\b`), "dairy_free"},
	{regexp.MustCompile(questionPhrase + `.*\bnuts?\b`), "nut_free"},
	{regexp.MustCompile(questionPhrase + `.*\bsweetener\b`), "sugar_free"},
	{regexp.MustCompile(questionPhrase + `.*\b(heat|kick)\b`), "spicy"},
}

// Alias maps a customer phrase to a canonical menu item name
type Alias struct {
	Phrase string
	Item   string
}

// DefaultAliases is the curated phrase list for the sample menu
var DefaultAliases = []Alias{
	{"chicken shawarma wrap", "Chicken Shawarma Pita"},
	{"shawarma pita", "Chicken Shawarma Pita"},
	{"shawarma wrap", "Chicken Shawarma Pita"},
	{"chicken wrap", "Chicken Shawarma Pita"},
	{"chicken pita", "Chicken Shawarma Pita"},
	{"falafel wrap", "Falafel Pita"},
	{"falafel sandwich", "Falafel Pita"},
	{"kofta wrap", "Beef Kofta Pita"},
	{"kofta", "Beef Kofta Pita"},
	{"burger", "Beef Burger"},
	{"chips", "French Fries"},
	{"fries", "French Fries"},
	{"lemonade", "Mint Lemonade"},
	{"soda", "Soft Drink"},
	{"coke", "Soft Drink"},
	{"cola", "Soft Drink"},
	{"pudding", "Rice Pudding"},
}

var specialInstructionTriggers = []string{
	"no", "without", "extra", "add", "hold the", "less", "more", "light on", "easy on", "on the side",
}

var quantityWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "couple": 2, "pair": 2,
}

// fillers are skipped before the item phrase
var fillers = map[string]bool{
	"i": true, "i'd": true, "id": true, "i'll": true, "ill": true, "want": true, "would": true,
	"like": true, "can": true, "could": true, "may": true, "get": true, "give": true, "me": true,
	"have": true, "please": true, "some": true, "the": true, "order": true, "to": true,
	"take": true, "gimme": true, "of": true, "and": true, "also": true, "just": true,
}
