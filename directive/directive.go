// Package directive turns state machine prompts into platform-neutral replies.
// Build is pure: the same prompt always yields the same directive.
package directive

import (
	"fmt"
	"sort"
	"strings"

	"food-order-bot/action"
	"food-order-bot/models"
)

type QuickAction struct {
	Label    string            `json:"label"`
	ActionID string            `json:"action_id"`
	Params   map[string]string `json:"params,omitempty"`
}

// Directive is what the transport renders: text plus optional buttons
type Directive struct {
	Kind         string        `json:"kind"`
	Text         string        `json:"text"`
	QuickActions []QuickAction `json:"quick_actions"`
}

// Prompt is produced by the state machine and rendered by Build
type Prompt interface {
	build() Directive
}

func Build(p Prompt) Directive {
	if p == nil {
		p = Fallback{}
	}
	d := p.build()
	if d.QuickActions == nil {
		d.QuickActions = []QuickAction{}
	}
	return d
}

// Unwrap strips any notices and returns the underlying prompt
func Unwrap(p Prompt) Prompt {
	for {
		n, ok := p.(Notice)
		if !ok {
			return p
		}
		p = n.Next
	}
}

func quick(label string, a action.Action) QuickAction {
	return QuickAction{Label: label, ActionID: a.ID(), Params: a.Params()}
}

var (
	menuButton     = quick("Menu", action.ShowMenu{})
	viewButton     = quick("View order", action.ViewOrder{})
	checkoutButton = quick("Checkout", action.Checkout{})
	continueButton = quick("Continue ordering", action.Continue{})
)

// Candidate is one choice offered when an order request was ambiguous
type Candidate struct {
	ItemID string
	Name   string
	Price  models.Money
}

// Notice prepends a line of text to another prompt
type Notice struct {
	Text string
	Next Prompt
}

type Welcome struct {
	Categories   []models.Category
	ItemsInOrder int
}

type CategoryList struct{ Categories []models.Category }

type ItemList struct {
	Category models.Category
	Items    []models.MenuItem
}

type Disambiguate struct {
	Candidates    []Candidate
	WrapOrPlatter bool
}

// Customize asks for one option of a freshly added line
type Customize struct {
	ItemName string
	LineID   string
	Option   models.CustomizationOption
}

// Suggest cross-sells items of the next course
type Suggest struct {
	Course models.Course
	Items  []models.MenuItem
}

type AnythingElse struct{}

type OrderSummary struct{ Order *models.Order }

type EmptyOrder struct{}

type AddItemsFirst struct{}

type DeliveryChoice struct{ Fee models.Money }

type AskAddress struct{}

type AskInstructions struct{}

type PaymentChoice struct {
	Total   models.Money
	Methods []models.PaymentMethod
}

type ConfirmOrder struct{ Order *models.Order }

type PaymentFailed struct {
	Method  models.PaymentMethod
	Reason  string
	Methods []models.PaymentMethod
}

type OrderConfirmed struct {
	Order *models.Order
	ETA   string
}

type DietaryMatches struct {
	Preference string
	Items      []models.MenuItem
}

type AllergyNoted struct{ HasAllergy bool }

type Recommendations struct {
	Message   string
	Items     []models.MenuItem
	FollowUps []string
}

type Restarted struct{}

// Fallback answers text that was not understood. Items are offered as
// buttons when given.
type Fallback struct {
	Text  string
	Items []models.MenuItem
}

func (p Notice) build() Directive {
	d := Build(p.Next)
	if p.Text != "" {
		d.Text = p.Text + "\n\n" + d.Text
	}
	return d
}

func (p Welcome) build() Directive {
	text := "Welcome! What can I get you today? Pick a category or just tell me what you'd like."
	if p.ItemsInOrder > 0 {
		text += fmt.Sprintf("\nYou already have %d item(s) in your order.", p.ItemsInOrder)
	}
	d := categoryButtons("welcome", text, p.Categories)
	if p.ItemsInOrder > 0 {
		d.QuickActions = append(d.QuickActions, viewButton)
	}
	return d
}

func (p CategoryList) build() Directive {
	return categoryButtons("category_list", "Here's our menu. Which category would you like to see?", p.Categories)
}

func categoryButtons(kind, text string, cats []models.Category) Directive {
	d := Directive{Kind: kind, Text: text}
	for _, c := range cats {
		d.QuickActions = append(d.QuickActions, quick(c.Name, action.ShowMenu{CategoryID: c.ID}))
	}
	return d
}

func (p ItemList) build() Directive {
	if len(p.Items) == 0 {
		return Directive{
			Kind:         "item_list",
			Text:         fmt.Sprintf("Nothing is available in %s right now.", p.Category.Name),
			QuickActions: []QuickAction{menuButton},
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", p.Category.Name)
	d := Directive{Kind: "item_list"}
	for _, item := range p.Items {
		fmt.Fprintf(&b, "\n• %s (%s)", item.Name, item.Price)
		if item.Description != "" {
			fmt.Fprintf(&b, " - %s", item.Description)
		}
		d.QuickActions = append(d.QuickActions, itemButton(item.ID, item.Name, item.Price))
	}
	d.Text = b.String()
	d.QuickActions = append(d.QuickActions, menuButton)
	return d
}

func itemButton(id, name string, price models.Money) QuickAction {
	return quick(fmt.Sprintf("%s (%s)", name, price), action.SelectItem{ItemID: id})
}

func (p Disambiguate) build() Directive {
	text := "We have a few of those. Which one would you like?"
	if p.WrapOrPlatter {
		text = "Would you like it as a wrap or a platter?"
	}
	d := Directive{Kind: "disambiguate", Text: text}
	for _, c := range p.Candidates {
		d.QuickActions = append(d.QuickActions, itemButton(c.ItemID, c.Name, c.Price))
	}
	return d
}

func (p Customize) build() Directive {
	opt := p.Option
	var text string
	if len(opt.Choices) == 2 {
		text = fmt.Sprintf("Would you like your %s %s or %s?", p.ItemName,
			strings.ToLower(opt.Choices[0]), strings.ToLower(opt.Choices[1]))
	} else {
		text = fmt.Sprintf("Which %s would you like for your %s? %s", strings.ToLower(opt.Name), p.ItemName,
			strings.Join(opt.Choices, ", "))
	}
	if !opt.Required {
		text += " (optional)"
	}
	d := Directive{Kind: "customize", Text: text}
	for _, c := range opt.Choices {
		d.QuickActions = append(d.QuickActions, quick(c, action.ChooseOption{LineID: p.LineID, Option: opt.Name, Value: c}))
	}
	if !opt.Required {
		d.QuickActions = append(d.QuickActions, quick("Skip", action.SkipOption{LineID: p.LineID, Option: opt.Name}))
	}
	return d
}

func (p Suggest) build() Directive {
	var text string
	switch p.Course {
	case models.CourseSide:
		text = "Would you like a side with that?"
	case models.CourseDrink:
		text = "Something to drink?"
	case models.CourseDessert:
		text = "Room for dessert?"
	default:
		text = "Can I suggest something else?"
	}
	d := Directive{Kind: "suggest_" + string(p.Course), Text: text}
	for _, item := range p.Items {
		d.QuickActions = append(d.QuickActions, itemButton(item.ID, item.Name, item.Price))
	}
	d.QuickActions = append(d.QuickActions, quick("No thanks", action.Decline{}))
	return d
}

func (AnythingElse) build() Directive {
	return Directive{
		Kind:         "anything_else",
		Text:         "Anything else?",
		QuickActions: []QuickAction{viewButton, continueButton, checkoutButton},
	}
}

// summary renders the order lines, fee and total
func summary(o *models.Order) string {
	var b strings.Builder
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "%d × %s  %s", l.Quantity, l.Name, l.Subtotal())
		if len(l.Customizations) > 0 {
			keys := make([]string, 0, len(l.Customizations))
			for k := range l.Customizations {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = k + ": " + l.Customizations[k]
			}
			fmt.Fprintf(&b, "\n   %s", strings.Join(parts, ", "))
		}
		if l.SpecialInstructions != "" {
			fmt.Fprintf(&b, "\n   Note: %s", l.SpecialInstructions)
		}
		b.WriteString("\n")
	}
	if o.Delivery {
		fmt.Fprintf(&b, "Delivery fee  %s\n", o.DeliveryFee)
		if o.DeliveryAddress != "" {
			fmt.Fprintf(&b, "Deliver to: %s\n", o.DeliveryAddress)
		}
		if o.DeliveryInstructions != "" {
			fmt.Fprintf(&b, "Instructions: %s\n", o.DeliveryInstructions)
		}
	} else if o.PaymentMethod != models.PaymentNone {
		b.WriteString("Pickup\n")
	}
	if o.PaymentMethod != models.PaymentNone {
		fmt.Fprintf(&b, "Payment: %s\n", o.PaymentMethod)
	}
	fmt.Fprintf(&b, "Total  %s", o.TotalAmount)
	return b.String()
}

func (p OrderSummary) build() Directive {
	if p.Order == nil || len(p.Order.Lines) == 0 {
		return EmptyOrder{}.build()
	}
	d := Directive{Kind: "order_summary", Text: "Your order:\n" + summary(p.Order)}
	d.QuickActions = []QuickAction{checkoutButton, continueButton}
	for _, l := range p.Order.Lines {
		d.QuickActions = append(d.QuickActions, quick("Remove "+l.Name, action.RemoveLine{LineID: l.ID}))
	}
	d.QuickActions = append(d.QuickActions, quick("Clear order", action.ClearOrder{}))
	return d
}

func (EmptyOrder) build() Directive {
	return Directive{
		Kind:         "empty_order",
		Text:         "Your order is empty. Have a look at the menu to get started.",
		QuickActions: []QuickAction{menuButton},
	}
}

func (AddItemsFirst) build() Directive {
	return Directive{
		Kind:         "add_items_first",
		Text:         "Please add something to your order before checking out.",
		QuickActions: []QuickAction{menuButton},
	}
}

func (p DeliveryChoice) build() Directive {
	return Directive{
		Kind: "delivery_choice",
		Text: "Would you like delivery or pickup?",
		QuickActions: []QuickAction{
			quick(fmt.Sprintf("Delivery (+%s)", p.Fee), action.Delivery{}),
			quick("Pickup", action.Pickup{}),
		},
	}
}

func (AskAddress) build() Directive {
	return Directive{Kind: "ask_address", Text: "What's the delivery address?"}
}

func (AskInstructions) build() Directive {
	return Directive{
		Kind:         "ask_instructions",
		Text:         "Any instructions for the driver? Reply \"none\" to skip.",
		QuickActions: []QuickAction{quick("None", action.NoInstructions{})},
	}
}

func paymentButtons(methods []models.PaymentMethod, skip models.PaymentMethod) []QuickAction {
	var out []QuickAction
	for _, m := range methods {
		if m == skip {
			continue
		}
		out = append(out, quick(paymentLabel(m), action.Payment{Method: m}))
	}
	return out
}

func paymentLabel(m models.PaymentMethod) string {
	switch m {
	case models.PaymentCash:
		return "Cash"
	case models.PaymentCard:
		return "Card"
	case models.PaymentCrypto:
		return "Crypto wallet"
	}
	return string(m)
}

func (p PaymentChoice) build() Directive {
	return Directive{
		Kind:         "payment_choice",
		Text:         fmt.Sprintf("Your total is %s. How would you like to pay?", p.Total),
		QuickActions: paymentButtons(p.Methods, models.PaymentNone),
	}
}

func (p ConfirmOrder) build() Directive {
	return Directive{
		Kind: "confirm_order",
		Text: "Please check your order:\n" + summary(p.Order) + "\n\nShall I place it?",
		QuickActions: []QuickAction{
			quick("Confirm", action.Confirm{}),
			quick("Modify", action.Modify{}),
		},
	}
}

func (p PaymentFailed) build() Directive {
	reason := p.Reason
	if reason == "" {
		reason = "the payment could not be completed"
	}
	d := Directive{
		Kind: "payment_failed",
		Text: fmt.Sprintf("Sorry, your %s payment didn't go through: %s. You can try again or pick another method.",
			strings.ToLower(paymentLabel(p.Method)), reason),
		QuickActions: []QuickAction{quick("Try again", action.RetryPayment{})},
	}
	d.QuickActions = append(d.QuickActions, paymentButtons(p.Methods, p.Method)...)
	return d
}

func (p OrderConfirmed) build() Directive {
	o := p.Order
	ref := o.ID
	if len(ref) > 8 {
		ref = ref[:8]
	}
	text := fmt.Sprintf("Your order #%s is confirmed!\n%s\n\n%s", ref, summary(o), p.ETA)
	if o.PaymentStatus == models.PaymentPaid {
		text += "\nPayment received, thank you."
	}
	return Directive{
		Kind:         "order_confirmed",
		Text:         text,
		QuickActions: []QuickAction{quick("Order again", action.ShowMenu{})},
	}
}

func (p DietaryMatches) build() Directive {
	label := strings.ReplaceAll(p.Preference, "_", "-")
	d := Directive{Kind: "dietary_matches"}
	if len(p.Items) == 0 {
		d.Text = fmt.Sprintf("Sorry, we don't have any %s dishes right now.", label)
		d.QuickActions = []QuickAction{menuButton}
		return d
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here are our %s options:", label)
	for _, item := range p.Items {
		fmt.Fprintf(&b, "\n• %s (%s)", item.Name, item.Price)
		d.QuickActions = append(d.QuickActions, itemButton(item.ID, item.Name, item.Price))
	}
	b.WriteString("\nAny food allergies we should know about?")
	d.Text = b.String()
	return d
}

func (p AllergyNoted) build() Directive {
	text := "Great, enjoy! What would you like to order?"
	if p.HasAllergy {
		text = "Thanks for letting us know. Add the details as a note when you order and the kitchen will take care of it."
	}
	return Directive{Kind: "allergy_noted", Text: text, QuickActions: []QuickAction{menuButton}}
}

func (p Recommendations) build() Directive {
	var b strings.Builder
	b.WriteString(p.Message)
	for _, q := range p.FollowUps {
		b.WriteString("\n" + q)
	}
	d := Directive{Kind: "recommendations", Text: strings.TrimSpace(b.String())}
	for _, item := range p.Items {
		d.QuickActions = append(d.QuickActions, itemButton(item.ID, item.Name, item.Price))
	}
	d.QuickActions = append(d.QuickActions, menuButton)
	return d
}

func (Restarted) build() Directive {
	return Directive{
		Kind:         "restarted",
		Text:         "All cleared. Send me a message whenever you're ready to start a new order.",
		QuickActions: []QuickAction{quick("Start", action.ShowMenu{})},
	}
}

func (p Fallback) build() Directive {
	text := p.Text
	if text == "" {
		text = "Sorry, I didn't quite get that. Try asking for the menu or naming a dish."
	}
	d := Directive{Kind: "fallback", Text: text}
	if len(p.Items) > 0 {
		d.Text += "\n\nPopular right now:"
		for _, item := range p.Items {
			d.QuickActions = append(d.QuickActions, itemButton(item.ID, item.Name, item.Price))
		}
	}
	d.QuickActions = append(d.QuickActions, menuButton, viewButton)
	return d
}
