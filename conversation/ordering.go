package conversation

import (
	"fmt"

	"food-order-bot/directive"
	"food-order-bot/intent"
	"food-order-bot/models"
)

// upsell stages in chain order
var upsellChain = []struct {
	course  models.Course
	purpose models.Purpose
}{
	{models.CourseSide, models.PurposeSuggestSides},
	{models.CourseDrink, models.PurposeSuggestDrinks},
	{models.CourseDessert, models.PurposeSuggestDesserts},
}

// activeOrCreate returns the pending order, starting one when there is none.
// created reports whether the order was started here.
func (t *turn) activeOrCreate() (o *models.Order, created bool, err error) {
	if o, err = t.active(); err != nil || o != nil {
		return o, false, err
	}
	o, err = t.orders.CreateOrder(t.ctx, t.conv.UserID)
	return o, err == nil, err
}

func (t *turn) addItem(itemID string, qty int, instructions string) (directive.Prompt, error) {
	if qty <= 0 {
		qty = 1
	}
	o, created, err := t.activeOrCreate()
	if err != nil {
		return nil, err
	}
	line, err := t.orders.AddLine(t.ctx, o.ID, itemID, qty, instructions)
	if err != nil {
		// an order started for a line that was refused must not outlive the turn
		if created {
			if _, derr := t.orders.Discard(t.ctx, t.conv.UserID); derr != nil {
				return nil, derr
			}
		}
		return t.recoverable(err, directive.CategoryList{Categories: t.m.catalog.Categories()})
	}
	t.conv.Context.Delete(models.KeyPendingCandidates)

	item, err := t.m.catalog.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	added := fmt.Sprintf("Added %d × %s to your order.", qty, item.Name)

	if opt := nextOption(item, line, nil); opt != nil {
		t.conv.Await(models.PurposeCustomization)
		t.conv.Context.SetString(models.KeyPendingLineID, line.ID)
		t.conv.Context.Delete(models.KeySkippedOptions)
		return directive.Notice{Text: added, Next: customize(item, line, opt)}, nil
	}
	p, err := t.upsellAfter(item)
	if err != nil {
		return nil, err
	}
	return directive.Notice{Text: added, Next: p}, nil
}

// nextOption returns the first option of item the line has no answer for,
// in menu order, ignoring skipped ones
func nextOption(item *models.MenuItem, line *models.OrderLine, skipped []string) *models.CustomizationOption {
	for i := range item.Options {
		opt := &item.Options[i]
		if _, done := line.Customizations[opt.Name]; done || contains(skipped, opt.Name) {
			continue
		}
		return opt
	}
	return nil
}

func customize(item *models.MenuItem, line *models.OrderLine, opt *models.CustomizationOption) directive.Prompt {
	return directive.Customize{ItemName: item.Name, LineID: line.ID, Option: *opt}
}

func (t *turn) courseOf(itemID string) models.Course {
	item, err := t.m.catalog.GetItem(itemID)
	if err != nil {
		return models.CourseOther
	}
	cat, err := t.m.catalog.GetCategory(item.CategoryID)
	if err != nil {
		return models.CourseOther
	}
	return cat.Course
}

func (t *turn) upsellAfter(item *models.MenuItem) (directive.Prompt, error) {
	switch t.courseOf(item.ID) {
	case models.CourseMain:
		return t.suggestFrom(0)
	case models.CourseSide:
		return t.suggestFrom(1)
	case models.CourseDrink:
		return t.suggestFrom(2)
	}
	return t.suggestFrom(len(upsellChain))
}

// suggestFrom offers the first applicable stage of the upsell chain at or after i.
// Drinks and desserts are skipped when the order already has one.
func (t *turn) suggestFrom(i int) (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	for ; i < len(upsellChain); i++ {
		stage := upsellChain[i]
		if stage.course != models.CourseSide && t.hasCourse(o, stage.course) {
			continue
		}
		items := t.m.catalog.ItemsByCourse(stage.course)
		if len(items) == 0 {
			continue
		}
		if len(items) > maxSuggestions {
			items = items[:maxSuggestions]
		}
		t.conv.Await(stage.purpose)
		return directive.Suggest{Course: stage.course, Items: items}, nil
	}
	t.conv.MoveTo(models.StateItemSelection)
	return directive.AnythingElse{}, nil
}

func (t *turn) hasCourse(o *models.Order, course models.Course) bool {
	if o == nil {
		return false
	}
	for _, l := range o.Lines {
		if t.courseOf(l.MenuItemID) == course {
			return true
		}
	}
	return false
}

func (t *turn) decline() (directive.Prompt, error) {
	if t.conv.State == models.StateAwaitingInput {
		for i, stage := range upsellChain {
			if stage.purpose == t.conv.Purpose {
				return t.suggestFrom(i + 1)
			}
		}
	}
	return directive.AnythingElse{}, nil
}

// pending loads the line awaiting customization and its next option.
// opt is nil when every option has been answered or skipped.
func (t *turn) pending() (*models.MenuItem, *models.OrderLine, *models.CustomizationOption, error) {
	lineID, ok := t.conv.Context.GetString(models.KeyPendingLineID)
	if !ok {
		return nil, nil, nil, nil
	}
	o, err := t.active()
	if err != nil || o == nil {
		return nil, nil, nil, err
	}
	line, ok := o.Line(lineID)
	if !ok {
		return nil, nil, nil, nil
	}
	item, err := t.m.catalog.GetItem(line.MenuItemID)
	if err != nil {
		return nil, nil, nil, err
	}
	skipped, _ := t.conv.Context.GetStrings(models.KeySkippedOptions)
	return item, line, nextOption(item, line, skipped), nil
}

func (t *turn) captureCustomization(text string) (directive.Prompt, bool, error) {
	item, line, opt, err := t.pending()
	if err != nil {
		return nil, true, err
	}
	if opt == nil {
		p, err := t.finishCustomization(item)
		return p, true, err
	}
	if choice, ok := opt.Match(text); ok {
		p, err := t.chooseOption(line.ID, opt.Name, choice)
		return p, true, err
	}
	if !opt.Required && said(text, declineWords...) {
		p, err := t.skipOption(line.ID, opt.Name)
		return p, true, err
	}

	it := t.extract()
	if r, ok := it.(intent.ShortReply); ok {
		if choice, ok := opt.Match(r.Answer); ok {
			p, err := t.chooseOption(line.ID, opt.Name, choice)
			return p, true, err
		}
	}
	if _, ok := it.(intent.Unknown); ok {
		return directive.Notice{
			Text: "Please pick one of the options.",
			Next: customize(item, line, opt),
		}, true, nil
	}
	p, err := t.dispatch(it, false)
	return p, true, err
}

func (t *turn) chooseOption(lineID, option, value string) (directive.Prompt, error) {
	err := t.orders.SetCustomization(t.ctx, lineID, option, value)
	if err != nil {
		return t.recoverable(err, t.afterCustomization())
	}
	pendingID, _ := t.conv.Context.GetString(models.KeyPendingLineID)
	if t.conv.Purpose != models.PurposeCustomization || pendingID != lineID {
		o, err := t.active()
		if err != nil {
			return nil, err
		}
		return directive.Notice{Text: "Updated.", Next: directive.OrderSummary{Order: o}}, nil
	}
	return t.continueCustomization()
}

func (t *turn) skipOption(lineID, option string) (directive.Prompt, error) {
	pendingID, _ := t.conv.Context.GetString(models.KeyPendingLineID)
	item, line, opt, err := t.pending()
	if err != nil {
		return nil, err
	}
	if t.conv.Purpose != models.PurposeCustomization || pendingID != lineID || opt == nil || opt.Name != option {
		return t.stale(), nil
	}
	if opt.Required {
		return directive.Notice{
			Text: fmt.Sprintf("%s is required for the %s.", opt.Name, item.Name),
			Next: customize(item, line, opt),
		}, nil
	}
	skipped, _ := t.conv.Context.GetStrings(models.KeySkippedOptions)
	t.conv.Context.SetStrings(models.KeySkippedOptions, append(skipped, option))
	return t.continueCustomization()
}

func (t *turn) continueCustomization() (directive.Prompt, error) {
	item, line, opt, err := t.pending()
	if err != nil {
		return nil, err
	}
	if opt != nil {
		return customize(item, line, opt), nil
	}
	return t.finishCustomization(item)
}

// finishCustomization clears the pending line and resumes the upsell chain
func (t *turn) finishCustomization(item *models.MenuItem) (directive.Prompt, error) {
	t.conv.Context.Delete(models.KeyPendingLineID, models.KeySkippedOptions)
	if item == nil {
		t.conv.MoveTo(models.StateItemSelection)
		return directive.AnythingElse{}, nil
	}
	return t.upsellAfter(item)
}

// afterCustomization is the prompt shown again when an answer was rejected
func (t *turn) afterCustomization() directive.Prompt {
	item, line, opt, err := t.pending()
	if err != nil || opt == nil {
		return directive.AnythingElse{}
	}
	return customize(item, line, opt)
}

func (t *turn) removeLine(lineID string) (directive.Prompt, error) {
	o, err := t.orders.RemoveLine(t.ctx, lineID)
	if err != nil {
		current, aerr := t.viewOrder()
		if aerr != nil {
			return nil, aerr
		}
		return t.recoverable(err, current)
	}
	if pendingID, _ := t.conv.Context.GetString(models.KeyPendingLineID); pendingID == lineID {
		t.conv.Context.Delete(models.KeyPendingLineID, models.KeySkippedOptions)
		t.conv.MoveTo(models.StateItemSelection)
	}
	return directive.Notice{Text: "Removed.", Next: directive.OrderSummary{Order: o}}, nil
}

func (t *turn) clearOrder() (directive.Prompt, error) {
	o, err := t.active()
	if err != nil {
		return nil, err
	}
	if o == nil {
		return directive.EmptyOrder{}, nil
	}
	if err := t.orders.Clear(t.ctx, o.ID); err != nil {
		return nil, err
	}
	t.conv.Context.Delete(models.KeyPendingLineID, models.KeySkippedOptions, models.KeyPendingCandidates)
	return directive.Notice{Text: "Your order has been cleared.", Next: t.showMenu("")}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
