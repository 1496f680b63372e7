package intent

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"food-order-bot/catalog"
	"food-order-bot/models"
	"food-order-bot/recommend"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FallbackMessage is shown when nothing in the utterance could be understood
const FallbackMessage = "Sorry, I didn't quite get that. Try asking for the menu or naming a dish."

const (
	shortReplyMaxTokens     = 3
	minPartialLen           = 4
	defaultRecommendTimeout = 5 * time.Second
)

// Input is one utterance plus the conversation facts the extractor may consult
type Input struct {
	Text           string
	LastBotMessage string
	UserID         string
	History        []string
}

// Extractor maps raw text to an Intent. It never returns an error: collaborator
// failures resolve to Unknown.
type Extractor struct {
	catalog catalog.Catalog
	engine  recommend.Engine
	timeout time.Duration
	phrases []phrase
	logger  zerolog.Logger
}

type phrase struct {
	text string
	item string
	re   *regexp.Regexp
}

type Option func(*Extractor)

// WithTimeout bounds each recommendation call
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// WithAliases replaces the curated alias list
func WithAliases(aliases []Alias) Option {
	return func(e *Extractor) { e.phrases = buildPhrases(aliases) }
}

// NewExtractor builds an extractor. engine may be nil, in which case
// open-ended questions resolve to Unknown.
func NewExtractor(cat catalog.Catalog, engine recommend.Engine, opts ...Option) *Extractor {
	e := &Extractor{
		catalog: cat,
		engine:  engine,
		timeout: defaultRecommendTimeout,
		phrases: buildPhrases(DefaultAliases),
		logger:  log.With().Str("component", "intent").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func buildPhrases(aliases []Alias) []phrase {
	out := make([]phrase, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, newPhrase(normalize(a.Phrase), a.Item))
	}
	return out
}

func newPhrase(text, item string) phrase {
	return phrase{
		text: text,
		item: item,
		re:   regexp.MustCompile(`(?:^|\s)` + regexp.QuoteMeta(text) + `(?:es|s)?(?:\s|$)`),
	}
}

// Extract runs the full priority chain
func (e *Extractor) Extract(ctx context.Context, in Input) Intent {
	text := normalize(in.Text)
	if text == "" {
		return Unknown{Text: in.Text, Fallback: FallbackMessage}
	}
	if r, ok := matchShortReply(text, in.LastBotMessage); ok {
		return r
	}
	if it := e.classify(text); it != nil {
		return it
	}
	return e.recommend(ctx, in)
}

// ExtractGeneric is the fallback mode: no short-reply context and no
// recommendation call.
func (e *Extractor) ExtractGeneric(text string) Intent {
	norm := normalize(text)
	if it := e.classify(norm); it != nil {
		return it
	}
	return Unknown{Text: text, Fallback: FallbackMessage}
}

// ExtractCommand recognises greeting and restart commands, and menu, view-order
// or checkout requests that make up the whole utterance. It is used while the
// conversation captures free text such as an address.
func (e *Extractor) ExtractCommand(text string) (Intent, bool) {
	text = normalize(text)
	if it := matchCommand(text); it != nil {
		return it, true
	}
	switch {
	case equalsAny(text, menuKeywords):
		return ShowMenu{}, true
	case equalsAny(text, viewOrderKeywords):
		return ViewOrder{}, true
	case equalsAny(text, checkoutKeywords):
		return Checkout{}, true
	}
	return nil, false
}

func (e *Extractor) classify(text string) Intent {
	if it := matchCommand(text); it != nil {
		return it
	}
	if it := e.matchKeywords(text); it != nil {
		return it
	}
	if tag, ok := matchDietary(text); ok {
		return DietaryPreference{Preference: tag}
	}
	tokens := strings.Fields(text)
	if len(tokens) == 1 {
		if it := e.matchSingleToken(tokens[0]); it != nil {
			return it
		}
	}
	return e.matchItemPhrase(text)
}

func matchShortReply(text, lastBotMessage string) (Intent, bool) {
	if lastBotMessage == "" || len(strings.Fields(text)) > shortReplyMaxTokens {
		return nil, false
	}
	for _, tpl := range replyTemplates {
		if !tpl.question.MatchString(lastBotMessage) {
			continue
		}
		for _, a := range tpl.answers {
			if a.re.MatchString(text) {
				return ShortReply{Dimension: tpl.dimension, Answer: a.value}, true
			}
		}
	}
	return nil, false
}

func matchCommand(text string) Intent {
	for _, g := range greetings {
		if text == g {
			return Greeting{}
		}
	}
	for _, r := range restartCommands {
		if text == r {
			return Restart{}
		}
	}
	return nil
}

func (e *Extractor) matchKeywords(text string) Intent {
	if containsAny(text, menuKeywords) {
		return ShowMenu{CategoryID: e.categoryIn(text)}
	}
	if containsAny(text, viewOrderKeywords) {
		return ViewOrder{}
	}
	if containsAny(text, checkoutKeywords) {
		return Checkout{}
	}
	return nil
}

func matchDietary(text string) (string, bool) {
	for _, p := range dietaryPatterns {
		if p.re.MatchString(text) {
			return p.tag, true
		}
	}
	for _, p := range indirectPatterns {
		if p.re.MatchString(text) {
			return p.tag, true
		}
	}
	return "", false
}

// categoryIn returns the first category whose keywords occur in text
func (e *Extractor) categoryIn(text string) string {
	for _, c := range e.catalog.Categories() {
		for _, kw := range categoryKeywords(c) {
			if containsPhrase(text, kw) {
				return c.ID
			}
		}
	}
	return ""
}

func categoryKeywords(c models.Category) []string {
	kws := []string{strings.ToLower(c.ID)}
	for _, w := range strings.Fields(normalize(c.Name)) {
		if w == "and" || len(w) < 3 {
			continue
		}
		kws = append(kws, w)
		if s := singular(w); s != w {
			kws = append(kws, s)
		}
	}
	return kws
}

func (e *Extractor) matchSingleToken(token string) Intent {
	if id := e.categoryIn(token); id != "" {
		return ShowMenu{CategoryID: id}
	}
	for _, p := range e.phrases {
		if p.text == token || p.text == singular(token) {
			if it := e.orderFor(p.item, 1, ""); it != nil {
				return it
			}
		}
	}
	if it := e.orderCandidates(e.itemsWithWord(token), 1, ""); it != nil {
		return it
	}
	if len(token) < minPartialLen {
		return nil
	}
	return e.orderCandidates(e.itemsWithPrefix(token), 1, "")
}

// itemsWithPrefix returns available items with a name word starting with token
func (e *Extractor) itemsWithPrefix(token string) []models.MenuItem {
	var out []models.MenuItem
	for _, item := range e.catalog.FindItemsByPartialName(token) {
		for _, w := range strings.Fields(normalize(item.Name)) {
			if strings.HasPrefix(w, token) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// itemsWithWord returns available items having token (or its singular) as a name word
func (e *Extractor) itemsWithWord(token string) []models.MenuItem {
	var out []models.MenuItem
	for _, item := range e.catalog.Items() {
		for _, w := range strings.Fields(normalize(item.Name)) {
			if w == token || w == singular(token) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func (e *Extractor) matchItemPhrase(text string) Intent {
	phrases := append([]phrase(nil), e.phrases...)
	for _, item := range e.catalog.Items() {
		phrases = append(phrases, newPhrase(normalize(item.Name), item.Name))
	}
	sort.SliceStable(phrases, func(i, j int) bool { return len(phrases[i].text) > len(phrases[j].text) })

	for _, p := range phrases {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		qty := quantityBefore(strings.Fields(text[:loc[0]]))
		instructions := specialInstructions(strings.Fields(text[loc[1]:]))
		if it := e.orderFor(p.item, qty, instructions); it != nil {
			return it
		}
	}

	// no curated phrase: try the stripped core of the request against item names
	tokens := strings.Fields(text)
	qty := 1
	start := 0
	for ; start < len(tokens); start++ {
		if n, ok := parseQuantity(tokens[start]); ok {
			qty = n
			continue
		}
		if !fillers[tokens[start]] {
			break
		}
	}
	end := start
	for ; end < len(tokens); end++ {
		if triggerAt(tokens, end) || tokens[end] == "please" {
			break
		}
	}
	core := tokens[start:end]
	instructions := specialInstructions(tokens[end:])
	switch len(core) {
	case 0:
		return nil
	case 1:
		return e.orderCandidates(e.itemsWithWord(core[0]), qty, instructions)
	default:
		needle := strings.Join(core, " ")
		var matches []models.MenuItem
		for _, item := range e.catalog.Items() {
			if strings.Contains(normalize(item.Name), needle) {
				matches = append(matches, item)
			}
		}
		return e.orderCandidates(matches, qty, instructions)
	}
}

func (e *Extractor) orderFor(name string, qty int, instructions string) Intent {
	items := e.catalog.FindItemsByExactName(name)
	if len(items) != 1 {
		return nil
	}
	return OrderItem{ItemID: items[0].ID, Quantity: qty, SpecialInstructions: instructions}
}

func (e *Extractor) orderCandidates(items []models.MenuItem, qty int, instructions string) Intent {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return OrderItem{ItemID: items[0].ID, Quantity: qty, SpecialInstructions: instructions}
	}
	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, Candidate{ItemID: item.ID, Name: item.Name, Price: item.Price})
	}
	return OrderItem{Candidates: candidates, Quantity: qty, SpecialInstructions: instructions}
}

func (e *Extractor) recommend(ctx context.Context, in Input) Intent {
	unknown := Unknown{Text: in.Text, Fallback: FallbackMessage}
	if e.engine == nil {
		return unknown
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.engine.Recommend(ctx, recommend.Request{
		Text:          in.Text,
		UserID:        in.UserID,
		RecentHistory: in.History,
	})
	if err == nil {
		err = res.Validate()
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", in.UserID).Msg("recommendation call failed, using fallback")
		return unknown
	}
	return Recommendation{Message: res.Message, Items: res.Recommendations, FollowUps: res.FollowUpQuestions}
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '/', r == '\'', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsPhrase(text, p string) bool {
	return strings.Contains(" "+text+" ", " "+p+" ")
}

func equalsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if text == p {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}

func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return strings.TrimSuffix(w, "s")
	}
	return w
}

// parseQuantity reads a quantity word or number. Numbers above
// MaxLineQuantity, including ones too large for an int, come back as
// MaxLineQuantity+1 so the order rejects them instead of the text being
// read as something else.
func parseQuantity(token string) (int, bool) {
	if n, ok := quantityWords[token]; ok {
		return n, true
	}
	if token == "" || strings.TrimLeft(token, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(token)
	switch {
	case err != nil, n > models.MaxLineQuantity:
		return models.MaxLineQuantity + 1, true
	case n > 0:
		return n, true
	}
	return 0, false
}

// quantityBefore returns the quantity word closest to the item phrase, or 1
func quantityBefore(tokens []string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if n, ok := parseQuantity(tokens[i]); ok {
			return n
		}
	}
	return 1
}

func triggerAt(tokens []string, i int) bool {
	rest := strings.Join(tokens[i:], " ")
	for _, t := range specialInstructionTriggers {
		if rest == t || strings.HasPrefix(rest, t+" ") {
			return true
		}
	}
	return false
}

// specialInstructions captures everything from the first trigger word onward
func specialInstructions(tokens []string) string {
	for i := range tokens {
		if triggerAt(tokens, i) {
			return strings.Join(tokens[i:], " ")
		}
	}
	return ""
}
