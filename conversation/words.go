package conversation

import (
	"strings"
	"unicode"

	"food-order-bot/models"
)

var (
	declineWords  = []string{"no", "no thanks", "no thank you", "nope", "nah", "skip", "not now", "i'm good", "im good"}
	noneWords     = []string{"none", "no", "nope", "nothing", "skip", "no instructions", "n/a"}
	deliveryWords = []string{"delivery", "deliver", "delivered", "deliver it", "bring it"}
	pickupWords   = []string{"pickup", "pick up", "pick it up", "collect", "collection", "takeaway", "take away"}
	retryWords    = []string{"retry", "try again", "again"}
	confirmWords  = []string{"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm", "place it", "place the order", "go ahead"}
	modifyWords   = []string{"modify", "change", "edit", "no", "not yet", "wait"}
)

// paymentPhrases maps what customers type to a payment method
var paymentPhrases = []struct {
	method  models.PaymentMethod
	phrases []string
}{
	{models.PaymentCash, []string{"cash", "cash on delivery", "pay at the counter"}},
	{models.PaymentCard, []string{"card", "credit card", "debit card", "visa", "mastercard"}},
	{models.PaymentCrypto, []string{"crypto", "bitcoin", "btc", "wallet", "crypto wallet"}},
}

func paymentIn(text string) (models.PaymentMethod, bool) {
	for _, p := range paymentPhrases {
		if said(text, p.phrases...) {
			return p.method, true
		}
	}
	return models.PaymentNone, false
}

// said reports whether any phrase occurs in text as whole words
func said(text string, phrases ...string) bool {
	norm := " " + clean(text) + " "
	for _, p := range phrases {
		if strings.Contains(norm, " "+p+" ") {
			return true
		}
	}
	return false
}

func clean(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '/' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(text), " ")
}
