package advisor

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	PurchaseEndpoint = "/purchase"

	OffTopicResponse = "I can help with many finance topics. Ask about gold for advice and digital gold purchase options."
	HedgeFact        = "Gold is a safe-haven asset and can hedge against inflation."
	Nudge            = "You can invest in gold via the Simplify Money app using **Digital Gold** — start with just ₹10."

	userIDPlaceholder   = "<your_user_id>"
	exampleAmountInINR  = 1000
	nextActionLabel     = "Buy digital gold now"
	priceMentionKeyword = "price"
)

type NextAction struct {
	Label        string         `json:"label"`
	Endpoint     string         `json:"endpoint"`
	Method       string         `json:"method"`
	ExpectedBody map[string]any `json:"expected_body"`
}

type Advice struct {
	IsGoldRelated      bool
	Response           string
	SuggestPurchase    bool
	RedirectToPurchase bool
	NextAction         *NextAction
}

// Advise builds the canned reply for a message. userID is only used to
// fill the example purchase body and may be nil.
func (c Classifier) Advise(message string, pricePerGram float64, userID *uint) Advice {
	if !c.IsGoldRelated(message) {
		return Advice{Response: OffTopicResponse}
	}

	fact := HedgeFact
	if strings.Contains(strings.ToLower(message), priceMentionKeyword) {
		fact = PriceFact(pricePerGram)
	}

	advice := Advice{
		IsGoldRelated:   true,
		Response:        fact + "\n" + Nudge,
		SuggestPurchase: true,
	}

	if c.HasBuyIntent(message) {
		advice.RedirectToPurchase = true
		advice.NextAction = purchaseAction(userID)
	}
	return advice
}

func PriceFact(pricePerGram float64) string {
	return fmt.Sprintf("Indicative price: ₹%s per gram.", strconv.FormatFloat(pricePerGram, 'f', -1, 64))
}

func purchaseAction(userID *uint) *NextAction {
	var id any = userIDPlaceholder
	if userID != nil {
		id = *userID
	}
	return &NextAction{
		Label:    nextActionLabel,
		Endpoint: PurchaseEndpoint,
		Method:   "POST",
		ExpectedBody: map[string]any{
			"user_id":       id,
			"amount_in_inr": exampleAmountInINR,
		},
	}
}
