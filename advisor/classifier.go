package advisor

import "strings"

var DefaultGoldKeywords = []string{
	"gold", "24k", "24 karat", "22k", "sovereign gold bond", "sgb", "digital gold",
	"invest in gold", "gold price", "gold rate", "buy gold", "sell gold", "gold etf",
	"gold mutual fund", "gold returns", "gold inflation hedge", "gold taxation",
}

var DefaultBuyIntent = []string{"buy", "purchase", "invest", "yes", "proceed", "confirm", "place order"}

// Classifier matches messages against keyword sets by plain,
// case-insensitive substring containment. No tokenizing or stemming.
type Classifier struct {
	gold      []string
	buyIntent []string
}

// NewClassifier falls back to the default sets when a list is empty.
func NewClassifier(gold, buyIntent []string) Classifier {
	c := Classifier{gold: normalize(gold), buyIntent: normalize(buyIntent)}
	if len(c.gold) == 0 {
		c.gold = normalize(DefaultGoldKeywords)
	}
	if len(c.buyIntent) == 0 {
		c.buyIntent = normalize(DefaultBuyIntent)
	}
	return c
}

func (c Classifier) IsGoldRelated(message string) bool {
	return containsAny(message, c.gold)
}

func (c Classifier) HasBuyIntent(message string) bool {
	return containsAny(message, c.buyIntent)
}

func containsAny(message string, keywords []string) bool {
	msg := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
