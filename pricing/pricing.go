package pricing

import "github.com/shopspring/decimal"

const (
	GramsPlaces = 4
	InrPlaces   = 2

	Source = "fixed_env_or_default"
)

// Oracle hands out the fixed price per gram loaded at startup.
type Oracle struct {
	pricePerGram decimal.Decimal
}

func NewOracle(pricePerGram float64) Oracle {
	return Oracle{pricePerGram: decimal.NewFromFloat(pricePerGram)}
}

func (o Oracle) PricePerGram() float64 {
	return o.pricePerGram.InexactFloat64()
}

// Quote is the result of converting between INR and grams at one price.
type Quote struct {
	Grams        float64
	InrAmount    float64
	PricePerGram float64
}

// FromAmount converts an INR amount to grams. The INR side is recomputed
// from the rounded grams so it can differ slightly from the input.
func (o Oracle) FromAmount(inr float64) Quote {
	grams := decimal.NewFromFloat(inr).DivRound(o.pricePerGram, GramsPlaces)
	return o.quote(grams)
}

func (o Oracle) FromGrams(grams float64) Quote {
	return o.quote(decimal.NewFromFloat(grams).Round(GramsPlaces))
}

func (o Oracle) quote(grams decimal.Decimal) Quote {
	return Quote{
		Grams:        grams.InexactFloat64(),
		InrAmount:    grams.Mul(o.pricePerGram).Round(InrPlaces).InexactFloat64(),
		PricePerGram: o.PricePerGram(),
	}
}
