package basket

import "github.com/shopspring/decimal"

var (
	// DefaultDeliveryFee is charged once per non-empty order
	DefaultDeliveryFee = decimal.NewFromInt(5)
	// DefaultTaxRate applies to the subtotal only, never to the delivery fee
	DefaultTaxRate = decimal.RequireFromString("0.05")
)

// displayPlaces is the number of decimals money is shown and stored with
const displayPlaces = 2

// Pricing holds the checkout constants
type Pricing struct {
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultPricing returns a 5.00 delivery fee and 5% tax
func DefaultPricing() Pricing {
	return Pricing{
		DeliveryFee: DefaultDeliveryFee,
		TaxRate:     DefaultTaxRate,
	}
}

// Breakdown is the checkout summary for a subtotal
type Breakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Breakdown computes fee, tax and total at full precision.
// No delivery fee is charged on an empty order.
func (p Pricing) Breakdown(subtotal decimal.Decimal) Breakdown {
	fee := decimal.Zero
	if subtotal.IsPositive() {
		fee = p.DeliveryFee
	}
	tax := subtotal.Mul(p.TaxRate)

	return Breakdown{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}

// Rounded rounds every figure once, from its full precision value, to 2 decimals.
// The total is not re-derived from the rounded parts.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		Subtotal:    b.Subtotal.Round(displayPlaces),
		DeliveryFee: b.DeliveryFee.Round(displayPlaces),
		Tax:         b.Tax.Round(displayPlaces),
		Total:       b.Total.Round(displayPlaces),
	}
}
