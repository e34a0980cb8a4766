package models

import "github.com/shopspring/decimal"

// CartLine is one (item, vendor) pairing in a basket.
// Quantity is always at least 1; a line that would drop to 0 is removed instead.
type CartLine struct {
	ItemID     string          `json:"itemId"`
	VendorName string          `json:"vendorName"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// Matches reports whether the line belongs to the composite key
func (l CartLine) Matches(itemID, vendorName string) bool {
	return l.ItemID == itemID && l.VendorName == vendorName
}

// LineTotal returns unit price times quantity, unrounded
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
