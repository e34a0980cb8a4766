package models

import "github.com/shopspring/decimal"

// Vendor represents a campus food outlet and its menu
type Vendor struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Time   string     `json:"time"`
	Rating float64    `json:"rating"`
	Menu   []MenuItem `json:"menu"`
}

// MenuItem represents a single item on a vendor menu.
// Items are read-only once loaded into the catalog.
type MenuItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	VendorName string          `json:"vendorName"`
}

// VendorSummary is the vendor listing without the menu
type VendorSummary struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Time   string  `json:"time"`
	Rating float64 `json:"rating"`
}

// Summary strips the menu from the vendor
func (v Vendor) Summary() VendorSummary {
	return VendorSummary{
		ID:     v.ID,
		Name:   v.Name,
		Type:   v.Type,
		Time:   v.Time,
		Rating: v.Rating,
	}
}
