package basket

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPricing_Breakdown(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name     string
		pricing  Pricing
		subtotal string
		fee      string
		tax      string
		total    string
	}{
		{"empty order has no fee", DefaultPricing(), "0", "0", "0", "0"},
		{"espresso example", DefaultPricing(), "7.00", "5.00", "0.35", "12.35"},
		{"tax never applies to delivery fee", DefaultPricing(), "100", "5", "5", "110"},
		{"eight percent variant", Pricing{DeliveryFee: DefaultDeliveryFee, TaxRate: d("0.08")}, "10", "5", "0.8", "15.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pricing.Breakdown(d(tt.subtotal))

			if !got.Subtotal.Equal(d(tt.subtotal)) {
				t.Errorf("subtotal = %s, want %s", got.Subtotal, tt.subtotal)
			}
			if !got.DeliveryFee.Equal(d(tt.fee)) {
				t.Errorf("delivery fee = %s, want %s", got.DeliveryFee, tt.fee)
			}
			if !got.Tax.Equal(d(tt.tax)) {
				t.Errorf("tax = %s, want %s", got.Tax, tt.tax)
			}
			if !got.Total.Equal(d(tt.total)) {
				t.Errorf("total = %s, want %s", got.Total, tt.total)
			}
		})
	}
}

func TestBreakdown_Rounded(t *testing.T) {
	// 3 x 1.99 = 5.97, tax 0.2985, total 11.2685
	b := DefaultPricing().Breakdown(decimal.RequireFromString("5.97"))

	if !b.Tax.Equal(decimal.RequireFromString("0.2985")) {
		t.Fatalf("unrounded tax = %s, want 0.2985", b.Tax)
	}

	r := b.Rounded()
	if r.Tax.StringFixed(2) != "0.30" {
		t.Errorf("rounded tax = %s, want 0.30", r.Tax.StringFixed(2))
	}
	if r.Total.StringFixed(2) != "11.27" {
		t.Errorf("rounded total = %s, want 11.27", r.Total.StringFixed(2))
	}
}
