package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderStatus_Next(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		want    OrderStatus
		wantErr error
	}{
		{"confirmed to preparing", StatusConfirmed, StatusPreparing, nil},
		{"preparing to ready", StatusPreparing, StatusReadyForPickup, nil},
		{"ready to completed", StatusReadyForPickup, StatusCompleted, nil},
		{"completed is terminal", StatusCompleted, "", ErrTerminalStatus},
		{"unknown status", OrderStatus("Cancelled"), "", ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Next()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Next() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Next() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusConfirmed, StatusPreparing) {
		t.Error("expected Confirmed -> Preparing to be allowed")
	}
	if CanTransition(StatusConfirmed, StatusReadyForPickup) {
		t.Error("expected skipping a state to be rejected")
	}
	if CanTransition(StatusPreparing, StatusConfirmed) {
		t.Error("expected backwards transition to be rejected")
	}
	if CanTransition(StatusCompleted, StatusCompleted) {
		t.Error("expected no transition out of Completed")
	}
}

func TestOrder_Advance(t *testing.T) {
	order := Order{Status: StatusConfirmed}

	for _, want := range []OrderStatus{StatusPreparing, StatusReadyForPickup, StatusCompleted} {
		if err := order.Advance(); err != nil {
			t.Fatalf("Advance() unexpected error = %v", err)
		}
		if order.Status != want {
			t.Errorf("status = %q, want %q", order.Status, want)
		}
	}

	if err := order.Advance(); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("Advance() on completed order error = %v, want %v", err, ErrTerminalStatus)
	}
}

func TestOrder_Clone(t *testing.T) {
	order := Order{
		Items: []CartLine{{ItemID: "1", VendorName: "Campus Coffee Bar", Price: decimal.RequireFromString("3.50"), Quantity: 2}},
	}

	clone := order.Clone()
	clone.Items[0].Quantity = 9

	if order.Items[0].Quantity != 2 {
		t.Errorf("original quantity changed to %d", order.Items[0].Quantity)
	}
}

func TestCartLine_LineTotal(t *testing.T) {
	line := CartLine{Price: decimal.RequireFromString("3.50"), Quantity: 3}
	if !line.LineTotal().Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("LineTotal() = %s, want 10.50", line.LineTotal())
	}
}
