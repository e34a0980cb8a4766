package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTerminalStatus    = errors.New("order is already completed")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownStatus     = errors.New("unknown order status")
)

// OrderStatus is the fulfillment state of a placed order
type OrderStatus string

const (
	StatusConfirmed      OrderStatus = "Confirmed"
	StatusPreparing      OrderStatus = "Preparing"
	StatusReadyForPickup OrderStatus = "Ready for Pickup"
	StatusCompleted      OrderStatus = "Completed"
)

// statusSequence lists the states in the only order they may be visited
var statusSequence = []OrderStatus{
	StatusConfirmed,
	StatusPreparing,
	StatusReadyForPickup,
	StatusCompleted,
}

func (s OrderStatus) position() int {
	for i, st := range statusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known states
func (s OrderStatus) Valid() bool {
	return s.position() >= 0
}

// Terminal reports whether no further transition is possible
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted
}

// Next returns the single forward successor of s
func (s OrderStatus) Next() (OrderStatus, error) {
	pos := s.position()
	if pos < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	if pos == len(statusSequence)-1 {
		return "", ErrTerminalStatus
	}
	return statusSequence[pos+1], nil
}

// CanTransition allows exactly one forward step
func CanTransition(from, to OrderStatus) bool {
	next, err := from.Next()
	return err == nil && next == to
}

// Order is an immutable record created from a basket at checkout.
// Only Status changes after creation, and only forward.
type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId,omitempty"`
	VendorName     string          `json:"vendorName"`
	Items          []CartLine      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Status         OrderStatus     `json:"status"`
	PickupCode     string          `json:"pickupCode"`
	PaymentMethod  string          `json:"paymentMethod"`
	PaymentDetails string          `json:"paymentDetails,omitempty"`
	EstimatedTime  string          `json:"estimatedTime"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Advance moves the order one step forward
func (o *Order) Advance() error {
	next, err := o.Status.Next()
	if err != nil {
		return err
	}
	o.Status = next
	return nil
}

// Clone returns a copy that shares no item storage with o
func (o Order) Clone() Order {
	items := make([]CartLine, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

// PlaceOrderRequest is the checkout payload
type PlaceOrderRequest struct {
	PaymentMethod  string `json:"paymentMethod"`
	PaymentDetails string `json:"paymentDetails,omitempty"`
}

// AddItemRequest adds one unit of a vendor's menu item to the basket
type AddItemRequest struct {
	VendorID string `json:"vendorId"`
	ItemID   string `json:"itemId"`
}
