// Package basket owns the in-progress cart, prices it and turns it into orders.
package basket

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyBasket = errors.New("basket is empty")
)

const (
	// DefaultPaymentMethod is used when checkout does not name one
	DefaultPaymentMethod = "Cash"
	// DefaultEstimatedTime is shown when the vendor has no estimate
	DefaultEstimatedTime = "10–15 min"
)

// PickupEstimator looks up the preparation estimate for a vendor
type PickupEstimator interface {
	EstimatedTime(vendorName string) string
}

// Basket holds the cart lines of one user.
// At most one line exists per (item id, vendor name).
type Basket struct {
	mu    sync.Mutex
	lines []models.CartLine

	pricing   Pricing
	codes     *CodeGenerator
	estimator PickupEstimator
	now       func() time.Time
	newID     func() (string, error)
}

// Option configures a Basket
type Option func(*Basket)

// WithPricing overrides the delivery fee and tax rate
func WithPricing(p Pricing) Option {
	return func(b *Basket) {
		b.pricing = p
	}
}

// WithCodeGenerator sets the pickup code source
func WithCodeGenerator(g *CodeGenerator) Option {
	return func(b *Basket) {
		b.codes = g
	}
}

// WithEstimator sets the vendor pickup time lookup
func WithEstimator(e PickupEstimator) Option {
	return func(b *Basket) {
		b.estimator = e
	}
}

// WithClock sets the clock used for order timestamps
func WithClock(now func() time.Time) Option {
	return func(b *Basket) {
		b.now = now
	}
}

// New creates an empty basket
func New(opts ...Option) *Basket {
	b := &Basket{
		pricing: DefaultPricing(),
		now:     time.Now,
		newID:   newOrderID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// newOrderID returns a time-ordered UUID
func newOrderID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// AddItem adds one unit of item from vendorName
func (b *Basket) AddItem(item models.MenuItem, vendorName string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.lines {
		if b.lines[i].Matches(item.ID, vendorName) {
			b.lines[i].Quantity++
			return
		}
	}

	b.lines = append(b.lines, models.CartLine{
		ItemID:     item.ID,
		VendorName: vendorName,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   1,
	})
}

// DecreaseItem removes one unit from every line with itemID.
// Lines that reach zero are dropped. Unknown ids are ignored.
func (b *Basket) DecreaseItem(itemID string) {
	b.decrease(func(l models.CartLine) bool { return l.ItemID == itemID })
}

// DecreaseLine removes one unit from the line for (itemID, vendorName)
func (b *Basket) DecreaseLine(itemID, vendorName string) {
	b.decrease(func(l models.CartLine) bool { return l.Matches(itemID, vendorName) })
}

func (b *Basket) decrease(match func(models.CartLine) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.lines[:0]
	for _, line := range b.lines {
		if match(line) {
			line.Quantity--
		}
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	b.lines = kept
}

// RemoveItem deletes every line with itemID regardless of quantity
func (b *Basket) RemoveItem(itemID string) {
	b.remove(func(l models.CartLine) bool { return l.ItemID == itemID })
}

// RemoveLine deletes the line for (itemID, vendorName)
func (b *Basket) RemoveLine(itemID, vendorName string) {
	b.remove(func(l models.CartLine) bool { return l.Matches(itemID, vendorName) })
}

func (b *Basket) remove(match func(models.CartLine) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.lines[:0]
	for _, line := range b.lines {
		if !match(line) {
			kept = append(kept, line)
		}
	}
	b.lines = kept
}

// Clear empties the basket
func (b *Basket) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}

// Lines returns a copy of the cart lines in insertion order
func (b *Basket) Lines() []models.CartLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyLines(b.lines)
}

// Len returns the number of distinct lines
func (b *Basket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// IsEmpty reports whether the basket has no lines
func (b *Basket) IsEmpty() bool {
	return b.Len() == 0
}

// CartTotal returns the unrounded sum of price times quantity
func (b *Basket) CartTotal() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return subtotal(b.lines)
}

// Breakdown prices the current basket at full precision
func (b *Basket) Breakdown() Breakdown {
	return b.pricing.Breakdown(b.CartTotal())
}

// Snapshot returns the lines and their breakdown under a single lock
func (b *Basket) Snapshot() ([]models.CartLine, Breakdown) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyLines(b.lines), b.pricing.Breakdown(subtotal(b.lines))
}

// Pricing returns the constants the basket prices with
func (b *Basket) Pricing() Pricing {
	return b.pricing
}

// PlaceOrder converts the basket into a confirmed order and empties it.
// An empty basket yields ErrEmptyBasket and is left untouched.
func (b *Basket) PlaceOrder(paymentMethod, paymentDetails string) (models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) == 0 {
		return models.Order{}, ErrEmptyBasket
	}

	id, err := b.newID()
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to generate order id: %w", err)
	}

	items := copyLines(b.lines)
	vendorName := items[0].VendorName
	totals := b.pricing.Breakdown(subtotal(items)).Rounded()

	if strings.TrimSpace(paymentMethod) == "" {
		paymentMethod = DefaultPaymentMethod
	}

	order := models.Order{
		ID:             id,
		VendorName:     vendorName,
		Items:          items,
		Subtotal:       totals.Subtotal,
		DeliveryFee:    totals.DeliveryFee,
		Tax:            totals.Tax,
		Total:          totals.Total,
		Status:         models.StatusConfirmed,
		PickupCode:     b.codes.Generate(),
		PaymentMethod:  paymentMethod,
		PaymentDetails: paymentDetails,
		EstimatedTime:  b.estimatedTime(vendorName),
		CreatedAt:      b.now().UTC(),
	}

	b.lines = nil
	return order, nil
}

func (b *Basket) estimatedTime(vendorName string) string {
	if b.estimator == nil {
		return DefaultEstimatedTime
	}
	if t := b.estimator.EstimatedTime(vendorName); t != "" {
		return t
	}
	return DefaultEstimatedTime
}

func subtotal(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func copyLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}
