package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository persists placed orders keyed by order ID.
// Save is idempotent: saving an existing ID leaves the stored order untouched.
// Only the status may change afterwards, one forward step at a time.
type OrderRepository interface {
	Save(ctx context.Context, order models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// InMemoryOrderRepository implements OrderRepository with in-memory storage
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

// NewInMemoryOrderRepository creates an empty in-memory order store
func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Save stores a copy of the order
func (r *InMemoryOrderRepository) Save(ctx context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return nil
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

// Get returns an order by its ID
func (r *InMemoryOrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	clone := order.Clone()
	return &clone, nil
}

// ListByUser returns the user's orders, newest first
func (r *InMemoryOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, order.Clone())
		}
	}
	SortNewestFirst(orders)
	return orders, nil
}

// UpdateStatus moves the order to status if that is its next state
func (r *InMemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, exists := r.orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	if !models.CanTransition(order.Status, status) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, order.Status, status)
	}
	order.Status = status
	r.orders[id] = order
	return nil
}

// SortNewestFirst orders by creation time descending, ties broken by ID
func SortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
