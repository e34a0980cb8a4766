package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
)

var (
	ErrOrderNotPending   = errors.New("order is not awaiting persistence")
	ErrOrderNotPersisted = errors.New("order is still awaiting persistence")
)

// PersistenceError reports an order that was built but not stored.
// The order keeps its pickup code and totals so a retry never regenerates them.
type PersistenceError struct {
	Order models.Order
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order %s created locally but not yet confirmed remotely: %v", e.Order.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RetryConfig bounds the exponential backoff around order writes
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig provides sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxTries:        3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

// OrderService places orders from user baskets and persists them
type OrderService struct {
	baskets *BasketService
	orders  repository.OrderRepository
	retry   RetryConfig
	log     *slog.Logger

	mu      sync.Mutex
	pending map[string]models.Order
}

// NewOrderService creates a new order service
func NewOrderService(baskets *BasketService, orders repository.OrderRepository, retry RetryConfig, log *slog.Logger) *OrderService {
	return &OrderService{
		baskets: baskets,
		orders:  orders,
		retry:   retry,
		log:     log,
		pending: make(map[string]models.Order),
	}
}

// PlaceOrder turns the user's basket into an order and stores it.
// The basket is cleared as soon as the order is built. A failed write returns
// the order inside a *PersistenceError and keeps it pending for RetryPersist.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req models.PlaceOrderRequest) (models.Order, error) {
	order, err := s.baskets.Basket(userID).PlaceOrder(req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		return models.Order{}, err
	}
	order.UserID = userID

	s.log.Info("order placed",
		"order_id", order.ID,
		"user_id", userID,
		"vendor", order.VendorName,
		"pickup_code", order.PickupCode,
		"total", order.Total.StringFixed(2),
	)

	if err := s.persist(ctx, order); err != nil {
		s.addPending(order)
		s.log.Error("failed to persist order", "order_id", order.ID, "error", err)
		return order.Clone(), &PersistenceError{Order: order.Clone(), Err: err}
	}
	return order, nil
}

// RetryPersist stores a pending order again without rebuilding it
func (s *OrderService) RetryPersist(ctx context.Context, userID, orderID string) (models.Order, error) {
	s.mu.Lock()
	order, ok := s.pending[orderID]
	s.mu.Unlock()

	if !ok || order.UserID != userID {
		return models.Order{}, ErrOrderNotPending
	}

	if err := s.persist(ctx, order); err != nil {
		s.log.Error("retry failed to persist order", "order_id", orderID, "error", err)
		return order.Clone(), &PersistenceError{Order: order.Clone(), Err: err}
	}

	s.mu.Lock()
	delete(s.pending, orderID)
	s.mu.Unlock()

	s.log.Info("pending order persisted", "order_id", orderID)
	return order.Clone(), nil
}

// GetOrder returns one of the user's orders, pending ones included.
// The stored copy wins over a pending one with the same ID.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err == nil {
		if order.UserID != userID {
			return nil, repository.ErrOrderNotFound
		}
		return order, nil
	}

	s.mu.Lock()
	pending, ok := s.pending[orderID]
	s.mu.Unlock()

	if !ok {
		return nil, err
	}
	if pending.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	clone := pending.Clone()
	return &clone, nil
}

// ListOrders returns the user's order history, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	stored := make(map[string]bool, len(orders))
	for _, order := range orders {
		stored[order.ID] = true
	}

	s.mu.Lock()
	for id, order := range s.pending {
		if order.UserID != userID {
			continue
		}
		// a write that reported failure may still have landed
		if stored[id] {
			delete(s.pending, id)
			continue
		}
		orders = append(orders, order.Clone())
	}
	s.mu.Unlock()

	repository.SortNewestFirst(orders)
	return orders, nil
}

// AdvanceStatus applies a fulfillment event: the order moves one state forward
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) && s.isPending(orderID) {
		return nil, ErrOrderNotPersisted
	}
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.Advance(); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, order.Status); err != nil {
		return nil, err
	}

	s.log.Info("order status advanced", "order_id", orderID, "from", from, "to", order.Status)
	return order, nil
}

// PendingCount returns the number of orders awaiting persistence
func (s *OrderService) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *OrderService) isPending(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[orderID]
	return ok
}

func (s *OrderService) addPending(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[order.ID] = order.Clone()
}

func (s *OrderService) persist(ctx context.Context, order models.Order) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.InitialInterval
	b.MaxInterval = s.retry.MaxInterval

	tries := s.retry.MaxTries
	if tries == 0 {
		tries = 1
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.orders.Save(ctx, order)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
		backoff.WithMaxElapsedTime(s.retry.MaxElapsedTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Warn("order write failed, retrying", "order_id", order.ID, "retry_in", next, "error", err)
		}),
	)
	return err
}
