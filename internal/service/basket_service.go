package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Lixing-Zhang/campus-queue/internal/basket"
	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
)

// BasketView is the basket as shown at checkout
type BasketView struct {
	Items   []models.CartLine `json:"items"`
	Summary basket.Breakdown  `json:"summary"`
}

// BasketService keeps one basket per user.
// Baskets live in a bounded LRU; the least recently used basket is dropped when full.
type BasketService struct {
	catalog   repository.CatalogRepository
	newBasket func() *basket.Basket
	log       *slog.Logger

	mu      sync.Mutex
	baskets *lru.Cache[string, *basket.Basket]
}

// NewBasketService creates a basket service holding at most size baskets
func NewBasketService(catalog repository.CatalogRepository, size int, newBasket func() *basket.Basket, log *slog.Logger) (*BasketService, error) {
	if newBasket == nil {
		newBasket = func() *basket.Basket { return basket.New() }
	}

	cache, err := lru.NewWithEvict(size, func(userID string, b *basket.Basket) {
		log.Debug("basket evicted", "user_id", userID, "lines", b.Len())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create basket cache: %w", err)
	}

	return &BasketService{
		catalog:   catalog,
		newBasket: newBasket,
		log:       log,
		baskets:   cache,
	}, nil
}

// Basket returns the user's basket, creating an empty one on first use
func (s *BasketService) Basket(userID string) *basket.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.baskets.Get(userID); ok {
		return b
	}
	b := s.newBasket()
	s.baskets.Add(userID, b)
	return b
}

// Add puts one unit of a vendor's menu item into the user's basket
func (s *BasketService) Add(ctx context.Context, userID, vendorID, itemID string) (BasketView, error) {
	vendor, err := s.catalog.GetVendor(ctx, vendorID)
	if err != nil {
		return BasketView{}, err
	}
	item, err := s.catalog.GetMenuItem(ctx, vendorID, itemID)
	if err != nil {
		return BasketView{}, err
	}

	b := s.Basket(userID)
	b.AddItem(*item, vendor.Name)
	return view(b), nil
}

// Decrease removes one unit of itemID. An empty vendorName matches every vendor.
func (s *BasketService) Decrease(userID, itemID, vendorName string) BasketView {
	b := s.Basket(userID)
	if vendorName == "" {
		b.DecreaseItem(itemID)
	} else {
		b.DecreaseLine(itemID, vendorName)
	}
	return view(b)
}

// Remove deletes itemID regardless of quantity. An empty vendorName matches every vendor.
func (s *BasketService) Remove(userID, itemID, vendorName string) BasketView {
	b := s.Basket(userID)
	if vendorName == "" {
		b.RemoveItem(itemID)
	} else {
		b.RemoveLine(itemID, vendorName)
	}
	return view(b)
}

// Clear empties the user's basket
func (s *BasketService) Clear(userID string) BasketView {
	b := s.Basket(userID)
	b.Clear()
	return view(b)
}

// View returns the current lines and rounded totals
func (s *BasketService) View(userID string) BasketView {
	return view(s.Basket(userID))
}

func view(b *basket.Basket) BasketView {
	lines, totals := b.Snapshot()
	return BasketView{
		Items:   lines,
		Summary: totals.Rounded(),
	}
}
