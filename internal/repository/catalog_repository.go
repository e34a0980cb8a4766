package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrVendorNotFound = errors.New("vendor not found")
	ErrItemNotFound   = errors.New("menu item not found")
)

// CatalogRepository defines read access to vendors and their menus
type CatalogRepository interface {
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	GetVendor(ctx context.Context, id string) (*models.Vendor, error)
	GetMenuItem(ctx context.Context, vendorID, itemID string) (*models.MenuItem, error)
}

// InMemoryCatalogRepository keeps the vendor catalog in memory
type InMemoryCatalogRepository struct {
	mu      sync.RWMutex
	vendors map[string]models.Vendor
}

// NewInMemoryCatalogRepository creates a catalog seeded with the campus vendors
func NewInMemoryCatalogRepository() *InMemoryCatalogRepository {
	return NewCatalogFromVendors(seedVendors())
}

// NewCatalogFromVendors creates a catalog holding exactly the given vendors
func NewCatalogFromVendors(vendors []models.Vendor) *InMemoryCatalogRepository {
	r := &InMemoryCatalogRepository{
		vendors: make(map[string]models.Vendor, len(vendors)),
	}
	r.Replace(vendors)
	return r
}

// Replace swaps the whole catalog. Menu items get their vendor name stamped on.
func (r *InMemoryCatalogRepository) Replace(vendors []models.Vendor) {
	byID := make(map[string]models.Vendor, len(vendors))
	for _, v := range vendors {
		menu := make([]models.MenuItem, len(v.Menu))
		for i, item := range v.Menu {
			item.VendorName = v.Name
			menu[i] = item
		}
		v.Menu = menu
		byID[v.ID] = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.vendors = byID
}

// ListVendors returns all vendors ordered by id
func (r *InMemoryCatalogRepository) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vendors := make([]models.Vendor, 0, len(r.vendors))
	for _, v := range r.vendors {
		vendors = append(vendors, v)
	}
	sort.Slice(vendors, func(i, j int) bool {
		return vendors[i].ID < vendors[j].ID
	})
	return vendors, nil
}

// GetVendor returns a vendor by its ID
func (r *InMemoryCatalogRepository) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vendor, exists := r.vendors[id]
	if !exists {
		return nil, ErrVendorNotFound
	}
	return &vendor, nil
}

// GetMenuItem returns one item of a vendor's menu
func (r *InMemoryCatalogRepository) GetMenuItem(ctx context.Context, vendorID, itemID string) (*models.MenuItem, error) {
	vendor, err := r.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	for _, item := range vendor.Menu {
		if item.ID == itemID {
			return &item, nil
		}
	}
	return nil, ErrItemNotFound
}

// FindVendorByName matches display names ignoring case and surrounding space
func (r *InMemoryCatalogRepository) FindVendorByName(name string) (*models.Vendor, bool) {
	want := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.vendors {
		if strings.ToLower(strings.TrimSpace(v.Name)) == want {
			return &v, true
		}
	}
	return nil, false
}

// EstimatedTime returns the vendor's pickup estimate, or "" when unknown
func (r *InMemoryCatalogRepository) EstimatedTime(vendorName string) string {
	v, ok := r.FindVendorByName(vendorName)
	if !ok {
		return ""
	}
	return v.Time
}

func seedVendors() []models.Vendor {
	price := decimal.RequireFromString

	return []models.Vendor{
		{
			ID: "1", Name: "Campus Coffee Bar", Type: "Coffee & Pastries", Time: "5–10 min", Rating: 4.8,
			Menu: []models.MenuItem{
				{ID: "1", Name: "Espresso", Price: price("3.50")},
				{ID: "2", Name: "Americano", Price: price("3.50")},
				{ID: "3", Name: "Cappuccino", Price: price("4.00")},
				{ID: "4", Name: "Latte", Price: price("4.50")},
				{ID: "5", Name: "Butter Croissant", Price: price("4.25")},
			},
		},
		{
			ID: "2", Name: "The Burger Joint", Type: "Fast Food", Time: "10–15 min", Rating: 4.6,
			Menu: []models.MenuItem{
				{ID: "1", Name: "Classic Burger", Price: price("13.99")},
				{ID: "2", Name: "Cheese Burger", Price: price("14.99")},
				{ID: "3", Name: "Fries", Price: price("5.00")},
			},
		},
		{
			ID: "3", Name: "Fresh Salad Co.", Type: "Healthy", Time: "8–12 min", Rating: 4.7,
			Menu: []models.MenuItem{
				{ID: "1", Name: "Caesar Salad", Price: price("8.99")},
				{ID: "2", Name: "Greek Salad", Price: price("9.49")},
				{ID: "3", Name: "Garden Salad", Price: price("7.99")},
			},
		},
		{
			ID: "4", Name: "Pizza Paradise", Type: "Pizza & Italian", Time: "12–18 min", Rating: 4.5,
			Menu: []models.MenuItem{
				{ID: "1", Name: "Margherita Pizza", Price: price("14.99")},
				{ID: "2", Name: "Pepperoni Pizza", Price: price("16.99")},
				{ID: "3", Name: "Veggie Pizza", Price: price("15.49")},
			},
		},
	}
}
