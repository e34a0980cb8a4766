package service

import (
	"context"
	"strings"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
)

// CatalogService handles read-only vendor and menu lookups
type CatalogService struct {
	repo repository.CatalogRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// ListVendors returns vendors without their menus.
// A non-empty vendorType keeps only vendors of that type, ignoring case.
func (s *CatalogService) ListVendors(ctx context.Context, vendorType string) ([]models.VendorSummary, error) {
	vendors, err := s.repo.ListVendors(ctx)
	if err != nil {
		return nil, err
	}

	want := strings.TrimSpace(vendorType)
	summaries := make([]models.VendorSummary, 0, len(vendors))
	for _, v := range vendors {
		if want != "" && !strings.EqualFold(strings.TrimSpace(v.Type), want) {
			continue
		}
		summaries = append(summaries, v.Summary())
	}
	return summaries, nil
}

// GetVendor returns a vendor with its menu
func (s *CatalogService) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	return s.repo.GetVendor(ctx, id)
}
