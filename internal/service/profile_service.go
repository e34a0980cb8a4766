package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
)

var (
	ErrInvalidEmail = errors.New("email address is not valid")
)

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"studentId"`
}

// ProfileService manages user profiles and favorite vendors
type ProfileService struct {
	profiles repository.ProfileRepository
	catalog  repository.CatalogRepository

	// serializes read-modify-write cycles on profiles
	mu sync.Mutex
}

// NewProfileService creates a new profile service
func NewProfileService(profiles repository.ProfileRepository, catalog repository.CatalogRepository) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		catalog:  catalog,
	}
}

// Get returns the user's profile. A user without a record gets an empty profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return &models.Profile{UserID: userID, FavoriteVendors: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if profile.FavoriteVendors == nil {
		profile.FavoriteVendors = []string{}
	}
	return profile, nil
}

// Update replaces the editable fields and keeps favorites
func (s *ProfileService) Update(ctx context.Context, userID string, update ProfileUpdate) (*models.Profile, error) {
	email := strings.TrimSpace(update.Email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Name = strings.TrimSpace(update.Name)
	profile.Email = email
	profile.StudentID = strings.TrimSpace(update.StudentID)

	if err := s.profiles.Put(ctx, *profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ToggleFavoriteVendor adds the vendor to favorites, or removes it when already there
func (s *ProfileService) ToggleFavoriteVendor(ctx context.Context, userID, vendorID string) (*models.Profile, error) {
	if _, err := s.catalog.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if profile.IsFavorite(vendorID) {
		kept := make([]string, 0, len(profile.FavoriteVendors))
		for _, id := range profile.FavoriteVendors {
			if id != vendorID {
				kept = append(kept, id)
			}
		}
		profile.FavoriteVendors = kept
	} else {
		profile.FavoriteVendors = append(profile.FavoriteVendors, vendorID)
	}

	if err := s.profiles.Put(ctx, *profile); err != nil {
		return nil, err
	}
	return profile, nil
}
