package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/go-redis/redis/v8"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

// ProfileRepository fetches and updates user profile records
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Put(ctx context.Context, profile models.Profile) error
}

// InMemoryProfileRepository implements ProfileRepository with in-memory storage
type InMemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

// NewInMemoryProfileRepository creates an empty profile store
func NewInMemoryProfileRepository() *InMemoryProfileRepository {
	return &InMemoryProfileRepository{
		profiles: make(map[string]models.Profile),
	}
}

// Get returns the profile of a user
func (r *InMemoryProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[userID]
	if !exists {
		return nil, ErrProfileNotFound
	}
	profile.FavoriteVendors = append([]string(nil), profile.FavoriteVendors...)
	return &profile, nil
}

// Put creates or replaces a profile
func (r *InMemoryProfileRepository) Put(ctx context.Context, profile models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile.FavoriteVendors = append([]string(nil), profile.FavoriteVendors...)
	r.profiles[profile.UserID] = profile
	return nil
}

// RedisProfileRepository stores profiles as JSON at <ns>:profile:<userID>
type RedisProfileRepository struct {
	client    *redis.Client
	namespace string
}

// NewRedisProfileRepository wraps an existing client
func NewRedisProfileRepository(client *redis.Client, namespace string) *RedisProfileRepository {
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}
	return &RedisProfileRepository{
		client:    client,
		namespace: namespace,
	}
}

func (r *RedisProfileRepository) key(userID string) string {
	return fmt.Sprintf("%s:profile:%s", r.namespace, userID)
}

// Get returns the profile of a user
func (r *RedisProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// Put creates or replaces a profile
func (r *RedisProfileRepository) Put(ctx context.Context, profile models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := r.client.Set(ctx, r.key(profile.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.UserID, err)
	}
	return nil
}
