package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/go-redis/redis/v8"
)

// DefaultRedisNamespace prefixes every key written by the Redis stores
const DefaultRedisNamespace = "campusqueue"

// RedisOrderRepository stores orders as JSON documents.
//
// Key layout:
//
//	<ns>:order:<id>              order JSON
//	<ns>:user:<userID>:orders    sorted set of order IDs scored by creation time
type RedisOrderRepository struct {
	client    *redis.Client
	namespace string
}

// NewRedisOrderRepository wraps an existing client
func NewRedisOrderRepository(client *redis.Client, namespace string) *RedisOrderRepository {
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}
	return &RedisOrderRepository{
		client:    client,
		namespace: namespace,
	}
}

// NewRedisClient parses a redis:// URL and checks the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (r *RedisOrderRepository) orderKey(id string) string {
	return fmt.Sprintf("%s:order:%s", r.namespace, id)
}

func (r *RedisOrderRepository) userOrdersKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:orders", r.namespace, userID)
}

// Save writes the order once; later saves of the same ID keep the first document
func (r *RedisOrderRepository) Save(ctx context.Context, order models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, r.orderKey(order.ID), data, 0)
		pipe.ZAdd(ctx, r.userOrdersKey(order.UserID), &redis.Z{
			Score:  float64(order.CreatedAt.UnixNano()),
			Member: order.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	return nil
}

// Get returns an order by its ID
func (r *RedisOrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	data, err := r.client.Get(ctx, r.orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return decodeOrder(data)
}

// ListByUser returns the user's orders, newest first
func (r *RedisOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	ids, err := r.client.ZRevRange(ctx, r.userOrdersKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}

	orders := make([]models.Order, 0, len(ids))
	if len(ids) == 0 {
		return orders, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.orderKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for user %s: %w", userID, err)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		order, err := decodeOrder([]byte(s))
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// UpdateStatus moves the order forward under optimistic locking
func (r *RedisOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	key := r.orderKey(id)

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load order %s: %w", id, err)
		}

		order, err := decodeOrder(data)
		if err != nil {
			return err
		}
		if !models.CanTransition(order.Status, status) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, order.Status, status)
		}
		order.Status = status

		updated, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("failed to encode order: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)
}

func decodeOrder(data []byte) (*models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &order, nil
}
