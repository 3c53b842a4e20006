package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

type cartSnapshotRepository struct {
	client redis.UniversalClient
	key    string
}

// NewCartSnapshotRepository stores the cart as one JSON array under key, with no expiry.
func NewCartSnapshotRepository(client redis.UniversalClient, key string) repository.CartSnapshotRepository {
	return &cartSnapshotRepository{
		client: client,
		key:    key,
	}
}

func (r *cartSnapshotRepository) Load(ctx context.Context) (entity.Cart, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.Cart{}, nil
		}
		return nil, fmt.Errorf("failed to get cart snapshot %s from redis: %w", r.key, err)
	}

	var cart entity.Cart
	if err := json.Unmarshal(val, &cart); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", repository.ErrCorruptSnapshot, r.key, err)
	}
	if cart == nil {
		cart = entity.Cart{}
	}
	return cart, nil
}

func (r *cartSnapshotRepository) Save(ctx context.Context, cart entity.Cart) error {
	if cart == nil {
		cart = entity.Cart{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cart snapshot %s to redis: %w", r.key, err)
	}
	return nil
}

func (r *cartSnapshotRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrConnectionFailed, err)
	}
	return nil
}
