package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	productDetailCacheKeyPrefix = "product_detail:"
)

type productDetailCacheRepository struct {
	client redis.UniversalClient
}

func NewProductDetailCacheRepository(client redis.UniversalClient) repository.ProductDetailCache {
	return &productDetailCacheRepository{
		client: client,
	}
}

func productDetailKey(productID int) string {
	return productDetailCacheKeyPrefix + strconv.Itoa(productID)
}

func (r *productDetailCacheRepository) Get(ctx context.Context, productID int) (*entity.Product, error) {
	val, err := r.client.Get(ctx, productDetailKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product detail %d from redis: %w", productID, err)
	}

	var product entity.Product
	if err := json.Unmarshal(val, &product); err != nil {
		_ = r.Delete(ctx, productID)
		return nil, fmt.Errorf("failed to unmarshal product detail %d: %w", productID, err)
	}
	return &product, nil
}

func (r *productDetailCacheRepository) Set(ctx context.Context, product *entity.Product, ttl time.Duration) error {
	if product == nil {
		return errors.New("cannot cache nil product details")
	}
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product detail %d: %w", product.ID, err)
	}

	if err := r.client.Set(ctx, productDetailKey(product.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set product detail %d to redis: %w", product.ID, err)
	}
	return nil
}

func (r *productDetailCacheRepository) Delete(ctx context.Context, productID int) error {
	if err := r.client.Del(ctx, productDetailKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to delete product detail %d from redis: %w", productID, err)
	}
	return nil
}
