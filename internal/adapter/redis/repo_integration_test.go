//go:build integration

package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/repository"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClient *redis.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start Redis resource: %s", err)
	}

	cfg := config.RedisConfig{Addr: resource.GetHostPort("6379/tcp")}
	if err := pool.Retry(func() error {
		var errRetry error
		testClient, errRetry = NewClient(context.Background(), cfg)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to Redis: %s", err)
	}

	code := m.Run()

	_ = testClient.Close()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge Redis resource: %s", err)
	}
	os.Exit(code)
}

func uniqueKey(t *testing.T) string {
	return fmt.Sprintf("@RocketShoes:cart:%s:%d", t.Name(), time.Now().UnixNano())
}

func TestCartSnapshotRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCartSnapshotRepository(testClient, uniqueKey(t))

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.Cart{}, empty)

	cart := entity.Cart{
		{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Image: "https://img/1.jpg", Amount: 3},
		{ID: 2, Title: "Tênis VR Caminhada", Price: 139.9, Image: "https://img/2.jpg", Amount: 1},
	}
	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cart, loaded)

	require.NoError(t, repo.Save(ctx, entity.Cart{}))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCartSnapshotRepository_StoredFormat(t *testing.T) {
	ctx := context.Background()
	key := uniqueKey(t)
	repo := NewCartSnapshotRepository(testClient, key)

	require.NoError(t, repo.Save(ctx, entity.Cart{{ID: 1, Title: "T", Price: 10, Image: "i", Amount: 2}}))

	raw, err := testClient.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"T","price":10,"image":"i","amount":2}]`, raw)

	ttl, err := testClient.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "snapshot must not expire")
}

func TestCartSnapshotRepository_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	key := uniqueKey(t)
	require.NoError(t, testClient.Set(ctx, key, "{not json", 0).Err())

	_, err := NewCartSnapshotRepository(testClient, key).Load(ctx)
	assert.ErrorIs(t, err, repository.ErrCorruptSnapshot)
}

func TestCartSnapshotRepository_Ping(t *testing.T) {
	assert.NoError(t, NewCartSnapshotRepository(testClient, uniqueKey(t)).Ping(context.Background()))
}

func TestProductDetailCacheRepository(t *testing.T) {
	ctx := context.Background()
	cache := NewProductDetailCacheRepository(testClient)
	product := &entity.Product{ID: 4242, Title: "Tênis Adidas", Price: 219.9, Image: "https://img/4242.jpg"}

	_, err := cache.Get(ctx, product.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, cache.Set(ctx, product, time.Minute))
	got, err := cache.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product, got)

	ttl, err := testClient.TTL(ctx, productDetailKey(product.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Delete(ctx, product.ID))
	_, err = cache.Get(ctx, product.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
