package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type cartSnapshotDocument struct {
	Key       string           `bson:"_id"`
	Items     []entity.Product `bson:"items"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

type cartSnapshotRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	key        string
}

// NewCartSnapshotRepository keeps the cart as a single document whose _id is key.
func NewCartSnapshotRepository(client *mongo.Client, cfg config.MongoDBConfig, key string) repository.CartSnapshotRepository {
	return &cartSnapshotRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		key:        key,
	}
}

func (r *cartSnapshotRepository) Load(ctx context.Context) (entity.Cart, error) {
	var doc cartSnapshotDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": r.key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.Cart{}, nil
		}
		return nil, fmt.Errorf("failed to load cart snapshot %s: %w", r.key, err)
	}
	if doc.Items == nil {
		return entity.Cart{}, nil
	}
	return entity.Cart(doc.Items), nil
}

func (r *cartSnapshotRepository) Save(ctx context.Context, cart entity.Cart) error {
	items := []entity.Product(cart)
	if items == nil {
		items = []entity.Product{}
	}
	doc := cartSnapshotDocument{
		Key:       r.key,
		Items:     items,
		UpdatedAt: time.Now().UTC(),
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": r.key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save cart snapshot %s: %w", r.key, err)
	}
	return nil
}

func (r *cartSnapshotRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrConnectionFailed, err)
	}
	return nil
}
