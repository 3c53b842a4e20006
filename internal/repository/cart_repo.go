package repository

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
)

// CartSnapshotRepository is the single durable slot holding the whole cart.
// Load returns an empty cart when nothing has been stored yet.
type CartSnapshotRepository interface {
	Load(ctx context.Context) (entity.Cart, error)
	Save(ctx context.Context, cart entity.Cart) error
	Ping(ctx context.Context) error
}
