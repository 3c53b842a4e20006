package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/notify"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultProductCacheTTL = 5 * time.Minute

	opAddProduct          = "add_product"
	opRemoveProduct       = "remove_product"
	opUpdateProductAmount = "update_product_amount"

	outcomeSuccess       = "success"
	outcomeOutOfStock    = "out_of_stock"
	outcomeNotFound      = "not_found"
	outcomeInvalidAmount = "invalid_amount"
	outcomeFailed        = "failed"
)

// Storefront is the external stock and product catalogue.
type Storefront interface {
	GetStock(ctx context.Context, productID int) (entity.Stock, error)
	GetProduct(ctx context.Context, productID int) (entity.Product, error)
}

type Observer interface {
	ObserveMutation(operation, outcome string, took time.Duration)
	ObserveNotice(kind string)
	SetCartLines(n int)
}

type UpdateProductAmount struct {
	ProductID int `json:"productId"`
	Amount    int `json:"amount"`
}

// CartStore owns the cart of one storefront session. Mutations never return
// errors: every rejection is turned into a notice and the cart stays as it was.
type CartStore interface {
	Cart() entity.Cart
	Summary() entity.Summary
	AddProduct(ctx context.Context, productID int)
	RemoveProduct(ctx context.Context, productID int)
	UpdateProductAmount(ctx context.Context, req UpdateProductAmount)
}

type CartStoreConfig struct {
	ProductCacheTTL time.Duration
}

type cartStore struct {
	// opMu serialises whole mutations, external lookups included.
	opMu sync.Mutex
	mu   sync.RWMutex
	cart entity.Cart

	repo            repository.CartSnapshotRepository
	storefront      Storefront
	productCache    repository.ProductDetailCache
	notifier        notify.Notifier
	log             logger.Logger
	observer        Observer
	tracer          trace.Tracer
	productCacheTTL time.Duration
}

// NewCartStore restores the cart from repo. productCache and observer may be nil.
func NewCartStore(
	ctx context.Context,
	repo repository.CartSnapshotRepository,
	storefront Storefront,
	productCache repository.ProductDetailCache,
	notifier notify.Notifier,
	log logger.Logger,
	observer Observer,
	cfg CartStoreConfig,
) (CartStore, error) {
	ttl := cfg.ProductCacheTTL
	if ttl <= 0 {
		ttl = defaultProductCacheTTL
	}
	if observer == nil {
		observer = nopObserver{}
	}

	s := &cartStore{
		repo:            repo,
		storefront:      storefront,
		productCache:    productCache,
		notifier:        notifier,
		log:             log.With("component", "cart_store"),
		observer:        observer,
		tracer:          otel.Tracer("cart-service/service"),
		productCacheTTL: ttl,
	}

	cart, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrCorruptSnapshot):
		s.log.Warnf("Discarding unreadable cart snapshot, starting empty: %v", err)
		cart = entity.Cart{}
	case err != nil:
		return nil, fmt.Errorf("could not restore cart: %w", err)
	}

	s.cart = cart
	s.observer.SetCartLines(len(cart))
	s.log.Infof("Cart restored with %d product(s)", len(cart))
	return s, nil
}

func (s *cartStore) Cart() entity.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

func (s *cartStore) Summary() entity.Summary {
	return entity.Summarize(s.Cart())
}

func (s *cartStore) AddProduct(ctx context.Context, productID int) {
	s.run(ctx, opAddProduct, notify.KindAddFailed, productID, func(ctx context.Context, log logger.Logger) error {
		current := s.Cart()
		existing, idx := current.Find(productID)

		stock, err := s.storefront.GetStock(ctx, productID)
		if err != nil {
			return fmt.Errorf("could not fetch stock: %w", err)
		}

		desired := existing.Amount + 1
		if err := entity.CheckStock(stock, desired); err != nil {
			return err
		}

		var next entity.Cart
		if idx >= 0 {
			next, err = current.WithAmount(productID, desired)
		} else {
			var product entity.Product
			product, err = s.lookupProduct(ctx, log, productID)
			if err != nil {
				return err
			}
			next, err = current.WithProduct(product)
		}
		if err != nil {
			return err
		}

		if err := s.commit(ctx, next); err != nil {
			return err
		}
		log.Infof("Product %d now at amount %d", productID, desired)
		return nil
	})
}

func (s *cartStore) RemoveProduct(ctx context.Context, productID int) {
	s.run(ctx, opRemoveProduct, notify.KindRemoveFailed, productID, func(ctx context.Context, log logger.Logger) error {
		next, err := s.Cart().Without(productID)
		if err != nil {
			return err
		}
		if err := s.commit(ctx, next); err != nil {
			return err
		}
		log.Infof("Product %d removed from cart", productID)
		return nil
	})
}

func (s *cartStore) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) {
	s.run(ctx, opUpdateProductAmount, notify.KindUpdateFailed, req.ProductID, func(ctx context.Context, log logger.Logger) error {
		if req.Amount < 1 {
			return fmt.Errorf("%w: got %d", entity.ErrInvalidAmount, req.Amount)
		}
		current := s.Cart()
		if !current.Contains(req.ProductID) {
			return entity.ErrProductNotInCart
		}

		stock, err := s.storefront.GetStock(ctx, req.ProductID)
		if err != nil {
			return fmt.Errorf("could not fetch stock: %w", err)
		}
		if err := entity.CheckStock(stock, req.Amount); err != nil {
			return err
		}

		next, err := current.WithAmount(req.ProductID, req.Amount)
		if err != nil {
			return err
		}
		if err := s.commit(ctx, next); err != nil {
			return err
		}
		log.Infof("Product %d amount set to %d", req.ProductID, req.Amount)
		return nil
	})
}

// run wraps one mutation with locking, tracing, metrics and the
// error-to-notice conversion. failKind is used for everything but out-of-stock.
func (s *cartStore) run(ctx context.Context, op string, failKind notify.Kind, productID int, body func(context.Context, logger.Logger) error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "CartStore."+op,
		trace.WithAttributes(attribute.String("cart.operation", op), attribute.Int("product.id", productID)),
	)
	defer span.End()

	log := s.log.With("operation", op, "product_id", productID)
	start := time.Now()

	err := body(ctx, log)
	outcome := classify(err)
	s.observer.ObserveMutation(op, outcome, time.Since(start))
	span.SetAttributes(attribute.String("cart.outcome", outcome))

	if err == nil {
		span.SetStatus(codes.Ok, outcome)
		return
	}

	kind := failKind
	switch outcome {
	case outcomeOutOfStock:
		kind = notify.KindOutOfStock
		log.Warnf("Rejected: %v", err)
	case outcomeFailed:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("Operation failed: %v", err)
	default:
		log.Warnf("Rejected: %v", err)
	}

	s.notifier.Notify(ctx, notify.NewNotice(kind, productID))
	s.observer.ObserveNotice(string(kind))
}

// commit persists next and only then swaps it in, so a failed write leaves
// memory and storage on the previous snapshot.
func (s *cartStore) commit(ctx context.Context, next entity.Cart) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("could not persist cart: %w", err)
	}
	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()
	s.observer.SetCartLines(len(next))
	return nil
}

func (s *cartStore) lookupProduct(ctx context.Context, log logger.Logger, productID int) (entity.Product, error) {
	if s.productCache != nil {
		cached, err := s.productCache.Get(ctx, productID)
		if err == nil && cached != nil {
			log.Debugf("Product %d found in cache", productID)
			return *cached, nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Warnf("Error getting product %d from cache: %v. Fetching from storefront.", productID, err)
		}
	}

	product, err := s.storefront.GetProduct(ctx, productID)
	if err != nil {
		return entity.Product{}, fmt.Errorf("could not fetch product: %w", err)
	}

	if s.productCache != nil {
		if err := s.productCache.Set(ctx, &product, s.productCacheTTL); err != nil {
			log.Warnf("Failed to cache product %d: %v", productID, err)
		}
	}
	return product, nil
}

func classify(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, entity.ErrOutOfStock):
		return outcomeOutOfStock
	case errors.Is(err, entity.ErrProductNotInCart):
		return outcomeNotFound
	case errors.Is(err, entity.ErrInvalidAmount):
		return outcomeInvalidAmount
	default:
		return outcomeFailed
	}
}

type nopObserver struct{}

func (nopObserver) ObserveMutation(string, string, time.Duration) {}
func (nopObserver) ObserveNotice(string)                          {}
func (nopObserver) SetCartLines(int)                              {}
