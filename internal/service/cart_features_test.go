package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/notify"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/platform/logger"
	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type catalogue struct {
	products map[int]entity.Product
	stock    map[int]int
}

func (c *catalogue) GetStock(_ context.Context, productID int) (entity.Stock, error) {
	amount, ok := c.stock[productID]
	if !ok {
		return entity.Stock{}, fmt.Errorf("stock %d: not found", productID)
	}
	return entity.Stock{ID: productID, Amount: amount}, nil
}

func (c *catalogue) GetProduct(_ context.Context, productID int) (entity.Product, error) {
	p, ok := c.products[productID]
	if !ok {
		return entity.Product{}, fmt.Errorf("product %d: not found", productID)
	}
	return p, nil
}

type cartTestContext struct {
	catalogue *catalogue
	repo      *memorySnapshotRepository
	sink      *noticeSink
	store     CartStore
}

func (c *cartTestContext) reset() {
	c.catalogue = &catalogue{products: map[int]entity.Product{}, stock: map[int]int{}}
	c.repo = &memorySnapshotRepository{}
	c.sink = &noticeSink{}
	c.store = nil
}

func (c *cartTestContext) open() error {
	store, err := NewCartStore(context.Background(), c.repo, c.catalogue, nil, c.sink, logger.NewNop(), nil, CartStoreConfig{})
	if err != nil {
		return err
	}
	c.store = store
	return nil
}

func (c *cartTestContext) theStorefrontSellsProduct(id int, title string, price float64, stock int) error {
	c.catalogue.products[id] = entity.Product{ID: id, Title: title, Price: price, Image: fmt.Sprintf("https://img/%d.jpg", id)}
	c.catalogue.stock[id] = stock
	return nil
}

func (c *cartTestContext) anEmptyCart() error {
	return c.open()
}

func (c *cartTestContext) iAddProduct(id int) error {
	c.store.AddProduct(context.Background(), id)
	return nil
}

func (c *cartTestContext) iAddProductTimes(id, times int) error {
	for i := 0; i < times; i++ {
		c.store.AddProduct(context.Background(), id)
	}
	return nil
}

func (c *cartTestContext) iRemoveProduct(id int) error {
	c.store.RemoveProduct(context.Background(), id)
	return nil
}

func (c *cartTestContext) iSetTheAmountOfProductTo(id, amount int) error {
	c.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: id, Amount: amount})
	return nil
}

func (c *cartTestContext) theStoreRestarts() error {
	return c.open()
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.store.Cart()); got != n {
		return fmt.Errorf("expected %d line(s), got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) productHasAmount(id, amount int) error {
	if got := c.store.Cart().AmountOf(id); got != amount {
		return fmt.Errorf("expected product %d at amount %d, got %d", id, amount, got)
	}
	return nil
}

func (c *cartTestContext) productIsNotInTheCart(id int) error {
	if c.store.Cart().Contains(id) {
		return fmt.Errorf("product %d is still in the cart", id)
	}
	return nil
}

func (c *cartTestContext) noNoticeWasRaised() error {
	return c.noticesWereRaised(0)
}

func (c *cartTestContext) noticesWereRaised(n int) error {
	if got := len(c.sink.kinds()); got != n {
		return fmt.Errorf("expected %d notice(s), got %d: %v", n, got, c.sink.kinds())
	}
	return nil
}

func (c *cartTestContext) exactlyNoticeOfKindWasRaised(n int, kind string) error {
	count := 0
	for _, k := range c.sink.kinds() {
		if k == notify.Kind(kind) {
			count++
		}
	}
	if count != n || len(c.sink.kinds()) != n {
		return fmt.Errorf("expected %d %q notice(s), got %v", n, kind, c.sink.kinds())
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(total string) error {
	want, err := decimal.NewFromString(total)
	if err != nil {
		return err
	}
	if got := c.store.Summary().Total; !got.Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the storefront sells product (\d+) "([^"]*)" at (\d+\.\d+) with (\d+) in stock$`, tc.theStorefrontSellsProduct)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)

	// When steps
	ctx.Step(`^I add product (\d+)$`, tc.iAddProduct)
	ctx.Step(`^I add product (\d+) (\d+) times$`, tc.iAddProductTimes)
	ctx.Step(`^I remove product (\d+)$`, tc.iRemoveProduct)
	ctx.Step(`^I set the amount of product (\d+) to (-?\d+)$`, tc.iSetTheAmountOfProductTo)
	ctx.Step(`^the store restarts$`, tc.theStoreRestarts)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^product (\d+) has amount (\d+)$`, tc.productHasAmount)
	ctx.Step(`^product (\d+) is not in the cart$`, tc.productIsNotInTheCart)
	ctx.Step(`^no notice was raised$`, tc.noNoticeWasRaised)
	ctx.Step(`^(\d+) notices were raised$`, tc.noticesWereRaised)
	ctx.Step(`^exactly (\d+) "([^"]*)" notice was raised$`, tc.exactlyNoticeOfKindWasRaised)
	ctx.Step(`^the cart total is (\d+\.\d+)$`, tc.theCartTotalIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
