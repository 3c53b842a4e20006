package entity

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfStock       = errors.New("requested amount is out of stock")
	ErrProductNotInCart = errors.New("product not found in cart")
	ErrInvalidAmount    = errors.New("product amount must be at least 1")
)

// Product is a cart line. Title, Price and Image are carried through untouched.
type Product struct {
	ID     int     `json:"id" bson:"id"`
	Title  string  `json:"title" bson:"title"`
	Price  float64 `json:"price" bson:"price"`
	Image  string  `json:"image" bson:"image"`
	Amount int     `json:"amount" bson:"amount"`
}

// Stock is the availability reported by the storefront for one product.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// Cart is ordered and unique by product ID. Every method returns a new Cart
// and leaves the receiver untouched.
type Cart []Product

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Find returns the line for productID and its index, or -1 when absent.
func (c Cart) Find(productID int) (Product, int) {
	for i, p := range c {
		if p.ID == productID {
			return p, i
		}
	}
	return Product{}, -1
}

func (c Cart) Contains(productID int) bool {
	_, idx := c.Find(productID)
	return idx >= 0
}

func (c Cart) AmountOf(productID int) int {
	p, idx := c.Find(productID)
	if idx < 0 {
		return 0
	}
	return p.Amount
}

// WithProduct appends product with amount 1.
func (c Cart) WithProduct(product Product) (Cart, error) {
	if c.Contains(product.ID) {
		return nil, fmt.Errorf("product %d already in cart", product.ID)
	}
	product.Amount = 1
	out := make(Cart, len(c), len(c)+1)
	copy(out, c)
	return append(out, product), nil
}

// WithAmount sets the absolute amount of an existing line.
func (c Cart) WithAmount(productID, amount int) (Cart, error) {
	if amount < 1 {
		return nil, ErrInvalidAmount
	}
	_, idx := c.Find(productID)
	if idx < 0 {
		return nil, ErrProductNotInCart
	}
	out := c.Clone()
	out[idx].Amount = amount
	return out, nil
}

func (c Cart) Without(productID int) (Cart, error) {
	_, idx := c.Find(productID)
	if idx < 0 {
		return nil, ErrProductNotInCart
	}
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:idx]...)
	return append(out, c[idx+1:]...), nil
}

// CheckStock reports ErrOutOfStock when amount exceeds what the storefront holds.
func CheckStock(stock Stock, amount int) error {
	if amount > stock.Amount {
		return fmt.Errorf("%w: product %d wants %d, stock %d", ErrOutOfStock, stock.ID, amount, stock.Amount)
	}
	return nil
}
