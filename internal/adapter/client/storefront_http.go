package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/domain/entity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	endpointStock    = "stock"
	endpointProducts = "products"

	maxBodyBytes = 1 << 20
)

// StatusError is returned when the storefront answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	ProductID  int
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storefront %s/%d answered %d", e.Endpoint, e.ProductID, e.StatusCode)
}

// DecodeError is returned when a response body does not match the expected schema.
type DecodeError struct {
	Endpoint  string
	ProductID int
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("storefront %s/%d: malformed response: %v", e.Endpoint, e.ProductID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CallObserver receives the outcome of every storefront call.
type CallObserver interface {
	ObserveStorefrontCall(endpoint, outcome string, took time.Duration)
}

type StorefrontClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StorefrontClient struct {
	baseURL  *url.URL
	http     *http.Client
	tracer   trace.Tracer
	observer CallObserver
}

func NewStorefrontClient(cfg StorefrontClientConfig, observer CallObserver) (*StorefrontClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("storefront base url is not configured")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid storefront base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid storefront base url %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &StorefrontClient{
		baseURL:  base,
		http:     &http.Client{Timeout: timeout},
		tracer:   otel.Tracer("cart-service/storefront"),
		observer: observer,
	}, nil
}

func (c *StorefrontClient) GetStock(ctx context.Context, productID int) (entity.Stock, error) {
	var stock entity.Stock
	if err := c.get(ctx, endpointStock, productID, &stock); err != nil {
		return entity.Stock{}, err
	}
	if stock.ID != productID {
		return entity.Stock{}, &DecodeError{Endpoint: endpointStock, ProductID: productID, Err: fmt.Errorf("id mismatch: got %d", stock.ID)}
	}
	if stock.Amount < 0 {
		return entity.Stock{}, &DecodeError{Endpoint: endpointStock, ProductID: productID, Err: fmt.Errorf("negative amount %d", stock.Amount)}
	}
	return stock, nil
}

func (c *StorefrontClient) GetProduct(ctx context.Context, productID int) (entity.Product, error) {
	var product entity.Product
	if err := c.get(ctx, endpointProducts, productID, &product); err != nil {
		return entity.Product{}, err
	}
	if product.ID != productID {
		return entity.Product{}, &DecodeError{Endpoint: endpointProducts, ProductID: productID, Err: fmt.Errorf("id mismatch: got %d", product.ID)}
	}
	product.Amount = 0
	return product, nil
}

func (c *StorefrontClient) get(ctx context.Context, endpoint string, productID int, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "storefront.GET /"+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("product.id", productID)),
	)
	start := time.Now()
	outcome := "success"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveStorefrontCall(endpoint, outcome, time.Since(start))
		}
	}()

	target := c.baseURL.JoinPath(endpoint, strconv.Itoa(productID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("failed to build storefront request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("storefront %s/%d request failed: %w", endpoint, productID, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "bad_status"
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Endpoint: endpoint, ProductID: productID, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		outcome = "decode_error"
		return &DecodeError{Endpoint: endpoint, ProductID: productID, Err: err}
	}
	return nil
}
