package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrBreakerOpen        = errors.New("catalog circuit breaker open")
)

// maxBodySize caps how much of a catalog response is read.
const maxBodySize = 4 << 20

// errStatusNotFound is a 404 from the API. Only the product lookup treats it as a missing product.
var errStatusNotFound = errors.New("catalog returned 404")

type Options struct {
	BaseURL string
	Timeout time.Duration
	Cache   ProductCache
	Breaker circuitbreaker.Options
	Logger  *zap.Logger
	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// Client reads products from a FakeStore-compatible REST API.
type Client struct {
	baseURL string
	http    *http.Client
	cache   ProductCache
	breaker *gobreaker.CircuitBreaker[[]byte]
	sfg     singleflight.Group // collapses identical concurrent fetches
	log     *zap.Logger
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	bo := opts.Breaker
	bo.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errStatusNotFound) || errors.Is(err, context.Canceled)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		cache:   opts.Cache,
		breaker: circuitbreaker.New[[]byte]("catalog", bo, opts.Logger),
		log:     opts.Logger,
	}
}

// FetchAllProducts returns the whole catalog, each product carrying its discount.
func (c *Client) FetchAllProducts(ctx context.Context) ([]domain.Product, error) {
	v, err := c.shared(ctx, "products", func(ctx context.Context) (interface{}, error) {
		products, err := c.cache.GetProducts(ctx)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("catalog cache get failed", zap.Error(err))
		}

		body, err := c.get(ctx, "/products")
		if errors.Is(err, errStatusNotFound) {
			return nil, fmt.Errorf("%w: GET /products returned 404", ErrCatalogUnavailable)
		}
		if err != nil {
			return nil, err
		}

		var raw []domain.Product
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: decode products: %v", ErrCatalogUnavailable, err)
		}
		products = make([]domain.Product, len(raw))
		for i, p := range raw {
			products[i] = withDiscount(p)
		}

		if err := c.cache.SetProducts(ctx, products); err != nil {
			c.log.Warn("catalog cache set failed", zap.Error(err))
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers get their own slice so sorting one listing never reorders another.
	all := v.([]domain.Product)
	out := make([]domain.Product, len(all))
	copy(out, all)
	return out, nil
}

// FetchProductByID returns ErrProductNotFound when the catalog has no such id.
func (c *Client) FetchProductByID(ctx context.Context, id int64) (domain.Product, error) {
	key := "product:" + strconv.FormatInt(id, 10)
	v, err := c.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		cached, err := c.cache.GetProduct(ctx, id)
		if err == nil {
			return *cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("catalog cache get failed", zap.Int64("product_id", id), zap.Error(err))
		}

		body, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10))
		if errors.Is(err, errStatusNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}

		// The API answers unknown ids with 200 and an empty body.
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil, ErrProductNotFound
		}

		var p domain.Product
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: decode product %d: %v", ErrCatalogUnavailable, id, err)
		}
		p = withDiscount(p)

		if err := c.cache.SetProduct(ctx, &p); err != nil {
			c.log.Warn("catalog cache set failed", zap.Int64("product_id", id), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

// FetchProductsBySearchQuery returns the products whose title contains query, ignoring case.
func (c *Client) FetchProductsBySearchQuery(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := c.FetchAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByTitle(products, query), nil
}

// shared runs fetch once for all concurrent callers of key. The fetch runs on a context
// detached from the caller so one caller giving up never fails the others; each caller
// still stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.http.Timeout)
		defer cancel()
		return fetch(fctx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, errStatusNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: GET %s returned %d", ErrCatalogUnavailable, path, resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrCatalogUnavailable, err)
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrBreakerOpen, ErrCatalogUnavailable)
	}
	if err != nil {
		c.log.Debug("catalog request failed", zap.String("path", path), zap.Error(err))
	}
	return body, err
}

func withDiscount(p domain.Product) domain.Product {
	p.Discount = pricing.Discount(p.Price)
	return p
}
