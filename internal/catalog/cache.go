package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/domain"
)

// ProductCache is a read-through cache in front of the remote catalog.
type ProductCache interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache always misses. It is used when no Redis address is configured.
type NoopCache struct{}

func (NoopCache) GetProducts(context.Context) ([]domain.Product, error) { return nil, ErrCacheMiss }

func (NoopCache) SetProducts(context.Context, []domain.Product) error { return nil }

func (NoopCache) GetProduct(context.Context, int64) (*domain.Product, error) { return nil, ErrCacheMiss }

func (NoopCache) SetProduct(context.Context, *domain.Product) error { return nil }
