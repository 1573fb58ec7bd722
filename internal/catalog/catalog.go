// Package catalog fetches and caches the product catalog.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"qkart/internal/model"
)

// Backend is the slice of the API client the fetcher needs.
type Backend interface {
	Products(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, term string) ([]model.Product, error)
}

// Fetcher retrieves products and remembers the last successful result,
// so cart reconciliation can join against a catalog without refetching.
type Fetcher struct {
	backend  Backend
	notifier model.Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	cached []model.Product
	loaded bool
}

// NewFetcher creates a catalog fetcher.
func NewFetcher(backend Backend, notifier model.Notifier, logger *slog.Logger) *Fetcher {
	if notifier == nil {
		notifier = model.NopNotifier
	}
	return &Fetcher{backend: backend, notifier: notifier, logger: logger}
}

// List fetches the full catalog. On success the result becomes the
// cached catalog.
func (f *Fetcher) List(ctx context.Context) ([]model.Product, error) {
	products, err := f.backend.Products(ctx)
	if err != nil {
		f.notifier.Notify(toErrorMessage(err))
		return nil, err
	}
	f.store(products)
	return products, nil
}

// Search fetches products matching term. An empty term is the full
// catalog. No results is a normal outcome, not an error; it surfaces
// as an informational message. The result becomes the cached catalog.
func (f *Fetcher) Search(ctx context.Context, term string) ([]model.Product, error) {
	if term == "" {
		return f.List(ctx)
	}
	products, err := f.backend.SearchProducts(ctx, term)
	if err != nil {
		f.notifier.Notify(toErrorMessage(err))
		return nil, err
	}
	if len(products) == 0 {
		f.notifier.Notify(model.NewInfoMessage("no_products", "No products found"))
	}
	f.store(products)
	return products, nil
}

// Cached returns the last successfully fetched catalog and whether one
// has been loaded yet.
func (f *Fetcher) Cached() ([]model.Product, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return nil, false
	}
	return append([]model.Product(nil), f.cached...), true
}

func (f *Fetcher) store(products []model.Product) {
	f.mu.Lock()
	f.cached = products
	f.loaded = true
	f.mu.Unlock()
	if f.logger != nil {
		f.logger.Debug("catalog cached", slog.Int("products", len(products)))
	}
}

func toErrorMessage(err error) model.Message {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return model.NewErrorMessage(apiErr.Code, apiErr.Message)
	}
	return model.NewErrorMessage("BACKEND_UNREACHABLE",
		"Check that the backend is running, reachable and returns valid JSON.")
}
