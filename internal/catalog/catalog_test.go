package catalog

import (
	"context"
	"testing"

	"qkart/internal/model"
)

type fakeBackend struct {
	products    []model.Product
	searched    []model.Product
	err         error
	listCalls   int
	searchCalls int
	lastTerm    string
}

func (f *fakeBackend) Products(ctx context.Context) ([]model.Product, error) {
	f.listCalls++
	return f.products, f.err
}

func (f *fakeBackend) SearchProducts(ctx context.Context, term string) ([]model.Product, error) {
	f.searchCalls++
	f.lastTerm = term
	return f.searched, f.err
}

type captureNotifier struct {
	messages []model.Message
}

func (c *captureNotifier) Notify(msg model.Message) {
	c.messages = append(c.messages, msg)
}

func TestListCachesResult(t *testing.T) {
	backend := &fakeBackend{products: []model.Product{
		{ID: "p1", Name: "Sneakers", Price: 10000},
	}}
	f := NewFetcher(backend, nil, nil)

	if _, ok := f.Cached(); ok {
		t.Fatal("Cached() reported a catalog before any fetch")
	}

	products, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products = %d, want 1", len(products))
	}

	cached, ok := f.Cached()
	if !ok || len(cached) != 1 || cached[0].ID != "p1" {
		t.Fatalf("Cached() = %+v, %v; want the fetched catalog", cached, ok)
	}
}

func TestSearchEmptyTermListsAll(t *testing.T) {
	backend := &fakeBackend{products: []model.Product{{ID: "p1"}, {ID: "p2"}}}
	f := NewFetcher(backend, nil, nil)

	products, err := f.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2", len(products))
	}
	if backend.searchCalls != 0 {
		t.Errorf("search calls = %d, want 0 for empty term", backend.searchCalls)
	}
	if backend.listCalls != 1 {
		t.Errorf("list calls = %d, want 1", backend.listCalls)
	}
}

func TestSearchNoMatchesIsEmptyNotError(t *testing.T) {
	backend := &fakeBackend{searched: []model.Product{}}
	notifier := &captureNotifier{}
	f := NewFetcher(backend, notifier, nil)

	products, err := f.Search(context.Background(), "unobtainium")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("products = %d, want 0", len(products))
	}
	if len(notifier.messages) != 1 || notifier.messages[0].Type != "info" ||
		notifier.messages[0].Code != "no_products" {
		t.Errorf("messages = %+v, want one no_products info", notifier.messages)
	}
	if backend.lastTerm != "unobtainium" {
		t.Errorf("term = %q, want unobtainium", backend.lastTerm)
	}
}

func TestSearchReplacesCache(t *testing.T) {
	backend := &fakeBackend{
		products: []model.Product{{ID: "p1"}, {ID: "p2"}},
		searched: []model.Product{{ID: "p2"}},
	}
	f := NewFetcher(backend, nil, nil)

	if _, err := f.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := f.Search(context.Background(), "shoe"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	cached, ok := f.Cached()
	if !ok || len(cached) != 1 || cached[0].ID != "p2" {
		t.Fatalf("Cached() = %+v, %v; want the search result", cached, ok)
	}
}

func TestFetchFailureKeepsCacheAndNotifies(t *testing.T) {
	backend := &fakeBackend{products: []model.Product{{ID: "p1"}}}
	notifier := &captureNotifier{}
	f := NewFetcher(backend, notifier, nil)

	if _, err := f.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}

	backend.err = model.NewBackendError(500, "Something went wrong")
	if _, err := f.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	cached, ok := f.Cached()
	if !ok || len(cached) != 1 {
		t.Fatalf("Cached() = %+v, %v; want the previous catalog preserved", cached, ok)
	}
	if len(notifier.messages) != 1 || notifier.messages[0].Content != "Something went wrong" {
		t.Fatalf("messages = %+v, want one backend message verbatim", notifier.messages)
	}
}
