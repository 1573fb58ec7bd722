package cart

import (
	"context"
	"errors"
	"testing"

	"qkart/internal/model"
)

// fakeBackend counts calls and replays a canned response.
type fakeBackend struct {
	calls   int
	records []model.CartRecord
	err     error
}

func (f *fakeBackend) SetCartItem(ctx context.Context, token, productID string, qty int) ([]model.CartRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// captureNotifier records every message it receives.
type captureNotifier struct {
	messages []model.Message
}

func (n *captureNotifier) Notify(msg model.Message) {
	n.messages = append(n.messages, msg)
}

func TestAddOrUpdate_RequiresLogin(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &captureNotifier{}
	m := NewMutator(backend, notifier, nil)

	_, err := m.AddOrUpdate(context.Background(), "", nil, nil, "A", 1, Options{})

	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
	if backend.calls != 0 {
		t.Errorf("backend calls = %d, want 0 (fail fast)", backend.calls)
	}
	if len(notifier.messages) != 1 || notifier.messages[0].Type != "warning" {
		t.Errorf("messages = %+v, want exactly one warning", notifier.messages)
	}
}

func TestAddOrUpdate_PreventDuplicateSkipsNetwork(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &captureNotifier{}
	m := NewMutator(backend, notifier, nil)

	current := []model.LineItem{{Product: model.Product{ID: "A"}, Quantity: 1}}

	_, err := m.AddOrUpdate(context.Background(), "tok", current, nil, "A", 1,
		Options{PreventDuplicate: true})

	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
	if backend.calls != 0 {
		t.Errorf("backend calls = %d, want 0", backend.calls)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("messages = %+v, want exactly one warning", notifier.messages)
	}
	if notifier.messages[0].Code != "duplicate_item" {
		t.Errorf("code = %s, want duplicate_item", notifier.messages[0].Code)
	}
}

func TestAddOrUpdate_UpdatesAllowedWithoutPreventDuplicate(t *testing.T) {
	// Quantity steppers update existing items; same call, flag unset.
	backend := &fakeBackend{records: []model.CartRecord{{ProductID: "A", Quantity: 2}}}
	m := NewMutator(backend, nil, nil)

	catalog := []model.Product{{ID: "A", Price: 10000}}
	current := []model.LineItem{{Product: catalog[0], Quantity: 1}}

	items, err := m.AddOrUpdate(context.Background(), "tok", current, catalog, "A", 2, Options{})
	if err != nil {
		t.Fatalf("AddOrUpdate() error = %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want 1", backend.calls)
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("items = %+v, want qty 2 from backend response", items)
	}
}

func TestAddOrUpdate_BackendResponseIsAuthoritative(t *testing.T) {
	// Backend may return records the client did not submit; the whole
	// cart state is replaced by reconcile(response, catalog).
	backend := &fakeBackend{records: []model.CartRecord{
		{ProductID: "A", Quantity: 5},
		{ProductID: "B", Quantity: 1},
	}}
	m := NewMutator(backend, nil, nil)

	catalog := []model.Product{{ID: "A", Price: 100}, {ID: "B", Price: 50}}

	items, err := m.AddOrUpdate(context.Background(), "tok", nil, catalog, "A", 5, Options{})
	if err != nil {
		t.Fatalf("AddOrUpdate() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if TotalValue(items) != 550 {
		t.Errorf("TotalValue = %d, want 550", TotalValue(items))
	}
}

func TestAddOrUpdate_BackendErrorSurfacedVerbatim(t *testing.T) {
	backend := &fakeBackend{err: model.NewBackendError(404, "Product doesn't exist")}
	notifier := &captureNotifier{}
	m := NewMutator(backend, notifier, nil)

	_, err := m.AddOrUpdate(context.Background(), "tok", nil, nil, "bogus", 1, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("messages = %+v, want exactly one", notifier.messages)
	}
	if notifier.messages[0].Content != "Product doesn't exist" {
		t.Errorf("content = %q, want backend message verbatim", notifier.messages[0].Content)
	}
}

func TestAddOrUpdate_ConnectivityErrorGenericMessage(t *testing.T) {
	backend := &fakeBackend{err: errors.New("dial tcp: connection refused")}
	notifier := &captureNotifier{}
	m := NewMutator(backend, notifier, nil)

	_, err := m.AddOrUpdate(context.Background(), "tok", nil, nil, "A", 1, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("messages = %+v, want exactly one", notifier.messages)
	}
	if notifier.messages[0].Code != "BACKEND_UNREACHABLE" {
		t.Errorf("code = %s, want BACKEND_UNREACHABLE", notifier.messages[0].Code)
	}
}

func TestAddOrUpdate_DecrementToZero(t *testing.T) {
	// qty 0 is sent as-is; the server drops the record and the
	// response comes back without it.
	backend := &fakeBackend{records: []model.CartRecord{}}
	m := NewMutator(backend, nil, nil)

	catalog := []model.Product{{ID: "A", Price: 100}}
	current := []model.LineItem{{Product: catalog[0], Quantity: 1}}

	items, err := m.AddOrUpdate(context.Background(), "tok", current, catalog, "A", 0, Options{})
	if err != nil {
		t.Fatalf("AddOrUpdate() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %+v, want empty cart", items)
	}
}
