package cart

import (
	"context"
	"errors"
	"log/slog"

	"qkart/internal/model"
)

// Backend is the slice of the API client the mutator needs.
type Backend interface {
	// SetCartItem posts the target quantity for a product and returns
	// the backend's authoritative cart records.
	SetCartItem(ctx context.Context, token, productID string, qty int) ([]model.CartRecord, error)
}

// Options controls add/update policy.
type Options struct {
	// PreventDuplicate aborts without a network call when the product
	// already has a line item. Set by "Add to Cart" buttons (new items
	// only); quantity steppers leave it unset.
	PreventDuplicate bool
}

// Mutator issues cart mutations and re-derives line items from the
// backend's authoritative response. All user-facing feedback goes
// through the notifier, exactly one message per failed operation.
type Mutator struct {
	backend  Backend
	notifier model.Notifier
	logger   *slog.Logger
}

// NewMutator creates a cart mutator.
func NewMutator(backend Backend, notifier model.Notifier, logger *slog.Logger) *Mutator {
	if notifier == nil {
		notifier = model.NopNotifier
	}
	return &Mutator{backend: backend, notifier: notifier, logger: logger}
}

// AddOrUpdate sends the target quantity for a product to the backend
// and returns the cart re-reconciled against the given catalog.
//
// Fails fast without any network call when token is empty, or when
// PreventDuplicate is set and the product is already in currentItems.
// Decrementing to zero is expressed by passing qty 0; the backend
// drops the record.
//
// The backend response is authoritative: the new quantity is never
// computed locally beyond what was submitted. On failure the returned
// error is already surfaced through the notifier and currentItems
// remain the caller's source of truth.
func (m *Mutator) AddOrUpdate(ctx context.Context, token string, currentItems []model.LineItem, catalog []model.Product, productID string, qty int, opts Options) ([]model.LineItem, error) {
	if token == "" {
		m.notifier.Notify(model.NewWarningMessage("login_required",
			"Login to add an item to the Cart"))
		return nil, model.NewUnauthorizedError("cart mutation requires login")
	}

	if opts.PreventDuplicate && Contains(currentItems, productID) {
		m.notifier.Notify(model.NewWarningMessage("duplicate_item",
			"Item already in cart. Use the cart sidebar to update quantity or remove item."))
		return nil, model.NewValidationError("productId", "already in cart")
	}

	records, err := m.backend.SetCartItem(ctx, token, productID, qty)
	if err != nil {
		m.notifier.Notify(toErrorMessage(err))
		return nil, err
	}

	result := Reconcile(records, catalog)
	if len(result.MissingIDs) > 0 && m.logger != nil {
		m.logger.Warn("cart records without catalog products dropped",
			slog.Any("product_ids", result.MissingIDs))
	}
	return result.Items, nil
}

// toErrorMessage maps a client error to the user-facing message:
// backend messages verbatim, anything else the generic reachability
// warning.
func toErrorMessage(err error) model.Message {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return model.NewErrorMessage(apiErr.Code, apiErr.Message)
	}
	return model.NewErrorMessage("BACKEND_UNREACHABLE",
		"Check that the backend is running, reachable and returns valid JSON.")
}
