// Package checkout gatekeeps and performs order placement.
// Validation runs locally before any network call: funds first, then
// address presence, then address selection. The first failing check
// emits exactly one warning and short-circuits.
package checkout

import (
	"context"
	"errors"
	"log/slog"

	"qkart/internal/cart"
	"qkart/internal/model"
	"qkart/internal/session"
)

// Backend is the slice of the API client the processor needs.
type Backend interface {
	// Checkout places an order for the selected address.
	Checkout(ctx context.Context, token, addressID string) (*model.OrderConfirmation, error)
}

// RoundingPolicy adjusts the remaining wallet balance after a debit.
// The observed storefront behavior truncates the balance to whole
// rupees; whether that is intentional is unclear, so the policy is
// configurable rather than silently fixed.
type RoundingPolicy func(paise int64) int64

// TruncateToRupee drops the paise remainder, matching the original
// integer-truncating behavior. This is the default.
func TruncateToRupee(paise int64) int64 {
	return model.WholeRupees(paise)
}

// ExactPaise keeps the balance exact to the paise.
func ExactPaise(paise int64) int64 {
	return paise
}

// Config holds processor dependencies.
type Config struct {
	Backend  Backend
	Session  *session.Session
	Notifier model.Notifier
	Rounding RoundingPolicy // Default: TruncateToRupee
	Logger   *slog.Logger
}

// Processor validates and performs checkout against the wallet and the
// address book.
type Processor struct {
	backend  Backend
	session  *session.Session
	notifier model.Notifier
	rounding RoundingPolicy
	logger   *slog.Logger
}

// New creates a checkout processor.
func New(cfg Config) *Processor {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = model.NopNotifier
	}
	rounding := cfg.Rounding
	if rounding == nil {
		rounding = TruncateToRupee
	}
	return &Processor{
		backend:  cfg.Backend,
		session:  cfg.Session,
		notifier: notifier,
		rounding: rounding,
		logger:   cfg.Logger,
	}
}

// Validate checks whether an order can be placed. Checks run in order
// and the first failure emits exactly one warning:
//
//  1. wallet balance covers the cart total
//  2. the address book has at least one entry
//  3. an address is selected
func (p *Processor) Validate(items []model.LineItem, book *model.AddressBook) bool {
	if p.session.Balance() < cart.TotalValue(items) {
		p.notifier.Notify(model.NewWarningMessage("insufficient_balance",
			"You do not have enough balance in your wallet for this purchase"))
		return false
	}

	if len(book.Entries) == 0 {
		p.notifier.Notify(model.NewWarningMessage("no_addresses",
			"Please add a new address before proceeding"))
		return false
	}

	if book.SelectedID == "" {
		p.notifier.Notify(model.NewWarningMessage("no_address_selected",
			"Please select one shipping address to proceed"))
		return false
	}

	return true
}

// Perform places the order if validation passes. On success the wallet
// is debited by the cart total, rounded per the configured policy, and
// the new balance persisted. On any failure the balance is untouched
// and the user has been notified exactly once; there is no retry.
func (p *Processor) Perform(ctx context.Context, items []model.LineItem, book *model.AddressBook) (*model.OrderConfirmation, error) {
	if !p.session.Authenticated() {
		p.notifier.Notify(model.NewWarningMessage("login_required",
			"You must be logged in to access checkout"))
		return nil, model.NewUnauthorizedError("checkout requires login")
	}

	if !p.Validate(items, book) {
		return nil, model.NewValidationError("checkout", "preconditions not met")
	}

	conf, err := p.backend.Checkout(ctx, p.session.Token(), book.SelectedID)
	if err != nil {
		p.notifier.Notify(toErrorMessage(err))
		return nil, err
	}

	total := cart.TotalValue(items)
	newBalance := p.rounding(p.session.Balance() - total)
	if err := p.session.SetBalance(newBalance); err != nil {
		// The order is already placed; a persistence failure must not
		// look like a checkout failure.
		if p.logger != nil {
			p.logger.Error("persisting wallet balance failed",
				slog.Int64("balance", newBalance),
				slog.String("error", err.Error()))
		}
	}

	p.notifier.Notify(model.NewSuccessMessage("order_placed", "Order placed successfully"))
	return conf, nil
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
