// Package address manages the user's shipping addresses.
// The backend owns the entry list: every mutation replaces the local
// sequence wholesale with the server's authoritative response.
// Selection is local state and is revalidated whenever entries are
// replaced, so a deleted entry can never stay selected.
package address

import (
	"context"
	"errors"
	"log/slog"

	"qkart/internal/model"
)

// Backend is the slice of the API client the manager needs.
type Backend interface {
	Addresses(ctx context.Context, token string) ([]model.Address, error)
	AddAddress(ctx context.Context, token, text string) ([]model.Address, error)
	DeleteAddress(ctx context.Context, token, addressID string) ([]model.Address, error)
}

// Manager holds the address book for one checkout-page visit.
type Manager struct {
	backend  Backend
	notifier model.Notifier
	logger   *slog.Logger
	book     model.AddressBook
}

// NewManager creates an address book manager.
func NewManager(backend Backend, notifier model.Notifier, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = model.NopNotifier
	}
	return &Manager{backend: backend, notifier: notifier, logger: logger}
}

// Book returns a copy of the current address book.
func (m *Manager) Book() model.AddressBook {
	book := m.book
	book.Entries = append([]model.Address(nil), m.book.Entries...)
	return book
}

// Refresh replaces the entry list with the backend's current state.
func (m *Manager) Refresh(ctx context.Context, token string) error {
	entries, err := m.backend.Addresses(ctx, token)
	if err != nil {
		m.notifier.Notify(toErrorMessage(err))
		return err
	}
	m.replaceEntries(entries)
	return nil
}

// Add creates a new address. An empty text fails locally with a
// warning and no network call.
func (m *Manager) Add(ctx context.Context, token, text string) error {
	if text == "" {
		m.notifier.Notify(model.NewWarningMessage("empty_address",
			"Please enter your address details"))
		return model.NewValidationError("address", "must not be empty")
	}

	entries, err := m.backend.AddAddress(ctx, token, text)
	if err != nil {
		m.notifier.Notify(toErrorMessage(err))
		return err
	}
	m.replaceEntries(entries)
	return nil
}

// Delete removes an address. The server's response replaces the entry
// list; a selection pointing at the deleted entry is cleared by
// replaceEntries.
func (m *Manager) Delete(ctx context.Context, token, addressID string) error {
	entries, err := m.backend.DeleteAddress(ctx, token, addressID)
	if err != nil {
		m.notifier.Notify(toErrorMessage(err))
		return err
	}
	m.replaceEntries(entries)
	return nil
}

// Select marks an entry as the shipping address. The id must match an
// existing entry.
func (m *Manager) Select(addressID string) error {
	for _, e := range m.book.Entries {
		if e.ID == addressID {
			m.book.SelectedID = addressID
			return nil
		}
	}
	return model.NewNotFoundError("address")
}

// ClearSelection unsets the selected address.
func (m *Manager) ClearSelection() {
	m.book.SelectedID = ""
}

// replaceEntries installs the server's entry list and revalidates the
// selection. SelectedID is a weak reference into Entries; it must
// never dangle after the list changes.
func (m *Manager) replaceEntries(entries []model.Address) {
	m.book.Entries = entries

	if m.book.SelectedID == "" {
		return
	}
	for _, e := range entries {
		if e.ID == m.book.SelectedID {
			return
		}
	}
	if m.logger != nil {
		m.logger.Debug("clearing stale address selection",
			slog.String("address_id", m.book.SelectedID))
	}
	m.book.SelectedID = ""
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
