// Package model defines data structures shared across the QKart storefront client.
package model

// === Catalog ===

// Product is one purchasable item from the catalog.
// Immutable once fetched; identity is ID. The backend wire format
// (internal/qkart) is transformed into this type at the client boundary.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`  // unit price in paise
	Rating   Rating `json:"rating"` // 0-5 in half steps
	ImageURL string `json:"image_url,omitempty"`
}

// Rating is a product rating on a 0-5 scale with half-step granularity.
// Stored as tenths (e.g., 45 = 4.5 stars) so comparisons stay integral.
type Rating int

// Stars returns the rating as a display value out of five.
func (r Rating) Stars() float64 {
	return float64(r) / 10
}

// === Cart ===

// CartRecord is the server-held (productId, quantity) pair.
// The backend is authoritative: a quantity of zero is never stored,
// the record is removed instead.
type CartRecord struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"qty"`
}

// LineItem is a cart record enriched with full product details.
// Derived by joining CartRecord against the catalog; never fetched directly.
type LineItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns the line total in paise.
func (li LineItem) Subtotal() int64 {
	return li.Price * int64(li.Quantity)
}

// === Addresses ===

// Address is one shipping address entry.
type Address struct {
	ID   string `json:"_id"`
	Text string `json:"address"`
}

// AddressBook holds the user's addresses plus local selection state.
// SelectedID is a non-owning reference into Entries: it must match an
// existing entry's ID or be empty.
type AddressBook struct {
	Entries    []Address
	SelectedID string
}

// Selected returns the selected entry, or nil if none is selected.
func (b *AddressBook) Selected() *Address {
	for i := range b.Entries {
		if b.Entries[i].ID == b.SelectedID {
			return &b.Entries[i]
		}
	}
	return nil
}

// === Orders ===

// OrderConfirmation is returned by the checkout endpoint on success.
type OrderConfirmation struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId,omitempty"`
}

// === Messages ===

// Message is user-facing feedback from a storefront operation.
// Type discriminates between error, warning, info, and success.
type Message struct {
	Type    string `json:"type"`           // "error", "warning", "info", "success"
	Code    string `json:"code,omitempty"` // e.g., "insufficient_balance", "duplicate_item"
	Content string `json:"content"`
}

// NewErrorMessage creates an error message.
func NewErrorMessage(code, content string) Message {
	return Message{Type: "error", Code: code, Content: content}
}

// NewWarningMessage creates a warning message. Warnings are emitted by
// local validation failures that never reach the network.
func NewWarningMessage(code, content string) Message {
	return Message{Type: "warning", Code: code, Content: content}
}

// NewInfoMessage creates an informational message.
func NewInfoMessage(code, content string) Message {
	return Message{Type: "info", Code: code, Content: content}
}

// NewSuccessMessage creates a success message.
func NewSuccessMessage(code, content string) Message {
	return Message{Type: "success", Code: code, Content: content}
}

// Notifier receives user-facing messages. The CLI prints them, the
// gateway folds them into tool results, tests capture them.
type Notifier interface {
	Notify(msg Message)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(msg Message)

// Notify implements Notifier.
func (f NotifierFunc) Notify(msg Message) { f(msg) }

// NopNotifier discards all messages.
var NopNotifier = NotifierFunc(func(Message) {})
