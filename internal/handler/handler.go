// Package handler provides the HTTP and MCP surface of the storefront gateway.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"qkart/internal/address"
	"qkart/internal/cart"
	"qkart/internal/catalog"
	"qkart/internal/checkout"
	"qkart/internal/model"
	"qkart/internal/qkart"
	"qkart/internal/session"
)

// Backend is the slice of the API client the gateway needs.
// *qkart.Client satisfies it.
type Backend interface {
	Products(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, term string) ([]model.Product, error)
	GetCart(ctx context.Context, token string) ([]model.CartRecord, error)
	SetCartItem(ctx context.Context, token, productID string, quantity int) ([]model.CartRecord, error)
	Checkout(ctx context.Context, token, addressID string) (*model.OrderConfirmation, error)
	Addresses(ctx context.Context, token string) ([]model.Address, error)
	AddAddress(ctx context.Context, token, text string) ([]model.Address, error)
	DeleteAddress(ctx context.Context, token, addressID string) ([]model.Address, error)
	Login(ctx context.Context, username, password string) (*qkart.LoginResult, error)
	Register(ctx context.Context, username, password string) error
}

// Options tunes gateway behavior.
type Options struct {
	// ExactDebit keeps paise precision when debiting the wallet.
	ExactDebit bool
}

// Handler holds dependencies for the gateway surface. Tool calls are
// serialized: the gateway fronts a single user session and the session
// store is not safe for concurrent mutation.
type Handler struct {
	backend   Backend
	session   *session.Session
	catalog   *catalog.Fetcher
	addresses *address.Manager
	rounding  checkout.RoundingPolicy
	logger    *slog.Logger

	mu sync.Mutex

	msgMu sync.Mutex
	msgs  []model.Message
}

// New creates a gateway handler around a backend and a session.
func New(backend Backend, sess *session.Session, opts Options, logger *slog.Logger) *Handler {
	h := &Handler{
		backend:  backend,
		session:  sess,
		rounding: checkout.TruncateToRupee,
		logger:   logger,
	}
	if opts.ExactDebit {
		h.rounding = checkout.ExactPaise
	}
	h.catalog = catalog.NewFetcher(backend, h, logger)
	h.addresses = address.NewManager(backend, h, logger)
	return h
}

// Notify implements model.Notifier. Components funnel their user-facing
// messages here; each tool call drains them into its response.
func (h *Handler) Notify(msg model.Message) {
	h.msgMu.Lock()
	h.msgs = append(h.msgs, msg)
	h.msgMu.Unlock()
}

// takeMessages drains the collected messages.
func (h *Handler) takeMessages() []model.Message {
	h.msgMu.Lock()
	defer h.msgMu.Unlock()
	msgs := h.msgs
	h.msgs = nil
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Read-only REST convenience endpoints
	mux.HandleFunc("GET /products", h.handleProducts)
	mux.HandleFunc("GET /cart", h.handleCart)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth responds to health checks.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProducts serves the catalog, optionally filtered by ?value=
// like the upstream search endpoint.
func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	term := r.URL.Query().Get("value")
	products, err := h.catalog.Search(r.Context(), term)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, productViews(products))
}

// handleCart serves the reconciled cart for the gateway session.
func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	out, err := h.loadCart(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError
// if present. Uses errors.As() to unwrap error chains.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	status := apiErr.StatusCode
	if status == 0 {
		status = http.StatusBadGateway
	}

	h.writeJSON(w, status, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// reconciled fetches the server cart and joins it against the catalog,
// fetching the catalog first if none is cached.
func (h *Handler) reconciled(ctx context.Context) (cart.Result, []model.Product, error) {
	if !h.session.Authenticated() {
		return cart.Result{}, nil, model.NewUnauthorizedError("login required")
	}

	products, ok := h.catalog.Cached()
	if !ok {
		var err error
		products, err = h.catalog.List(ctx)
		if err != nil {
			return cart.Result{}, nil, err
		}
	}

	records, err := h.backend.GetCart(ctx, h.session.Token())
	if err != nil {
		return cart.Result{}, nil, err
	}

	return cart.Reconcile(records, products), products, nil
}

// loadCart renders the reconciled cart for the wire.
func (h *Handler) loadCart(ctx context.Context) (*CartOutput, error) {
	result, _, err := h.reconciled(ctx)
	if err != nil {
		return nil, err
	}
	return h.cartOutput(result), nil
}

// cartOutput renders a reconcile result for the wire.
func (h *Handler) cartOutput(result cart.Result) *CartOutput {
	if len(result.MissingIDs) > 0 {
		h.logger.Warn("cart references unknown products",
			slog.Any("product_ids", result.MissingIDs))
	}
	items := make([]CartItemView, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, CartItemView{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			Price:     model.FormatINR(item.Product.Price),
			Subtotal:  model.FormatINR(item.Subtotal()),
		})
	}
	return &CartOutput{
		Items:         items,
		TotalQuantity: cart.TotalQuantity(result.Items),
		TotalValue:    model.FormatINR(cart.TotalValue(result.Items)),
		MissingIDs:    result.MissingIDs,
	}
}
