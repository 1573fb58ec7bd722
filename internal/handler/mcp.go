// MCP transport handler for the storefront gateway using the official
// MCP Go SDK. Exposes the shopping flow as MCP tools so agents can
// browse, manage the cart, and place orders.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"qkart/internal/cart"
	"qkart/internal/checkout"
	"qkart/internal/model"
)

// === Tool Input/Output Types ===

// LoginInput is the input schema for the login tool.
type LoginInput struct {
	Username string `json:"username" jsonschema:"account username,required"`
	Password string `json:"password" jsonschema:"account password,required"`
}

// LoginOutput reports the established session.
type LoginOutput struct {
	Username string          `json:"username"`
	Balance  string          `json:"balance"`
	Messages []model.Message `json:"messages"`
}

// RegisterInput is the input schema for the register tool.
type RegisterInput struct {
	Username string `json:"username" jsonschema:"desired username,required"`
	Password string `json:"password" jsonschema:"desired password,required"`
}

// SearchInput is the input schema for the search_products tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"search text; empty lists the full catalog"`
}

// ProductView is a product rendered for agents.
type ProductView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    string  `json:"price"`
	Stars    float64 `json:"stars"`
}

// ProductsOutput carries a catalog listing.
type ProductsOutput struct {
	Products []ProductView   `json:"products"`
	Messages []model.Message `json:"messages"`
}

// CartItemView is a cart line rendered for agents.
type CartItemView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Subtotal  string `json:"subtotal"`
}

// CartOutput carries the reconciled cart.
type CartOutput struct {
	Items         []CartItemView  `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    string          `json:"total_value"`
	MissingIDs    []string        `json:"missing_product_ids,omitempty"`
	Messages      []model.Message `json:"messages"`
}

// CartItemInput is the input schema for cart mutation tools.
type CartItemInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID,required"`
	Quantity  int    `json:"quantity" jsonschema:"desired quantity; 0 removes the item"`
}

// AddressView is an address book entry rendered for agents.
type AddressView struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// AddressesOutput carries the address book.
type AddressesOutput struct {
	Addresses []AddressView   `json:"addresses"`
	Messages  []model.Message `json:"messages"`
}

// AddAddressInput is the input schema for the add_address tool.
type AddAddressInput struct {
	Text string `json:"text" jsonschema:"full address text,required"`
}

// AddressIDInput identifies an address book entry.
type AddressIDInput struct {
	ID string `json:"id" jsonschema:"address ID,required"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// StatusOutput reports a mutation with no domain payload.
type StatusOutput struct {
	Messages []model.Message `json:"messages"`
}

// OrderOutput reports a placed order.
type OrderOutput struct {
	Placed     bool            `json:"placed"`
	OrderID    string          `json:"order_id,omitempty"`
	NewBalance string          `json:"new_balance"`
	Messages   []model.Message `json:"messages"`
}

// NewMCPServer creates an MCP server with the shopping tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "qkart-gateway",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "QKart storefront gateway. " +
				"Use these tools to browse products, manage the cart and " +
				"address book, and place orders.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "login",
		Description: "Log in and establish the gateway session.",
	}, h.mcpLogin)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "register",
		Description: "Register a new account.",
	}, h.mcpRegister)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "logout",
		Description: "End the gateway session and clear persisted credentials.",
	}, h.mcpLogout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search the catalog. An empty query lists all products.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart with quantities, prices and totals.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart. Fails if the product is already in the cart; use update_cart_quantity instead.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_quantity",
		Description: "Set the quantity of a cart item. Zero removes it.",
	}, h.mcpUpdateCartQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_addresses",
		Description: "List the saved shipping addresses.",
	}, h.mcpListAddresses)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_address",
		Description: "Save a new shipping address.",
	}, h.mcpAddAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_address",
		Description: "Delete a saved shipping address.",
	}, h.mcpDeleteAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_address",
		Description: "Choose the shipping address for checkout.",
	}, h.mcpSelectAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "place_order",
		Description: "Validate funds and address selection, place the order, and debit the wallet.",
	}, h.mcpPlaceOrder)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpLogin(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input LoginInput,
) (*mcp.CallToolResult, *LoginOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	result, err := h.backend.Login(ctx, input.Username, input.Password)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if result == nil {
		return nil, nil, h.mcpError(model.NewInternalError(errors.New("login returned no result")))
	}
	if err := h.session.Begin(result.Token, result.Username, result.Balance); err != nil {
		return nil, nil, h.mcpError(err)
	}
	h.Notify(model.NewSuccessMessage("logged_in", "Logged in successfully"))

	return nil, &LoginOutput{
		Username: result.Username,
		Balance:  model.FormatINR(result.Balance),
		Messages: h.takeMessages(),
	}, nil
}

func (h *Handler) mcpRegister(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RegisterInput,
) (*mcp.CallToolResult, *StatusOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	if err := h.backend.Register(ctx, input.Username, input.Password); err != nil {
		return nil, nil, h.mcpError(err)
	}
	h.Notify(model.NewSuccessMessage("registered", "Registered successfully"))

	return nil, &StatusOutput{Messages: h.takeMessages()}, nil
}

func (h *Handler) mcpLogout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *StatusOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	if err := h.session.End(); err != nil {
		return nil, nil, h.mcpError(err)
	}
	h.addresses.ClearSelection()
	h.Notify(model.NewSuccessMessage("logged_out", "Logged out of application"))

	return nil, &StatusOutput{Messages: h.takeMessages()}, nil
}

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, *ProductsOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	products, err := h.catalog.Search(ctx, input.Query)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &ProductsOutput{
		Products: productViews(products),
		Messages: h.takeMessages(),
	}, nil
}

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	out, err := h.loadCart(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	out.Messages = h.takeMessages()
	return nil, out, nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CartItemInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mutateCart(ctx, input, cart.Options{PreventDuplicate: true})
}

func (h *Handler) mcpUpdateCartQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CartItemInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mutateCart(ctx, input, cart.Options{})
}

// mutateCart runs a cart mutation through the reconciling mutator and
// renders the authoritative result.
func (h *Handler) mutateCart(
	ctx context.Context,
	input CartItemInput,
	opts cart.Options,
) (*mcp.CallToolResult, *CartOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	if input.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	if input.Quantity < 0 {
		return nil, nil, fmt.Errorf("quantity must not be negative")
	}

	result, products, err := h.reconciled(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	mutator := cart.NewMutator(h.backend, h, h.logger)
	items, err := mutator.AddOrUpdate(ctx, h.session.Token(), result.Items, products,
		input.ProductID, input.Quantity, opts)
	if err != nil {
		// Failures still carry the current cart back, with the message
		out := h.cartOutput(result)
		out.Messages = h.takeMessages()
		return nil, out, nil
	}

	out := h.cartOutput(cart.Result{Items: items})
	out.Messages = h.takeMessages()
	return nil, out, nil
}

func (h *Handler) mcpListAddresses(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *AddressesOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	if !h.session.Authenticated() {
		return nil, nil, h.mcpError(model.NewUnauthorizedError("login required"))
	}
	if err := h.addresses.Refresh(ctx, h.session.Token()); err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpAddAddress(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddAddressInput,
) (*mcp.CallToolResult, *AddressesOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	if !h.session.Authenticated() {
		return nil, nil, h.mcpError(model.NewUnauthorizedError("login required"))
	}
	if err := h.addresses.Add(ctx, h.session.Token(), input.Text); err != nil {
		out := h.addressesOutput()
		return nil, out, nil
	}
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpDeleteAddress(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddressIDInput,
) (*mcp.CallToolResult, *AddressesOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	if !h.session.Authenticated() {
		return nil, nil, h.mcpError(model.NewUnauthorizedError("login required"))
	}
	if err := h.addresses.Delete(ctx, h.session.Token(), input.ID); err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpSelectAddress(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddressIDInput,
) (*mcp.CallToolResult, *AddressesOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	if err := h.addresses.Select(input.ID); err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpPlaceOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, *OrderOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takeMessages()

	result, _, err := h.reconciled(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	processor := checkout.New(checkout.Config{
		Backend:  h.backend,
		Session:  h.session,
		Notifier: h,
		Rounding: h.rounding,
		Logger:   h.logger,
	})

	book := h.addresses.Book()
	confirmation, err := processor.Perform(ctx, result.Items, &book)
	if err != nil {
		return nil, &OrderOutput{
			NewBalance: model.FormatINR(h.session.Balance()),
			Messages:   h.takeMessages(),
		}, nil
	}

	return nil, &OrderOutput{
		Placed:     confirmation.Success,
		OrderID:    confirmation.OrderID,
		NewBalance: model.FormatINR(h.session.Balance()),
		Messages:   h.takeMessages(),
	}, nil
}

// mcpError converts component errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

// productViews renders products for the wire.
func productViews(products []model.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, ProductView{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    model.FormatINR(p.Price),
			Stars:    p.Rating.Stars(),
		})
	}
	return views
}

// addressesOutput renders the address book for the wire.
func (h *Handler) addressesOutput() *AddressesOutput {
	book := h.addresses.Book()
	views := make([]AddressView, 0, len(book.Entries))
	for _, e := range book.Entries {
		views = append(views, AddressView{
			ID:       e.ID,
			Text:     e.Text,
			Selected: e.ID == book.SelectedID,
		})
	}
	return &AddressesOutput{Addresses: views, Messages: h.takeMessages()}
}
