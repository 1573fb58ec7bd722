// Package qkart is the HTTP client for the QKart REST backend.
package qkart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qkart/internal/model"
	"qkart/internal/transport"
)

// API paths relative to the configured base URL.
const (
	pathProducts      = "/products"
	pathProductSearch = "/products/search"
	pathCart          = "/cart"
	pathCheckout      = "/cart/checkout"
	pathAddresses     = "/user/addresses"
	pathLogin         = "/auth/login"
	pathRegister      = "/auth/register"

	userAgent = "qkart-client/1.0"
)

// Config holds client configuration.
type Config struct {
	// BaseURL of the backend API, e.g. "https://qkart.example.com/api/v1".
	BaseURL string

	// Timeout for each request. Defaults to 30s.
	Timeout time.Duration

	// HTTPClient overrides the default client. Used by tests; when nil,
	// a client with the browser-fingerprint transport is created.
	HTTPClient *http.Client
}

// Client is the QKart backend API client. All operations take a
// context; operations on protected routes take the session's auth
// token and send it as a Bearer credential.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a backend client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Browser TLS fingerprint avoids JA3-based rate limiting on
		// CDN-fronted backends. See internal/transport.
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport.NewBrowserTransport(timeout),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// === Catalog ===

// Products fetches the full product catalog.
// A 404 from the backend means an empty catalog, not an error.
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	return c.fetchProducts(ctx, pathProducts)
}

// SearchProducts fetches the catalog filtered by a search term.
// The term is sent URL-escaped; 404 means no matches.
func (c *Client) SearchProducts(ctx context.Context, term string) ([]model.Product, error) {
	return c.fetchProducts(ctx, pathProductSearch+"?value="+url.QueryEscape(term))
}

func (c *Client) fetchProducts(ctx context.Context, path string) ([]model.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("creating products request: %w", err)
	}

	var resp []productJSON
	if err := c.do(req, &resp); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return []model.Product{}, nil
		}
		return nil, err
	}

	return toProducts(resp), nil
}

// === Cart ===

// GetCart fetches the user's cart records. Requires auth.
func (c *Client) GetCart(ctx context.Context, token string) ([]model.CartRecord, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathCart, nil, token)
	if err != nil {
		return nil, fmt.Errorf("creating cart request: %w", err)
	}

	var records []model.CartRecord
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SetCartItem posts the target quantity for a product and returns the
// backend's authoritative cart records. The backend drops the record
// when qty reaches zero.
func (c *Client) SetCartItem(ctx context.Context, token, productID string, qty int) ([]model.CartRecord, error) {
	body := &cartItemRequest{ProductID: productID, Qty: qty}

	req, err := c.newRequest(ctx, http.MethodPost, pathCart, body, token)
	if err != nil {
		return nil, fmt.Errorf("creating cart update request: %w", err)
	}

	var records []model.CartRecord
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Checkout places an order for the cart contents against the selected
// address. The backend empties the cart on success.
func (c *Client) Checkout(ctx context.Context, token, addressID string) (*model.OrderConfirmation, error) {
	body := &checkoutRequest{AddressID: addressID}

	req, err := c.newRequest(ctx, http.MethodPost, pathCheckout, body, token)
	if err != nil {
		return nil, fmt.Errorf("creating checkout request: %w", err)
	}

	var conf model.OrderConfirmation
	if err := c.do(req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// === Addresses ===

// Addresses fetches the user's full address list. Requires auth.
func (c *Client) Addresses(ctx context.Context, token string) ([]model.Address, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathAddresses, nil, token)
	if err != nil {
		return nil, fmt.Errorf("creating addresses request: %w", err)
	}

	var resp []addressJSON
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return toAddresses(resp), nil
}

// AddAddress adds a shipping address and returns the server's full
// updated list.
func (c *Client) AddAddress(ctx context.Context, token, text string) ([]model.Address, error) {
	body := &addressRequest{Address: text}

	req, err := c.newRequest(ctx, http.MethodPost, pathAddresses, body, token)
	if err != nil {
		return nil, fmt.Errorf("creating add-address request: %w", err)
	}

	var resp []addressJSON
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return toAddresses(resp), nil
}

// DeleteAddress removes a shipping address and returns the server's
// full updated list.
func (c *Client) DeleteAddress(ctx context.Context, token, addressID string) ([]model.Address, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, pathAddresses+"/"+url.PathEscape(addressID), nil, token)
	if err != nil {
		return nil, fmt.Errorf("creating delete-address request: %w", err)
	}

	var resp []addressJSON
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return toAddresses(resp), nil
}

// === Auth ===

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token    string
	Username string
	Balance  int64 // paise
}

// Login exchanges credentials for a session token and wallet balance.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := &credentialsRequest{Username: username, Password: password}

	req, err := c.newRequest(ctx, http.MethodPost, pathLogin, body, "")
	if err != nil {
		return nil, fmt.Errorf("creating login request: %w", err)
	}

	var resp loginResponseJSON
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, model.NewUnauthorizedError("login succeeded but no token returned")
	}

	return &LoginResult{
		Token:    resp.Token,
		Username: resp.Username,
		Balance:  model.FromRupees(resp.Balance),
	}, nil
}

// Register creates a new account. The backend enforces username
// uniqueness; its message is surfaced verbatim on conflict.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := &credentialsRequest{Username: username, Password: password}

	req, err := c.newRequest(ctx, http.MethodPost, pathRegister, body, "")
	if err != nil {
		return fmt.Errorf("creating register request: %w", err)
	}

	return c.do(req, nil)
}

// === HTTP helpers ===

// newRequest creates an HTTP request, attaching a Bearer token for
// protected routes when one is given.
func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, token string) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// do executes the request and decodes the response.
// Failures with a structured body become backend errors carrying the
// backend message; transport failures become unreachable errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUnreachableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewUnreachableError(err)
	}

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, body)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return model.NewUnreachableError(fmt.Errorf("parsing response: %w", err))
		}
	}

	return nil
}

// parseError converts a backend failure body to a model.APIError.
func parseError(statusCode int, body []byte) error {
	var backendErr errorJSON
	json.Unmarshal(body, &backendErr) // Best effort parse

	if backendErr.Message != "" {
		return model.NewBackendError(statusCode, backendErr.Message)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.NewUnauthorizedError("authentication failed")
	case http.StatusNotFound:
		return model.NewNotFoundError("resource")
	default:
		return model.NewBackendError(statusCode, fmt.Sprintf("backend returned status %d", statusCode))
	}
}

