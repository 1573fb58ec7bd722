package qkart

import (
	"math"

	"qkart/internal/model"
)

// Wire types for the QKart REST API. Amounts come back as whole-rupee
// numbers and ratings as 0-5 floats; transforms below convert them to
// the integral representations the rest of the client uses.

// productJSON is a catalog entry as the backend sends it.
type productJSON struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`   // whole rupees
	Rating   float64 `json:"rating"` // 0-5, half steps
	Image    string  `json:"image"`
}

// addressJSON is one shipping address entry on the wire.
type addressJSON struct {
	ID      string `json:"_id"`
	Address string `json:"address"`
}

// errorJSON is the backend's structured failure body.
type errorJSON struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// cartItemRequest is the body of POST /cart.
type cartItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// addressRequest is the body of POST /user/addresses.
type addressRequest struct {
	Address string `json:"address"`
}

// checkoutRequest is the body of POST /cart/checkout.
type checkoutRequest struct {
	AddressID string `json:"addressId"`
}

// credentialsRequest is the body of the auth endpoints.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponseJSON is the success body of POST /auth/login.
type loginResponseJSON struct {
	Success  bool    `json:"success"`
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"` // rupees
}

// === Transforms ===

func toProduct(p productJSON) model.Product {
	return model.Product{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    model.FromRupees(p.Cost),
		Rating:   model.Rating(math.Round(p.Rating * 10)),
		ImageURL: p.Image,
	}
}

func toProducts(ps []productJSON) []model.Product {
	out := make([]model.Product, len(ps))
	for i, p := range ps {
		out[i] = toProduct(p)
	}
	return out
}

func toAddresses(as []addressJSON) []model.Address {
	out := make([]model.Address, len(as))
	for i, a := range as {
		out[i] = model.Address{ID: a.ID, Text: a.Address}
	}
	return out
}
