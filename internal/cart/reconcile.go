// Package cart provides cart reconciliation and mutation for the storefront.
// Reconciliation joins the server-held sparse cart records against the
// product catalog to produce priced, displayable line items.
package cart

import "qkart/internal/model"

// Result holds the outcome of a reconciliation pass.
// Items is nil when the input records were absent (caller
// unauthenticated) - distinct from an empty, renderable cart.
// MissingIDs lists records whose product was not in the catalog; those
// records are dropped from Items and excluded from all totals.
type Result struct {
	Items      []model.LineItem
	MissingIDs []string
}

// Absent reports whether there was no cart to reconcile at all.
func (r Result) Absent() bool {
	return r.Items == nil
}

// Reconcile joins cart records against the catalog by product identity,
// preserving record order. Pure: inputs are never mutated and the same
// inputs always produce the same result.
//
// A record whose product is missing from the catalog is a recoverable
// inconsistency (catalog and cart are fetched separately): the record
// is dropped and reported via MissingIDs rather than producing a
// partial line item.
func Reconcile(records []model.CartRecord, catalog []model.Product) Result {
	if records == nil {
		return Result{}
	}

	byID := make(map[string]model.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	items := make([]model.LineItem, 0, len(records))
	var missing []string
	for _, rec := range records {
		product, ok := byID[rec.ProductID]
		if !ok {
			missing = append(missing, rec.ProductID)
			continue
		}
		items = append(items, model.LineItem{
			Product:  product,
			Quantity: rec.Quantity,
		})
	}

	return Result{Items: items, MissingIDs: missing}
}

// TotalValue returns the summed value of the items in paise.
// Nil or empty input yields 0. Pure and idempotent: recomputed on
// every render, never mutates its input.
func TotalValue(items []model.LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// TotalQuantity returns the summed quantity across all items,
// irrespective of price. Nil or empty input yields 0.
func TotalQuantity(items []model.LineItem) int {
	var total int
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// Contains reports whether the cart already has a line item for the
// given product. Used by the duplicate-add policy.
func Contains(items []model.LineItem, productID string) bool {
	for _, item := range items {
		if item.ID == productID {
			return true
		}
	}
	return false
}
