package model

import (
	"fmt"
	"math"
)

// All amounts in this module are int64 paise (minor currency units).
// The QKart backend speaks whole-rupee numbers; conversion happens once
// at the client boundary so arithmetic elsewhere stays integral.

// PaisePerRupee is the minor-unit scale for INR.
const PaisePerRupee = 100

// FromRupees converts a rupee amount (possibly fractional) to paise.
// Examples: 100 → 10000, 49.5 → 4950
func FromRupees(r float64) int64 {
	return int64(math.Round(r * PaisePerRupee))
}

// Rupees converts paise back to a rupee amount for display.
func Rupees(p int64) float64 {
	return float64(p) / PaisePerRupee
}

// WholeRupees truncates paise down to the whole-rupee part, in paise.
// Mirrors integer-truncating balance arithmetic: 10150 → 10100.
func WholeRupees(p int64) int64 {
	if p < 0 {
		return -WholeRupees(-p)
	}
	return (p / PaisePerRupee) * PaisePerRupee
}

// FormatINR renders paise as a display string, omitting the paise part
// when the amount is a whole number of rupees.
// Examples: 10000 → "₹100", 4950 → "₹49.50"
func FormatINR(p int64) string {
	if p%PaisePerRupee == 0 {
		return fmt.Sprintf("₹%d", p/PaisePerRupee)
	}
	return fmt.Sprintf("₹%.2f", Rupees(p))
}
