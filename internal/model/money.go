package model

// Money is an amount in minor units (cents) together with an ISO 4217
// three-letter uppercase currency code.  Amounts are never fractional.
type Money struct {
    Amount   int64  `json:"amount"`
    Currency string `json:"currency"`
}
