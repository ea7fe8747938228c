// Package payments tracks mobile-money payment intents. A deposit opens a
// pending intent keyed by the provider's checkout reference; the provider's
// asynchronous callback resolves it to succeeded or failed, and those
// terminal states are final.
package payments

import (
	"errors"
	"time"
)

// Status is a payment intent's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Intent is a tracked payment attempt.
type Intent struct {
	Reference string    `json:"reference"`
	Kind      string    `json:"kind"`
	Amount    float64   `json:"amount"`
	Phone     string    `json:"phone,omitempty"`
	Status    Status    `json:"status"`
	Receipt   string    `json:"receipt,omitempty"`
	Failure   string    `json:"failure,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Intent kinds.
const (
	KindMpesaDeposit  = "mpesa_deposit"
	KindMpesaWithdraw = "mpesa_withdraw"
	KindCardDeposit   = "card_deposit"
)

// Result is the client-facing view of a payment.
type Result struct {
	Status    Status  `json:"status"`
	Reference string  `json:"reference,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Receipt   string  `json:"receipt,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// ErrValidation marks client errors the HTTP layer maps to 400 responses.
var ErrValidation = errors.New("invalid request")
