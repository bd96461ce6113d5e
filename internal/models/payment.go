package models

import "time"

// Payment methods
const (
	PaymentMethodCredit = "credit"
	PaymentMethodDebit  = "debit"
)

// PaymentForm is the payment entry form. Stored copies carry a masked
// card number and no CVV.
type PaymentForm struct {
	CardNumber    string `json:"cardNumber" validate:"required,cardnumber"`
	ExpiryDate    string `json:"expiryDate" validate:"required,expiry"`
	CVVCode       string `json:"cvvCode" validate:"required,cvv"`
	CardHolder    string `json:"cardHolder" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=credit debit"`
}

// IsZero reports whether no payment data has been entered
func (p PaymentForm) IsZero() bool {
	return p == PaymentForm{}
}

// Transaction represents a payment transaction
type Transaction struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Last4     string    `json:"last4"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionStatus constants
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// ChargeRequest represents a payment charge request
type ChargeRequest struct {
	OrderID string  `json:"order_id" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Method  string  `json:"method"`
	Last4   string  `json:"last4"`
}

// ChargeResponse represents a payment charge response
type ChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}
