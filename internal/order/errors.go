package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ashendes/storefront/internal/models"
)

var (
	ErrInFlight          = errors.New("an order submission is already in progress")
	ErrTransport         = errors.New("order service unreachable")
	ErrMalformedResponse = errors.New("malformed order response")
)

// ConflictError reports lines the order API could not fill from stock.
// Quantities are not adjusted; the user has to reduce them.
type ConflictError struct {
	Message string
	Details []models.StockConflict
}

func (e *ConflictError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = fmt.Sprintf("%s (requested %d, available %d)", d.ID, d.Requested, d.Available)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// APIError is any other unsuccessful response. Message is the server's own
// text when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}
