package models

import "time"

// CartItem is one cart line
type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category,omitempty"`
}

// LineTotal returns price times quantity
func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// CartTotal sums price*quantity over all lines
func CartTotal(items []CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// Order is the client-side record of a placed order
type Order struct {
	OrderNumber  string       `json:"orderNumber"`
	Items        []CartItem   `json:"items"`
	Subtotal     float64      `json:"subtotal"`
	ShippingFee  float64      `json:"shippingFee"`
	Total        float64      `json:"total"`
	Payment      PaymentForm  `json:"payment"`
	Shipping     ShippingForm `json:"shipping"`
	OrderDate    time.Time    `json:"orderDate"`
	Status       string       `json:"status"`
	Confirmation string       `json:"confirmation,omitempty"`
}

// SavedOrder is a cart snapshot kept for later reuse
type SavedOrder struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
}

// OrderStatus constants
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// ErrorInsufficientInventory is the error tag the order API uses for stock conflicts
const ErrorInsufficientInventory = "INSUFFICIENT_INVENTORY"

// OrderLine is one line of an order submission
type OrderLine struct {
	ID  string `json:"id" binding:"required"`
	Qty int    `json:"qty" binding:"required,gt=0"`
}

// PaymentDescriptor is the only payment data sent to the order API
type PaymentDescriptor struct {
	Method string `json:"method" binding:"required"`
	Last4  string `json:"last4" binding:"required,len=4"`
}

// ShippingDescriptor is the shipping data sent to the order API
type ShippingDescriptor struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// SubmitOrderRequest is the body of POST /order
type SubmitOrderRequest struct {
	Items    []OrderLine        `json:"items" binding:"required,min=1,dive"`
	Payment  PaymentDescriptor  `json:"payment" binding:"required"`
	Shipping ShippingDescriptor `json:"shipping" binding:"required"`
	Amount   float64            `json:"amount" binding:"required,gt=0"`

	// RequestID travels as the Idempotency-Key header, not in the body.
	// Empty means the client picks one.
	RequestID string `json:"-"`
}

// StockConflict describes one line the order API could not fill
type StockConflict struct {
	ID        string `json:"id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// SubmitOrderResponse covers every body shape the order API returns
type SubmitOrderResponse struct {
	Confirmation string          `json:"confirmation,omitempty"`
	OrderID      string          `json:"orderId,omitempty"`
	Status       string          `json:"status,omitempty"`
	Error        string          `json:"error,omitempty"`
	Message      string          `json:"message,omitempty"`
	Details      []StockConflict `json:"details,omitempty"`
	Total        float64         `json:"total,omitempty"`
}

// OrderReceipt is what a successful submission yields
type OrderReceipt struct {
	Confirmation string `json:"confirmation"`
	OrderID      string `json:"orderId,omitempty"`
	StatusCode   int    `json:"statusCode"`
	RequestID    string `json:"requestId,omitempty"`
}

// PlacedOrder is the order service's own record of an accepted order
type PlacedOrder struct {
	ID            string             `json:"orderId"`
	Confirmation  string             `json:"confirmation,omitempty"`
	Items         []OrderLine        `json:"items"`
	Payment       PaymentDescriptor  `json:"payment"`
	Shipping      ShippingDescriptor `json:"shipping"`
	Amount        float64            `json:"amount"`
	Status        string             `json:"status"`
	TransactionID string             `json:"transactionId,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}
