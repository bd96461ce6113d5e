package models

// CatalogItem is a purchasable entry after normalization
type CatalogItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Qty         int     `json:"qty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// InventoryListResponse is the flat listing shape served by the inventory API
type InventoryListResponse struct {
	Items []CatalogItem `json:"items"`
	Error string        `json:"error,omitempty"`
}

// GatewayResponse is the proxy passthrough shape wrapping a stringified body
type GatewayResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

// ReserveLine is one line of a reservation request
type ReserveLine struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// ReserveItemsRequest represents a request to reserve inventory
type ReserveItemsRequest struct {
	OrderID string        `json:"order_id" binding:"required"`
	Items   []ReserveLine `json:"items" binding:"required,dive"`
}

// ReserveItemsResponse represents the response after reserving items
type ReserveItemsResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Details []StockConflict `json:"details,omitempty"`
}

// ReleaseItemsRequest represents a request to release reserved inventory
type ReleaseItemsRequest struct {
	OrderID string        `json:"order_id" binding:"required"`
	Items   []ReserveLine `json:"items" binding:"required,dive"`
}

// ReleaseItemsResponse represents the response after releasing items
type ReleaseItemsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
