package storefront

import (
	"errors"
	"net/http"

	"github.com/ashendes/storefront/internal/cart"
	"github.com/ashendes/storefront/internal/catalog"
	"github.com/ashendes/storefront/internal/chat"
	"github.com/ashendes/storefront/internal/checkout"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/order"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var (
	errUnknownItem     = errors.New("item not found in catalog")
	errUnknownCategory = errors.New("unknown template category")
)

const msgOrderFailed = "Failed to place order. Please try again."

// fail writes err with the status its kind maps to
func fail(c *gin.Context, err error) {
	var (
		verr     *models.ValidationError
		conflict *order.ConflictError
		apiErr   *order.APIError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})

	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, checkout.ErrIncompleteOrder),
		errors.Is(err, checkout.ErrNoPreviousStep),
		errors.Is(err, checkout.ErrUnknownStep),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, errUnknownItem),
		errors.Is(err, errUnknownCategory),
		errors.Is(err, cart.ErrSavedOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   conflict.Message,
			"code":    models.ErrorInsufficientInventory,
			"details": conflict.Details,
		})

	case errors.Is(err, order.ErrInFlight):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})

	case errors.Is(err, catalog.ErrLoadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": catalog.ErrLoadFailed.Error()})

	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message, "upstreamStatus": apiErr.StatusCode})

	case errors.Is(err, order.ErrTransport), errors.Is(err, order.ErrMalformedResponse):
		log.WithError(err).Error("Order request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": msgOrderFailed})

	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
