// Package order submits a checkout to the remote order API and interprets
// its replies.
package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ashendes/storefront/internal/envelope"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// IdempotencyHeader carries the client-generated request id
const IdempotencyHeader = "Idempotency-Key"

const defaultConflictMessage = "Insufficient inventory"

// Client posts orders. Each submission is a single attempt; a second
// submission for the same key while one is in flight is rejected.
type Client struct {
	http        *resty.Client
	baseURL     string
	idempotency bool

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Client
type Option func(*Client)

// WithIdempotencyKeys controls whether submissions carry an Idempotency-Key header
func WithIdempotencyKeys(enabled bool) Option {
	return func(c *Client) { c.idempotency = enabled }
}

func NewClient(http *resty.Client, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:        http,
		baseURL:     baseURL,
		idempotency: true,
		inflight:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts req under the shared default key
func (c *Client) Submit(ctx context.Context, req models.SubmitOrderRequest) (models.OrderReceipt, error) {
	return c.SubmitAs(ctx, "", req)
}

// For returns a submitter whose in-flight guard is scoped to key
func (c *Client) For(key string) *Submitter {
	return &Submitter{client: c, key: key}
}

// SubmitAs posts req, guarding against concurrent submissions for key
func (c *Client) SubmitAs(ctx context.Context, key string, req models.SubmitOrderRequest) (models.OrderReceipt, error) {
	if !c.acquire(key) {
		metrics.OrdersTotal.WithLabelValues("storefront", "rejected").Inc()
		return models.OrderReceipt{}, ErrInFlight
	}
	defer c.release(key)

	start := time.Now()
	receipt, err := c.post(ctx, req)
	outcome := outcomeOf(err)
	metrics.ObserveUpstream("order", outcome, start)
	metrics.OrdersTotal.WithLabelValues("storefront", outcome).Inc()

	fields := log.Fields{
		"items":      len(req.Items),
		"amount":     req.Amount,
		"request_id": receipt.RequestID,
		"outcome":    outcome,
	}
	if err != nil {
		log.WithFields(fields).WithError(err).Warn("Order submission failed")
	} else {
		log.WithFields(fields).WithField("confirmation", receipt.Confirmation).Info("Order submitted")
	}
	return receipt, err
}

func (c *Client) post(ctx context.Context, req models.SubmitOrderRequest) (models.OrderReceipt, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req)

	requestID := ""
	if c.idempotency {
		requestID = req.RequestID
		if requestID == "" {
			requestID = uuid.New().String()
		}
		r.SetHeader(IdempotencyHeader, requestID)
	}

	resp, err := r.Post(c.baseURL + "/order")
	if err != nil {
		return models.OrderReceipt{RequestID: requestID}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	receipt, err := Interpret(resp.StatusCode(), resp.Body())
	receipt.RequestID = requestID
	return receipt, err
}

// Interpret maps an order API response onto a receipt or one of the
// documented failures. A confirmation token means success whatever the
// status or envelope; 409 or the insufficient-inventory tag means a stock
// conflict; everything else is an APIError.
func Interpret(status int, body []byte) (models.OrderReceipt, error) {
	env, err := envelope.Decode(body, "confirmation")
	if err != nil {
		if status >= http.StatusBadRequest {
			return models.OrderReceipt{}, &APIError{StatusCode: status, Message: fmt.Sprintf("HTTP %d", status)}
		}
		return models.OrderReceipt{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	effective := env.EffectiveStatus(status)

	var resp models.SubmitOrderResponse
	if err := env.Into(&resp); err != nil {
		return models.OrderReceipt{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if resp.Confirmation != "" {
		return models.OrderReceipt{
			Confirmation: resp.Confirmation,
			OrderID:      resp.OrderID,
			StatusCode:   effective,
		}, nil
	}

	if effective == http.StatusConflict || strings.EqualFold(resp.Error, models.ErrorInsufficientInventory) {
		msg := resp.Message
		if msg == "" {
			msg = defaultConflictMessage
		}
		return models.OrderReceipt{}, &ConflictError{Message: msg, Details: resp.Details}
	}

	msg := resp.Message
	if msg == "" {
		msg = resp.Error
	}
	if msg == "" {
		if effective < http.StatusBadRequest {
			msg = "order response carried no confirmation"
		} else {
			msg = fmt.Sprintf("HTTP %d", effective)
		}
	}
	return models.OrderReceipt{}, &APIError{StatusCode: effective, Message: msg}
}

func (c *Client) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inflight[key]; busy {
		return false
	}
	c.inflight[key] = struct{}{}
	return true
}

func (c *Client) release(key string) {
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
}

func outcomeOf(err error) string {
	var conflict *ConflictError
	switch {
	case err == nil:
		return models.OrderStatusConfirmed
	case errors.As(err, &conflict):
		return "conflict"
	default:
		return models.OrderStatusFailed
	}
}

// Submitter is a Client bound to one in-flight key, usually a session id
type Submitter struct {
	client *Client
	key    string
}

func (s *Submitter) Submit(ctx context.Context, req models.SubmitOrderRequest) (models.OrderReceipt, error) {
	return s.client.SubmitAs(ctx, s.key, req)
}
