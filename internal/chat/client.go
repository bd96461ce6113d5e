// Package chat talks to the shopping assistant's completion endpoint.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashendes/storefront/internal/envelope"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/patterns"
	"github.com/go-resty/resty/v2"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoReply      = errors.New("no reply in chat response")
	ErrUnavailable  = errors.New("chat service unavailable")
)

// Client posts the conversation to POST /chatbot
type Client struct {
	http    *resty.Client
	baseURL string
	breaker *patterns.CircuitBreakerWrapper
}

// Option configures a Client
type Option func(*Client)

// WithBreaker routes requests through cb
func WithBreaker(cb *patterns.CircuitBreakerWrapper) Option {
	return func(c *Client) { c.breaker = cb }
}

func NewClient(http *resty.Client, baseURL string, opts ...Option) *Client {
	c := &Client{http: http, baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Messages converts a transcript to completion messages. Bot turns are
// sent as assistant turns.
func Messages(history []models.ChatTurn) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history))
	for _, turn := range history {
		role := models.RoleUser
		if turn.Role == models.RoleBot || turn.Role == models.RoleAssistant {
			role = models.RoleAssistant
		}
		out = append(out, models.ChatMessage{Role: role, Content: turn.Text})
	}
	return out
}

// Ask sends history and returns the assistant's reply
func (c *Client) Ask(ctx context.Context, history []models.ChatTurn) (string, error) {
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.ask(ctx, history)
	})
	if err != nil {
		metrics.ObserveUpstream("chat", "error", start)
		return "", err
	}

	metrics.ObserveUpstream("chat", "ok", start)
	return result.(string), nil
}

func (c *Client) ask(ctx context.Context, history []models.ChatTurn) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.ChatRequest{Messages: Messages(history)}).
		Post(c.baseURL + "/chatbot")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ParseReply(resp.Body())
}

// ParseReply extracts the reply from a direct or proxied body. A body that
// is not JSON at all is itself the reply.
func ParseReply(body []byte) (string, error) {
	env, err := envelope.Decode(body, "reply")
	if err != nil {
		raw := strings.TrimSpace(string(body))
		if raw == "" {
			return "", ErrNoReply
		}
		return raw, nil
	}

	var out models.ChatResponse
	if err := env.Into(&out); err != nil || out.Reply == "" {
		return "", ErrNoReply
	}
	return out.Reply, nil
}
