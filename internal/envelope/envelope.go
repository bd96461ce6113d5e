// Package envelope decodes the two response shapes the remote APIs use: a
// direct JSON object, or an API-gateway passthrough of the form
// {"statusCode": 200, "body": "<json>"} whose body may also be an object.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ashendes/storefront/internal/models"
)

// ErrMalformed is returned when the outer document is not a JSON object
var ErrMalformed = errors.New("malformed response body")

// Shape tags which envelope a payload arrived in
type Shape int

const (
	ShapeDirect Shape = iota
	ShapeProxied
)

func (s Shape) String() string {
	if s == ShapeProxied {
		return "proxied"
	}
	return "direct"
}

// Envelope is a decoded response. Payload is always a JSON object.
type Envelope struct {
	Shape Shape
	// StatusCode is the status carried inside a proxied envelope, 0 otherwise
	StatusCode int
	Payload    json.RawMessage
}

// Decode unwraps raw. marker names the field that marks a direct payload;
// when the outer object carries it the body field is ignored. A proxied body
// that fails to parse yields the outer object as a direct payload so callers
// still see any top-level error fields.
func Decode(raw []byte, marker string) (Envelope, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &outer); err != nil || outer == nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	direct := Envelope{Shape: ShapeDirect, Payload: raw}
	if _, ok := outer[marker]; ok && marker != "" {
		return direct, nil
	}

	body, ok := outer["body"]
	if !ok {
		return direct, nil
	}

	inner, ok := unwrapBody(body)
	if !ok {
		return direct, nil
	}

	env := Envelope{Shape: ShapeProxied, Payload: inner}
	if sc, ok := outer["statusCode"]; ok {
		var code int
		if err := json.Unmarshal(sc, &code); err == nil {
			env.StatusCode = code
		}
	}
	return env, nil
}

func unwrapBody(body json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, false
		}
		inner := bytes.TrimSpace([]byte(s))
		if !isObject(inner) {
			return nil, false
		}
		return inner, true
	case '{':
		if !isObject(trimmed) {
			return nil, false
		}
		return trimmed, true
	default:
		return nil, false
	}
}

func isObject(b []byte) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(b, &m) == nil && m != nil
}

// Into decodes the payload into v
func (e Envelope) Into(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Shape, err)
	}
	return nil
}

// EffectiveStatus prefers the status carried inside a proxied envelope
func (e Envelope) EffectiveStatus(transport int) int {
	if e.Shape == ShapeProxied && e.StatusCode != 0 {
		return e.StatusCode
	}
	return transport
}

// Proxy wraps v in the gateway passthrough shape
func Proxy(statusCode int, v interface{}) (models.GatewayResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return models.GatewayResponse{}, fmt.Errorf("marshal proxied body: %w", err)
	}
	return models.GatewayResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
