package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ashendes/storefront/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() models.SubmitOrderRequest {
	return models.SubmitOrderRequest{
		Items:    []models.OrderLine{{ID: "SKU-100", Qty: 2}},
		Payment:  models.PaymentDescriptor{Method: models.PaymentMethodCredit, Last4: "1234"},
		Shipping: models.ShippingDescriptor{Name: "Ada", Address: "1 Loop Rd, Austin, TX 73301"},
		Amount:   2059.98,
	}
}

func TestSubmit_PostsOrderAndReturnsReceipt(t *testing.T) {
	var got models.SubmitOrderRequest
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order", r.URL.Path)
		key = r.Header.Get(IdempotencyHeader)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"confirmation":"CONF-1","orderId":"o-1"}`))
	}))
	defer srv.Close()

	receipt, err := NewClient(resty.New(), srv.URL).Submit(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "CONF-1", receipt.Confirmation)
	assert.Equal(t, "o-1", receipt.OrderID)
	assert.Equal(t, http.StatusCreated, receipt.StatusCode)
	assert.NotEmpty(t, key)
	assert.Equal(t, key, receipt.RequestID)
	assert.Equal(t, sampleRequest(), got)
}

func TestSubmit_IdempotencyKeysDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(IdempotencyHeader))
		_, _ = w.Write([]byte(`{"confirmation":"CONF-2"}`))
	}))
	defer srv.Close()

	receipt, err := NewClient(resty.New(), srv.URL, WithIdempotencyKeys(false)).Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Empty(t, receipt.RequestID)
}

func TestSubmit_RetryAfterLostResponseReusesKey(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	placed := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyHeader)
		mu.Lock()
		keys = append(keys, key)
		conf, seen := placed[key]
		if !seen {
			conf = fmt.Sprintf("CONF-%d", len(placed)+1)
			placed[key] = conf
		}
		mu.Unlock()

		if !seen {
			// committed, but the reply never reaches the client
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"confirmation":"` + conf + `"}`))
	}))
	defer srv.Close()

	client := NewClient(resty.New(), srv.URL)
	req := sampleRequest()
	req.RequestID = "attempt-1"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	_, err := client.Submit(ctx, req)
	cancel()
	require.ErrorIs(t, err, ErrTransport)

	receipt, err := client.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "CONF-1", receipt.Confirmation)
	assert.Equal(t, "attempt-1", receipt.RequestID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"attempt-1", "attempt-1"}, keys)
	assert.Len(t, placed, 1)
}

func TestSubmit_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(resty.New(), url).Submit(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSubmit_RejectsConcurrentSubmissionForSameKey(t *testing.T) {
	entered := make(chan struct{}, 4)
	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-unblock
		_, _ = w.Write([]byte(`{"confirmation":"CONF-3"}`))
	}))
	defer srv.Close()

	client := NewClient(resty.New(), srv.URL)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = client.For("session-a").Submit(context.Background(), sampleRequest())
	}()
	<-entered

	_, err := client.For("session-a").Submit(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrInFlight)

	// another session is unaffected
	done := make(chan error, 1)
	go func() {
		_, err := client.For("session-b").Submit(context.Background(), sampleRequest())
		done <- err
	}()
	<-entered

	close(unblock)
	wg.Wait()
	require.NoError(t, firstErr)
	require.NoError(t, <-done)

	// the guard is released once the submission completes
	_, err = client.For("session-a").Submit(context.Background(), sampleRequest())
	assert.NoError(t, err)
}

func TestInterpret_ConfirmationMeansSuccessInAnyShape(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"direct 200":          {http.StatusOK, `{"confirmation":"C"}`},
		"direct 201":          {http.StatusCreated, `{"confirmation":"C","orderId":"o"}`},
		"proxied string":      {http.StatusOK, `{"statusCode":201,"body":"{\"confirmation\":\"C\"}"}`},
		"proxied object":      {http.StatusOK, `{"statusCode":200,"body":{"confirmation":"C"}}`},
		"confirmation wins":   {http.StatusOK, `{"confirmation":"C","error":"INSUFFICIENT_INVENTORY"}`},
		"outer marker on 202": {http.StatusAccepted, `{"confirmation":"C","body":"ignored"}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			receipt, err := Interpret(tc.status, []byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, "C", receipt.Confirmation)
		})
	}
}

func TestInterpret_ProxiedStatusOverridesTransport(t *testing.T) {
	receipt, err := Interpret(http.StatusOK, []byte(`{"statusCode":201,"body":"{\"confirmation\":\"C\"}"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, receipt.StatusCode)
}

func TestInterpret_Conflict(t *testing.T) {
	body := `{"error":"INSUFFICIENT_INVENTORY","message":"Not enough stock","details":[{"id":"SKU-100","requested":5,"available":2}]}`

	_, err := Interpret(http.StatusConflict, []byte(body))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "Not enough stock", conflict.Message)
	assert.Equal(t, []models.StockConflict{{ID: "SKU-100", Requested: 5, Available: 2}}, conflict.Details)
	assert.Contains(t, err.Error(), "SKU-100 (requested 5, available 2)")
}

func TestInterpret_ConflictByTagIsCaseInsensitive(t *testing.T) {
	_, err := Interpret(http.StatusOK, []byte(`{"statusCode":400,"body":"{\"error\":\"insufficient_inventory\"}"}`))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, defaultConflictMessage, conflict.Message)
	assert.Empty(t, conflict.Details)
}

func TestInterpret_ConflictByStatusWithoutTag(t *testing.T) {
	_, err := Interpret(http.StatusConflict, []byte(`{"message":"sold out"}`))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "sold out", conflict.Error())
}

func TestInterpret_APIErrors(t *testing.T) {
	cases := map[string]struct {
		status  int
		body    string
		code    int
		message string
	}{
		"message verbatim": {http.StatusBadRequest, `{"error":"BAD","message":"amount must be positive"}`, 400, "amount must be positive"},
		"error tag":        {http.StatusInternalServerError, `{"error":"payment declined"}`, 500, "payment declined"},
		"bare status":      {http.StatusServiceUnavailable, `{}`, 503, "HTTP 503"},
		"html error page":  {http.StatusBadGateway, `<html>bad gateway</html>`, 502, "HTTP 502"},
		"proxied status":   {http.StatusOK, `{"statusCode":500,"body":"{}"}`, 500, "HTTP 500"},
		"ok without token": {http.StatusOK, `{"status":"pending"}`, 200, "order response carried no confirmation"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Interpret(tc.status, []byte(tc.body))
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tc.code, apiErr.StatusCode)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestInterpret_MalformedSuccessBody(t *testing.T) {
	_, err := Interpret(http.StatusOK, []byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
