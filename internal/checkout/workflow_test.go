package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	calls   []models.SubmitOrderRequest
	receipt models.OrderReceipt
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, req models.SubmitOrderRequest) (models.OrderReceipt, error) {
	f.calls = append(f.calls, req)
	return f.receipt, f.err
}

var (
	laptop = models.CartItem{ID: "SKU-100", Name: "Laptop", Price: 999.99, Quantity: 1, Category: "electronics"}
	mouse  = models.CartItem{ID: "SKU-200", Name: "Mouse", Price: 29.99, Quantity: 2, Category: "electronics"}

	card = models.PaymentForm{
		CardNumber:    "4111 1111 1111 1234",
		ExpiryDate:    "04/26",
		CVVCode:       "123",
		CardHolder:    "Ada Lovelace",
		PaymentMethod: models.PaymentMethodDebit,
	}
	address = models.ShippingForm{
		Name:         "Ada Lovelace",
		AddressLine1: "1 Loop Rd",
		City:         "Austin",
		State:        "TX",
		Zip:          "73301",
	}

	fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
)

func newWorkflow(t *testing.T, sub *fakeSubmitter) (*Workflow, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	return New(kv, sub, WithClock(func() time.Time { return fixedNow })), kv
}

func TestShippingFee_Boundary(t *testing.T) {
	assert.Equal(t, FlatShippingFee, ShippingFee(0))
	assert.Equal(t, FlatShippingFee, ShippingFee(999))
	assert.Equal(t, FlatShippingFee, ShippingFee(999.99))
	assert.Equal(t, 0.0, ShippingFee(1000))
	assert.Equal(t, 0.0, ShippingFee(2500))
}

func TestParseStep(t *testing.T) {
	for _, v := range []string{"orderReview", "/purchase/viewOrder", "viewOrder", "ORDERREVIEW"} {
		st, err := ParseStep(v)
		require.NoError(t, err, v)
		assert.Equal(t, OrderReview, st)
	}

	_, err := ParseStep("checkout")
	assert.ErrorIs(t, err, ErrUnknownStep)
	assert.Equal(t, "/purchase", ProductSelection.Path())
	assert.Equal(t, "confirmation", Confirmation.String())
}

func TestEnter_NavigationWinsAndIsFlushed(t *testing.T) {
	w, kv := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()

	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyCart, []models.CartItem{mouse}))

	st, err := w.Enter(ctx, PaymentEntry, Navigation{Cart: []models.CartItem{laptop}})
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{laptop}, st.Cart)
	assert.InDelta(t, 999.99, st.Subtotal, 1e-9)
	assert.Equal(t, FlatShippingFee, st.ShippingFee)

	var stored []models.CartItem
	_, err = storage.GetJSON(ctx, kv, storage.KeyCart, &stored)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{laptop}, stored)

	total, err := kv.Get(ctx, storage.KeyTotal)
	require.NoError(t, err)
	assert.Equal(t, "999.99", total)
}

func TestEnter_FallsBackToStorageThenDefaults(t *testing.T) {
	w, kv := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()

	st, err := w.Enter(ctx, OrderReview, Navigation{})
	require.NoError(t, err)
	assert.Empty(t, st.Cart)
	assert.NotNil(t, st.Cart)
	assert.True(t, st.Payment.IsZero())
	assert.True(t, st.Shipping.IsZero())
	assert.Equal(t, 0.0, st.Subtotal)

	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyCart, []models.CartItem{mouse}))
	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyShipping, address))

	st, err = w.Enter(ctx, OrderReview, Navigation{})
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{mouse}, st.Cart)
	assert.Equal(t, address, st.Shipping)
	assert.InDelta(t, 59.98, st.Subtotal, 1e-9)
}

func TestEnter_CorruptSnapshotHydratesToDefaults(t *testing.T) {
	w, kv := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyCart, "{oops"))

	st, err := w.Enter(ctx, ProductSelection, Navigation{})
	require.NoError(t, err)
	assert.Empty(t, st.Cart)
}

func TestEnter_ReadsOnlyWhatTheStepNeeds(t *testing.T) {
	w, kv := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()
	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyShipping, address))

	st, err := w.Enter(ctx, PaymentEntry, Navigation{Shipping: &address})
	require.NoError(t, err)
	assert.True(t, st.Shipping.IsZero())

	st, err = w.Enter(ctx, Confirmation, Navigation{})
	require.NoError(t, err)
	assert.Nil(t, st.Order)
	assert.Nil(t, st.Cart)
}

func TestEnter_UnknownStep(t *testing.T) {
	w, _ := newWorkflow(t, &fakeSubmitter{})
	_, err := w.Enter(context.Background(), Step(42), Navigation{})
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestProceedToPayment_RequiresItems(t *testing.T) {
	w, _ := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()

	st, err := w.Enter(ctx, ProductSelection, Navigation{})
	require.NoError(t, err)
	_, err = w.ProceedToPayment(ctx, st)
	assert.ErrorIs(t, err, ErrEmptyCart)

	st.Cart = []models.CartItem{laptop, mouse}
	tr, err := w.ProceedToPayment(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, PaymentEntry, tr.Step)
	assert.Equal(t, "/purchase/paymentEntry", tr.Path)
	require.NotNil(t, tr.Navigation.Total)
	assert.InDelta(t, 1059.97, *tr.Navigation.Total, 1e-9)
}

func TestSubmitPayment_ValidatesAndPersistsRedacted(t *testing.T) {
	w, kv := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()

	st, err := w.Enter(ctx, PaymentEntry, Navigation{Cart: []models.CartItem{laptop}})
	require.NoError(t, err)

	bad := card
	bad.ExpiryDate = "13/25"
	_, err = w.SubmitPayment(ctx, st, bad)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "expiryDate", verr.Field)

	_, err = kv.Get(ctx, storage.KeyPayment)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	raw := card
	raw.CardNumber = "4111111111111234"
	tr, err := w.SubmitPayment(ctx, st, raw)
	require.NoError(t, err)
	assert.Equal(t, ShippingEntry, tr.Step)
	require.NotNil(t, tr.Navigation.Payment)
	assert.Equal(t, "4111 1111 1111 1234", tr.Navigation.Payment.CardNumber)
	assert.Equal(t, "123", tr.Navigation.Payment.CVVCode)

	stored, err := kv.Get(ctx, storage.KeyPayment)
	require.NoError(t, err)
	assert.NotContains(t, stored, "4111")
	assert.NotContains(t, stored, `"123"`)
	assert.Contains(t, stored, "**** **** **** 1234")
}

func TestSubmitShipping(t *testing.T) {
	w, kv := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()

	st, err := w.Enter(ctx, ShippingEntry, Navigation{Cart: []models.CartItem{laptop}, Payment: &card})
	require.NoError(t, err)

	bad := address
	bad.Zip = "7330"
	_, err = w.SubmitShipping(ctx, st, bad)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "zip", verr.Field)

	tr, err := w.SubmitShipping(ctx, st, address)
	require.NoError(t, err)
	assert.Equal(t, OrderReview, tr.Step)
	assert.Equal(t, &address, tr.Navigation.Shipping)
	assert.Equal(t, &card, tr.Navigation.Payment)

	var stored models.ShippingForm
	found, err := storage.GetJSON(ctx, kv, storage.KeyShipping, &stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, address, stored)
}

func TestPlaceOrder_Success(t *testing.T) {
	sub := &fakeSubmitter{receipt: models.OrderReceipt{Confirmation: "CONF-9", OrderID: "o-9", StatusCode: 201}}
	w, kv := newWorkflow(t, sub)
	ctx := context.Background()

	st, err := w.Enter(ctx, OrderReview, Navigation{
		Cart:     []models.CartItem{laptop, mouse},
		Payment:  &card,
		Shipping: &address,
	})
	require.NoError(t, err)

	tr, err := w.PlaceOrder(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, Confirmation, tr.Step)

	require.Len(t, sub.calls, 1)
	req := sub.calls[0]
	assert.Equal(t, []models.OrderLine{{ID: "SKU-100", Qty: 1}, {ID: "SKU-200", Qty: 2}}, req.Items)
	assert.Equal(t, models.PaymentDescriptor{Method: "debit", Last4: "1234"}, req.Payment)
	assert.Equal(t, "1 Loop Rd, Austin, TX 73301", req.Shipping.Address)
	assert.InDelta(t, 1059.97, req.Amount, 1e-9)

	order := tr.Navigation.Order
	require.NotNil(t, order)
	assert.Equal(t, "ORD1792402200000", order.OrderNumber)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, "CONF-9", order.Confirmation)
	assert.Equal(t, 0.0, order.ShippingFee)
	assert.Equal(t, "**** **** **** 1234", order.Payment.CardNumber)
	assert.Empty(t, order.Payment.CVVCode)

	// the confirmation page reads the stored order after a reload
	confirm, err := w.Enter(ctx, Confirmation, Navigation{})
	require.NoError(t, err)
	require.NotNil(t, confirm.Order)
	assert.Equal(t, order.OrderNumber, confirm.Order.OrderNumber)

	// placing an order does not clear the cart
	_, err = kv.Get(ctx, storage.KeyCart)
	assert.NoError(t, err)
}

func TestPlaceOrder_AmountIncludesShippingBelowThreshold(t *testing.T) {
	sub := &fakeSubmitter{receipt: models.OrderReceipt{Confirmation: "C"}}
	w, _ := newWorkflow(t, sub)
	ctx := context.Background()

	st, err := w.Enter(ctx, OrderReview, Navigation{Cart: []models.CartItem{mouse}, Payment: &card, Shipping: &address})
	require.NoError(t, err)

	_, err = w.PlaceOrder(ctx, st)
	require.NoError(t, err)
	assert.InDelta(t, 119.98, sub.calls[0].Amount, 1e-9)
}

func TestPlaceOrder_FromStoredRedactedPayment(t *testing.T) {
	sub := &fakeSubmitter{receipt: models.OrderReceipt{Confirmation: "C"}}
	w, _ := newWorkflow(t, sub)
	ctx := context.Background()

	// submitting payment stores the redacted form; a reload then hydrates it
	st, err := w.Enter(ctx, PaymentEntry, Navigation{Cart: []models.CartItem{laptop}})
	require.NoError(t, err)
	_, err = w.SubmitPayment(ctx, st, card)
	require.NoError(t, err)
	st, err = w.Enter(ctx, ShippingEntry, Navigation{})
	require.NoError(t, err)
	_, err = w.SubmitShipping(ctx, st, address)
	require.NoError(t, err)

	st, err = w.Enter(ctx, OrderReview, Navigation{})
	require.NoError(t, err)
	_, err = w.PlaceOrder(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, "1234", sub.calls[0].Payment.Last4)
}

func TestPlaceOrder_Gates(t *testing.T) {
	sub := &fakeSubmitter{}
	w, _ := newWorkflow(t, sub)
	ctx := context.Background()

	st, err := w.Enter(ctx, OrderReview, Navigation{Payment: &card, Shipping: &address})
	require.NoError(t, err)
	_, err = w.PlaceOrder(ctx, st)
	assert.ErrorIs(t, err, ErrEmptyCart)

	// a fresh namespace so the shipping form flushed above is not hydrated
	w, _ = newWorkflow(t, sub)
	st, err = w.Enter(ctx, OrderReview, Navigation{Cart: []models.CartItem{laptop}, Payment: &card})
	require.NoError(t, err)
	_, err = w.PlaceOrder(ctx, st)
	assert.ErrorIs(t, err, ErrIncompleteOrder)

	assert.Empty(t, sub.calls)
}

func TestPlaceOrder_FailureStaysAtReview(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("Insufficient inventory")}
	w, kv := newWorkflow(t, sub)
	ctx := context.Background()

	st, err := w.Enter(ctx, OrderReview, Navigation{Cart: []models.CartItem{laptop}, Payment: &card, Shipping: &address})
	require.NoError(t, err)

	tr, err := w.PlaceOrder(ctx, st)
	assert.EqualError(t, err, "Insufficient inventory")
	assert.Equal(t, Transition{}, tr)

	_, err = kv.Get(ctx, storage.KeyOrder)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPlaceOrder_RetryReusesIdempotencyKey(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("order service unreachable")}
	w, kv := newWorkflow(t, sub)
	ctx := context.Background()

	st, err := w.Enter(ctx, OrderReview, Navigation{Cart: []models.CartItem{laptop}, Payment: &card, Shipping: &address})
	require.NoError(t, err)
	_, err = w.PlaceOrder(ctx, st)
	require.Error(t, err)

	// a reload and resubmit keeps the key of the first attempt
	st, err = w.Enter(ctx, OrderReview, Navigation{})
	require.NoError(t, err)
	sub.err = nil
	sub.receipt = models.OrderReceipt{Confirmation: "CONF-1"}
	_, err = w.PlaceOrder(ctx, st)
	require.NoError(t, err)

	require.Len(t, sub.calls, 2)
	assert.NotEmpty(t, sub.calls[0].RequestID)
	assert.Equal(t, sub.calls[0].RequestID, sub.calls[1].RequestID)

	// a confirmed order releases the key and the next order gets a new one
	_, err = kv.Get(ctx, storage.KeyPendingOrder)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = w.PlaceOrder(ctx, st)
	require.NoError(t, err)
	require.Len(t, sub.calls, 3)
	assert.NotEqual(t, sub.calls[0].RequestID, sub.calls[2].RequestID)
}

func TestBack_CarriesCurrentValues(t *testing.T) {
	w, _ := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()

	st, err := w.Enter(ctx, OrderReview, Navigation{Cart: []models.CartItem{laptop}, Payment: &card, Shipping: &address})
	require.NoError(t, err)

	tr, err := w.Back(st)
	require.NoError(t, err)
	assert.Equal(t, ShippingEntry, tr.Step)
	assert.Equal(t, []models.CartItem{laptop}, tr.Navigation.Cart)
	assert.Equal(t, &card, tr.Navigation.Payment)
	assert.Equal(t, &address, tr.Navigation.Shipping)

	st.Step = ProductSelection
	_, err = w.Back(st)
	assert.ErrorIs(t, err, ErrNoPreviousStep)
}

func TestStartNewOrder_KeepsSavedOrders(t *testing.T) {
	w, kv := newWorkflow(t, &fakeSubmitter{})
	ctx := context.Background()

	for _, key := range storage.CheckoutKeys {
		require.NoError(t, kv.Set(ctx, key, "{}"))
	}
	require.NoError(t, kv.Set(ctx, storage.KeySavedOrders, "[]"))

	tr, err := w.StartNewOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProductSelection, tr.Step)

	for _, key := range storage.CheckoutKeys {
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}
	_, err = kv.Get(ctx, storage.KeySavedOrders)
	assert.NoError(t, err)
}
