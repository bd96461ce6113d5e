// Package checkout drives the linear checkout flow. Each step hydrates its
// working data from the navigation payload first, then the persisted
// snapshot, then empty defaults; whatever navigation supplied is written
// back to storage.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ashendes/storefront/internal/cart"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/payment"
	"github.com/ashendes/storefront/internal/shipping"
	"github.com/ashendes/storefront/internal/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FreeShippingThreshold and FlatShippingFee define the shipping step function
const (
	FreeShippingThreshold = 1000.0
	FlatShippingFee       = 60.0
)

var (
	ErrUnknownStep     = errors.New("unknown checkout step")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrIncompleteOrder = errors.New("payment and shipping information are required")
	ErrNoPreviousStep  = errors.New("no previous step")
)

// ShippingFee is 0 at or above the threshold, else the flat fee
func ShippingFee(subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// Navigation is the state carried from one step to the next. Nil fields
// were not supplied and fall back to storage.
type Navigation struct {
	Cart     []models.CartItem    `json:"cart,omitempty"`
	Total    *float64             `json:"total,omitempty"`
	Payment  *models.PaymentForm  `json:"payment,omitempty"`
	Shipping *models.ShippingForm `json:"shipping,omitempty"`
	Order    *models.Order        `json:"order,omitempty"`
}

// State is a step's working data after hydration
type State struct {
	Step        Step                `json:"step"`
	Cart        []models.CartItem   `json:"cart"`
	Subtotal    float64             `json:"subtotal"`
	ShippingFee float64             `json:"shippingFee"`
	Total       float64             `json:"total"`
	Payment     models.PaymentForm  `json:"payment"`
	Shipping    models.ShippingForm `json:"shipping"`
	Order       *models.Order       `json:"order,omitempty"`
}

func (s *State) recompute() {
	s.Subtotal = models.CartTotal(s.Cart)
	s.ShippingFee = ShippingFee(s.Subtotal)
	s.Total = s.Subtotal + s.ShippingFee
}

// Carry builds the navigation payload holding the state's current values
func (s State) Carry() Navigation {
	nav := Navigation{Order: s.Order}
	if s.Cart != nil {
		nav.Cart = append([]models.CartItem(nil), s.Cart...)
		subtotal := s.Subtotal
		nav.Total = &subtotal
	}
	if !s.Payment.IsZero() {
		p := s.Payment
		nav.Payment = &p
	}
	if !s.Shipping.IsZero() {
		sh := s.Shipping
		nav.Shipping = &sh
	}
	return nav
}

// Transition is the outcome of an action: the step to show next and what
// to carry there.
type Transition struct {
	Step       Step       `json:"step"`
	Path       string     `json:"path"`
	Navigation Navigation `json:"navigation"`
}

func transition(from, to Step, nav Navigation) Transition {
	metrics.CheckoutTransitions.WithLabelValues(from.String(), to.String()).Inc()
	return Transition{Step: to, Path: to.Path(), Navigation: nav}
}

// OrderSubmitter places an order with the remote order API
type OrderSubmitter interface {
	Submit(ctx context.Context, req models.SubmitOrderRequest) (models.OrderReceipt, error)
}

// Workflow runs the checkout steps against one storage namespace
type Workflow struct {
	kv     storage.Store
	orders OrderSubmitter
	now    func() time.Time
}

// Option configures a Workflow
type Option func(*Workflow)

// WithClock overrides time.Now for order numbers and dates
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func New(kv storage.Store, orders OrderSubmitter, opts ...Option) *Workflow {
	w := &Workflow{kv: kv, orders: orders, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enter hydrates the data step needs. Any step may be entered directly;
// missing data comes back as empty defaults.
func (w *Workflow) Enter(ctx context.Context, step Step, nav Navigation) (State, error) {
	if !step.Valid() {
		return State{}, fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}

	st := State{Step: step}
	needs := step.needs()

	if needs&needCart != 0 {
		if nav.Cart != nil {
			st.Cart = append([]models.CartItem(nil), nav.Cart...)
			if err := cart.Persist(ctx, w.kv, st.Cart); err != nil {
				return State{}, err
			}
		} else if err := w.hydrate(ctx, storage.KeyCart, &st.Cart); err != nil {
			return State{}, err
		}
		if st.Cart == nil {
			st.Cart = []models.CartItem{}
		}
	}

	if needs&needPayment != 0 {
		if nav.Payment != nil {
			st.Payment = *nav.Payment
			if err := storage.SetJSON(ctx, w.kv, storage.KeyPayment, payment.Redact(st.Payment)); err != nil {
				return State{}, err
			}
		} else if err := w.hydrate(ctx, storage.KeyPayment, &st.Payment); err != nil {
			return State{}, err
		}
	}

	if needs&needShipping != 0 {
		if nav.Shipping != nil {
			st.Shipping = *nav.Shipping
			if err := storage.SetJSON(ctx, w.kv, storage.KeyShipping, st.Shipping); err != nil {
				return State{}, err
			}
		} else if err := w.hydrate(ctx, storage.KeyShipping, &st.Shipping); err != nil {
			return State{}, err
		}
	}

	if needs&needOrder != 0 {
		if nav.Order != nil {
			order := *nav.Order
			order.Payment = payment.Redact(order.Payment)
			st.Order = &order
			if err := storage.SetJSON(ctx, w.kv, storage.KeyOrder, order); err != nil {
				return State{}, err
			}
		} else {
			var order models.Order
			found, err := w.hydrateFound(ctx, storage.KeyOrder, &order)
			if err != nil {
				return State{}, err
			}
			if found {
				st.Order = &order
			}
		}
	}

	st.recompute()
	return st, nil
}

func (w *Workflow) hydrate(ctx context.Context, key string, v interface{}) error {
	_, err := w.hydrateFound(ctx, key, v)
	return err
}

// hydrateFound reads key into v. A corrupt value is logged and treated as
// absent; store failures are returned.
func (w *Workflow) hydrateFound(ctx context.Context, key string, v interface{}) (bool, error) {
	found, err := storage.GetJSON(ctx, w.kv, key, v)
	if errors.Is(err, storage.ErrCorrupt) {
		log.WithField("key", key).WithError(err).Warn("Ignoring corrupt stored value")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("hydrate %s: %w", key, err)
	}
	return found, nil
}

// ProceedToPayment leaves product selection with a non-empty cart
func (w *Workflow) ProceedToPayment(ctx context.Context, st State) (Transition, error) {
	if len(st.Cart) == 0 {
		return Transition{}, ErrEmptyCart
	}
	if err := cart.Persist(ctx, w.kv, st.Cart); err != nil {
		return Transition{}, err
	}
	st.recompute()

	nav := Navigation{Cart: st.Cart, Total: &st.Subtotal}
	return transition(st.Step, PaymentEntry, nav), nil
}

// SubmitPayment formats and validates the form, stores it redacted and
// moves on to shipping. The full form travels only in the navigation payload.
func (w *Workflow) SubmitPayment(ctx context.Context, st State, form models.PaymentForm) (Transition, error) {
	form = payment.Normalize(form)
	if err := payment.Validate(form); err != nil {
		return Transition{}, err
	}
	if err := storage.SetJSON(ctx, w.kv, storage.KeyPayment, payment.Redact(form)); err != nil {
		return Transition{}, err
	}

	st.Payment = form
	st.recompute()
	nav := st.Carry()
	nav.Shipping = nil
	return transition(st.Step, ShippingEntry, nav), nil
}

// SubmitShipping validates and stores the shipping form, then moves to review
func (w *Workflow) SubmitShipping(ctx context.Context, st State, form models.ShippingForm) (Transition, error) {
	form = shipping.Normalize(form)
	if err := shipping.Validate(form); err != nil {
		return Transition{}, err
	}
	if err := storage.SetJSON(ctx, w.kv, storage.KeyShipping, form); err != nil {
		return Transition{}, err
	}

	st.Shipping = form
	st.recompute()
	return transition(st.Step, OrderReview, st.Carry()), nil
}

// SubmitRequest packages the state into the order API request. Only the
// payment method and last four digits leave the client.
func SubmitRequest(st State) (models.SubmitOrderRequest, error) {
	if len(st.Cart) == 0 {
		return models.SubmitOrderRequest{}, ErrEmptyCart
	}
	desc := payment.Descriptor(st.Payment)
	if st.Payment.IsZero() || desc.Last4 == "" || st.Shipping.IsZero() {
		return models.SubmitOrderRequest{}, ErrIncompleteOrder
	}

	lines := make([]models.OrderLine, 0, len(st.Cart))
	for _, item := range st.Cart {
		lines = append(lines, models.OrderLine{ID: item.ID, Qty: item.Quantity})
	}
	subtotal := models.CartTotal(st.Cart)

	return models.SubmitOrderRequest{
		Items:    lines,
		Payment:  desc,
		Shipping: shipping.Descriptor(st.Shipping),
		Amount:   subtotal + ShippingFee(subtotal),
	}, nil
}

// PlaceOrder submits the order once. On success the order record is stored
// and the flow moves to confirmation; on any failure it stays at review.
func (w *Workflow) PlaceOrder(ctx context.Context, st State) (Transition, error) {
	req, err := SubmitRequest(st)
	if err != nil {
		return Transition{}, err
	}
	if req.RequestID, err = w.pendingKey(ctx); err != nil {
		return Transition{}, err
	}

	receipt, err := w.orders.Submit(ctx, req)
	if err != nil {
		return Transition{}, err
	}

	st.recompute()
	now := w.now()
	order := models.Order{
		OrderNumber:  "ORD" + strconv.FormatInt(now.UnixMilli(), 10),
		Items:        append([]models.CartItem(nil), st.Cart...),
		Subtotal:     st.Subtotal,
		ShippingFee:  st.ShippingFee,
		Total:        st.Total,
		Payment:      payment.Redact(st.Payment),
		Shipping:     st.Shipping,
		OrderDate:    now.UTC(),
		Status:       models.OrderStatusConfirmed,
		Confirmation: receipt.Confirmation,
	}
	if err := storage.SetJSON(ctx, w.kv, storage.KeyOrder, order); err != nil {
		return Transition{}, err
	}
	if err := w.kv.Remove(ctx, storage.KeyPendingOrder); err != nil {
		log.WithError(err).Warn("Failed to clear pending order key")
	}

	log.WithFields(log.Fields{
		"order_number": order.OrderNumber,
		"confirmation": order.Confirmation,
		"total":        order.Total,
	}).Info("Order placed")

	return transition(st.Step, Confirmation, Navigation{Order: &order}), nil
}

// pendingKey returns the idempotency key of the order being placed. The key
// survives failed attempts so a retry after a lost response is recognised
// by the order API; it is dropped once the order is confirmed.
func (w *Workflow) pendingKey(ctx context.Context) (string, error) {
	var key string
	found, err := storage.GetJSON(ctx, w.kv, storage.KeyPendingOrder, &key)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return "", err
	}
	if found && key != "" {
		return key, nil
	}

	key = uuid.New().String()
	if err := storage.SetJSON(ctx, w.kv, storage.KeyPendingOrder, key); err != nil {
		return "", err
	}
	return key, nil
}

// Back returns to the prior step carrying the current values. Nothing
// entered so far is discarded.
func (w *Workflow) Back(st State) (Transition, error) {
	if st.Step <= ProductSelection || st.Step >= Confirmation {
		return Transition{}, fmt.Errorf("%w from %s", ErrNoPreviousStep, st.Step)
	}
	st.recompute()
	return transition(st.Step, st.Step-1, st.Carry()), nil
}

// StartNewOrder clears the checkout keys. Saved orders are kept.
func (w *Workflow) StartNewOrder(ctx context.Context) (Transition, error) {
	if err := w.kv.Remove(ctx, storage.CheckoutKeys...); err != nil {
		return Transition{}, fmt.Errorf("clear checkout: %w", err)
	}
	return transition(Confirmation, ProductSelection, Navigation{}), nil
}
