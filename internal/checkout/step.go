package checkout

import (
	"fmt"
	"strings"
)

// Step is one page of the checkout flow, in strict linear order
type Step int

const (
	ProductSelection Step = iota
	PaymentEntry
	ShippingEntry
	OrderReview
	Confirmation
)

var steps = []struct {
	name string
	path string
}{
	{"productSelection", "/purchase"},
	{"paymentEntry", "/purchase/paymentEntry"},
	{"shippingEntry", "/purchase/shippingEntry"},
	{"orderReview", "/purchase/viewOrder"},
	{"confirmation", "/purchase/viewConfirmation"},
}

func (s Step) Valid() bool {
	return s >= ProductSelection && s <= Confirmation
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return steps[s].name
}

// Path is the route the step is served under
func (s Step) Path() string {
	if !s.Valid() {
		return ""
	}
	return steps[s].path
}

// ParseStep accepts a step name or its route path, case-insensitively
func ParseStep(v string) (Step, error) {
	for i, st := range steps {
		if strings.EqualFold(v, st.name) || strings.EqualFold(v, st.path) || strings.EqualFold("/purchase/"+v, st.path) {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, v)
}

// MarshalText renders the step by name in JSON payloads
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	st, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

type need uint8

const (
	needCart need = 1 << iota
	needPayment
	needShipping
	needOrder
)

// needs lists the fields a step reads on entry
func (s Step) needs() need {
	switch s {
	case ProductSelection:
		return needCart
	case PaymentEntry:
		return needCart | needPayment
	case ShippingEntry, OrderReview:
		return needCart | needPayment | needShipping
	case Confirmation:
		return needOrder
	}
	return 0
}
