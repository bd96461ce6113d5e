package storefront

import (
	"errors"
	"io"
	"net/http"

	"github.com/ashendes/storefront/internal/checkout"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/payment"
	"github.com/gin-gonic/gin"
)

type stepRequest struct {
	Navigation checkout.Navigation `json:"navigation"`
}

type paymentRequest struct {
	Navigation checkout.Navigation `json:"navigation"`
	Form       models.PaymentForm  `json:"form"`
}

type shippingRequest struct {
	Navigation checkout.Navigation `json:"navigation"`
	Form       models.ShippingForm `json:"form"`
}

// bindOptional decodes a JSON body when one was sent
func bindOptional(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return false
	}
	return true
}

// stateView hides the card number and CVV in page data
func stateView(st checkout.State) gin.H {
	st.Payment = payment.Redact(st.Payment)
	if st.Order != nil {
		o := *st.Order
		o.Payment = payment.Redact(o.Payment)
		st.Order = &o
	}
	return gin.H{"path": st.Step.Path(), "state": st}
}

func (s *Server) enter(c *gin.Context, step checkout.Step, nav checkout.Navigation) (*checkout.Workflow, checkout.State, bool) {
	wf := s.workflow(c)
	st, err := wf.Enter(c.Request.Context(), step, nav)
	if err != nil {
		fail(c, err)
		return nil, checkout.State{}, false
	}
	return wf, st, true
}

func (s *Server) enterStep(c *gin.Context) {
	step, err := checkout.ParseStep(c.Param("step"))
	if err != nil {
		fail(c, err)
		return
	}
	var req stepRequest
	if !bindOptional(c, &req) {
		return
	}

	_, st, ok := s.enter(c, step, req.Navigation)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateView(st))
}

func (s *Server) proceed(c *gin.Context) {
	var req stepRequest
	if !bindOptional(c, &req) {
		return
	}

	wf, st, ok := s.enter(c, checkout.ProductSelection, req.Navigation)
	if !ok {
		return
	}
	tr, err := wf.ProceedToPayment(c.Request.Context(), st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (s *Server) submitPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	wf, st, ok := s.enter(c, checkout.PaymentEntry, req.Navigation)
	if !ok {
		return
	}
	tr, err := wf.SubmitPayment(c.Request.Context(), st, req.Form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (s *Server) submitShipping(c *gin.Context) {
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	wf, st, ok := s.enter(c, checkout.ShippingEntry, req.Navigation)
	if !ok {
		return
	}
	tr, err := wf.SubmitShipping(c.Request.Context(), st, req.Form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

// confirmOrder places the order from the review step. On failure the
// caller stays on review and may resubmit.
func (s *Server) confirmOrder(c *gin.Context) {
	var req stepRequest
	if !bindOptional(c, &req) {
		return
	}

	wf, st, ok := s.enter(c, checkout.OrderReview, req.Navigation)
	if !ok {
		return
	}
	tr, err := wf.PlaceOrder(c.Request.Context(), st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (s *Server) back(c *gin.Context) {
	step, err := checkout.ParseStep(c.Param("step"))
	if err != nil {
		fail(c, err)
		return
	}
	var req stepRequest
	if !bindOptional(c, &req) {
		return
	}

	wf, st, ok := s.enter(c, step, req.Navigation)
	if !ok {
		return
	}
	tr, err := wf.Back(st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (s *Server) startNewOrder(c *gin.Context) {
	tr, err := s.workflow(c).StartNewOrder(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}
