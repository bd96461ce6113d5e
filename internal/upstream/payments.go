package upstream

import (
	"net/http"
	"sync"
	"time"

	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const paymentService = "payment-service"

// DeclinedLast4 is the card ending the stand-in always declines
const DeclinedLast4 = "0000"

// Payments is the stand-in payment API
type Payments struct {
	mu           sync.RWMutex
	transactions map[string]*models.Transaction
	Chaos        *Chaos
}

func NewPayments() *Payments {
	return &Payments{
		transactions: make(map[string]*models.Transaction),
		Chaos:        NewChaos(paymentService, 0.4),
	}
}

func (p *Payments) Register(r gin.IRouter) {
	r.GET("/payment/status", p.status)
	r.POST("/payment/charge", p.charge)
	p.Chaos.Register(r, "payment")
}

// Transactions returns the number of recorded transactions
func (p *Payments) Transactions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.transactions)
}

func (p *Payments) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":       paymentService,
		"status":        "healthy",
		"chaos_enabled": p.Chaos.Enabled(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (p *Payments) charge(c *gin.Context) {
	var req models.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ChargeResponse{
			Status:  models.TransactionStatusFailed,
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	fields := log.Fields{"order_id": req.OrderID, "amount": req.Amount}

	if p.Chaos.Fail() {
		log.WithFields(fields).Warn("Chaos: Simulated payment failure")
		c.JSON(http.StatusServiceUnavailable, models.ChargeResponse{
			Status:  models.TransactionStatusFailed,
			Message: "Payment service temporarily unavailable",
		})
		return
	}

	tx := &models.Transaction{
		ID:        uuid.New().String(),
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Method:    req.Method,
		Last4:     req.Last4,
		Status:    models.TransactionStatusCompleted,
		Timestamp: time.Now(),
	}
	if req.Last4 == DeclinedLast4 {
		tx.Status = models.TransactionStatusFailed
	}

	p.mu.Lock()
	p.transactions[tx.ID] = tx
	p.mu.Unlock()

	if tx.Status == models.TransactionStatusFailed {
		log.WithFields(fields).Warn("Payment declined")
		c.JSON(http.StatusPaymentRequired, models.ChargeResponse{
			TransactionID: tx.ID,
			Status:        tx.Status,
			Message:       "Card declined",
		})
		return
	}

	metrics.PaymentAmount.Observe(req.Amount)
	log.WithFields(fields).WithField("transaction_id", tx.ID).Info("Payment processed successfully")

	c.JSON(http.StatusOK, models.ChargeResponse{
		TransactionID: tx.ID,
		Status:        models.TransactionStatusCompleted,
		Message:       "Payment processed successfully",
	})
}
