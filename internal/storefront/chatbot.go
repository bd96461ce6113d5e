package storefront

import (
	"errors"
	"net/http"

	"github.com/ashendes/storefront/internal/cart"
	"github.com/ashendes/storefront/internal/chat"
	"github.com/ashendes/storefront/internal/models"
	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Transcript []models.ChatTurn `json:"transcript"`
	Message    string            `json:"message"`
}

type chatCartRequest struct {
	Transcript []models.ChatTurn `json:"transcript"`
	ID         string            `json:"id" binding:"required"`
}

// chatbot relays one user message. A failed completion still answers 200
// with the apology appended, flagged as degraded.
func (s *Server) chatbot(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Transcript == nil {
		req.Transcript = chat.NewTranscript()
	}

	transcript, err := s.assistant.Send(c.Request.Context(), req.Transcript, req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transcript": transcript,
		"reply":      transcript[len(transcript)-1].Text,
		"degraded":   err != nil,
	})
}

// chatAddToCart adds one unit of a recommended item and notes it in the transcript
func (s *Server) chatAddToCart(c *gin.Context) {
	var req chatCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	item, err := s.lookup(ctx, req.ID)
	if err != nil {
		fail(c, err)
		return
	}
	cs, err := cart.Load(ctx, s.store(c))
	if err != nil {
		fail(c, err)
		return
	}
	line := models.CartItem{ID: item.ID, Name: item.Name, Price: item.Price, Category: item.Category}
	if err := cs.Add(ctx, line, 1); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcript": chat.NoteAdded(req.Transcript, item.Name, cs.Total()),
		"cart":       cartView(cs, nil),
	})
}
