package storefront

import (
	"net/http"

	"github.com/ashendes/storefront/internal/cart"
	"github.com/ashendes/storefront/internal/checkout"
	"github.com/ashendes/storefront/internal/models"
	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ID       string `json:"id" binding:"required"`
	Quantity *int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func cartView(s *cart.Store, saved []models.SavedOrder) gin.H {
	h := gin.H{
		"items": s.Items(),
		"total": s.Total(),
	}
	if saved != nil {
		h["savedOrders"] = saved
	}
	return h
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

func (s *Server) getCart(c *gin.Context) {
	ctx := c.Request.Context()

	cs, err := cart.Load(ctx, s.store(c))
	if err != nil {
		fail(c, err)
		return
	}
	saved, err := cs.SavedOrders(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	if saved == nil {
		saved = []models.SavedOrder{}
	}
	c.JSON(http.StatusOK, cartView(cs, saved))
}

func (s *Server) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
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
	if err := cs.Add(ctx, line, qty); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(cs, nil))
}

func (s *Server) setCartQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	item, err := s.lookup(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	cs, err := cart.Load(ctx, s.store(c))
	if err != nil {
		fail(c, err)
		return
	}
	applied, err := cs.SetQuantity(ctx, item, *req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}

	view := cartView(cs, nil)
	view["quantity"] = applied
	view["available"] = item.Qty
	c.JSON(http.StatusOK, view)
}

func (s *Server) removeCartItem(c *gin.Context) {
	ctx := c.Request.Context()

	cs, err := cart.Load(ctx, s.store(c))
	if err != nil {
		fail(c, err)
		return
	}
	if err := cs.Remove(ctx, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(cs, nil))
}

func (s *Server) saveCart(c *gin.Context) {
	ctx := c.Request.Context()

	cs, err := cart.Load(ctx, s.store(c))
	if err != nil {
		fail(c, err)
		return
	}
	saved, err := cs.SaveCurrent(ctx, s.now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) clearSavedCarts(c *gin.Context) {
	ctx := c.Request.Context()

	cs, err := cart.Load(ctx, s.store(c))
	if err != nil {
		fail(c, err)
		return
	}
	if err := cs.ClearSaved(ctx); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(cs, []models.SavedOrder{}))
}

// loadSavedCart puts a saved order back in the cart and moves on to payment
func (s *Server) loadSavedCart(c *gin.Context) {
	ctx := c.Request.Context()

	cs, err := cart.Load(ctx, s.store(c))
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := cs.LoadSaved(ctx, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	wf := s.workflow(c)
	st, err := wf.Enter(ctx, checkout.ProductSelection, checkout.Navigation{})
	if err != nil {
		fail(c, err)
		return
	}
	tr, err := wf.ProceedToPayment(ctx, st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}
