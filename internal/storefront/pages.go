package storefront

import (
	"net/http"

	"github.com/ashendes/storefront/internal/catalog"
	"github.com/ashendes/storefront/internal/checkout"
	"github.com/gin-gonic/gin"
)

func (s *Server) purchasePage(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := s.loadCatalog(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	st, err := s.workflow(c).Enter(ctx, checkout.ProductSelection, checkout.Navigation{})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"step":       st.Step,
		"path":       st.Step.Path(),
		"catalog":    items,
		"categories": catalog.Categories(),
		"cart":       st.Cart,
		"total":      st.Subtotal,
	})
}

func (s *Server) templates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": catalog.Categories()})
}

func (s *Server) templatesByCategory(c *gin.Context) {
	key := c.Param("category")

	var found *catalog.Category
	for _, cat := range catalog.Categories() {
		if cat.Key == key {
			cat := cat
			found = &cat
			break
		}
	}
	if found == nil {
		fail(c, errUnknownCategory)
		return
	}

	items, err := s.loadCatalog(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": found,
		"items":    catalog.FilterByCategory(items, key),
	})
}
