package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmacy_console/internal/inventory"
)

// productView is a product plus the derived state the lists are drawn from.
type productView struct {
	inventory.Product
	Expired      bool   `json:"expired"`
	LowStock     bool   `json:"low_stock"`
	Critical     bool   `json:"critical"`
	DisplayPrice string `json:"display_price"`
}

func (h *handler) viewsOf(products []inventory.Product) []productView {
	now := h.now()
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{
			Product:      p,
			Expired:      inventory.IsExpired(p, now),
			LowStock:     inventory.IsLowStock(p),
			Critical:     inventory.IsCritical(p),
			DisplayPrice: p.UnitPrice.StringFixed(2),
		})
	}
	return out
}

// handleListProducts serves GET /products?view=all|active|expired|low-stock&q=
func (h *handler) handleListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, "failed to list products", err)
		return
	}

	part := inventory.Classify(products, h.now())
	view := c.DefaultQuery("view", "all")
	var selected []inventory.Product
	switch view {
	case "all":
		selected = products
	case "active":
		selected = part.Active
	case "expired":
		selected = part.Expired
	case "low-stock":
		selected = part.LowStock
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid view value"})
		return
	}
	selected = inventory.Filter(selected, c.Query("q"))

	c.JSON(http.StatusOK, gin.H{
		"view":     view,
		"products": h.viewsOf(selected),
		"counts": gin.H{
			"all":       len(products),
			"active":    len(part.Active),
			"expired":   len(part.Expired),
			"low_stock": len(part.LowStock),
		},
		"categories": inventory.Categories,
	})
}

// handleLowStock serves the backend's own low-stock selection.
func (h *handler) handleLowStock(c *gin.Context) {
	products, err := h.catalog.ListLowStock(c.Request.Context())
	if err != nil {
		h.respondError(c, "failed to list low-stock products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": h.viewsOf(products)})
}

func (h *handler) bindProduct(c *gin.Context) (inventory.ProductInput, bool) {
	var in inventory.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("failed to bind product payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return in, false
	}
	if errs := inventory.ValidateInput(in); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product", "fields": errs})
		return in, false
	}
	return in, true
}

func (h *handler) handleCreateProduct(c *gin.Context) {
	in, ok := h.bindProduct(c)
	if !ok {
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "failed to create product", err)
		return
	}
	h.logger.Info("product created", zap.String("product_id", p.ID), zap.String("admin_id", sessionOf(c).AdminID))
	c.JSON(http.StatusCreated, h.viewsOf([]inventory.Product{p})[0])
}

func (h *handler) handleUpdateProduct(c *gin.Context) {
	in, ok := h.bindProduct(c)
	if !ok {
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, "failed to update product", err)
		return
	}
	c.JSON(http.StatusOK, h.viewsOf([]inventory.Product{p})[0])
}

func (h *handler) handleDeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, "failed to delete product", err)
		return
	}
	h.logger.Info("product deleted", zap.String("product_id", id), zap.String("admin_id", sessionOf(c).AdminID))
	c.Status(http.StatusNoContent)
}
