package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy_console/internal/backend"
	"pharmacy_console/internal/orders"
	"pharmacy_console/internal/sales"
)

type entryView struct {
	orders.Entry
	DisplayUnitPrice string `json:"display_unit_price"`
	DisplayLineTotal string `json:"display_line_total"`
}

type selectionView struct {
	TransactionID string      `json:"transaction_id,omitempty"`
	Entries       []entryView `json:"entries"`
	Total         string      `json:"total"`
}

func selectionViewOf(sel *orders.Selection) selectionView {
	v := selectionView{
		TransactionID: sel.TransactionID,
		Entries:       make([]entryView, 0, len(sel.Entries)),
		Total:         sel.Total().StringFixed(2),
	}
	for _, e := range sel.Entries {
		v.Entries = append(v.Entries, entryView{
			Entry:            e,
			DisplayUnitPrice: e.UnitPrice.StringFixed(2),
			DisplayLineTotal: e.LineTotal().StringFixed(2),
		})
	}
	return v
}

type failureView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Code        string `json:"code"`
	Error       string `json:"error"`
}

func failureCode(err error) string {
	var (
		verr *orders.ValidationError
		nerr *backend.NetworkError
	)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.As(err, &verr):
		return verr.Code()
	case errors.As(err, &nerr):
		return "NETWORK_ERROR"
	default:
		return "REJECTED"
	}
}

func (h *handler) handleGetStaged(c *gin.Context) {
	sel, err := h.orders.Staged(c.Request.Context(), sessionOf(c).ID)
	if err != nil {
		h.respondError(c, "failed to read staged order", err)
		return
	}
	c.JSON(http.StatusOK, selectionViewOf(sel))
}

// handleToggleStaged stages the product if it is not staged, and unstages it
// otherwise.
func (h *handler) handleToggleStaged(c *gin.Context) {
	sel, err := h.orders.Toggle(c.Request.Context(), sessionOf(c).ID, c.Param("productId"))
	if err != nil {
		h.respondError(c, "failed to toggle staged product", err)
		return
	}
	c.JSON(http.StatusOK, selectionViewOf(sel))
}

func (h *handler) handleSetQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sel, err := h.orders.SetQuantity(c.Request.Context(), sessionOf(c).ID, c.Param("productId"), req.Quantity)
	if err != nil {
		h.respondError(c, "failed to set staged quantity", err)
		return
	}
	c.JSON(http.StatusOK, selectionViewOf(sel))
}

func (h *handler) handleDiscardStaged(c *gin.Context) {
	if err := h.orders.Discard(c.Request.Context(), sessionOf(c).ID); err != nil {
		h.respondError(c, "failed to discard staged order", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleCommit records the staged order. A partly recorded order answers
// 207 with the recorded and failed items; the failed ones stay staged.
func (h *handler) handleCommit(c *gin.Context) {
	out, err := h.orders.Commit(c.Request.Context(), sessionOf(c).ID)

	var perr *orders.PartialFailureError
	if err != nil && !errors.As(err, &perr) {
		h.respondError(c, "failed to commit order", err)
		return
	}

	body := gin.H{
		"message":        out.Message,
		"transaction_id": out.TransactionID,
		"recorded":       nonNil(out.Recorded),
	}
	if err == nil {
		body["products"] = h.viewsOf(out.Products)
		c.JSON(http.StatusCreated, body)
		return
	}

	failed := make([]failureView, 0, len(out.Failed))
	for _, f := range out.Failed {
		failed = append(failed, failureView{
			ProductID:   f.Entry.Product.ID,
			ProductName: f.Entry.Product.Name,
			Quantity:    f.Entry.Quantity,
			Code:        failureCode(f.Err),
			Error:       f.Err.Error(),
		})
	}
	body["failed"] = failed
	if out.Remaining != nil {
		body["remaining"] = selectionViewOf(out.Remaining)
	}

	status := http.StatusMultiStatus
	if perr.Recorded == 0 || errors.Is(err, backend.ErrUnauthorized) {
		status = statusFor(err)
	}
	body["error"] = err.Error()
	c.JSON(status, body)
}

func nonNil(items []sales.SaleLineItem) []sales.SaleLineItem {
	if items == nil {
		return []sales.SaleLineItem{}
	}
	return items
}
