package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pharmacy_console/internal/sales"
)

type groupView struct {
	sales.Group
	Total string `json:"total"`
}

func groupViews(groups []sales.Group) []groupView {
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView{Group: g, Total: g.Total().StringFixed(2)})
	}
	return out
}

func soldViewOf(v *sales.SoldView) gin.H {
	return gin.H{
		"groups":          groupViews(v.Groups),
		"sold_count":      len(v.Sold),
		"cancelled_count": len(v.Cancelled),
	}
}

func (h *handler) handleDashboard(c *gin.Context) {
	summary, err := h.dashboard.Load(c.Request.Context())
	if err != nil {
		h.respondError(c, "failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sold_quantity":   summary.SoldQuantity,
		"low_stock_count": summary.LowStockCount,
		"expired_count":   summary.ExpiredCount,
		"active_count":    summary.ActiveCount,
		"recent_groups":   groupViews(summary.RecentGroups),
	})
}

func (h *handler) handleListSales(c *gin.Context) {
	view, err := h.sales.View(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, "failed to list sales", err)
		return
	}
	c.JSON(http.StatusOK, soldViewOf(view))
}

// handleCancelGroup cancels a whole sale group. On failure nothing in the
// returned view changes and the group has to be retried as a whole.
func (h *handler) handleCancelGroup(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Key) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.sales.Cancel(c.Request.Context(), req.Key)
	if err != nil {
		h.respondError(c, "failed to cancel sale group", err)
		return
	}
	c.JSON(http.StatusOK, soldViewOf(view))
}

func (h *handler) handleListCancelled(c *gin.Context) {
	groups, err := h.sales.Cancelled(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, "failed to list cancelled purchases", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}
