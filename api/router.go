package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmacy_console/internal/dashboard"
	"pharmacy_console/internal/inventory"
	"pharmacy_console/internal/orders"
	"pharmacy_console/internal/sales"
	"pharmacy_console/internal/session"
)

// Catalog is the part of the backend the product pages edit directly.
type Catalog interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
	ListLowStock(ctx context.Context) ([]inventory.Product, error)
	CreateProduct(ctx context.Context, in inventory.ProductInput) (inventory.Product, error)
	UpdateProduct(ctx context.Context, id string, in inventory.ProductInput) (inventory.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Dependencies are the services the console routes are served by.
type Dependencies struct {
	Sessions  *session.Parser
	Catalog   Catalog
	Dashboard *dashboard.Service
	Orders    *orders.Service
	Sales     *sales.Service
	Logger    *zap.Logger
	// Now returns the current time in the console's timezone.
	Now func() time.Time
}

// InitRoutes registers every console endpoint on the given Gin engine.
// All routes except /ping require a bearer session.
func InitRoutes(e *gin.Engine, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger, _ = zap.NewProduction()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := newHandler(deps)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r := e.Group("/", requireSession(deps.Sessions, deps.Logger))

	r.GET("/dashboard", h.handleDashboard)

	r.GET("/products", h.handleListProducts)
	r.GET("/products/low-stock", h.handleLowStock)
	r.POST("/products", h.handleCreateProduct)
	r.PUT("/products/:id", h.handleUpdateProduct)
	r.DELETE("/products/:id", h.handleDeleteProduct)

	r.GET("/orders/staged", h.handleGetStaged)
	r.POST("/orders/staged/:productId", h.handleToggleStaged)
	r.PUT("/orders/staged/:productId", h.handleSetQuantity)
	r.DELETE("/orders/staged", h.handleDiscardStaged)
	r.POST("/orders/commit", h.handleCommit)

	r.GET("/sales", h.handleListSales)
	r.POST("/sales/cancel", h.handleCancelGroup)
	r.GET("/cancelled", h.handleListCancelled)
}
