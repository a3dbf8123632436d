// Package backendtest is an in-memory stand-in for the pharmacy backend API,
// for tests.
package backendtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pharmacy_console/internal/inventory"
	"pharmacy_console/internal/sales"
)

// Token is the bearer token the fake accepts out of the box.
const Token = "test-token"

// Backend keeps products and sales in memory and serves the backend routes.
// Sale creation decrements stock atomically per call.
type Backend struct {
	mu         sync.Mutex
	products   []inventory.Product
	sold       []sales.SaleLineItem
	cancelled  []sales.CancelledLineItem
	failCreate map[string]int
	failCancel map[string]int
	calls      map[string]int
	tokens     map[string]bool
	now        func() time.Time

	Server *httptest.Server
}

// New starts a fake backend. Close it with b.Server.Close.
func New() *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		failCreate: map[string]int{},
		failCancel: map[string]int{},
		calls:      map[string]int{},
		tokens:     map[string]bool{Token: true},
		now:        time.Now,
	}
	b.Server = httptest.NewServer(b.router())
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

func (b *Backend) Close() { b.Server.Close() }

// SetClock fixes the time stamped on created and cancelled records.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

func (b *Backend) AddProduct(p inventory.Product) inventory.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	b.products = append(b.products, p)
	return p
}

func (b *Backend) AddSale(item sales.SaleLineItem) sales.SaleLineItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	b.sold = append(b.sold, item)
	return item
}

// AcceptToken adds token to the bearer tokens the fake accepts.
func (b *Backend) AcceptToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = true
}

// FailCreate makes sale creation for productID reply with status.
func (b *Backend) FailCreate(productID string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failCreate[productID] = status
}

// FailCancel makes cancellation of soldID reply with status.
func (b *Backend) FailCancel(soldID string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failCancel[soldID] = status
}

// ClearFailures removes every injected failure.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failCreate = map[string]int{}
	b.failCancel = map[string]int{}
}

func (b *Backend) Products() []inventory.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append(make([]inventory.Product, 0, len(b.products)), b.products...)
}

func (b *Backend) Sold() []sales.SaleLineItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append(make([]sales.SaleLineItem, 0, len(b.sold)), b.sold...)
}

func (b *Backend) Cancelled() []sales.CancelledLineItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append(make([]sales.CancelledLineItem, 0, len(b.cancelled)), b.cancelled...)
}

// Calls returns how many requests hit "METHOD /path".
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(b.count, b.auth)

	r.GET("/products/admin", b.listProducts)
	r.GET("/products/low-stock", b.listLowStock)
	r.POST("/products", b.createProduct)
	r.PUT("/products/:id", b.updateProduct)
	r.DELETE("/products/:id", b.deleteProduct)
	r.POST("/productsold", b.createSale)
	r.GET("/productsold/admin", b.listSold)
	r.POST("/cancelledpurchase/cancel", b.cancelSale)
	r.GET("/cancelledpurchase/", b.listCancelled)
	return r
}

func (b *Backend) count(c *gin.Context) {
	b.mu.Lock()
	b.calls[c.Request.Method+" "+c.FullPath()]++
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) auth(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	b.mu.Lock()
	ok := b.tokens[token]
	b.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Next()
}

func (b *Backend) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, b.Products())
}

func (b *Backend) listLowStock(c *gin.Context) {
	out := make([]inventory.Product, 0)
	for _, p := range b.Products() {
		if inventory.IsLowStock(p) {
			out = append(out, p)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createProduct(c *gin.Context) {
	var in inventory.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product"})
		return
	}
	b.mu.Lock()
	p := fromInput(uuid.NewString(), in)
	p.CreatedAt = b.now()
	b.products = append(b.products, p)
	b.mu.Unlock()
	c.JSON(http.StatusCreated, p)
}

func (b *Backend) updateProduct(c *gin.Context) {
	var in inventory.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.products {
		if b.products[i].ID == c.Param("id") {
			updated := fromInput(b.products[i].ID, in)
			updated.CreatedAt = b.products[i].CreatedAt
			b.products[i] = updated
			c.JSON(http.StatusOK, updated)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
}

func (b *Backend) deleteProduct(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.products {
		if b.products[i].ID == c.Param("id") {
			b.products = append(b.products[:i], b.products[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
}

func (b *Backend) createSale(c *gin.Context) {
	var req sales.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if status, ok := b.failCreate[req.ProductID]; ok {
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	for i := range b.products {
		p := &b.products[i]
		if p.ID != req.ProductID {
			continue
		}
		if p.Quantity < req.QuantitySold {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
			return
		}
		p.Quantity -= req.QuantitySold
		item := sales.SaleLineItem{
			ID:             uuid.NewString(),
			ProductID:      p.ID,
			ProductName:    p.Name,
			Brand:          p.Brand,
			UnitPrice:      p.UnitPrice,
			QuantitySold:   req.QuantitySold,
			Price:          req.Price,
			TotalAmount:    req.TotalAmount,
			ExpirationDate: p.ExpirationDate,
			Category:       p.Category,
			Timestamp:      b.now(),
			TransactionID:  req.TransactionID,
		}
		b.sold = append(b.sold, item)
		c.JSON(http.StatusCreated, item)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
}

func (b *Backend) listSold(c *gin.Context) {
	c.JSON(http.StatusOK, b.Sold())
}

func (b *Backend) cancelSale(c *gin.Context) {
	var req struct {
		ProductSoldID string `json:"PRODUCT_SOLD_ID"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ProductSoldID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PRODUCT_SOLD_ID is required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if status, ok := b.failCancel[req.ProductSoldID]; ok {
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	for i := range b.sold {
		item := &b.sold[i]
		if item.ID != req.ProductSoldID {
			continue
		}
		if item.Cancelled {
			c.JSON(http.StatusConflict, gin.H{"error": "already cancelled"})
			return
		}
		item.Cancelled = true
		for j := range b.products {
			if b.products[j].ID == item.ProductID {
				b.products[j].Quantity += item.QuantitySold
			}
		}
		snap := sales.CancelledLineItem{
			SaleLineItem:  *item,
			ProductSoldID: item.ID,
			CancelledAt:   b.now(),
		}
		b.cancelled = append(b.cancelled, snap)
		c.JSON(http.StatusOK, snap)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "sold product not found"})
}

func (b *Backend) listCancelled(c *gin.Context) {
	c.JSON(http.StatusOK, b.Cancelled())
}

func fromInput(id string, in inventory.ProductInput) inventory.Product {
	return inventory.Product{
		ID:             id,
		Name:           in.Name,
		Brand:          in.Brand,
		UnitPrice:      in.UnitPrice,
		Quantity:       in.Quantity,
		ExpirationDate: in.ExpirationDate,
		Category:       in.Category,
	}
}
