package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"resty.dev/v3"

	"pharmacy_console/internal/inventory"
	"pharmacy_console/internal/sales"
	"pharmacy_console/internal/session"
)

func init() {
	// The backend expects monetary fields as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Client talks to the pharmacy backend REST API. Every call authenticates
// with the bearer token of the session found in its context.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// errorPayload is the body the backend sends with a failed request.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New creates a backend client for baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c, logger: logger}
}

func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(s.Token).
		SetError(&errorPayload{}), nil
}

// ListProducts fetches every product of the signed-in admin.
func (c *Client) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	var out []inventory.Product
	if err := c.do(ctx, "list products", http.MethodGet, "/products/admin", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLowStock fetches the backend's own low-stock selection.
func (c *Client) ListLowStock(ctx context.Context) ([]inventory.Product, error) {
	var out []inventory.Product
	if err := c.do(ctx, "list low-stock products", http.MethodGet, "/products/low-stock", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, in inventory.ProductInput) (inventory.Product, error) {
	var out inventory.Product
	err := c.do(ctx, "create product", http.MethodPost, "/products", in, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in inventory.ProductInput) (inventory.Product, error) {
	var out inventory.Product
	err := c.do(ctx, "update product", http.MethodPut, "/products/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, "delete product", http.MethodDelete, "/products/"+id, nil, nil)
}

// CreateSale records one sold line item.
func (c *Client) CreateSale(ctx context.Context, req sales.CreateRequest) (sales.SaleLineItem, error) {
	var out sales.SaleLineItem
	err := c.do(ctx, "create sale", http.MethodPost, "/productsold", req, &out)
	return out, err
}

// ListSales fetches every sold line item, cancelled ones included.
func (c *Client) ListSales(ctx context.Context) ([]sales.SaleLineItem, error) {
	var out []sales.SaleLineItem
	if err := c.do(ctx, "list sales", http.MethodGet, "/productsold/admin", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelSale cancels one sold line item.
func (c *Client) CancelSale(ctx context.Context, productSoldID string) (sales.CancelledLineItem, error) {
	var out sales.CancelledLineItem
	body := map[string]string{"PRODUCT_SOLD_ID": productSoldID}
	err := c.do(ctx, "cancel sale", http.MethodPost, "/cancelledpurchase/cancel", body, &out)
	return out, err
}

func (c *Client) ListCancelled(ctx context.Context) ([]sales.CancelledLineItem, error) {
	var out []sales.CancelledLineItem
	if err := c.do(ctx, "list cancelled purchases", http.MethodGet, "/cancelledpurchase/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, result any) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}

	status := res.StatusCode()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case status >= http.StatusInternalServerError:
		return &NetworkError{Op: op, Err: fmt.Errorf("backend returned status %d", status)}
	case status >= http.StatusBadRequest:
		return &RejectedError{Op: op, Status: status, Message: errorMessage(res)}
	}
	return nil
}

func errorMessage(res *resty.Response) string {
	if p, ok := res.Error().(*errorPayload); ok && p != nil {
		if p.Error != "" {
			return p.Error
		}
		if p.Message != "" {
			return p.Message
		}
	}
	var p errorPayload
	if err := json.Unmarshal([]byte(res.String()), &p); err == nil {
		if p.Error != "" {
			return p.Error
		}
		return p.Message
	}
	return strings.TrimSpace(res.String())
}
