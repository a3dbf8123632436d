package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmacy_console/internal/backend"
	"pharmacy_console/internal/dashboard"
	"pharmacy_console/internal/orders"
	"pharmacy_console/internal/sales"
)

// handler implements the console's HTTP endpoints on top of its services.
type handler struct {
	catalog   Catalog
	dashboard *dashboard.Service
	orders    *orders.Service
	sales     *sales.Service
	logger    *zap.Logger
	now       func() time.Time
}

func newHandler(deps Dependencies) *handler {
	return &handler{
		catalog:   deps.Catalog,
		dashboard: deps.Dashboard,
		orders:    deps.Orders,
		sales:     deps.Sales,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// statusFor maps a service error to the HTTP status it is reported with.
// An auth failure anywhere wins, so the client re-authenticates.
func statusFor(err error) int {
	var (
		verr *orders.ValidationError
		nerr *backend.NetworkError
		rerr *backend.RejectedError
	)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &verr):
		return http.StatusConflict
	case errors.Is(err, backend.ErrNotFound),
		errors.Is(err, sales.ErrGroupNotFound),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrNotStaged):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInvalidQuantity), errors.Is(err, orders.ErrEmptySelection):
		return http.StatusBadRequest
	case errors.As(err, &nerr):
		return http.StatusBadGateway
	case errors.As(err, &rerr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Warn(msg, zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}

	body := gin.H{"error": err.Error()}
	var verr *orders.ValidationError
	if errors.As(err, &verr) {
		body["code"] = verr.Code()
		body["stage"] = verr.Stage
		body["product_ids"] = verr.ProductIDs
	}
	var cerr *sales.CancelError
	if errors.As(err, &cerr) {
		failed := make([]gin.H, 0, len(cerr.Failed))
		for _, f := range cerr.Failed {
			failed = append(failed, gin.H{"product_sold_id": f.ItemID, "error": f.Err.Error()})
		}
		body["key"] = cerr.Key
		body["failed"] = failed
	}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}
