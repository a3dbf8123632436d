package orders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pharmacy_console/internal/backend"
	"pharmacy_console/internal/fanout"
	"pharmacy_console/internal/sales"
)

// SaleCreator records one sold line item on the backend.
type SaleCreator interface {
	CreateSale(ctx context.Context, req sales.CreateRequest) (sales.SaleLineItem, error)
}

// Failure is a staged entry the backend did not record.
type Failure struct {
	Entry Entry `json:"entry"`
	Err   error `json:"-"`
}

// Result is the settled outcome of submitting a batch.
type Result struct {
	TransactionID string
	Total         int
	Recorded      []sales.SaleLineItem
	Entries       []Entry
	Failed        []Failure
}

func (r Result) OK() bool {
	return len(r.Failed) == 0
}

// Message tells the admin what was recorded. Recorded items are not rolled
// back when others fail.
func (r Result) Message() string {
	if r.OK() {
		return fmt.Sprintf("Order placed successfully: %d items recorded.", r.Total)
	}
	return fmt.Sprintf("%d of %d items were recorded; retry failed items.", len(r.Recorded), r.Total)
}

// Err is nil on full success, otherwise a *PartialFailureError.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &PartialFailureError{Recorded: len(r.Recorded), Total: r.Total, Failed: r.Failed}
}

// PartialFailureError reports a batch where some creation calls failed.
// errors.Is sees through to each failure: backend.ErrUnauthorized,
// ErrInsufficientStock, or a *backend.NetworkError.
type PartialFailureError struct {
	Recorded int
	Total    int
	Failed   []Failure
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d items were recorded; retry failed items", e.Recorded, e.Total)
}

func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// Submitter records staged entries on the backend, one call per entry.
type Submitter struct {
	api    SaleCreator
	logger *zap.Logger
}

func NewSubmitter(api SaleCreator, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Submitter{api: api, logger: logger}
}

// Submit issues every creation call concurrently and waits for all of them.
// A backend rejection or 404 of an item becomes an INSUFFICIENT_STOCK
// ValidationError from the backend stage.
func (s *Submitter) Submit(ctx context.Context, transactionID string, entries []Entry) Result {
	created := make([]sales.SaleLineItem, len(entries))
	errs := fanout.Settle(ctx, len(entries), func(ctx context.Context, i int) error {
		e := entries[i]
		item, err := s.api.CreateSale(ctx, sales.CreateRequest{
			ProductID:     e.Product.ID,
			QuantitySold:  e.Quantity,
			Price:         e.UnitPrice,
			TotalAmount:   e.LineTotal(),
			TransactionID: transactionID,
		})
		if err != nil {
			return classify(e, err)
		}
		created[i] = item
		return nil
	})

	res := Result{TransactionID: transactionID, Total: len(entries)}
	for i, err := range errs {
		if err != nil {
			res.Failed = append(res.Failed, Failure{Entry: entries[i], Err: err})
			s.logger.Warn("sale line item not recorded",
				zap.String("transaction_id", transactionID),
				zap.String("product_id", entries[i].Product.ID),
				zap.Int("quantity", entries[i].Quantity),
				zap.Error(err),
			)
			continue
		}
		res.Recorded = append(res.Recorded, created[i])
		res.Entries = append(res.Entries, entries[i])
	}
	return res
}

// classify turns a backend refusal of one item into a stock verdict. A 404
// means the product is gone, which leaves no stock to sell either.
func classify(e Entry, err error) error {
	var rejected *backend.RejectedError
	if errors.As(err, &rejected) || errors.Is(err, backend.ErrNotFound) {
		return &ValidationError{Reason: ErrInsufficientStock, Stage: StageBackend, ProductIDs: []string{e.Product.ID}}
	}
	return err
}
