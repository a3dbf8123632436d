package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pharmacy_console/internal/backend"
	"pharmacy_console/internal/sales"
)

type fakeCreator struct {
	mu   sync.Mutex
	fail map[string]error
	reqs []sales.CreateRequest
}

func (f *fakeCreator) CreateSale(_ context.Context, req sales.CreateRequest) (sales.SaleLineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if err := f.fail[req.ProductID]; err != nil {
		return sales.SaleLineItem{}, err
	}
	return sales.SaleLineItem{ID: "sold-" + req.ProductID, ProductID: req.ProductID, TransactionID: req.TransactionID}, nil
}

func entries() []Entry {
	exp := now.AddDate(1, 0, 0)
	return []Entry{
		{Product: prod("a", "2.25", 10, exp), Quantity: 2, UnitPrice: prod("a", "2.25", 0, exp).UnitPrice},
		{Product: prod("b", "1.10", 10, exp), Quantity: 3, UnitPrice: prod("b", "1.10", 0, exp).UnitPrice},
		{Product: prod("c", "9.99", 10, exp), Quantity: 1, UnitPrice: prod("c", "9.99", 0, exp).UnitPrice},
	}
}

func TestSubmit_AllRecorded(t *testing.T) {
	api := &fakeCreator{}
	s := NewSubmitter(api, zaptest.NewLogger(t))

	res := s.Submit(context.Background(), "txn-1", entries())

	assert.True(t, res.OK())
	assert.NoError(t, res.Err())
	assert.Len(t, res.Recorded, 3)
	require.Len(t, api.reqs, 3)
	totals := map[string]string{}
	for _, r := range api.reqs {
		assert.Equal(t, "txn-1", r.TransactionID)
		totals[r.ProductID] = r.TotalAmount.StringFixed(2)
	}
	assert.Equal(t, map[string]string{"a": "4.50", "b": "3.30", "c": "9.99"}, totals)
	assert.Equal(t, "Order placed successfully: 3 items recorded.", res.Message())
}

func TestSubmit_PartialFailureKeepsRecordedItems(t *testing.T) {
	network := &backend.NetworkError{Op: "create sale", Err: errors.New("timeout")}
	api := &fakeCreator{fail: map[string]error{
		"b": network,
		"c": &backend.RejectedError{Op: "create sale", Status: 400, Message: "Insufficient stock"},
	}}
	s := NewSubmitter(api, zaptest.NewLogger(t))

	res := s.Submit(context.Background(), "txn-1", entries())

	assert.False(t, res.OK())
	assert.Len(t, api.reqs, 3, "every call is issued even when some fail")
	require.Len(t, res.Recorded, 1)
	assert.Equal(t, "a", res.Entries[0].Product.ID)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "1 of 3 items were recorded; retry failed items.", res.Message())

	err := res.Err()
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, network)
	assert.EqualError(t, err, "1 of 3 items were recorded; retry failed items")
}

func TestSubmit_AuthErrorPassesThrough(t *testing.T) {
	api := &fakeCreator{fail: map[string]error{"a": backend.ErrUnauthorized}}
	s := NewSubmitter(api, zaptest.NewLogger(t))

	res := s.Submit(context.Background(), "txn-1", entries())

	assert.ErrorIs(t, res.Err(), backend.ErrUnauthorized)
}

func TestSubmit_ProductGoneIsStockFailure(t *testing.T) {
	api := &fakeCreator{fail: map[string]error{"b": fmt.Errorf("create sale: %w", backend.ErrNotFound)}}
	s := NewSubmitter(api, zaptest.NewLogger(t))

	res := s.Submit(context.Background(), "txn-1", entries())

	require.Len(t, res.Failed, 1)
	var verr *ValidationError
	require.ErrorAs(t, res.Failed[0].Err, &verr)
	assert.ErrorIs(t, verr, ErrInsufficientStock)
	assert.Equal(t, StageBackend, verr.Stage)
	assert.Equal(t, []string{"b"}, verr.ProductIDs)
	assert.Len(t, res.Recorded, 2)
}
