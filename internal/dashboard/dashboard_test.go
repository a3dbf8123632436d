package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pharmacy_console/internal/backend"
	"pharmacy_console/internal/backend/backendtest"
	"pharmacy_console/internal/inventory"
	"pharmacy_console/internal/sales"
	"pharmacy_console/internal/session"
)

var (
	now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	utc = sales.NewFormatter(time.UTC, "")
)

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil, nil, now, sales.TimestampKey(utc), utc)

	assert.Zero(t, s.SoldQuantity)
	assert.Zero(t, s.LowStockCount)
	assert.Zero(t, s.ExpiredCount)
	assert.Zero(t, s.ActiveCount)
	assert.Empty(t, s.RecentGroups)
}

func TestAggregate_CountsAndGroups(t *testing.T) {
	products := []inventory.Product{
		{ID: "active-plenty", Quantity: 40, ExpirationDate: now.AddDate(0, 3, 0)},
		{ID: "active-low", Quantity: 5, ExpirationDate: now.AddDate(0, 3, 0)},
		{ID: "expired-low", Quantity: 1, ExpirationDate: now.AddDate(0, 0, -3)},
		{ID: "expired-today", Quantity: 20, ExpirationDate: now},
	}
	t1 := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 6, 14, 17, 30, 0, 0, time.UTC)
	items := []sales.SaleLineItem{
		{ID: "1", QuantitySold: 2, Timestamp: t1},
		{ID: "2", QuantitySold: 3, Timestamp: t1},
		{ID: "3", QuantitySold: 7, Timestamp: t2, Cancelled: true},
		{ID: "4", QuantitySold: 1, Timestamp: t2},
	}

	s := Aggregate(products, items, now, sales.TimestampKey(utc), utc)

	assert.Equal(t, 6, s.SoldQuantity)
	assert.Equal(t, 2, s.LowStockCount)
	assert.Equal(t, 2, s.ExpiredCount)
	assert.Equal(t, 2, s.ActiveCount)
	require.Len(t, s.RecentGroups, 2)
	assert.Len(t, s.RecentGroups[0].Items, 2)
	require.Len(t, s.RecentGroups[1].Items, 1)
	assert.Equal(t, "4", s.RecentGroups[1].Items[0].ID)
}

func TestService_LoadRefetchesEveryTime(t *testing.T) {
	fake := backendtest.New()
	defer fake.Close()
	logger := zaptest.NewLogger(t)
	client := backend.New(fake.URL(), 5*time.Second, logger)
	defer client.Close()
	ctx := session.WithSession(context.Background(), session.Session{Token: backendtest.Token})
	svc := NewService(client, logger, sales.TransactionKey(utc), utc, func() time.Time { return now })

	fake.AddProduct(inventory.Product{Name: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(1), ExpirationDate: now.AddDate(0, 1, 0)})
	first, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ActiveCount)
	assert.Equal(t, 1, first.LowStockCount)

	fake.AddSale(sales.SaleLineItem{QuantitySold: 4, Timestamp: now, TransactionID: "t1"})
	second, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, second.SoldQuantity)
	require.Len(t, second.RecentGroups, 1)
	assert.Equal(t, "txn:t1", second.RecentGroups[0].Key)
	assert.Equal(t, 2, fake.Calls("GET /productsold/admin"))
}

func TestService_LoadFailsWithoutSession(t *testing.T) {
	fake := backendtest.New()
	defer fake.Close()
	client := backend.New(fake.URL(), 5*time.Second, zaptest.NewLogger(t))
	defer client.Close()
	svc := NewService(client, zaptest.NewLogger(t), sales.TimestampKey(utc), utc, nil)

	_, err := svc.Load(context.Background())

	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}
