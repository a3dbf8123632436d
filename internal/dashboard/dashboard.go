package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharmacy_console/internal/fanout"
	"pharmacy_console/internal/inventory"
	"pharmacy_console/internal/sales"
)

// Summary is the dashboard's derived view of the raw records.
type Summary struct {
	SoldQuantity  int           `json:"sold_quantity"`
	LowStockCount int           `json:"low_stock_count"`
	ExpiredCount  int           `json:"expired_count"`
	ActiveCount   int           `json:"active_count"`
	RecentGroups  []sales.Group `json:"recent_groups"`
}

// Aggregate recomputes the summary from the complete record set.
func Aggregate(products []inventory.Product, items []sales.SaleLineItem, now time.Time, key sales.KeyFunc, f sales.Formatter) Summary {
	part := inventory.Classify(products, now)
	return Summary{
		SoldQuantity:  sales.SoldQuantity(items),
		LowStockCount: len(part.LowStock),
		ExpiredCount:  len(part.Expired),
		ActiveCount:   len(part.Active),
		RecentGroups:  sales.GroupBy(sales.Visible(items), key, f),
	}
}

// Source is the part of the backend the dashboard reads.
type Source interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
	ListSales(ctx context.Context) ([]sales.SaleLineItem, error)
}

// Service loads dashboards. There is no cache: every Load refetches.
type Service struct {
	api       Source
	logger    *zap.Logger
	key       sales.KeyFunc
	formatter sales.Formatter
	now       func() time.Time
}

func NewService(api Source, logger *zap.Logger, key sales.KeyFunc, f sales.Formatter, now func() time.Time) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{api: api, logger: logger, key: key, formatter: f, now: now}
}

// Load fetches products and sales concurrently and aggregates them.
func (s *Service) Load(ctx context.Context) (Summary, error) {
	var (
		products []inventory.Product
		items    []sales.SaleLineItem
	)
	errs := fanout.Settle(ctx, 2, func(ctx context.Context, i int) error {
		var err error
		if i == 0 {
			products, err = s.api.ListProducts(ctx)
		} else {
			items, err = s.api.ListSales(ctx)
		}
		return err
	})
	if err := fanout.Join(errs); err != nil {
		s.logger.Error("failed to load dashboard records", zap.Error(err))
		return Summary{}, fmt.Errorf("failed to load dashboard: %w", err)
	}

	summary := Aggregate(products, items, s.now(), s.key, s.formatter)
	s.logger.Debug("dashboard aggregated",
		zap.Int("products", len(products)),
		zap.Int("sale_items", len(items)),
		zap.Int("groups", len(summary.RecentGroups)),
	)
	return summary, nil
}
