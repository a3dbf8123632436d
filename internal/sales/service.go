package sales

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pharmacy_console/internal/fanout"
)

// API is the part of the backend the sales views need.
type API interface {
	ListSales(ctx context.Context) ([]SaleLineItem, error)
	ListCancelled(ctx context.Context) ([]CancelledLineItem, error)
	Canceller
}

// Service provides the sold and cancelled views and group cancellation.
type Service struct {
	api         API
	coordinator *Coordinator
	logger      *zap.Logger
	key         KeyFunc
	formatter   Formatter
}

// NewService creates a new Service. key decides which line items form one
// transaction; TransactionKey(f) unless legacy timestamp grouping is wanted.
func NewService(api API, logger *zap.Logger, key KeyFunc, f Formatter) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if key == nil {
		key = TransactionKey(f)
	}

	return &Service{
		api:         api,
		coordinator: NewCoordinator(api, logger),
		logger:      logger,
		key:         key,
		formatter:   f,
	}
}

// View loads the sold view. A non-empty query narrows the sold line items
// before they are grouped; the cancelled set is left whole.
func (s *Service) View(ctx context.Context, query string) (*SoldView, error) {
	var (
		items     []SaleLineItem
		cancelled []CancelledLineItem
	)
	errs := fanout.Settle(ctx, 2, func(ctx context.Context, i int) error {
		var err error
		if i == 0 {
			items, err = s.api.ListSales(ctx)
		} else {
			cancelled, err = s.api.ListCancelled(ctx)
		}
		return err
	})
	if err := fanout.Join(errs); err != nil {
		s.logger.Error("failed to load sales", zap.Error(err))
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	if query != "" {
		items = FilterItems(items, query, s.formatter)
	}
	return NewSoldView(items, cancelled, s.key, s.formatter), nil
}

// Cancel cancels the group with the given key against a freshly loaded view
// and returns the view afterwards. When any member fails the returned view
// still shows the whole group as sold.
func (s *Service) Cancel(ctx context.Context, key string) (*SoldView, error) {
	view, err := s.View(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := s.coordinator.CancelGroup(ctx, view, key); err != nil {
		return view, err
	}
	return view, nil
}

// Cancelled loads cancelled purchases grouped by cancellation time.
func (s *Service) Cancelled(ctx context.Context, query string) ([]CancelledGroup, error) {
	items, err := s.api.ListCancelled(ctx)
	if err != nil {
		s.logger.Error("failed to load cancelled purchases", zap.Error(err))
		return nil, fmt.Errorf("failed to load cancelled purchases: %w", err)
	}
	if query != "" {
		items = FilterCancelled(items, query, s.formatter)
	}
	return GroupCancelled(items, s.formatter), nil
}

// Formatter returns the formatter views are rendered with.
func (s *Service) Formatter() Formatter {
	return s.formatter
}
