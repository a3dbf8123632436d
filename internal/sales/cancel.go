package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharmacy_console/internal/fanout"
)

// ErrGroupNotFound is returned when no visible group has the requested key.
var ErrGroupNotFound = errors.New("sale group not found")

// Canceller cancels one sold line item on the backend.
type Canceller interface {
	CancelSale(ctx context.Context, productSoldID string) (CancelledLineItem, error)
}

// SoldView is the console's view of sales: the visible (non-cancelled) line
// items, their groups, and the cancelled snapshots.
type SoldView struct {
	Sold      []SaleLineItem      `json:"sold"`
	Groups    []Group             `json:"groups"`
	Cancelled []CancelledLineItem `json:"cancelled"`

	key       KeyFunc
	formatter Formatter
}

// NewSoldView builds a view from raw records. Cancelled line items in items
// are dropped from the sold set.
func NewSoldView(items []SaleLineItem, cancelled []CancelledLineItem, key KeyFunc, f Formatter) *SoldView {
	v := &SoldView{
		Sold:      Visible(items),
		Cancelled: append([]CancelledLineItem(nil), cancelled...),
		key:       key,
		formatter: f,
	}
	v.regroup()
	return v
}

func (v *SoldView) regroup() {
	v.Groups = GroupBy(v.Sold, v.key, v.formatter)
}

// ItemFailure is one member whose cancellation failed.
type ItemFailure struct {
	ItemID string
	Err    error
}

// CancelError reports a group cancellation where at least one member failed.
// The view is left untouched when it is returned.
type CancelError struct {
	Key    string
	Total  int
	Failed []ItemFailure
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("cancel group %q: %d of %d items failed", e.Key, len(e.Failed), e.Total)
}

func (e *CancelError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// Coordinator cancels whole groups as a unit.
type Coordinator struct {
	api    Canceller
	logger *zap.Logger
	now    func() time.Time
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(api Canceller, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Coordinator{api: api, logger: logger, now: time.Now}
}

// CancelGroup cancels every member of the group with the given key. Members
// are cancelled concurrently; only when all of them succeed is the group
// removed from the sold set and its members appended to the cancelled set.
// On any failure the view is not modified and a *CancelError is returned;
// the whole group has to be retried.
func (c *Coordinator) CancelGroup(ctx context.Context, view *SoldView, key string) error {
	group, ok := Find(view.Groups, key)
	if !ok {
		return ErrGroupNotFound
	}
	members := group.Items

	snapshots := make([]CancelledLineItem, len(members))
	errs := fanout.Settle(ctx, len(members), func(ctx context.Context, i int) error {
		snap, err := c.api.CancelSale(ctx, members[i].ID)
		if err != nil {
			return err
		}
		snapshots[i] = c.snapshot(members[i], snap)
		return nil
	})

	if failed := fanout.Failed(errs); len(failed) > 0 {
		cerr := &CancelError{Key: key, Total: len(members)}
		for _, i := range failed {
			cerr.Failed = append(cerr.Failed, ItemFailure{ItemID: members[i].ID, Err: errs[i]})
			c.logger.Warn("failed to cancel sold item",
				zap.String("group_key", key),
				zap.String("product_sold_id", members[i].ID),
				zap.Error(errs[i]),
			)
		}
		return cerr
	}

	cancelledIDs := make(map[string]struct{}, len(members))
	for _, m := range members {
		cancelledIDs[m.ID] = struct{}{}
	}
	remaining := make([]SaleLineItem, 0, len(view.Sold))
	for _, item := range view.Sold {
		if _, gone := cancelledIDs[item.ID]; !gone {
			remaining = append(remaining, item)
		}
	}
	view.Sold = remaining
	view.Cancelled = append(view.Cancelled, snapshots...)
	view.regroup()

	c.logger.Info("sale group cancelled", zap.String("group_key", key), zap.Int("items", len(members)))
	return nil
}

// snapshot fills in whatever the backend left out of its cancellation reply.
func (c *Coordinator) snapshot(item SaleLineItem, reply CancelledLineItem) CancelledLineItem {
	if reply.ID == "" {
		reply.SaleLineItem = item
	}
	reply.Cancelled = true
	if reply.ProductSoldID == "" {
		reply.ProductSoldID = item.ID
	}
	if reply.CancelledAt.IsZero() {
		reply.CancelledAt = c.now()
	}
	return reply
}
