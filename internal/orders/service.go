package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pharmacy_console/internal/inventory"
	"pharmacy_console/internal/sales"
)

// ErrProductNotFound is returned when staging a product the catalog does not have.
var ErrProductNotFound = errors.New("product not found")

// API is the part of the backend the order flow needs.
type API interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
	SaleCreator
}

// Service stages orders per session and commits them.
type Service struct {
	storage   Storage
	api       API
	submitter *Submitter
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// CommitOutcome is what a commit attempt produced. On full success Products
// is the catalog fetched after the commit; otherwise Remaining holds the
// entries still staged for retry.
type CommitOutcome struct {
	TransactionID string               `json:"transaction_id"`
	Recorded      []sales.SaleLineItem `json:"recorded"`
	Failed        []Failure            `json:"failed"`
	Message       string               `json:"message"`
	Products      []inventory.Product  `json:"products,omitempty"`
	Remaining     *Selection           `json:"remaining,omitempty"`
}

// NewService creates a new Service. now should return times in the
// console's timezone, since expiry is judged by calendar day.
func NewService(storage Storage, api API, logger *zap.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		storage:   storage,
		api:       api,
		submitter: NewSubmitter(api, logger),
		logger:    logger,
		now:       now,
		newID:     uuid.NewString,
	}
}

// Staged returns the session's selection, empty if nothing is staged.
func (s *Service) Staged(ctx context.Context, sessionID string) (*Selection, error) {
	sel, err := s.storage.Read(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return NewSelection(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read staged selection: %w", err)
	}
	return sel, nil
}

// Toggle stages or unstages a product from the current catalog.
func (s *Service) Toggle(ctx context.Context, sessionID, productID string) (*Selection, error) {
	sel, err := s.Staged(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var product inventory.Product
	if e, ok := sel.Entry(productID); ok {
		product = e.Product
	} else {
		products, err := s.api.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch products: %w", err)
		}
		found := false
		for _, p := range products {
			if p.ID == productID {
				product, found = p, true
				break
			}
		}
		if !found {
			return nil, ErrProductNotFound
		}
	}

	staged := sel.Toggle(product)
	if err := s.save(ctx, sel); err != nil {
		return nil, err
	}
	s.logger.Debug("staged selection toggled",
		zap.String("session_id", sessionID),
		zap.String("product_id", productID),
		zap.Bool("staged", staged),
	)
	return sel, nil
}

// SetQuantity changes the requested quantity of a staged product.
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, qty int) (*Selection, error) {
	sel, err := s.Staged(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sel.SetQuantity(productID, qty); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// Discard drops the session's selection. Nothing is sent to the backend.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	if err := s.storage.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to discard staged selection: %w", err)
	}
	return nil
}

// Commit rejects quantities below 1, re-fetches the catalog, runs the precheck against it, and submits
// every staged entry. A precheck failure returns a *ValidationError before
// any sale is created. On partial failure the recorded entries are unstaged,
// the failed ones stay staged under the same transaction id, and the
// returned error is a *PartialFailureError.
func (s *Service) Commit(ctx context.Context, sessionID string) (CommitOutcome, error) {
	sel, err := s.Staged(ctx, sessionID)
	if err != nil {
		return CommitOutcome{}, err
	}
	if sel.Empty() {
		return CommitOutcome{}, ErrEmptySelection
	}
	if err := sel.CheckQuantities(); err != nil {
		return CommitOutcome{}, err
	}

	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return CommitOutcome{}, fmt.Errorf("failed to fetch products: %w", err)
	}
	sel.Rebase(products)

	if err := Precheck(sel.Entries, s.now()); err != nil {
		s.logger.Info("order blocked by precheck", zap.String("session_id", sessionID), zap.Error(err))
		return CommitOutcome{}, err
	}

	if sel.TransactionID == "" {
		sel.TransactionID = s.newID()
	}
	res := s.submitter.Submit(ctx, sel.TransactionID, sel.Entries)
	out := CommitOutcome{
		TransactionID: res.TransactionID,
		Recorded:      res.Recorded,
		Failed:        res.Failed,
		Message:       res.Message(),
	}

	if !res.OK() {
		recorded := make([]string, 0, len(res.Entries))
		for _, e := range res.Entries {
			recorded = append(recorded, e.Product.ID)
		}
		sel.Remove(recorded...)
		if err := s.save(ctx, sel); err != nil {
			s.logger.Error("failed to keep failed items staged", zap.String("session_id", sessionID), zap.Error(err))
		}
		out.Remaining = sel
		s.logger.Warn("order partially recorded",
			zap.String("transaction_id", res.TransactionID),
			zap.Int("recorded", len(res.Recorded)),
			zap.Int("total", res.Total),
		)
		return out, res.Err()
	}

	if err := s.storage.Delete(ctx, sessionID); err != nil {
		s.logger.Error("failed to clear committed selection", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.logger.Info("order recorded",
		zap.String("transaction_id", res.TransactionID),
		zap.Int("items", res.Total),
		zap.String("total_amount", sel.Total().StringFixed(2)),
	)

	refreshed, err := s.api.ListProducts(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh products after commit", zap.Error(err))
		return out, nil
	}
	out.Products = refreshed
	return out, nil
}

func (s *Service) save(ctx context.Context, sel *Selection) error {
	sel.UpdatedAt = s.now()
	if err := s.storage.Set(ctx, sel); err != nil {
		return fmt.Errorf("failed to save staged selection: %w", err)
	}
	return nil
}
