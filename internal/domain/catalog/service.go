package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"partsledger/internal/core/apperror"
	appctx "partsledger/internal/core/context"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/events"
	"partsledger/internal/domain/ledger"
	"partsledger/pkg/logger"
)

// Service registers and looks up products.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	publisher events.Publisher
	txManager tx.Manager
}

// NewService creates a new catalog service.
func NewService(repo Repository, ledgerSvc *ledger.Service, publisher events.Publisher, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		publisher: publisher,
		txManager: txManager,
	}
}

// RegisterInput describes a new product.
type RegisterInput struct {
	Code                   string
	Name                   string
	Unit                   string
	MinStock               int64
	ReorderPoint           int64
	ReorderQuantity        int64
	OpeningBalanceQuantity int64
	OpeningUnitCost        types.Money
	OpeningBalanceDate     time.Time
}

// Register creates a product and writes its opening_balance movement in one
// transaction. The movement is informational; replay takes the opening balance
// from the product itself.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Product, error) {
	p := &Product{
		ID:                     id.New(),
		Code:                   strings.TrimSpace(in.Code),
		Name:                   strings.TrimSpace(in.Name),
		Unit:                   in.Unit,
		MinStock:               in.MinStock,
		ReorderPoint:           in.ReorderPoint,
		ReorderQuantity:        in.ReorderQuantity,
		OpeningBalanceQuantity: in.OpeningBalanceQuantity,
		OpeningUnitCost:        in.OpeningUnitCost,
		OpeningBalanceDate:     types.Day(in.OpeningBalanceDate),
		CreatedAt:              time.Now().UTC(),
		CreatedBy:              appctx.GetUserID(ctx),
	}
	if p.Unit == "" {
		p.Unit = "ea"
	}
	if in.OpeningBalanceDate.IsZero() {
		p.OpeningBalanceDate = types.Day(p.CreatedAt)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if _, _, err := s.ledger.Append(ctx, ledger.AppendInput{
			ProductID:     p.ID,
			EventType:     ledger.EventOpeningBalance,
			QuantityDelta: p.OpeningBalanceQuantity,
			UnitCost:      p.OpeningUnitCost,
			EffectiveDate: p.OpeningBalanceDate,
			SourceRef:     p.ID.String(),
		}); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, events.New(events.ProductRegistered, events.AggregateProduct, p.ID, map[string]any{
			"code":                     p.Code,
			"opening_balance_quantity": p.OpeningBalanceQuantity,
			"opening_unit_cost":        p.OpeningUnitCost.String(),
		}))
	})
	if err != nil {
		return nil, fmt.Errorf("register product: %w", err)
	}

	logger.Info(ctx, "product registered", "product_id", p.ID, "code", p.Code)
	return p, nil
}

// Get returns a product by ID.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetByID implements Reader.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns all products ordered by code.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Require returns the product or a validation error naming it as unknown.
// Used where an unknown product is bad input rather than a missing resource.
func Require(ctx context.Context, r Reader, productID id.ID) (*Product, error) {
	p, err := r.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("unknown product").WithDetail("product_id", productID)
		}
		return nil, err
	}
	return p, nil
}
