package app

import (
	"context"
	"fmt"

	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/internal/infrastructure/storage/postgres/catalog_repo"
	"partsledger/internal/infrastructure/storage/postgres/document_repo"
	"partsledger/internal/infrastructure/storage/postgres/register_repo"
	"partsledger/pkg/numerator"
)

// PostgresBackend adapts a PostgreSQL pool. Events go to the outbox and
// decisions to sys_audit inside the caller's transaction.
func PostgresBackend(pool *postgres.Pool) (Backend, error) {
	txm := postgres.NewTxManager(pool)

	auditSvc, err := postgres.NewAuditService(txm)
	if err != nil {
		return Backend{}, fmt.Errorf("create audit service: %w", err)
	}

	return Backend{
		TxManager:   txm,
		Products:    catalog_repo.NewProductRepo(txm),
		Batches:     document_repo.NewBatchRepo(txm),
		Allocations: document_repo.NewAllocationRepo(txm),
		Movements:   register_repo.NewMovementRepo(txm),
		Jobs:        document_repo.NewJobRepo(txm),
		Numerator: numerator.NewFromContext(func(ctx context.Context) numerator.Querier {
			return txm.GetQuerier(ctx)
		}),
		Publisher: postgres.NewOutboxPublisher(txm),
		Audit:     auditSvc,
	}, nil
}
