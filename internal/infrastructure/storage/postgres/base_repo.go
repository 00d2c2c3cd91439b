package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"partsledger/internal/core/apperror"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// BaseRepo provides the insert and select plumbing shared by the ledger tables.
// Column lists come from the entity's "db" tags.
type BaseRepo[T any] struct {
	txManager *TxManager
	tableName string
	entity    string
	columns   []string
}

// NewBaseRepo creates a base repository for table. entity names the row in NotFound errors.
func NewBaseRepo[T any](txManager *TxManager, tableName, entity string) BaseRepo[T] {
	return BaseRepo[T]{
		txManager: txManager,
		tableName: tableName,
		entity:    entity,
		columns:   ExtractDBColumns[T](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction in ctx or the pool.
func (r BaseRepo[T]) Querier(ctx context.Context) Querier {
	return r.txManager.GetQuerier(ctx)
}

// Table returns the table name.
func (r BaseRepo[T]) Table() string {
	return r.tableName
}

// Columns returns the select list.
func (r BaseRepo[T]) Columns() []string {
	return r.columns
}

// SelectBuilder starts a SELECT of every column.
func (r BaseRepo[T]) SelectBuilder() squirrel.SelectBuilder {
	return r.Builder().Select(r.columns...).From(r.tableName)
}

// InsertBuilder builds an INSERT of every tagged field of entity.
func (r BaseRepo[T]) InsertBuilder(entity *T) squirrel.InsertBuilder {
	return r.Builder().Insert(r.tableName).SetMap(StructToMap(entity))
}

// Insert writes entity. A unique violation becomes a Conflict.
func (r BaseRepo[T]) Insert(ctx context.Context, entity *T) error {
	sql, args, err := r.InsertBuilder(entity).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.translate(err, "insert")
	}
	return nil
}

// GetOne runs q and scans exactly one row. No rows becomes NotFound for key.
func (r BaseRepo[T]) GetOne(ctx context.Context, q squirrel.SelectBuilder, key any) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out T
	if err := pgxscan.Get(ctx, r.Querier(ctx), &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound(r.entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", r.entity, err)
	}
	return &out, nil
}

// SelectAll runs q and scans every row.
func (r BaseRepo[T]) SelectAll(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out []T
	if err := pgxscan.Select(ctx, r.Querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return out, nil
}

// ExecAffected runs a write and returns the affected row count.
func (r BaseRepo[T]) ExecAffected(ctx context.Context, q squirrel.Sqlizer, op string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, r.translate(err, op)
	}
	return tag.RowsAffected(), nil
}

func (r BaseRepo[T]) translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewConflict(r.entity+" already exists").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewValidation("referenced row does not exist").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, r.tableName, err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
