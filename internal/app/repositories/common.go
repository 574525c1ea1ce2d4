package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/dberrors"
	"github.com/parivartan/hub/internal/pkg/logger"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// storageError classifies a driver error. Missing tables or columns become
// ErrSchemaMissing, everything else is a backend failure.
func storageError(op string, err error) error {
	if dberrors.IsSchemaMissing(err) {
		return &apperrors.CustomError{
			Err:     apperrors.ErrSchemaMissing,
			Message: fmt.Sprintf("storage is not set up (%s)", op),
			Cause:   err,
		}
	}
	logger.Error().Err(err).Str("op", op).Msg("Storage request failed")
	return apperrors.NewBackendError(fmt.Sprintf("error %s", op), err)
}

// selectAll runs a select and scans every row with scan.
func selectAll[T any](ctx context.Context, q querier, query squirrel.SelectBuilder, op string, scan func(pgx.Row, *T) error) ([]T, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var item T
		if err := scan(rows, &item); err != nil {
			return nil, storageError(op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return items, nil
}

// queryOne runs a statement expected to return a single row (a select or an
// insert/update with RETURNING). pgx.ErrNoRows becomes a not found error naming what.
func queryOne[T any](ctx context.Context, q querier, query squirrel.Sqlizer, op, what string, scan func(pgx.Row, *T) error) (*T, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}

	var item T
	if err := scan(q.QueryRow(ctx, sql, args...), &item); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError(what + " not found")
		}
		return nil, storageError(op, err)
	}
	return &item, nil
}

// execDelete removes by id. A missing row counts as already deleted.
func execDelete(ctx context.Context, q querier, sb squirrel.StatementBuilderType, table, id string) error {
	sql, args, err := sb.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete %s query: %w", table, err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return storageError("deleting from "+table, err)
	}
	return nil
}
