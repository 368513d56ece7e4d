// Package person_repo provides PostgreSQL implementations of the student and
// employee repositories.
package person_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"langschool/internal/core/apperror"
	"langschool/internal/core/id"
	"langschool/internal/domain/people"
	"langschool/internal/infrastructure/storage/postgres"
)

// BaseRepo implements people.Repository for one table whose rows carry an
// issued number column.
type BaseRepo[T people.Numbered] struct {
	txm        *postgres.TxManager
	entity     string
	tableName  string
	numberCol  string
	selectCols []string
	newFn      func() T
}

// NewBaseRepo creates a repository over tableName.
func NewBaseRepo[T people.Numbered](
	txm *postgres.TxManager,
	entity string,
	tableName string,
	numberCol string,
	selectCols []string,
	newFn func() T,
) *BaseRepo[T] {
	return &BaseRepo[T]{
		txm:        txm,
		entity:     entity,
		tableName:  tableName,
		numberCol:  numberCol,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

func (r *BaseRepo[T]) insertQuery(record T) squirrel.InsertBuilder {
	data := postgres.StructToMap(record)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return r.Builder().Insert(r.tableName).SetMap(filtered)
}

// Create inserts record. A taken email or number becomes DUPLICATE_ENTRY.
func (r *BaseRepo[T]) Create(ctx context.Context, record T) error {
	sql, args, err := r.insertQuery(record).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return r.duplicate(err, record)
		}
		return apperror.NewDatabase("insert "+r.tableName, err)
	}
	return nil
}

func (r *BaseRepo[T]) duplicate(err error, record T) error {
	if strings.Contains(postgres.ConstraintName(err), r.numberCol) {
		number := ""
		if n := record.Number(); n != nil {
			number = *n
		}
		return apperror.NewDuplicate(r.entity, r.numberCol, number).WithCause(err)
	}
	data := postgres.StructToMap(record)
	email, _ := data["email"].(string)
	return apperror.NewDuplicate(r.entity, "email", email).WithCause(err)
}

func (r *BaseRepo[T]) updateQuery(record T) squirrel.UpdateBuilder {
	data := postgres.StructToMap(record, "id", "created_at", r.numberCol)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return r.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Where(squirrel.Eq{"id": record.GetID()})
}

// Update saves every column except id, the number and created_at.
func (r *BaseRepo[T]) Update(ctx context.Context, record T) error {
	sql, args, err := r.updateQuery(record).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return r.duplicate(err, record)
		}
		return apperror.NewDatabase("update "+r.tableName, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entity, record.GetID().String())
	}
	return nil
}

// GetByID retrieves a record by ID.
func (r *BaseRepo[T]) GetByID(ctx context.Context, recordID id.ID) (T, error) {
	record := r.newFn()

	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"id": recordID}).
		Limit(1).
		ToSql()
	if err != nil {
		return record, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), record, sql, args...); err != nil {
		if postgres.IsNoRows(err) {
			return record, apperror.NewNotFound(r.entity, recordID.String())
		}
		return record, apperror.NewDatabase("get "+r.tableName, err)
	}
	return record, nil
}

func (r *BaseRepo[T]) numbersQuery() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.numberCol).
		From(r.tableName).
		Where(squirrel.NotEq{r.numberCol: nil})
}

// ListNumbers returns every assigned number.
func (r *BaseRepo[T]) ListNumbers(ctx context.Context) ([]string, error) {
	sql, args, err := r.numbersQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var numbers []string
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &numbers, sql, args...); err != nil {
		return nil, apperror.NewDatabase("list "+r.numberCol, err)
	}
	return numbers, nil
}

func (r *BaseRepo[T]) unnumberedQuery(limit uint64) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{r.numberCol: nil}).
		OrderBy("created_at", "id").
		Limit(limit)
}

// ListUnnumbered returns up to limit records without a number, oldest first.
func (r *BaseRepo[T]) ListUnnumbered(ctx context.Context, limit uint64) ([]T, error) {
	sql, args, err := r.unnumberedQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewDatabase("list unnumbered "+r.tableName, err)
	}
	defer rows.Close()

	scanner := pgxscan.NewRowScanner(rows)
	var records []T
	for rows.Next() {
		record := r.newFn()
		if err := scanner.Scan(record); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.tableName, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabase("list unnumbered "+r.tableName, err)
	}
	return records, nil
}

func (r *BaseRepo[T]) assignQuery(recordID id.ID, number string) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.tableName).
		Set(r.numberCol, number).
		Where(squirrel.Eq{"id": recordID}).
		Where(squirrel.Eq{r.numberCol: nil})
}

// AssignNumber sets the number of a record that has none. A missing record,
// or one already numbered, is NOT_FOUND.
func (r *BaseRepo[T]) AssignNumber(ctx context.Context, recordID id.ID, number string) error {
	sql, args, err := r.assignQuery(recordID, number).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate(r.entity, r.numberCol, number).WithCause(err)
		}
		return apperror.NewDatabase("assign "+r.numberCol, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entity, recordID.String()).
			WithDetail("reason", "missing or already numbered")
	}
	return nil
}
