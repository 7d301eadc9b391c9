package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// WhereClause represents a WHERE condition
type WhereClause struct {
	Column string
	Value  any
	IsRaw  bool
	RawSQL string
	Args   []any
}

// OrderClause represents an ORDER BY clause
type OrderClause struct {
	Column    string
	Direction OrderDirection
}

// OrderDirection represents sort direction
type OrderDirection string

const (
	ASC  OrderDirection = "ASC"
	DESC OrderDirection = "DESC"
)

// QueryBuilder provides a fluent, type-safe API for building read queries on
// top of bun. Mutations go through explicit transactions in the services.
type QueryBuilder[T any] struct {
	db *DB

	wheres    []*WhereClause
	orders    []*OrderClause
	limitVal  *int
	offsetVal *int
	forUpdate bool
	timeout   time.Duration
}

// Query creates a new QueryBuilder instance
func Query[T any](db *DB) *QueryBuilder[T] {
	return &QueryBuilder[T]{
		db:     db,
		wheres: []*WhereClause{},
		orders: []*OrderClause{},
	}
}

// Where adds an equality condition
func (q *QueryBuilder[T]) Where(column string, value any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{Column: column, Value: value})
	return q
}

// WhereRaw adds a raw SQL condition with positional args
func (q *QueryBuilder[T]) WhereRaw(rawSQL string, args ...any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{IsRaw: true, RawSQL: rawSQL, Args: args})
	return q
}

// WhereIn adds an IN condition
func (q *QueryBuilder[T]) WhereIn(column string, values []any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{IsRaw: true, RawSQL: column + " IN (?)", Args: []any{bun.In(values)}})
	return q
}

// OrderBy adds an ORDER BY clause
func (q *QueryBuilder[T]) OrderBy(column string, direction OrderDirection) *QueryBuilder[T] {
	q.orders = append(q.orders, &OrderClause{Column: column, Direction: direction})
	return q
}

// Limit sets the maximum number of rows
func (q *QueryBuilder[T]) Limit(limit int) *QueryBuilder[T] {
	q.limitVal = &limit
	return q
}

// Offset sets the number of rows to skip
func (q *QueryBuilder[T]) Offset(offset int) *QueryBuilder[T] {
	q.offsetVal = &offset
	return q
}

// ForUpdate locks the selected rows for the duration of the surrounding
// transaction. Only meaningful inside a transaction.
func (q *QueryBuilder[T]) ForUpdate() *QueryBuilder[T] {
	q.forUpdate = true
	return q
}

// Timeout sets a per-query timeout
func (q *QueryBuilder[T]) Timeout(d time.Duration) *QueryBuilder[T] {
	q.timeout = d
	return q
}

func (q *QueryBuilder[T]) apply(sel *bun.SelectQuery) *bun.SelectQuery {
	for _, w := range q.wheres {
		if w.IsRaw {
			sel = sel.Where(w.RawSQL, w.Args...)
		} else {
			sel = sel.Where("? = ?", bun.Ident(w.Column), w.Value)
		}
	}
	for _, o := range q.orders {
		sel = sel.OrderExpr("? ?", bun.Ident(o.Column), bun.Safe(o.Direction))
	}
	if q.limitVal != nil {
		sel = sel.Limit(*q.limitVal)
	}
	if q.offsetVal != nil {
		sel = sel.Offset(*q.offsetVal)
	}
	if q.forUpdate {
		sel = sel.For("UPDATE")
	}
	return sel
}

func (q *QueryBuilder[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout > 0 {
		return context.WithTimeout(ctx, q.timeout)
	}
	return ctx, func() {}
}

// All executes the query and returns all matching records with automatic retry
func (q *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	start := time.Now()
	var data []T

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	err := WithRetry(ctx, func() error {
		data = nil // Reset on retry
		return q.apply(q.db.NewSelect().Model(&data)).Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute select query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// First executes the query and returns the first matching record with
// automatic retry. Returns (nil, nil) when no row matches.
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	start := time.Now()
	var data T

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	err := WithRetry(ctx, func() error {
		return q.apply(q.db.NewSelect().Model(&data)).Limit(1).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute first query: %w (took %v)", err, time.Since(start))
	}

	return &data, nil
}

// Count executes the query and returns the count of matching records with automatic retry
func (q *QueryBuilder[T]) Count(ctx context.Context) (int, error) {
	start := time.Now()
	var count int

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	err := WithRetry(ctx, func() error {
		var model []T
		var err error
		count, err = q.apply(q.db.NewSelect().Model(&model)).Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w (took %v)", err, time.Since(start))
	}

	return count, nil
}

// Exists checks if any records match the query
func (q *QueryBuilder[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert inserts a new record and returns it with automatic retry
func (q *QueryBuilder[T]) Insert(ctx context.Context, data *T) (*T, error) {
	start := time.Now()

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	err := WithRetry(ctx, func() error {
		_, err := q.db.NewInsert().Model(data).Returning("*").Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute insert query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}
