// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/shoplist/internal/model"
)

// OrderColumn names the persisted column that defines list order.
type OrderColumn int

const (
	// ColumnOrderIndex sorts by order_index, ties broken by id.
	ColumnOrderIndex OrderColumn = iota
	// ColumnID sorts by id; the primary key is the position.
	ColumnID
)

// String returns the column name.
func (c OrderColumn) String() string {
	if c == ColumnID {
		return "id"
	}
	return "order_index"
}

// ItemStore provides durable access to the single item table.
//
// Implementations hold exactly one connection and are not safe for concurrent
// use; callers serialize access (see service.ItemServiceImpl).
type ItemStore interface {
	// ListAll returns every item ordered by the store's ordering column.
	ListAll(ctx context.Context) ([]model.Item, error)
	// Insert appends a row and returns the store-assigned id.
	Insert(ctx context.Context, it model.NewItem) (int64, error)
	// Toggle flips is_shopped in one statement. Missing ids are a no-op.
	Toggle(ctx context.Context, id int64) error
	// SetOrderIndex updates order_index of a single row in one statement.
	SetOrderIndex(ctx context.Context, id int64, idx int32) error
	// WithTx runs fn in a transaction, committing only if fn returns nil.
	WithTx(ctx context.Context, fn func(tx ItemTx) error) error
	// Ping checks that the connection is usable.
	Ping(ctx context.Context) error
	// Close releases the connection.
	Close() error
}

// ItemTx exposes the primitives available inside ItemStore.WithTx.
type ItemTx interface {
	// Positions returns the rows matching ids, ascending by id.
	Positions(ctx context.Context, ids ...int64) ([]model.Position, error)
	// MoveID changes a row's primary key. Exactly one row must move.
	MoveID(ctx context.Context, from, to int64) error
	// SetOrderIndex updates order_index of a single row. Exactly one row must change.
	SetOrderIndex(ctx context.Context, id int64, idx int32) error
}
