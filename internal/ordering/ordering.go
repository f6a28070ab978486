// Package ordering implements the two reordering strategies over an ItemStore.
//
// A deployment uses exactly one strategy. Index keeps an explicit order_index
// column; Identity treats the primary key as the position and swaps keys
// through a reserved sentinel inside one transaction.
package ordering

import (
	"context"
	"fmt"

	"github.com/and161185/shoplist/internal/repository"
)

// Strategy names a reordering strategy.
type Strategy string

const (
	// StrategyIndex orders by an explicit order_index column.
	StrategyIndex Strategy = "index"
	// StrategyIdentity orders by primary key.
	StrategyIdentity Strategy = "identity"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyIndex, StrategyIdentity:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown ordering strategy %q: must be one of index, identity", s)
	}
}

// Column is the persisted column a store must list by under this strategy.
func (s Strategy) Column() repository.OrderColumn {
	if s == StrategyIdentity {
		return repository.ColumnID
	}
	return repository.ColumnOrderIndex
}

// Engine reorders items in a store.
type Engine interface {
	// Strategy reports which strategy the engine implements.
	Strategy() Strategy
	// Reorder sets the position of one item.
	Reorder(ctx context.Context, id int64, newIndex int32) error
	// Swap exchanges the positions of two items atomically.
	Swap(ctx context.Context, idA, idB int64) error
}

// New builds the engine for strategy s over store.
func New(s Strategy, store repository.ItemStore) (Engine, error) {
	switch s {
	case StrategyIndex:
		return NewIndex(store), nil
	case StrategyIdentity:
		return NewIdentity(store), nil
	default:
		return nil, fmt.Errorf("unknown ordering strategy %q", string(s))
	}
}
