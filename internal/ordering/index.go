package ordering

import (
	"context"
	"fmt"

	"github.com/and161185/shoplist/internal/errs"
	"github.com/and161185/shoplist/internal/repository"
)

// Index orders items by an explicit order_index. Values need not be unique.
type Index struct{ store repository.ItemStore }

// NewIndex constructs the order_index engine.
func NewIndex(store repository.ItemStore) *Index { return &Index{store: store} }

// Strategy returns StrategyIndex.
func (e *Index) Strategy() Strategy { return StrategyIndex }

// Reorder writes newIndex in a single statement; no transaction is needed
// because exactly one row changes. An unknown id is a no-op.
func (e *Index) Reorder(ctx context.Context, id int64, newIndex int32) error {
	return e.store.SetOrderIndex(ctx, id, newIndex)
}

// Swap exchanges the order_index values of two items in one transaction.
func (e *Index) Swap(ctx context.Context, idA, idB int64) error {
	return e.store.WithTx(ctx, func(tx repository.ItemTx) error {
		pos, err := tx.Positions(ctx, idA, idB)
		if err != nil {
			return err
		}
		if len(pos) < 2 {
			return fmt.Errorf("swap %d/%d: %w", idA, idB, errs.ErrNotFound)
		}
		lo, hi := pos[0], pos[1]
		if err := tx.SetOrderIndex(ctx, lo.ID, hi.OrderIndex); err != nil {
			return err
		}
		return tx.SetOrderIndex(ctx, hi.ID, lo.OrderIndex)
	})
}
