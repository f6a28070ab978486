package ordering

import (
	"context"
	"fmt"

	"github.com/and161185/shoplist/internal/errs"
	"github.com/and161185/shoplist/internal/repository"
)

// Sentinel is the out-of-band key a row is parked on while its slot is reused.
// Legitimate ids are always positive, so it never collides with a live row.
const Sentinel int64 = -1

// Identity treats the primary key as the position.
type Identity struct{ store repository.ItemStore }

// NewIdentity constructs the primary-key engine.
func NewIdentity(store repository.ItemStore) *Identity { return &Identity{store: store} }

// Strategy returns StrategyIdentity.
func (e *Identity) Strategy() Strategy { return StrategyIdentity }

// Reorder is not available: there is no free position field to write.
func (e *Identity) Reorder(context.Context, int64, int32) error {
	return fmt.Errorf("reorder under %s strategy: %w", StrategyIdentity, errs.ErrUnsupported)
}

// Swap exchanges the ids of two rows. Primary-key uniqueness is checked per
// statement, so the rotation goes lo -> Sentinel, hi -> lo, Sentinel -> hi.
// All three moves share one transaction; any failure leaves the table untouched.
func (e *Identity) Swap(ctx context.Context, idA, idB int64) error {
	if idA == Sentinel || idB == Sentinel {
		return fmt.Errorf("swap %d/%d: reserved id: %w", idA, idB, errs.ErrValidation)
	}
	return e.store.WithTx(ctx, func(tx repository.ItemTx) error {
		pos, err := tx.Positions(ctx, idA, idB)
		if err != nil {
			return err
		}
		if len(pos) < 2 {
			return fmt.Errorf("swap %d/%d: %w", idA, idB, errs.ErrNotFound)
		}
		lo, hi := pos[0].ID, pos[1].ID

		if err := tx.MoveID(ctx, lo, Sentinel); err != nil {
			return err
		}
		if err := tx.MoveID(ctx, hi, lo); err != nil {
			return err
		}
		return tx.MoveID(ctx, Sentinel, hi)
	})
}
