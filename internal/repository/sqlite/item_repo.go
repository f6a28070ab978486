package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/and161185/shoplist/internal/model"
	"github.com/and161185/shoplist/internal/repository"
)

// Compile-time check that *ItemRepo satisfies the ItemStore interface.
var _ repository.ItemStore = (*ItemRepo)(nil)

const (
	listByIndex = `
		SELECT id, name, CAST(is_shopped AS TEXT) AS is_shopped, order_index
		FROM shopping_items
		ORDER BY order_index ASC, id ASC`
	listByID = `
		SELECT id, name, CAST(is_shopped AS TEXT) AS is_shopped, order_index
		FROM shopping_items
		ORDER BY id ASC`

	// The flip follows DecodeShopped so textual legacy values toggle correctly.
	toggleShopped = `
		UPDATE shopping_items
		SET is_shopped = CASE WHEN lower(trim(CAST(is_shopped AS TEXT))) IN ('true', '1') THEN 'false' ELSE 'true' END
		WHERE id = ?`
)

// itemRow is the raw shape read back from shopping_items.
type itemRow struct {
	ID         int64
	Name       string
	IsShopped  string
	OrderIndex int32
}

// ItemRepo implements ItemStore using SQLite via GORM.
type ItemRepo struct {
	db    *gorm.DB
	order repository.OrderColumn
}

// NewItemRepo constructs an item repository listing by the given column.
func NewItemRepo(db *gorm.DB, order repository.OrderColumn) *ItemRepo {
	return &ItemRepo{db: db, order: order}
}

// ListAll returns all items ordered by the configured column.
func (r *ItemRepo) ListAll(ctx context.Context) ([]model.Item, error) {
	q := listByIndex
	if r.order == repository.ColumnID {
		q = listByID
	}

	var rows []itemRow
	if err := r.db.WithContext(ctx).Raw(q).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Item{
			ID:         row.ID,
			Name:       row.Name,
			IsShopped:  repository.DecodeShopped(row.IsShopped),
			OrderIndex: row.OrderIndex,
		})
	}
	return out, nil
}

// Insert appends a row and returns its id.
func (r *ItemRepo) Insert(ctx context.Context, it model.NewItem) (int64, error) {
	var id int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO shopping_items (name, is_shopped, order_index) VALUES (?, ?, ?) RETURNING id`,
		it.Name, repository.EncodeShopped(it.IsShopped), it.OrderIndex,
	).Scan(&id).Error
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Toggle flips is_shopped; an unknown id changes nothing and is not an error.
func (r *ItemRepo) Toggle(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Exec(toggleShopped, id).Error
}

// SetOrderIndex updates order_index of one row. An unknown id is a no-op.
func (r *ItemRepo) SetOrderIndex(ctx context.Context, id int64, idx int32) error {
	return r.db.WithContext(ctx).Exec(`UPDATE shopping_items SET order_index = ? WHERE id = ?`, idx, id).Error
}

// WithTx runs fn inside a transaction; GORM rolls back on error or panic.
func (r *ItemRepo) WithTx(ctx context.Context, fn func(tx repository.ItemTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&itemTx{db: tx})
	})
}

// Ping checks the connection.
func (r *ItemRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database.
func (r *ItemRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type itemTx struct{ db *gorm.DB }

func (t *itemTx) Positions(ctx context.Context, ids ...int64) ([]model.Position, error) {
	var out []model.Position
	err := t.db.WithContext(ctx).Raw(
		`SELECT id, order_index FROM shopping_items WHERE id IN ? ORDER BY id ASC`, ids,
	).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *itemTx) MoveID(ctx context.Context, from, to int64) error {
	res := t.db.WithContext(ctx).Exec(`UPDATE shopping_items SET id = ? WHERE id = ?`, to, from)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("move id %d -> %d: %d rows affected", from, to, res.RowsAffected)
	}
	return nil
}

func (t *itemTx) SetOrderIndex(ctx context.Context, id int64, idx int32) error {
	res := t.db.WithContext(ctx).Exec(`UPDATE shopping_items SET order_index = ? WHERE id = ?`, idx, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("set order_index of %d: %d rows affected", id, res.RowsAffected)
	}
	return nil
}
