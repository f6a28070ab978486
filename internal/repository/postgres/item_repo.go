package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/shoplist/internal/model"
	"github.com/and161185/shoplist/internal/repository"
)

var _ repository.ItemStore = (*ItemRepo)(nil)

const (
	listByIndex = `
SELECT id, name, is_shopped::text, order_index
FROM shopping_items
ORDER BY order_index ASC, id ASC`
	listByID = `
SELECT id, name, is_shopped::text, order_index
FROM shopping_items
ORDER BY id ASC`
	insertItem     = `INSERT INTO shopping_items (name, is_shopped, order_index) VALUES ($1, $2::text::boolean, $3) RETURNING id`
	toggleShopped  = `UPDATE shopping_items SET is_shopped = NOT is_shopped WHERE id=$1`
	setOrderIndex  = `UPDATE shopping_items SET order_index=$2 WHERE id=$1`
	selectPosition = `SELECT id, order_index FROM shopping_items WHERE id = ANY($1) ORDER BY id ASC FOR UPDATE`
	moveID         = `UPDATE shopping_items SET id=$2 WHERE id=$1`
)

// ItemRepo implements ItemStore using PostgreSQL.
type ItemRepo struct {
	db    *DB
	order repository.OrderColumn
}

// NewItemRepo constructs an item repository listing by the given column.
func NewItemRepo(db *DB, order repository.OrderColumn) *ItemRepo {
	return &ItemRepo{db: db, order: order}
}

// ListAll returns all items ordered by the configured column.
func (r *ItemRepo) ListAll(ctx context.Context) ([]model.Item, error) {
	q := listByIndex
	if r.order == repository.ColumnID {
		q = listByID
	}
	rows, err := r.db.Conn.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		var (
			it      model.Item
			shopped string
		)
		if err = rows.Scan(&it.ID, &it.Name, &shopped, &it.OrderIndex); err != nil {
			return nil, err
		}
		it.IsShopped = repository.DecodeShopped(shopped)
		out = append(out, it)
	}
	return out, rows.Err()
}

// Insert appends a row and returns its id.
func (r *ItemRepo) Insert(ctx context.Context, it model.NewItem) (int64, error) {
	var id int64
	err := r.db.Conn.QueryRow(ctx, insertItem, it.Name, repository.EncodeShopped(it.IsShopped), it.OrderIndex).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Toggle flips is_shopped; an unknown id changes nothing and is not an error.
func (r *ItemRepo) Toggle(ctx context.Context, id int64) error {
	_, err := r.db.Conn.Exec(ctx, toggleShopped, id)
	return err
}

// SetOrderIndex updates order_index of one row. An unknown id is a no-op.
func (r *ItemRepo) SetOrderIndex(ctx context.Context, id int64, idx int32) error {
	_, err := r.db.Conn.Exec(ctx, setOrderIndex, id, idx)
	return err
}

// WithTx runs fn inside a transaction. Commit happens only when fn returns nil;
// errors and panics roll back.
func (r *ItemRepo) WithTx(ctx context.Context, fn func(tx repository.ItemTx) error) (err error) {
	tx, err := r.db.Conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	return fn(&itemTx{tx: tx})
}

// Ping checks the connection.
func (r *ItemRepo) Ping(ctx context.Context) error { return r.db.Conn.Ping(ctx) }

// Close closes the connection.
func (r *ItemRepo) Close() error { return r.db.Close() }

type itemTx struct{ tx pgx.Tx }

func (t *itemTx) Positions(ctx context.Context, ids ...int64) ([]model.Position, error) {
	rows, err := t.tx.Query(ctx, selectPosition, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Position
	for rows.Next() {
		var p model.Position
		if err = rows.Scan(&p.ID, &p.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *itemTx) MoveID(ctx context.Context, from, to int64) error {
	tag, err := t.tx.Exec(ctx, moveID, from, to)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n != 1 {
		return fmt.Errorf("move id %d -> %d: %d rows affected", from, to, n)
	}
	return nil
}

func (t *itemTx) SetOrderIndex(ctx context.Context, id int64, idx int32) error {
	tag, err := t.tx.Exec(ctx, setOrderIndex, id, idx)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n != 1 {
		return fmt.Errorf("set order_index of %d: %d rows affected", id, n)
	}
	return nil
}
