package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/shoplist/internal/model"
	"github.com/and161185/shoplist/internal/repository"
)

const (
	reListByIndex = `SELECT id, name, is_shopped::text, order_index FROM shopping_items ORDER BY order_index ASC, id ASC`
	reListByID    = `SELECT id, name, is_shopped::text, order_index FROM shopping_items ORDER BY id ASC`
	reInsert      = `INSERT INTO shopping_items \(name, is_shopped, order_index\) VALUES \(\$1, \$2::text::boolean, \$3\) RETURNING id`
	reToggle      = `UPDATE shopping_items SET is_shopped = NOT is_shopped WHERE id=\$1`
	reSetIndex    = `UPDATE shopping_items SET order_index=\$2 WHERE id=\$1`
	rePositions   = `SELECT id, order_index FROM shopping_items WHERE id = ANY\(\$1\) ORDER BY id ASC FOR UPDATE`
	reMoveID      = `UPDATE shopping_items SET id=\$2 WHERE id=\$1`
)

func newDB(t *testing.T) (*DB, pgxmock.PgxConnIface) {
	t.Helper()
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	return &DB{Conn: mock}, mock
}

func itemRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "is_shopped", "order_index"})
}

func TestItemRepo_ListAll_ByIndex_DecodesLeniently(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectQuery(reListByIndex).
		WillReturnRows(itemRows().
			AddRow(int64(3), "eggs", "TRUE", int32(0)).
			AddRow(int64(1), "milk", "false", int32(1)).
			AddRow(int64(2), "bread", "maybe", int32(2)))

	out, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Item{
		{ID: 3, Name: "eggs", IsShopped: true, OrderIndex: 0},
		{ID: 1, Name: "milk", IsShopped: false, OrderIndex: 1},
		{ID: 2, Name: "bread", IsShopped: false, OrderIndex: 2},
	}, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_ListAll_ByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectQuery(reListByID).
		WillReturnRows(itemRows().AddRow(int64(1), "milk", "1", int32(0)))

	out, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, out[0].IsShopped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_ListAll_EmptyIsNotNil(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectQuery(reListByID).WillReturnRows(itemRows())

	out, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestItemRepo_ListAll_QueryErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectQuery(reListByIndex).WillReturnError(errors.New("q-fail"))

	_, err := r.ListAll(context.Background())
	require.Error(t, err)
}

func TestItemRepo_ListAll_RowErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectQuery(reListByIndex).
		WillReturnRows(itemRows().
			AddRow(int64(1), "milk", "false", int32(0)).
			RowError(0, errors.New("row0")))

	_, err := r.ListAll(context.Background())
	require.Error(t, err)
}

func TestItemRepo_Insert_ReturnsID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectQuery(reInsert).
		WithArgs("milk", "true", int32(4)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := r.Insert(context.Background(), model.NewItem{Name: "milk", IsShopped: true, OrderIndex: 4})
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_Insert_Err(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectQuery(reInsert).
		WithArgs("milk", "false", int32(0)).
		WillReturnError(errors.New("insert-fail"))

	_, err := r.Insert(context.Background(), model.NewItem{Name: "milk"})
	require.Error(t, err)
}

func TestItemRepo_Toggle_MissingRowIsNoop(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectExec(reToggle).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(reToggle).
		WithArgs(int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, r.Toggle(context.Background(), 1))
	require.NoError(t, r.Toggle(context.Background(), 99))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_Toggle_ExecErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectExec(reToggle).WithArgs(int64(1)).WillReturnError(errors.New("upd-fail"))
	require.Error(t, r.Toggle(context.Background(), 1))
}

func TestItemRepo_SetOrderIndex(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectExec(reSetIndex).
		WithArgs(int64(3), int32(0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.SetOrderIndex(context.Background(), 3, 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_WithTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectBegin()
	mock.ExpectQuery(rePositions).
		WithArgs([]int64{2, 1}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_index"}).
			AddRow(int64(1), int32(0)).
			AddRow(int64(2), int32(0)))
	mock.ExpectCommit()

	var got []model.Position
	err := r.WithTx(context.Background(), func(tx repository.ItemTx) error {
		var err error
		got, err = tx.Positions(context.Background(), 2, 1)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, []model.Position{{ID: 1}, {ID: 2}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_WithTx_RollsBackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := r.WithTx(context.Background(), func(repository.ItemTx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_WithTx_RollsBackOnPanic(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.Panics(t, func() {
		_ = r.WithTx(context.Background(), func(repository.ItemTx) error { panic("oh no") })
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_WithTx_BeginErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectBegin().WillReturnError(errors.New("begin-fail"))

	called := false
	err := r.WithTx(context.Background(), func(repository.ItemTx) error { called = true; return nil })
	require.Error(t, err)
	require.False(t, called)
}

func TestItemRepo_WithTx_CommitErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("commit-fail"))

	err := r.WithTx(context.Background(), func(repository.ItemTx) error { return nil })
	require.Error(t, err)
}

func TestItemTx_MoveID_RequiresExactlyOneRow(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectBegin()
	mock.ExpectExec(reMoveID).
		WithArgs(int64(5), int64(-1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := r.WithTx(context.Background(), func(tx repository.ItemTx) error {
		return tx.MoveID(context.Background(), 5, -1)
	})
	require.ErrorContains(t, err, "0 rows affected")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemTx_SetOrderIndex_RequiresExactlyOneRow(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnOrderIndex)

	mock.ExpectBegin()
	mock.ExpectExec(reSetIndex).
		WithArgs(int64(5), int32(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := r.WithTx(context.Background(), func(tx repository.ItemTx) error {
		return tx.SetOrderIndex(context.Background(), 5, 2)
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemTx_Positions_QueryErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close(context.Background())
	r := NewItemRepo(db, repository.ColumnID)

	mock.ExpectBegin()
	mock.ExpectQuery(rePositions).
		WithArgs([]int64{1, 2}).
		WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	err := r.WithTx(context.Background(), func(tx repository.ItemTx) error {
		_, err := tx.Positions(context.Background(), 1, 2)
		return err
	})
	require.ErrorIs(t, err, pgx.ErrTxClosed)
}

func TestItemRepo_PingAndClose(t *testing.T) {
	db, mock := newDB(t)
	r := NewItemRepo(db, repository.ColumnID)

	require.NoError(t, r.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, r.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
