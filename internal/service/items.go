// Package service contains the application service over the shopping list.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/and161185/shoplist/internal/errs"
	"github.com/and161185/shoplist/internal/model"
	"github.com/and161185/shoplist/internal/ordering"
	"github.com/and161185/shoplist/internal/repository"
)

// DefaultLockWait bounds how long a request waits for the store.
const DefaultLockWait = 2 * time.Second

// ItemService defines operations over the shopping list.
type ItemService interface {
	// List returns every item in list order.
	List(ctx context.Context) ([]model.Item, error)
	// Create inserts a new item and returns its id.
	Create(ctx context.Context, it model.NewItem) (int64, error)
	// Toggle flips is_shopped. An unknown id is a no-op.
	Toggle(ctx context.Context, id int64) error
	// Reorder sets the position of one item.
	Reorder(ctx context.Context, id int64, newIndex int32) error
	// Swap exchanges the positions of two items atomically.
	Swap(ctx context.Context, idA, idB int64) error
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
	// Strategy reports the configured ordering strategy.
	Strategy() ordering.Strategy
}

type ItemServiceImpl struct {
	store    repository.ItemStore
	engine   ordering.Engine
	gate     *semaphore.Weighted
	lockWait time.Duration
}

var _ ItemService = (*ItemServiceImpl)(nil)

// NewItemService constructs ItemService. All store access is serialized;
// a caller waits at most lockWait for its turn.
func NewItemService(store repository.ItemStore, engine ordering.Engine, lockWait time.Duration) *ItemServiceImpl {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &ItemServiceImpl{
		store:    store,
		engine:   engine,
		gate:     semaphore.NewWeighted(1),
		lockWait: lockWait,
	}
}

// exclusive runs fn while holding the single-writer gate.
// Once the gate is held fn is not cancellable by the caller.
func (s *ItemServiceImpl) exclusive(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	if err := s.gate.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", op, errs.ErrBusy)
		}
		return fmt.Errorf("%s: acquire store: %w: %w", op, errs.ErrStorage, err)
	}
	defer s.gate.Release(1)

	return classify(op, fn(context.WithoutCancel(ctx)))
}

// classify keeps domain sentinels and folds everything else into ErrStorage.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrUnsupported),
		errors.Is(err, errs.ErrStorage):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, errs.ErrStorage, err)
	}
}

// List returns all items ordered by the active strategy's column, ties by id.
func (s *ItemServiceImpl) List(ctx context.Context) ([]model.Item, error) {
	var out []model.Item
	err := s.exclusive(ctx, "list", func(ctx context.Context) error {
		var err error
		out, err = s.store.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create validates the name and inserts the item. Leading and trailing
// whitespace are significant once the name passes validation.
func (s *ItemServiceImpl) Create(ctx context.Context, it model.NewItem) (int64, error) {
	if strings.TrimSpace(it.Name) == "" {
		return 0, fmt.Errorf("create: empty name: %w", errs.ErrValidation)
	}
	var id int64
	err := s.exclusive(ctx, "create", func(ctx context.Context) error {
		var err error
		id, err = s.store.Insert(ctx, it)
		return err
	})
	return id, err
}

// Toggle flips is_shopped of a single item.
func (s *ItemServiceImpl) Toggle(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("toggle: bad id %d: %w", id, errs.ErrValidation)
	}
	return s.exclusive(ctx, "toggle", func(ctx context.Context) error {
		return s.store.Toggle(ctx, id)
	})
}

// Reorder moves one item to newIndex.
func (s *ItemServiceImpl) Reorder(ctx context.Context, id int64, newIndex int32) error {
	if id <= 0 {
		return fmt.Errorf("reorder: bad id %d: %w", id, errs.ErrValidation)
	}
	return s.exclusive(ctx, "reorder", func(ctx context.Context) error {
		return s.engine.Reorder(ctx, id, newIndex)
	})
}

// Swap exchanges the positions of idA and idB.
func (s *ItemServiceImpl) Swap(ctx context.Context, idA, idB int64) error {
	if idA <= 0 || idB <= 0 {
		return fmt.Errorf("swap: bad ids %d/%d: %w", idA, idB, errs.ErrValidation)
	}
	if idA == idB {
		return fmt.Errorf("swap: same id %d: %w", idA, errs.ErrValidation)
	}
	return s.exclusive(ctx, "swap", func(ctx context.Context) error {
		return s.engine.Swap(ctx, idA, idB)
	})
}

// Ping checks the store connection.
func (s *ItemServiceImpl) Ping(ctx context.Context) error {
	return s.exclusive(ctx, "ping", s.store.Ping)
}

// Strategy returns the engine's strategy.
func (s *ItemServiceImpl) Strategy() ordering.Strategy { return s.engine.Strategy() }
